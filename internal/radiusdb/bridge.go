package radiusdb

import (
	"fmt"
	"log"

	"github.com/nusalink/backend/internal/models"
	"gorm.io/gorm"
)

// Bridge synchronizes subscriber credentials and reply attributes into the
// FreeRADIUS schema. All writes are best-effort: a RADIUS outage is logged
// and must never abort a larger provisioning operation; consistency is
// restored by the next idempotent re-sync.
type Bridge struct {
	db *gorm.DB
}

func NewBridge(db *gorm.DB) *Bridge {
	return &Bridge{db: db}
}

// SyncUser upserts the cleartext password into radcheck and each attribute
// into radreply, keyed by (username, attribute). Returns false on failure.
func (b *Bridge) SyncUser(username, password string, attributes map[string]string) bool {
	if b.db == nil {
		log.Printf("RADIUS: no database connection, skipping sync for %s", username)
		return false
	}

	if err := b.upsertCheck(username, "Cleartext-Password", password); err != nil {
		log.Printf("RADIUS: failed to sync password for %s: %v", username, err)
		return false
	}

	ok := true
	for attr, value := range attributes {
		if err := b.upsertReply(username, attr, value); err != nil {
			log.Printf("RADIUS: failed to sync %s for %s: %v", attr, username, err)
			ok = false
		}
	}
	return ok
}

// AssignGroup maps the user to a RADIUS group (plan group), replacing any
// existing membership.
func (b *Bridge) AssignGroup(username, group string) bool {
	if b.db == nil {
		return false
	}

	err := b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).Delete(&models.RadUserGroup{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.RadUserGroup{
			Username:  username,
			GroupName: group,
			Priority:  1,
		}).Error
	})
	if err != nil {
		log.Printf("RADIUS: failed to assign group %s to %s: %v", group, username, err)
		return false
	}
	return true
}

// RemoveUser deletes all rows for the username across radcheck, radreply
// and radusergroup. Returns false if any table could not be cleaned.
func (b *Bridge) RemoveUser(username string) bool {
	if b.db == nil {
		log.Printf("RADIUS: no database connection, skipping removal of %s", username)
		return false
	}

	ok := true
	if err := b.db.Where("username = ?", username).Delete(&models.RadCheck{}).Error; err != nil {
		log.Printf("RADIUS: failed to remove radcheck rows for %s: %v", username, err)
		ok = false
	}
	if err := b.db.Where("username = ?", username).Delete(&models.RadReply{}).Error; err != nil {
		log.Printf("RADIUS: failed to remove radreply rows for %s: %v", username, err)
		ok = false
	}
	if err := b.db.Where("username = ?", username).Delete(&models.RadUserGroup{}).Error; err != nil {
		log.Printf("RADIUS: failed to remove radusergroup rows for %s: %v", username, err)
		ok = false
	}
	return ok
}

// upsertCheck writes one radcheck row keyed by (username, attribute)
func (b *Bridge) upsertCheck(username, attribute, value string) error {
	var row models.RadCheck
	err := b.db.Where("username = ? AND attribute = ?", username, attribute).First(&row).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		return b.db.Create(&models.RadCheck{
			Username:  username,
			Attribute: attribute,
			Op:        ":=",
			Value:     value,
		}).Error
	case err != nil:
		return fmt.Errorf("lookup radcheck: %w", err)
	default:
		if row.Value == value && row.Op == ":=" {
			return nil
		}
		row.Value = value
		row.Op = ":="
		return b.db.Save(&row).Error
	}
}

// upsertReply writes one radreply row keyed by (username, attribute)
func (b *Bridge) upsertReply(username, attribute, value string) error {
	var row models.RadReply
	err := b.db.Where("username = ? AND attribute = ?", username, attribute).First(&row).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		return b.db.Create(&models.RadReply{
			Username:  username,
			Attribute: attribute,
			Op:        ":=",
			Value:     value,
		}).Error
	case err != nil:
		return fmt.Errorf("lookup radreply: %w", err)
	default:
		if row.Value == value {
			return nil
		}
		row.Value = value
		return b.db.Save(&row).Error
	}
}
