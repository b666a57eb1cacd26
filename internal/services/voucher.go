package services

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/nusalink/backend/internal/models"
	"gorm.io/gorm"
)

// VoucherService generates prepaid code batches and redeems codes into
// saldo. Redemption marks the voucher used and credits the balance in one
// transaction so a crash cannot burn a code without paying it out.
type VoucherService struct {
	db    *gorm.DB
	saldo *SaldoService
}

func NewVoucherService(db *gorm.DB, saldo *SaldoService) *VoucherService {
	return &VoucherService{db: db, saldo: saldo}
}

// voucher codes skip 0/O and 1/I to survive being read over the phone
const voucherCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newVoucherCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(voucherCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = voucherCharset[n.Int64()]
	}
	return string(code), nil
}

// GenerateBatch creates count vouchers under one batch id. On a code
// collision with an existing voucher the code is regenerated; after a few
// attempts the batch fails rather than looping.
func (s *VoucherService) GenerateBatch(count int, profile string, price float64, createdBy uint) (string, []models.Voucher, error) {
	if count <= 0 || count > 10000 {
		return "", nil, fmt.Errorf("batch size %d out of range", count)
	}
	if price <= 0 {
		return "", nil, fmt.Errorf("voucher price must be positive, got %.2f", price)
	}

	batchID := uuid.NewString()
	vouchers := make([]models.Voucher, 0, count)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < count; i++ {
			var created *models.Voucher
			for attempt := 0; attempt < 5; attempt++ {
				code, err := newVoucherCode(12)
				if err != nil {
					return err
				}
				v := models.Voucher{
					Code:      code,
					Profile:   profile,
					Price:     price,
					Status:    models.VoucherStatusAvailable,
					BatchID:   batchID,
					CreatedBy: createdBy,
				}
				if err := tx.Create(&v).Error; err != nil {
					if isDuplicateKey(err) {
						continue
					}
					return err
				}
				created = &v
				break
			}
			if created == nil {
				return fmt.Errorf("could not generate a unique code after 5 attempts")
			}
			vouchers = append(vouchers, *created)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	log.Printf("Voucher: generated batch %s with %d code(s) at %.2f", batchID, count, price)
	return batchID, vouchers, nil
}

// Redeem burns an available voucher and credits its price to the customer.
// A used or unknown code is a structured refusal, not an error.
func (s *VoucherService) Redeem(code string, customerID, operatorID uint) PaymentResult {
	result := PaymentResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var voucher models.Voucher
		if err := tx.Where("code = ?", code).First(&voucher).Error; err != nil {
			result.Message = "voucher not found"
			return err
		}
		if voucher.Status != models.VoucherStatusAvailable {
			result.Message = "voucher already used"
			return fmt.Errorf("voucher %s already used", code)
		}

		now := time.Now().UTC()
		// Guard the flip with the previous status so two concurrent redeems
		// of the same code cannot both win.
		res := tx.Model(&models.Voucher{}).
			Where("id = ? AND status = ?", voucher.ID, models.VoucherStatusAvailable).
			Updates(map[string]interface{}{
				"status":  models.VoucherStatusUsed,
				"used_by": customerID,
				"used_at": &now,
			})
		if res.Error != nil {
			result.Message = "could not mark voucher used"
			return res.Error
		}
		if res.RowsAffected == 0 {
			result.Message = "voucher already used"
			return fmt.Errorf("voucher %s raced to used", code)
		}

		txn, err := s.saldo.creditInTx(tx, customerID, voucher.Price, "voucher",
			fmt.Sprintf("Voucher %s redeemed", voucher.Code), "voucher", &voucher.ID, operatorID)
		if err != nil {
			result.Message = err.Error()
			return err
		}

		result.Success = true
		result.Message = "redeemed"
		result.TransactionID = txn.ID
		result.NewSaldo = txn.SaldoAfter
		return nil
	})
	if err != nil {
		log.Printf("Voucher: redeem %s for customer %d refused: %v", code, customerID, err)
	}
	return result
}
