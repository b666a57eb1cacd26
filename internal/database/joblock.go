package database

import (
	"context"
	"log"
	"time"
)

// JobLock is a Redis SET-NX lease keyed by job name. Scheduled batch jobs
// (invoice generation, overdue suspension) take a lease before processing so
// overlapping runs cannot double-process the candidate set.
type JobLock struct {
	name string
	ttl  time.Duration
}

// NewJobLock creates a lock for the named job. The TTL should cover the
// longest expected run so a crashed holder cannot wedge the job forever.
func NewJobLock(name string, ttl time.Duration) *JobLock {
	return &JobLock{name: name, ttl: ttl}
}

// Acquire takes the lease. Returns false if another run holds it.
func (l *JobLock) Acquire(ctx context.Context) bool {
	if Redis == nil {
		// No Redis means single-instance deployment; run unguarded.
		return true
	}
	ok, err := Redis.SetNX(ctx, "joblock:"+l.name, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		log.Printf("JobLock: Redis error acquiring %s: %v - running unguarded", l.name, err)
		return true
	}
	return ok
}

// Release drops the lease early so the next scheduled run is not blocked
// for the remainder of the TTL.
func (l *JobLock) Release(ctx context.Context) {
	if Redis == nil {
		return
	}
	if err := Redis.Del(ctx, "joblock:"+l.name).Err(); err != nil {
		log.Printf("JobLock: Redis error releasing %s: %v", l.name, err)
	}
}
