package db

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"gorm.io/gorm"
)

// LockKey serializes transactions that share the same key until tx ends.
// Postgres takes a transaction-scoped advisory lock; sqlite already allows a
// single writer at a time so nothing is needed there.
func LockKey(ctx context.Context, tx *gorm.DB, parts ...string) error {
	if !IsPostgres(tx) {
		return nil
	}
	key := AdvisoryKey(parts...)
	if err := tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", key).Error; err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	return nil
}

// AdvisoryKey hashes parts into a signed 64-bit advisory lock key.
func AdvisoryKey(parts ...string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(parts, "\x00")))
	return int64(h.Sum64())
}
