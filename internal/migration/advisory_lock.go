package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/railzwaylabs/clubsettle/pkg/db"
)

var migrateLockKey = db.AdvisoryKey("clubsettle", "migrate")

const lockPollInterval = 500 * time.Millisecond

// acquireMigrateLock holds a session-level advisory lock so two deploys never
// migrate at once. It waits for a concurrent migrator until ctx expires.
func acquireMigrateLock(ctx context.Context, conn *sql.DB) (func() error, error) {
	if conn == nil {
		return nil, errors.New("advisory lock requires database handle")
	}
	// session locks belong to a connection, so pin one
	c, err := conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("pin connection: %w", err)
	}

	for {
		var locked bool
		if err := c.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", migrateLockKey).Scan(&locked); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("acquire advisory lock: %w", err)
		}
		if locked {
			break
		}
		select {
		case <-ctx.Done():
			_ = c.Close()
			return nil, fmt.Errorf("another migration holds the lock: %w", ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}

	return func() error {
		defer c.Close()
		var released bool
		if err := c.QueryRowContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrateLockKey).Scan(&released); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		if !released {
			return errors.New("advisory lock was not held by this session")
		}
		return nil
	}, nil
}
