package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// recordSchemaState stores which migration set the database was built from,
// so a running server can be matched against its schema.
func recordSchemaState(ctx context.Context, db *sql.DB, schemaVersion string, checksum string) error {
	if db == nil {
		return errors.New("schema state requires database handle")
	}

	version := strings.TrimSpace(schemaVersion)
	if version == "" {
		return errors.New("schema version is required")
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO schema_state (id, schema_version, checksum, applied_at)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET schema_version = EXCLUDED.schema_version,
		    checksum = EXCLUDED.checksum,
		    applied_at = EXCLUDED.applied_at
	`, version, nullIfEmpty(checksum), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record schema state: %w", err)
	}
	return nil
}

func nullIfEmpty(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

var ErrSchemaOutdated = errors.New("database schema does not match this build; run the migrate command")

// CheckSchemaState fails when the recorded schema was built from a different
// migration set than the one embedded in this binary.
func CheckSchemaState(ctx context.Context, db *sql.DB) error {
	want, err := Checksum()
	if err != nil {
		return err
	}
	var version string
	var checksum sql.NullString
	err = db.QueryRowContext(ctx, `SELECT schema_version, checksum FROM schema_state WHERE id = TRUE`).Scan(&version, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSchemaOutdated
	}
	if err != nil {
		return fmt.Errorf("read schema state: %w", err)
	}
	if !checksum.Valid || checksum.String != want {
		return fmt.Errorf("%w (recorded version %s)", ErrSchemaOutdated, version)
	}
	return nil
}
