package migration

import (
	"testing"

	"github.com/railzwaylabs/clubsettle/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, uint(1))
}

func TestChecksumIsStable(t *testing.T) {
	a, err := Checksum()
	require.NoError(t, err)
	b, err := Checksum()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
}

func TestParseVersion(t *testing.T) {
	v, ok := parseVersion("000012_add_things.up.sql")
	assert.True(t, ok)
	assert.Equal(t, uint(12), v)

	_, ok = parseVersion("init.up.sql")
	assert.False(t, ok)
}

func TestAutoMigrateCreatesEveryTable(t *testing.T) {
	conn := dbtest.Open(t)
	require.NoError(t, AutoMigrate(conn))

	for _, table := range []string{
		"organizations", "players", "rakeback_rates", "imports", "settlements",
		"player_weekly_metrics", "agent_weekly_metrics", "bank_transactions",
		"ledger_entries", "carry_forwards", "audit_logs",
	} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}
