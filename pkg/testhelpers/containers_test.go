package testhelpers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFixtureFS_ContainsStoreSchema(t *testing.T) {
	entries, err := fixtureFS.ReadDir("fixtures")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_sample_store.up.sql")
	assert.Contains(t, names, "000001_sample_store.down.sql")
}

func TestGetTestDB_SampleStore(t *testing.T) {
	testDB := GetTestDB(t)

	db, err := sql.Open("pgx", testDB.ConnStr)
	require.NoError(t, err)
	defer db.Close()

	var casablanca int
	err = db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM customers WHERE city = 'Casablanca'").Scan(&casablanca)
	require.NoError(t, err)
	assert.Equal(t, 2, casablanca)

	// Re-applying is a no-op.
	require.NoError(t, ApplyFixtures(db, zaptest.NewLogger(t)))
}
