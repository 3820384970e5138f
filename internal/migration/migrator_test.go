package migration

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/database"
)

func newMigrator(t *testing.T) (*Migrator, *database.Connections) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	cfg := config.Config{Database: config.Database{Driver: "sqlite", WriterDSN: dsn, ReaderDSN: dsn}}

	lc := fxtest.NewLifecycle(t)
	conns, err := database.New(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	lc.RequireStart()
	t.Cleanup(lc.RequireStop)

	m, err := New(cfg, conns, zap.NewNop())
	require.NoError(t, err)
	return m, conns
}

func TestUpDownRoundTrip(t *testing.T) {
	m, conns := newMigrator(t)
	ctx := context.Background()

	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx), "re-running is a no-op")

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "00001_create_core_tables.sql", statuses[0].File)
	assert.True(t, statuses[1].Applied)

	var n int
	require.NoError(t, conns.Reader.NewRaw(`SELECT COUNT(*) FROM orders`).Scan(ctx, &n))

	require.NoError(t, m.Down(ctx, 1, false))
	version, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, m.Down(ctx, 0, true))
	version, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, m.Down(ctx, 3, false), "nothing left to roll back")
}

func TestDialectFor(t *testing.T) {
	for driver, set := range map[string]string{"postgres": "postgres", "pg": "postgres", "mysql": "mysql", "sqlite3": "sqlite"} {
		_, got, err := dialectFor(driver)
		require.NoError(t, err)
		assert.Equal(t, set, got)
	}
	_, _, err := dialectFor("oracle")
	assert.Error(t, err)
}
