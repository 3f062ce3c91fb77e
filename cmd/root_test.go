package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "kiosk-service", cmd.Use)

	for _, name := range []string{"serve", "migrate", "seed", "cleanup"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	db := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, db)
	assert.Equal(t, "", db.DefValue)

	serve, _, _ := cmd.Find([]string{"serve"})
	seed := serve.Flags().Lookup("seed")
	require.NotNil(t, seed)
	assert.Equal(t, "false", seed.DefValue)
}

func TestMigrateSeedCleanup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "kiosk.db")

	out, err := execute(t, "migrate", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 001_catalog")
	assert.Contains(t, out, "Applied 003_devices")

	out, err = execute(t, "migrate", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Database is up to date")

	out, err = execute(t, "seed", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Seed complete")

	out, err = execute(t, "cleanup", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 completed or cancelled orders")
}

func TestInvalidConfigFails(t *testing.T) {
	t.Setenv("ORDER_STATUS_POLICY", "lenient")
	_, err := execute(t, "migrate", "--db", filepath.Join(t.TempDir(), "kiosk.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORDER_STATUS_POLICY")
}
