package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository/sqlite"
)

func sqliteEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "cli.db")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("AUTH_BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStaffAdd(t *testing.T) {
	path := sqliteEnv(t)

	out, err := execute(t, "staff", "add", "--id", "42", "--name", "Anna", "--password", "pw")
	require.NoError(t, err)
	assert.Equal(t, "user 42 (Anna) is now staff\n", out)

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	defer store.Close()
	u, err := store.Users().GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, u.Role)
	assert.NotNil(t, u.PasswordHash)
}

func TestStaffAdd_RequiresID(t *testing.T) {
	sqliteEnv(t)

	_, err := execute(t, "staff", "add", "--name", "Anna")
	require.Error(t, err)
}

func TestStats_JSONEmpty(t *testing.T) {
	sqliteEnv(t)

	out, err := execute(t, "--format", "json", "stats")
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.EqualValues(t, 0, summary["retained"])
	assert.EqualValues(t, 0, summary["profit"])
}

func TestMigrate_SQLite(t *testing.T) {
	path := sqliteEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, path)
}

func TestRoot_RejectsUnknownFormat(t *testing.T) {
	sqliteEnv(t)

	_, err := execute(t, "--format", "xml", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
