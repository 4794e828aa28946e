package directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditctl/internal/api"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("users")
	require.NoError(t, err)
	assert.Equal(t, KindUsers, k)
	assert.Equal(t, "users.json", k.FileName())

	_, err = ParseKind("mailboxes")
	assert.Error(t, err)
}

func TestStore_SaveLoadUsers(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "exports"))

	page := &api.UserPage{Limit: 10, Results: []api.User{{ID: "o:u:t:1", DisplayName: "Alice", Type: "User"}}}
	require.NoError(t, store.SaveUsers(page))

	loaded, err := store.LoadUsers()
	require.NoError(t, err)
	assert.Equal(t, page, loaded)

	data, err := os.ReadFile(store.Path(KindUsers))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"results\": [", "export is pretty-printed for hand editing")
}

func TestStore_SaveLoadGroups(t *testing.T) {
	store := NewStore(t.TempDir())

	page := &api.GroupPage{Results: []api.Group{{ID: "g1", DisplayName: "Admins", Type: "Security"}}}
	require.NoError(t, store.SaveGroups(page))

	loaded, err := store.LoadGroups()
	require.NoError(t, err)
	assert.Equal(t, page, loaded)
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.LoadGroups()
	require.Error(t, err)
	assert.ErrorIs(t, err, &NotExportedError{})
	assert.Contains(t, err.Error(), "auditctl directory export --groups")
}

func TestStore_LoadMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte("[oops"), 0644))

	_, err := NewStore(dir).LoadUsers()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestStore_List(t *testing.T) {
	store := NewStore(t.TempDir())

	kinds, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, kinds)

	require.NoError(t, store.SaveGroups(&api.GroupPage{}))
	kinds, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindGroups}, kinds)
}

func TestNewStore_DefaultsToWorkingDirectory(t *testing.T) {
	assert.Equal(t, "users.json", filepath.Clean(NewStore("").Path(KindUsers)))
}
