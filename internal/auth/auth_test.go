package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsql/internal/bsqlerr"
)

func TestCreateUserThenVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.bin")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.CreateUser("alice", "hunter2"))
	assert.True(t, s.Verify("alice", "hunter2"))
	assert.False(t, s.Verify("alice", "wrong"))
	assert.False(t, s.Verify("bob", "hunter2"))
}

func TestCreateUserCaseInsensitiveDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.bin")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.CreateUser("Alice", "p"))
	err = s.CreateUser("alice", "p2")
	require.Error(t, err)
	var catErr *bsqlerr.CatalogError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, "AlreadyExists", catErr.Kind)
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.bin")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateUser("carol", "secret"))

	s2, err := Open(path)
	require.NoError(t, err)
	assert.True(t, s2.Verify("carol", "secret"))
}

func TestDifferentUsersGetDifferentSalts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.bin")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateUser("dave", "samepassword"))
	require.NoError(t, s.CreateUser("erin", "samepassword"))

	dave := s.byName["dave"]
	erin := s.byName["erin"]
	assert.NotEqual(t, dave.hash, erin.hash)
}
