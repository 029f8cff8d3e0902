package credstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCred = domain.Credential{
	Token: "jwt", Role: domain.RoleUser, UserID: 3, Email: "a@b.c",
}

func TestFile(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "credentials.json")
		f := NewFile(path)

		require.NoError(t, f.SaveCredential(testCred))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		got, ok, err := NewFile(path).LoadCredential()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, testCred, got)
	})

	t.Run("StoredKeys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		require.NoError(t, NewFile(path).SaveCredential(testCred))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"authToken":"jwt","userRole":"user","userId":3,"email":"a@b.c"}`,
			string(data))
	})

	t.Run("MissingFile", func(t *testing.T) {
		f := NewFile(filepath.Join(t.TempDir(), "none.json"))

		_, ok, err := f.LoadCredential()
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, f.ClearCredential())
	})

	t.Run("Clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		f := NewFile(path)
		require.NoError(t, f.SaveCredential(testCred))

		require.NoError(t, f.ClearCredential())

		_, ok, err := f.LoadCredential()
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoFileExists(t, path)
	})

	t.Run("UnknownRoleIsIgnored", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"authToken":"jwt","userRole":"root"}`), 0o600))

		_, ok, err := NewFile(path).LoadCredential()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))

		_, ok, err := NewFile(path).LoadCredential()
		require.Error(t, err)
		assert.False(t, ok)
	})
}

func TestMemory(t *testing.T) {
	m := NewMemory()

	_, ok, err := m.LoadCredential()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.SaveCredential(testCred))
	got, ok, err := m.LoadCredential()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testCred, got)

	require.NoError(t, m.ClearCredential())
	_, ok, _ = m.LoadCredential()
	assert.False(t, ok)
}
