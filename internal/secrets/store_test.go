package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := &Store{Dir: filepath.Join(t.TempDir(), "cfg")}

	_, err := s.Token("http://127.0.0.1:8080")
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.SaveToken("http://127.0.0.1:8080/", "abc123"))
	tok, err := s.Token("HTTP://127.0.0.1:8080")
	require.NoError(t, err)
	require.Equal(t, "abc123", tok)

	data, err := os.ReadFile(filepath.Join(s.Dir, fileName))
	require.NoError(t, err)
	require.False(t, strings.Contains(string(data), "abc123"))

	info, err := os.Stat(filepath.Join(s.Dir, fileName))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Forget("http://127.0.0.1:8080"))
	require.NoError(t, s.Forget("http://127.0.0.1:8080"))
	_, err = s.Token("http://127.0.0.1:8080")
	require.ErrorIs(t, err, ErrNoToken)
}

func TestSaveTokenRequiresServer(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	require.Error(t, s.SaveToken("  ", "x"))
}
