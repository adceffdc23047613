package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.plans")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeCatalog(t, `
# default catalog
free;FREE;Free;EUR
flat;PRO;Pro;EUR;20

per_seat;TEAM;Team;EUR;10;5
`)

	plans, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "PRO", plans[1].Code())
}

func TestLoadFileReportsLineNumber(t *testing.T) {
	path := writeCatalog(t, "free;FREE;Free;EUR\nflat;BROKEN;Pro;EUR\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.plans"))
	assert.Error(t, err)
}
