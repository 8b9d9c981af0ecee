package namelist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidName(t *testing.T) {
	for _, name := range []string{"i.ivanov", "A.Stepanova", "x.y"} {
		assert.True(t, ValidName(name), name)
	}
	for _, name := range []string{"ivan.ivanov", "i.", ".ivanov", "i.iva nov", "i.ivanov2", "i..ivanov", "é.b", ""} {
		assert.False(t, ValidName(name), name)
	}
	assert.Equal(t, []string{"ivan.ivanov"}, Invalid([]string{"i.ivanov", "ivan.ivanov"}))
}

func TestLoadNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.txt")
	require.NoError(t, os.WriteFile(path, []byte("# night shift\ni.ivanov\n\n  a.stepanova  \n"), 0o644))
	names, err := LoadNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"i.ivanov", "a.stepanova"}, names)
}

func TestLoadNamesRejectsSeveralPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.txt")
	require.NoError(t, os.WriteFile(path, []byte("i.ivanov a.stepanova\n"), 0o644))
	_, err := LoadNames(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "team.txt:1")
}

func TestLoadNamesMissingFile(t *testing.T) {
	_, err := LoadNames(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
