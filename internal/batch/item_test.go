package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_FiltersAndSortsByKey(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.pdf", "a.pdf", "c.PDF", "readme.txt", ".hidden.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(root, "nested"), 0o755))

	items, err := List(root, "pdf")
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "a.pdf", items[0].Key)
	assert.Equal(t, "b.pdf", items[1].Key)
	assert.Equal(t, "c.PDF", items[2].Key)
	for i, it := range items {
		assert.Equal(t, i, it.Ordinal)
		assert.Equal(t, filepath.Join(root, it.Key), it.Path)
	}
}

func TestList_EmptyDirYieldsEmptyCatalog(t *testing.T) {
	items, err := List(t.TempDir(), "pdf")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestList_MissingRootIsFatal(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "absent"), "pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalog)
}

func TestSingle(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "only.pdf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	// Other files in the same folder must not leak into the catalog.
	require.NoError(t, os.WriteFile(filepath.Join(root, "other.pdf"), nil, 0o644))

	items, err := Single(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "only.pdf", items[0].Key)
	assert.Equal(t, path, items[0].Path)

	_, err = Single(filepath.Join(root, "absent.pdf"))
	assert.ErrorIs(t, err, ErrCatalog)
}

func TestExclude(t *testing.T) {
	items := keyedItems("a.json", "a_transformed.json", "b.json")

	kept := Exclude(items, "_transformed.json")

	require.Len(t, kept, 2)
	assert.Equal(t, "a.json", kept[0].Key)
	assert.Equal(t, "b.json", kept[1].Key)
	assert.Equal(t, 0, kept[0].Ordinal)
	assert.Equal(t, 1, kept[1].Ordinal)
}
