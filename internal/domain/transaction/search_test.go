package transaction

import (
	"errors"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bleveIndex aliases bleve.Index so the embedded field name does not clash
// with the interface's Index method.
type bleveIndex = bleve.Index

// failingIndex rejects every batch and counts Close calls.
type failingIndex struct {
	bleveIndex
	closed int
}

func (f *failingIndex) Batch(*bleve.Batch) error {
	return errors.New("disk full")
}

func (f *failingIndex) Close() error {
	f.closed++
	return f.bleveIndex.Close()
}

func TestNewSearchIndex_ClosesIndexOnFailure(t *testing.T) {
	mem, err := bleve.NewMemOnly(buildIndexMapping())
	require.NoError(t, err)
	index := &failingIndex{bleveIndex: mem}

	si, err := newSearchIndex(index, []Transaction{{ID: uuid.New(), Description: "SWIGGY"}})
	require.Error(t, err)
	assert.Nil(t, si)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, index.closed)
}

func TestSearchIndex_Search(t *testing.T) {
	si, err := NewSearchIndex([]Transaction{
		{ID: uuid.New(), Description: "SWIGGY BANGALORE", Category: "food"},
		{ID: uuid.New(), Description: "UBER INDIA", Category: "transport"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = si.Close() })

	hits, err := si.Search("swigy", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "SWIGGY BANGALORE", hits[0].Transaction.Description)

	hits, err = si.Search("uber", "food", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
