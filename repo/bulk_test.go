package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/htol/bookshelf/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInsertMany(t *testing.T, factory repoFactory) {
	r := factory(t, WithIDFunc(sequentialIDs()))
	bulk, ok := r.(BulkInserter)
	require.True(t, ok, "store does not support bulk insert")

	ctx := context.Background()
	seedBooks(t, r, book.Fields{Title: "First"})

	// spans more than one INSERT statement
	fields := make([]book.Fields, insertChunk+5)
	for i := range fields {
		fields[i] = book.Fields{Title: fmt.Sprintf("Bulk %d", i), Read: i%2 == 0}
	}

	ids, err := bulk.InsertMany(ctx, fields)
	require.NoError(t, err)
	require.Len(t, ids, len(fields))
	assert.Equal(t, "id-2", ids[0])

	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, len(fields)+1)
	assert.Equal(t, "First", snap[0].Title)
	assert.Equal(t, book.Book{ID: ids[3], Title: "Bulk 3", Read: false}, snap[4])
	assert.Equal(t, fmt.Sprintf("Bulk %d", len(fields)-1), snap[len(snap)-1].Title)

	ids, err = bulk.InsertMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
