package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchBooksQuery(t *testing.T) {
	query, args, err := buildSearchBooksQuery("DUNE")
	require.NoError(t, err)
	assert.Contains(t, query, "instr(")
	assert.Contains(t, query, fnCaseFold+"(")
	assert.Contains(t, query, "ORDER BY")
	assert.Contains(t, args, "dune")
	assert.NotContains(t, query, "dune", "needle must be bound, not inlined")

	query, args, err = buildSearchBooksQuery("")
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestBuildListBooksQuery(t *testing.T) {
	query, _, err := buildListBooksQuery(true)
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE")
	assert.Contains(t, query, colBorrowed)

	query, _, err = buildListBooksQuery(false)
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
}

func TestBuildOpenBorrowsQuery(t *testing.T) {
	query, _, err := buildOpenBorrowsQuery()
	require.NoError(t, err)
	assert.Contains(t, query, "INNER JOIN")
	assert.Contains(t, query, tableBorrows)
}
