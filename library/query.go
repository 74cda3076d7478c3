package library

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
)

const (
	dialectSQLite = "sqlite3"
	tableBooks    = "books"
	tableUsers    = "users"
	tableBorrows  = "borrows"
	colID         = "id"
	colTitle      = "title"
	colAuthor     = "author"
	colISBN       = "isbn"
	colGenre      = "genre"
	colBorrowed   = "is_borrowed"
	colName       = "name"
	colUserID     = "user_id"
	colBookID     = "book_id"
	aliasBorrow   = "br"
	aliasBook     = "b"
)

var searchColumns = []string{colTitle, colAuthor, colISBN, colGenre}

type sqlQueryString = string

func booksSelect() *goqu.SelectDataset {
	return goqu.Dialect(dialectSQLite).
		From(tableBooks).
		Select(colID, colTitle, colAuthor, colISBN, colGenre, colBorrowed).
		Order(goqu.I(colID).Asc()).
		Prepared(true)
}

// buildSearchBooksQuery matches q as a literal substring, so % and _ in the
// query carry no wildcard meaning.
func buildSearchBooksQuery(q string) (sqlQueryString, []any, error) {
	ds := booksSelect()

	if q != "" {
		needle := foldCase(q)
		conds := make([]goqu.Expression, 0, len(searchColumns))
		for _, col := range searchColumns {
			conds = append(conds,
				goqu.Func("instr", goqu.Func(fnCaseFold, goqu.C(col)), needle).Gt(0),
			)
		}
		ds = ds.Where(goqu.Or(conds...))
	}

	return toSQL(ds)
}

func buildListBooksQuery(availableOnly bool) (sqlQueryString, []any, error) {
	ds := booksSelect()
	if availableOnly {
		ds = ds.Where(goqu.Ex{colBorrowed: 0})
	}
	return toSQL(ds)
}

func buildListUsersQuery() (sqlQueryString, []any, error) {
	ds := goqu.Dialect(dialectSQLite).
		From(tableUsers).
		Select(colID, colName).
		Order(goqu.I(colID).Asc()).
		Prepared(true)
	return toSQL(ds)
}

func buildOpenBorrowsQuery() (sqlQueryString, []any, error) {
	ds := goqu.Dialect(dialectSQLite).
		From(goqu.T(tableBorrows).As(aliasBorrow)).
		Join(
			goqu.T(tableBooks).As(aliasBook),
			goqu.On(goqu.T(aliasBorrow).Col(colBookID).Eq(goqu.T(aliasBook).Col(colID))),
		).
		Select(
			goqu.T(aliasBorrow).Col(colID),
			goqu.T(aliasBook).Col(colID),
			goqu.T(aliasBorrow).Col(colUserID),
			goqu.T(aliasBook).Col(colTitle),
		).
		Order(goqu.T(aliasBorrow).Col(colID).Asc()).
		Prepared(true)
	return toSQL(ds)
}

func toSQL(ds *goqu.SelectDataset) (sqlQueryString, []any, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, errors.Join(ErrBuildingQueryFailed, err)
	}
	return query, args, nil
}
