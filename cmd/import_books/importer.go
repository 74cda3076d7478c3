package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"library-catalog/internal/output"
	"library-catalog/library"
)

type bookAdder interface {
	AddBook(title, author, isbn, genre string) (library.BookID, error)
}

type summary struct {
	imported   []library.Book
	duplicates int
	failed     int
}

// importBooks adds one book per CSV record. A leading header row is skipped.
// Rejected lines are reported on p and counted; only read failures abort.
func importBooks(r io.Reader, catalog bookAdder, p *output.Printer) (summary, error) {
	var sum summary

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	for first := true; ; first = false {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				p.Error("line %d: %v", parseErr.Line, parseErr.Err)
				sum.failed++
				continue
			}
			return sum, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if first && isHeader(record) {
			continue
		}
		if len(record) != 4 {
			p.Error("line %d: expected 4 fields (title,author,isbn,genre), got %d", line, len(record))
			sum.failed++
			continue
		}

		title, author, isbn, genre := record[0], record[1], record[2], record[3]
		id, err := catalog.AddBook(title, author, isbn, genre)
		switch {
		case errors.Is(err, library.ErrDuplicateKey):
			p.Warning("line %d: ISBN %q already in the catalog, skipping", line, strings.TrimSpace(isbn))
			sum.duplicates++
		case err != nil:
			p.Error("line %d: %v", line, err)
			sum.failed++
		default:
			sum.imported = append(sum.imported, library.Book{
				ID:     id,
				Title:  strings.TrimSpace(title),
				Author: strings.TrimSpace(author),
				ISBN:   strings.TrimSpace(isbn),
				Genre:  strings.TrimSpace(genre),
			})
		}
	}
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "title")
}
