package sqlite

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrRowWidth is returned when a row does not match its table's columns.
var ErrRowWidth = errors.New("row does not match column count")

const batchSize = 1000

// Column is one column of an archive table.
type Column struct {
	Name string
	// Type is the SQLite declaration, e.g. "INTEGER PRIMARY KEY" or "TEXT NOT NULL".
	Type string
}

// Table is an archive table and the rows to insert into it.
// Row values must be int64, float64, string, bool, []byte or nil.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Write creates a fresh SQLite database at path holding the given tables.
// An existing file at path is replaced.
func Write(path string, tables []Table) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", path, err)
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate|sqlite.OpenReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}
	defer conn.Close()

	for _, table := range tables {
		if err := writeTable(conn, table); err != nil {
			return fmt.Errorf("failed to write table %s: %w", table.Name, err)
		}
	}

	return nil
}

// writeTable creates the table and inserts its rows in batched transactions.
func writeTable(conn *sqlite.Conn, table Table) error {
	defs := make([]string, len(table.Columns))
	names := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		defs[i] = column.Name + " " + column.Type
		names[i] = column.Name
	}

	err := sqlitex.ExecuteTransient(conn,
		fmt.Sprintf("CREATE TABLE %s (%s)", table.Name, strings.Join(defs, ", ")), nil)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(names, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "))

	for i := 0; i < len(table.Rows); i += batchSize {
		end := min(i+batchSize, len(table.Rows))
		if err := insertBatch(conn, insert, len(names), table.Rows[i:end]); err != nil {
			return err
		}
	}

	return nil
}

func insertBatch(conn *sqlite.Conn, insert string, width int, rows [][]any) (err error) {
	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	for _, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: got %d values for %d columns", ErrRowWidth, len(row), width)
		}

		if err := sqlitex.Execute(conn, insert, &sqlitex.ExecOptions{Args: row}); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	return nil
}
