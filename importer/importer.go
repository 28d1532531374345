// Package importer loads result CSV files into the database, creating the
// target table when it does not exist and validating its columns when it
// does.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"
)

type Options struct {
	Table string
	// Headers supplies column names when the CSV carries no header row.
	Headers      []string
	HasHeaderRow bool
}

// ImportFile imports the CSV at path and returns the number of rows loaded.
func ImportFile(db *gorm.DB, path string, opts Options) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()
	return Import(db, f, opts)
}

// Import reads CSV data from r into opts.Table. All rows are inserted in one
// transaction; a partial load never survives.
func Import(db *gorm.DB, r io.Reader, opts Options) (int, error) {
	if opts.Table == "" {
		return 0, fmt.Errorf("importer: table name is required")
	}

	reader := csv.NewReader(r)
	headers := opts.Headers
	if opts.HasHeaderRow {
		record, err := reader.Read()
		if err == io.EOF {
			return 0, fmt.Errorf("importer: CSV file is empty")
		}
		if err != nil {
			return 0, fmt.Errorf("importer: failed to read header row: %w", err)
		}
		headers = record
	}
	if len(headers) == 0 {
		return 0, fmt.Errorf("importer: no headers provided and CSV file has no header row")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("importer: failed to read CSV rows: %w", err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("importer: CSV file has no data rows")
	}

	if err := ensureTable(db, opts.Table, headers); err != nil {
		return 0, err
	}

	insert := insertStatement(db, opts.Table, headers)
	count := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		for i, record := range records {
			if len(record) != len(headers) {
				return fmt.Errorf("importer: row %d has %d fields, expected %d",
					i+1, len(record), len(headers))
			}
			args := make([]any, len(record))
			for j, v := range record {
				args[j] = v
			}
			if err := tx.Exec(insert, args...).Error; err != nil {
				return fmt.Errorf("importer: failed to insert row %d: %w", i+1, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ensureTable creates the table from the headers when missing; when present
// it checks that every header has a matching column. Created tables carry an
// auto-increment id key in addition to the header columns (unless the CSV
// itself supplies an id column).
func ensureTable(db *gorm.DB, table string, headers []string) error {
	migrator := db.Migrator()
	if !migrator.HasTable(table) {
		var cols []string
		if !containsFold(headers, "id") {
			cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(db, "id"), autoIDType(db)))
		}
		for _, h := range headers {
			cols = append(cols, fmt.Sprintf("%s TEXT", quoteIdent(db, h)))
		}
		stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(db, table), strings.Join(cols, ", "))
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("importer: failed to create table %s: %w", table, err)
		}
		return nil
	}

	var missing []string
	for _, h := range headers {
		if !migrator.HasColumn(table, h) {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("importer: table %s is missing columns: %s",
			table, strings.Join(missing, ", "))
	}
	return nil
}

func insertStatement(db *gorm.DB, table string, headers []string) string {
	cols := make([]string, len(headers))
	marks := make([]string, len(headers))
	for i, h := range headers {
		cols[i] = quoteIdent(db, h)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(db, table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// quoteIdent quotes an identifier the way the connected engine expects.
func quoteIdent(db *gorm.DB, name string) string {
	var sb strings.Builder
	db.Dialector.QuoteTo(&sb, name)
	return sb.String()
}

// autoIDType is the engine's auto-increment primary key column type.
func autoIDType(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "INT AUTO_INCREMENT PRIMARY KEY"
	case "postgres":
		return "SERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
