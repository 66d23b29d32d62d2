package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/misterclayt0n/mesocoach/internal/config"
)

// ExportDBToTOML writes every table into a single TOML file as a map from
// table name to rows. NULL columns are left out of their row.
func (s *Storage) ExportDBToTOML(ctx context.Context, outputPath string) error {
	dbDump := make(map[string][]map[string]any, len(tables))

	for _, table := range tables {
		rows, err := s.DB.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s;", table))
		if err != nil {
			return fmt.Errorf("querying table %s: %w", table, err)
		}

		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			return fmt.Errorf("getting columns for table %s: %w", table, err)
		}

		var tableData []map[string]any
		for rows.Next() {
			values := make([]any, len(cols))
			valuePtrs := make([]any, len(cols))
			for i := range values {
				valuePtrs[i] = &values[i]
			}
			if err := rows.Scan(valuePtrs...); err != nil {
				rows.Close()
				return fmt.Errorf("scanning row in table %s: %w", table, err)
			}

			rowMap := make(map[string]any, len(cols))
			for i, col := range cols {
				switch val := values[i].(type) {
				case nil:
				case []byte:
					rowMap[col] = string(val)
				default:
					rowMap[col] = val
				}
			}
			tableData = append(tableData, rowMap)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("iterating table %s: %w", table, err)
		}
		if len(tableData) > 0 {
			dbDump[table] = tableData
		}
	}

	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(dbDump); err != nil {
		return fmt.Errorf("encoding TOML: %w", err)
	}

	outputPath, err := filepath.Abs(outputPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	s.log.Info("database exported", "path", outputPath, "tables", len(dbDump))
	return nil
}

// GetDBExportPath returns ~/.config/mesocoach/db_dump.toml, creating the
// directory if needed.
func GetDBExportPath() (string, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "db_dump.toml"), nil
}

// ImportDBFromTOML replaces the contents of every table named in the dump
// with the dump's rows. Tables missing from the dump are cleared too.
func (s *Storage) ImportDBFromTOML(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("Reading file %s: %w", filePath, err)
	}

	var dbDump map[string][]map[string]any
	if _, err := toml.Decode(string(data), &dbDump); err != nil {
		return fmt.Errorf("Decoding TOML: %w", err)
	}
	for table := range dbDump {
		if !slices.Contains(tables, table) {
			return fmt.Errorf("dump contains unknown table %q", table)
		}
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Begin transaction: %w", err)
	}
	defer tx.Rollback()

	// foreign_keys cannot be toggled inside a transaction; deferring the
	// checks to commit is the in-transaction equivalent.
	if _, err := tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON;"); err != nil {
		return fmt.Errorf("Deferring foreign keys: %w", err)
	}

	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s;", tables[i])); err != nil {
			return fmt.Errorf("Clearing table %s: %w", tables[i], err)
		}
	}

	inserted := 0
	for _, table := range tables {
		for _, row := range dbDump[table] {
			columns := make([]string, 0, len(row))
			for col := range row {
				columns = append(columns, col)
			}
			sort.Strings(columns)

			placeholders := make([]string, len(columns))
			values := make([]any, len(columns))
			for i, col := range columns {
				placeholders[i] = "?"
				values[i] = row[col]
			}
			query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
				table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
			if _, err := tx.ExecContext(ctx, query, values...); err != nil {
				return fmt.Errorf("Inserting into table %s: %w", table, err)
			}
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Committing transaction: %w", err)
	}
	s.log.Info("database imported", "path", filePath, "rows", inserted)
	return nil
}
