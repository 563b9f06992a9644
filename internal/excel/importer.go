package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/lexigo/pkg/models"
	"github.com/xuri/excelize/v2"
)

// EntryStore persists imported dictionary entries
type EntryStore interface {
	Upsert(ctx context.Context, entry *models.DictionaryEntry) (bool, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath  string // Path to the Excel or CSV file
	SheetName string // Name of the sheet to import
	StartRow  int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration. Columns are
// fixed: word, definition, example, pronunciation, level, importance rate,
// synonyms, in that order.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SheetName: "Sheet1",
		StartRow:  2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Errors         []string
}

// ImportEntries imports dictionary entries from an Excel or CSV file
func ImportEntries(ctx context.Context, store EntryStore, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		return importFromCSV(ctx, store, config)
	}

	return importFromExcel(ctx, store, config)
}

// importFromExcel imports entries from an Excel file
func importFromExcel(ctx context.Context, store EntryStore, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &ImportResult{
		Errors: make([]string, 0),
	}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}

		result.TotalProcessed++

		if err := processRow(ctx, store, row, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

// importFromCSV imports entries from a CSV file
func importFromCSV(ctx context.Context, store EntryStore, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{
		Errors: make([]string, 0),
	}

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++

		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}

		result.TotalProcessed++

		if err := processRow(ctx, store, row, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// processRow converts one row into a dictionary entry and stores it
func processRow(ctx context.Context, store EntryStore, row []string, result *ImportResult) error {
	entry := rowToEntry(row)

	if entry.Word == "" {
		return fmt.Errorf("word cannot be empty")
	}
	if entry.Definition == "" {
		return fmt.Errorf("definition cannot be empty")
	}

	created, err := store.Upsert(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to store entry: %v", err)
	}
	if created {
		result.Created++
	} else {
		result.Updated++
	}
	return nil
}

// rowToEntry maps the fixed column layout onto a dictionary entry. Short
// rows leave trailing fields empty.
func rowToEntry(row []string) *models.DictionaryEntry {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	return &models.DictionaryEntry{
		Word:           models.NormalizeWord(cell(0)),
		Definition:     cell(1),
		Example:        cell(2),
		Pronunciation:  cell(3),
		Level:          cell(4),
		ImportanceRate: cell(5),
		Synonyms:       cell(6),
	}
}
