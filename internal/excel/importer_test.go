package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/lexigo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeEntryStore records upserts and reports whether each word was new
type fakeEntryStore struct {
	entries map[string]*models.DictionaryEntry
	err     error
}

func newFakeEntryStore() *fakeEntryStore {
	return &fakeEntryStore{entries: make(map[string]*models.DictionaryEntry)}
}

func (f *fakeEntryStore) Upsert(_ context.Context, entry *models.DictionaryEntry) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, exists := f.entries[entry.Word]
	f.entries[entry.Word] = entry
	return !exists, nil
}

func writeTestWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}

	path := filepath.Join(t.TempDir(), "dictionary.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportEntriesFromExcel(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{
		{"word", "definition", "example", "pronunciation", "level", "importance", "synonyms"},
		{"Abandon", "to leave permanently", "He abandoned the plan.", "/əˈbændən/", "B1", "8", "leave, give up"},
		{"ubiquitous", "found everywhere", "Phones are ubiquitous.", "", "C1", "6", ""},
	})

	store := newFakeEntryStore()
	config := DefaultImportConfig()
	config.FilePath = path

	result, err := ImportEntries(context.Background(), store, config)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Errors)

	entry := store.entries["abandon"]
	require.NotNil(t, entry)
	assert.Equal(t, "to leave permanently", entry.Definition)
	assert.Equal(t, "/əˈbændən/", entry.Pronunciation)
	assert.Equal(t, "B1", entry.Level)
	assert.Equal(t, "leave, give up", entry.Synonyms)
}

func TestImportEntriesCountsUpdates(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{
		{"word", "definition"},
		{"abandon", "first definition"},
		{"abandon", "second definition"},
	})

	store := newFakeEntryStore()
	config := DefaultImportConfig()
	config.FilePath = path

	result, err := ImportEntries(context.Background(), store, config)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, "second definition", store.entries["abandon"].Definition)
}

func TestImportEntriesCollectsRowErrors(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{
		{"word", "definition"},
		{"", "definition without a word"},
		{"lonely", ""},
		{"valid", "a proper definition"},
	})

	store := newFakeEntryStore()
	config := DefaultImportConfig()
	config.FilePath = path

	result, err := ImportEntries(context.Background(), store, config)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 1, result.Created)
	assert.Len(t, result.Errors, 2)
}

func TestImportEntriesFromCSV(t *testing.T) {
	content := "word,definition,example,pronunciation,level,importance,synonyms\n" +
		"serendipity,a lucky accident,Finding it was pure serendipity.,/ˌserənˈdɪpəti/,C2,4,\"chance, luck\"\n" +
		"HELLO,a greeting,She said hello.,,A1,10,hi\n"

	path := filepath.Join(t.TempDir(), "dictionary.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := newFakeEntryStore()
	config := DefaultImportConfig()
	config.FilePath = path

	result, err := ImportEntries(context.Background(), store, config)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)

	// Words are normalized to lower case on the way in
	require.NotNil(t, store.entries["hello"])
	assert.Equal(t, "chance, luck", store.entries["serendipity"].Synonyms)
}

func TestImportEntriesStoreFailure(t *testing.T) {
	path := writeTestWorkbook(t, [][]string{
		{"word", "definition"},
		{"abandon", "to leave permanently"},
	})

	store := newFakeEntryStore()
	store.err = fmt.Errorf("disk full")

	config := DefaultImportConfig()
	config.FilePath = path

	result, err := ImportEntries(context.Background(), store, config)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "disk full")
}

func TestImportEntriesMissingFile(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")

	_, err := ImportEntries(context.Background(), newFakeEntryStore(), config)
	assert.Error(t, err)
}
