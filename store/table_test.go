package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testHeader = []string{"survey_id", "timestamp", "income"}
	testRow    = []string{"250102_0304_SurveyNo_01", "2025-01-02T03:04:00", "A: <10,000"}
)

func readCSV(t *testing.T, path string) [][]string {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVTableWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "od_survey_data.csv")
	table, err := NewCSVTable(path)
	require.NoError(t, err)

	location, err := table.Append(context.Background(), testHeader, testRow)
	require.NoError(t, err)
	assert.Equal(t, path, location)

	second := []string{"250102_0305_SurveyNo_01", "2025-01-02T03:05:00", "B"}
	_, err = table.Append(context.Background(), testHeader, second)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "survey_id,timestamp,income\n"+
		`250102_0304_SurveyNo_01,2025-01-02T03:04:00,"A: <10,000"`+"\n"+
		"250102_0305_SurveyNo_01,2025-01-02T03:05:00,B\n", string(b))
}

func TestCSVTableEmptyFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	table, err := NewCSVTable(path)
	require.NoError(t, err)
	_, err = table.Append(context.Background(), testHeader, testRow)
	require.NoError(t, err)

	assert.Equal(t, [][]string{testHeader, testRow}, readCSV(t, path))
}

func TestCSVTableHeaderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	original := "timestamp,trip_purpose\n2025-01-01T00:00:00,Commute\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	table, err := NewCSVTable(path)
	require.NoError(t, err)
	_, err = table.Append(context.Background(), testHeader, testRow)
	assert.ErrorIs(t, err, ErrHeaderMismatch)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(b))
}

func TestCSVTableRejectsShortRow(t *testing.T) {
	table, err := NewCSVTable(filepath.Join(t.TempDir(), "table.csv"))
	require.NoError(t, err)

	_, err = table.Append(context.Background(), testHeader, testRow[:2])
	assert.EqualError(t, err, "row has 2 values for 3 columns")
}

func TestCSVTableConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// separate values share the file lock through the path
			table, err := NewCSVTable(path)
			if !assert.NoError(t, err) {
				return
			}
			_, err = table.Append(context.Background(), testHeader, []string{fmt.Sprintf("id_%02d", i), "2025-01-02T03:04:00", "A"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rows := readCSV(t, path)
	require.Len(t, rows, n+1)
	assert.Equal(t, testHeader, rows[0])

	seen := map[string]bool{}
	for _, r := range rows[1:] {
		seen[r[0]] = true
	}
	assert.Len(t, seen, n)
}

func TestCSVTableCanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	table, err := NewCSVTable(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = table.Append(ctx, testHeader, testRow)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}
