package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.db")
	table, err := NewSQLiteTable(path, "")
	require.NoError(t, err)
	defer table.Close()

	ctx := context.Background()
	location, err := table.Append(ctx, testHeader, testRow)
	require.NoError(t, err)
	assert.Equal(t, path+"#survey", location)

	second := []string{"250102_0305_SurveyNo_01", "2025-01-02T03:05:00", `quote " and, comma`}
	_, err = table.Append(ctx, testHeader, second)
	require.NoError(t, err)

	rows, err := table.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{testRow, second}, rows)
}

func TestSQLiteTableHeaderMismatch(t *testing.T) {
	table, err := NewSQLiteTable(filepath.Join(t.TempDir(), "survey.db"), "od")
	require.NoError(t, err)
	defer table.Close()

	ctx := context.Background()
	_, err = table.Append(ctx, testHeader, testRow)
	require.NoError(t, err)

	_, err = table.Append(ctx, []string{"timestamp", "trip_purpose"}, []string{"2025-01-02T03:04:00", "Commute"})
	assert.ErrorIs(t, err, ErrHeaderMismatch)

	rows, err := table.Rows(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSQLiteTableEmpty(t *testing.T) {
	table, err := NewSQLiteTable(filepath.Join(t.TempDir(), "survey.db"), "")
	require.NoError(t, err)
	defer table.Close()

	rows, err := table.Rows(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, rows)
}
