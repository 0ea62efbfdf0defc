package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gestorcentros/internal/store"
)

func TestWriteSubmissions(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	details := []store.SubmissionDetail{
		{ID: 2, Username: "luis", FullName: "Luis Vega", Template: "Control", Area: "Salud", CreatedAt: at},
		{ID: 1, Username: "ana", FullName: "Ana Mora", Template: "Visita", Area: "Infraestructura", CreatedAt: at.Add(-time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSubmissions(&buf, details))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"2", "luis", "Luis Vega", "Control", "Salud", "2024-03-01 09:30:00"}, rows[1])
	assert.Equal(t, "Infraestructura", rows[2][4])
}

func TestWriteSubmissionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSubmissions(&buf, nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
