package bankimport

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildStatement(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestParseStatementGermanHeaders(t *testing.T) {
	r := buildStatement(t, [][]interface{}{
		{"Datum", "Betrag", "Empfänger", "Verwendungszweck", "Referenz"},
		{"15.04.2025", "50,00", "Yılmaz, Ahmet", "Beitrag M-1001", "REF-1"},
		{"16.04.2025", "-120,50", "DITIB", "Verbandsbeitrag", "REF-2"},
	})

	rows, err := ParseStatement(r)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	require.NotNil(t, first.BookingDate)
	assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), first.BookingDate.UTC())
	require.NotNil(t, first.Amount)
	assert.Equal(t, 50.0, *first.Amount)
	assert.Equal(t, "Yılmaz, Ahmet", first.Counterparty)
	assert.Equal(t, "Beitrag M-1001", first.Purpose)
	assert.Equal(t, "REF-1", first.Reference)

	second := rows[1]
	require.NotNil(t, second.Amount)
	assert.Equal(t, -120.5, *second.Amount)
}

func TestParseStatementHeaderNotInFirstRow(t *testing.T) {
	r := buildStatement(t, [][]interface{}{
		{"Kontoauszug April 2025"},
		{},
		{"Tarih", "Tutar", "Açıklama"},
		{"01.04.2025", "25,00", "aidat 77"},
	})

	rows, err := ParseStatement(r)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "aidat 77", rows[0].Purpose)
	assert.Equal(t, 25.0, *rows[0].Amount)
}

func TestParseStatementMissingHeader(t *testing.T) {
	r := buildStatement(t, [][]interface{}{
		{"Spalte1", "Spalte2"},
		{"a", "b"},
	})

	_, err := ParseStatement(r)
	assert.Error(t, err)
}

func TestParseStatementInvalidCells(t *testing.T) {
	r := buildStatement(t, [][]interface{}{
		{"Date", "Amount"},
		{"geçersiz", "abc"},
	})

	rows, err := ParseStatement(r)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// Geçersiz hücreler nil kalır, satır orchestrator'da reddedilir
	assert.Nil(t, rows[0].BookingDate)
	assert.Nil(t, rows[0].Amount)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"50,00", 50, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"-250,00 €", -250, true},
		{"100", 100, true},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got := parseAmount(tt.in)
		if !tt.ok {
			assert.Nil(t, got, "girdi: %q", tt.in)
			continue
		}
		require.NotNil(t, got, "girdi: %q", tt.in)
		assert.InDelta(t, tt.want, *got, 0.001, "girdi: %q", tt.in)
	}
}

func TestParseDateLayouts(t *testing.T) {
	for _, in := range []string{"15.04.2025", "2025-04-15", "15/04/2025"} {
		got := parseDate(in)
		require.NotNil(t, got, "girdi: %q", in)
		assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), got.UTC(), "girdi: %q", in)
	}

	assert.Nil(t, parseDate("31.02.x"))
	assert.Nil(t, parseDate(""))
}
