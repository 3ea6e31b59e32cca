package bankimport

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// TransactionRow: ekstreden ayrıştırılmış tek satır. Tarih veya tutar
// çözülemezse nil kalır; geçerlilik kontrolü orchestrator'da yapılır.
type TransactionRow struct {
	RowNumber    int
	BookingDate  *time.Time
	Amount       *float64
	Counterparty string
	Purpose      string
	Reference    string
}

// Kolon başlıkları Almanca, İngilizce veya Türkçe olabilir; banka ekstresi
// hangi dilde gelirse gelsin aynı kanonik alanlara eşlenir.
var headerAliases = map[string]string{
	"datum":            "date",
	"buchungstag":      "date",
	"date":             "date",
	"tarih":            "date",
	"betrag":           "amount",
	"amount":           "amount",
	"tutar":            "amount",
	"empfänger":        "counterparty",
	"empfaenger":       "counterparty",
	"auftraggeber":     "counterparty",
	"counterparty":     "counterparty",
	"alıcı":            "counterparty",
	"gönderen":         "counterparty",
	"verwendungszweck": "purpose",
	"zweck":            "purpose",
	"purpose":          "purpose",
	"description":      "purpose",
	"açıklama":         "purpose",
	"referenz":         "reference",
	"reference":        "reference",
	"referans":         "reference",
}

// ParseStatement: xlsx ekstresini satır listesine çevirir. İlk sayfa okunur,
// başlık satırı ilk 10 satır içinde aranır.
func ParseStatement(r io.Reader) ([]TransactionRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("excel dosyası açılamadı: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel dosyasında sayfa bulunamadı")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("satırlar okunamadı: %w", err)
	}

	headerIdx, cols := findHeader(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("başlık satırı bulunamadı (Datum/Betrag kolonları bekleniyor)")
	}

	out := make([]TransactionRow, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		tr := TransactionRow{RowNumber: i + 1} // 1 tabanlı excel satır numarası
		if idx, ok := cols["date"]; ok {
			tr.BookingDate = parseDate(cellAt(row, idx))
		}
		if idx, ok := cols["amount"]; ok {
			tr.Amount = parseAmount(cellAt(row, idx))
		}
		if idx, ok := cols["counterparty"]; ok {
			tr.Counterparty = strings.TrimSpace(cellAt(row, idx))
		}
		if idx, ok := cols["purpose"]; ok {
			tr.Purpose = strings.TrimSpace(cellAt(row, idx))
		}
		if idx, ok := cols["reference"]; ok {
			tr.Reference = strings.TrimSpace(cellAt(row, idx))
		}

		out = append(out, tr)
	}

	return out, nil
}

// findHeader: ilk 10 satırda hem tarih hem tutar kolonu içeren satırı arar.
func findHeader(rows [][]string) (int, map[string]int) {
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		cols := make(map[string]int)
		for j, cell := range rows[i] {
			key := strings.ToLower(strings.TrimSpace(cell))
			if canonical, ok := headerAliases[key]; ok {
				if _, exists := cols[canonical]; !exists {
					cols[canonical] = j
				}
			}
		}
		if _, hasDate := cols["date"]; hasDate {
			if _, hasAmount := cols["amount"]; hasAmount {
				return i, cols
			}
		}
	}
	return -1, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02/01/2006",
	"2.1.2006",
	"01-02-06",
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	// Excel seri numarası (1899-12-30 tabanlı)
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 && serial < 80000 {
		t := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(serial))
		return &t
	}

	return nil
}

// parseAmount: "1.234,56", "1,234.56", "-250,00 €" gibi biçimleri çözer.
func parseAmount(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSuffix(s, "EUR")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		// Son ayraç ondalık ayracıdır
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
