package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnknownLayout = errors.New("no known statement layout: expected date, description and amount or debit/credit columns")

// Row is one statement line. Amount is signed: negative is money out.
type Row struct {
	Line        int
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

var dateLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "02 Jan 2006", "02-Jan-2006"}

// Parse reads a bank statement export. Preamble lines before the header are
// skipped, as are rows without a readable date or a non-zero amount.
func Parse(r io.Reader) ([]Row, error) {
	decoded, err := utf8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	content, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}

	for _, sep := range []rune{',', ';'} {
		records, err := readRecords(content, sep)
		if err != nil {
			continue
		}

		cols, headerIdx, ok := detectLayout(records)
		if !ok {
			continue
		}

		return parseRows(cols, records[headerIdx+1:])
	}

	return nil, ErrUnknownLayout
}

// record is a CSV record with the 1-based line it starts on.
type record struct {
	line   int
	fields []string
}

func readRecords(content []byte, sep rune) ([]record, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []record

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}

		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
}

// detectLayout finds the first record that reads as the header of a known layout.
func detectLayout(records []record) (columns, int, bool) {
	for rowIdx, rec := range records {
		header := make(map[string]int, len(rec.fields))

		for i, cell := range rec.fields {
			name := normalizeHeader(cell)
			if _, seen := header[name]; name != "" && !seen {
				header[name] = i
			}
		}

		for i := range layouts {
			if cols, ok := layouts[i].resolve(header); ok {
				return cols, rowIdx, true
			}
		}
	}

	return columns{}, 0, false
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func parseRows(cols columns, records []record) ([]Row, error) {
	var rows []Row

	for _, rec := range records {
		date, ok := parseDate(cell(rec.fields, cols.date))
		if !ok {
			continue
		}

		amount, ok := cols.amountOf(rec.fields)
		if !ok {
			continue
		}

		desc := cell(rec.fields, cols.desc)
		if desc == "" {
			return nil, fmt.Errorf("line %d: missing description", rec.line)
		}

		rows = append(rows, Row{
			Line:        rec.line,
			Date:        date,
			Description: desc,
			Amount:      amount,
		})
	}

	return rows, nil
}

func (c columns) amountOf(fields []string) (decimal.Decimal, bool) {
	if c.layout.Mode == amountSigned {
		return nonZero(cell(fields, c.amount))
	}

	if d, ok := nonZero(cell(fields, c.debit)); ok {
		return d.Abs().Neg(), true
	}

	if d, ok := nonZero(cell(fields, c.credit)); ok {
		return d.Abs(), true
	}

	return decimal.Zero, false
}

func nonZero(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}

	d, err := parseAmount(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}

	return d, true
}

// parseAmount reads amounts such as "1,234.50", "-75.00", "(75.00)",
// "AED 1,200" or "300.00 DR".
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.ToUpper(strings.TrimSpace(s))
	negative := false

	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		clean = clean[1 : len(clean)-1]
		negative = true
	}

	clean = strings.TrimSpace(strings.TrimPrefix(clean, "AED"))
	clean = strings.TrimSpace(strings.TrimSuffix(clean, "AED"))

	switch {
	case strings.HasSuffix(clean, "DR"):
		clean = strings.TrimSuffix(clean, "DR")
		negative = true
	case strings.HasSuffix(clean, "CR"):
		clean = strings.TrimSuffix(clean, "CR")
	}

	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, " ", "")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}

	if negative {
		d = d.Abs().Neg()
	}

	return d, nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func cell(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}

	return strings.TrimSpace(fields[idx])
}
