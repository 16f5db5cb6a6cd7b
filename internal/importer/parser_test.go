package importer_test

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/taxdesk/internal/importer"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParse_SignedComma(t *testing.T) {
	csv := `Account Statement,Current Account
Account Number,1012345678901
Period,01/01/2025 - 31/01/2025

Date,Value Date,Description,Amount,Balance
05/01/2025,05/01/2025,INWARD REMITTANCE ACME FZ LLC,"12,500.00","62,500.00"
09/01/2025,09/01/2025,DEWA BILL PAYMENT,-845.20,"61,654.80"
`

	rows, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, date(2025, 1, 5), rows[0].Date)
	assert.Equal(t, "INWARD REMITTANCE ACME FZ LLC", rows[0].Description)
	assert.Equal(t, "12500", rows[0].Amount.String())
	assert.Equal(t, 6, rows[0].Line)

	assert.Equal(t, date(2025, 1, 9), rows[1].Date)
	assert.Equal(t, "-845.2", rows[1].Amount.String())
}

func TestParse_DebitCreditSemicolon(t *testing.T) {
	csv := `Transaction Date ;Narration ;Withdrawals ;Deposits ;Balance ;
2025-02-03;SALIK TOPUP ;100.00 ; ;9,900.00 ;
2025-02-04;TRANSFER FROM CLIENT ; ;2,000.00 ;11,900.00 ;
 ; ; ; ;Page 1/2 ;
`

	rows, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, date(2025, 2, 3), rows[0].Date)
	assert.Equal(t, "SALIK TOPUP", rows[0].Description)
	assert.Equal(t, "-100", rows[0].Amount.String())

	assert.Equal(t, date(2025, 2, 4), rows[1].Date)
	assert.Equal(t, "2000", rows[1].Amount.String())
}

func TestParse_DateFormats(t *testing.T) {
	type testCase struct {
		name string
		date string
		want time.Time
	}

	tests := []testCase{
		{name: "DayMonthSlash", date: "31/01/2025", want: date(2025, 1, 31)},
		{name: "ISO", date: "2025-01-31", want: date(2025, 1, 31)},
		{name: "DayMonthDash", date: "31-01-2025", want: date(2025, 1, 31)},
		{name: "ShortMonth", date: "31 Jan 2025", want: date(2025, 1, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csv := "Date,Description,Amount\n" + tt.date + ",TEST,1.00\n"

			rows, err := importer.Parse(strings.NewReader(csv))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].Date)
		})
	}
}

func TestParse_AmountFormats(t *testing.T) {
	type testCase struct {
		name   string
		amount string
		want   string
	}

	tests := []testCase{
		{name: "Thousands", amount: `"1,234.56"`, want: "1234.56"},
		{name: "Negative", amount: "-75.50", want: "-75.5"},
		{name: "Parentheses", amount: "(75.50)", want: "-75.5"},
		{name: "CurrencyPrefix", amount: `"AED 1,200"`, want: "1200"},
		{name: "DebitSuffix", amount: "300.00 DR", want: "-300"},
		{name: "CreditSuffix", amount: "300.00 CR", want: "300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csv := "Date,Description,Amount\n01/02/2025,TEST," + tt.amount + "\n"

			rows, err := importer.Parse(strings.NewReader(csv))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].Amount.String())
		})
	}
}

func TestParse_SkipsUnreadableRows(t *testing.T) {
	csv := `Date,Description,Amount
01/02/2025,ZERO,0.00
02/02/2025,NOT A NUMBER,n/a
Closing balance,,
03/02/2025,KEPT,10.00
`

	rows, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "KEPT", rows[0].Description)
}

func TestParse_DifferentColumnOrder(t *testing.T) {
	csv := `Random,MetaData
Amount,Details,Date,Ignored
-10.00,TEST_ORDER,30/01/2026,XXX
`

	rows, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "TEST_ORDER", rows[0].Description)
	assert.Equal(t, "-10", rows[0].Amount.String())
}

func TestParse_UnknownLayout(t *testing.T) {
	_, err := importer.Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, importer.ErrUnknownLayout)

	_, err = importer.Parse(strings.NewReader("Foo,Bar\n1,2\n"))
	assert.ErrorIs(t, err, importer.ErrUnknownLayout)
}

func TestParse_HeaderOnly(t *testing.T) {
	rows, err := importer.Parse(strings.NewReader("Date,Description,Debit,Credit"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParse_MissingDescription(t *testing.T) {
	csv := "Date,Description,Amount\n30/01/2026,,-10.00\n"

	_, err := importer.Parse(strings.NewReader(csv))
	assert.ErrorContains(t, err, "line 2: missing description")
}

func TestParse_Encodings(t *testing.T) {
	const utf8CSV = "Date;Description;Amount\n30/01/2026;CAFÉ ZÜRICH;-10.00\n"

	windows1252, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	type testCase struct {
		name  string
		input []byte
	}

	tests := []testCase{
		{name: "UTF8", input: []byte(utf8CSV)},
		{name: "UTF8BOM", input: append([]byte{0xEF, 0xBB, 0xBF}, utf8CSV...)},
		{name: "UTF16LE", input: utf16},
		{name: "Windows1252", input: windows1252},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := importer.Parse(bytes.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "CAFÉ ZÜRICH", rows[0].Description)
		})
	}
}

func TestParse_MultiByteRuneAcrossSniffWindow(t *testing.T) {
	prefix := "Date,Description,Amount\n01/02/2025,"
	// The two bytes of "É" straddle the end of the 4096 byte sniff window.
	desc := strings.Repeat("x", 4095-len(prefix)) + "É"

	rows, err := importer.Parse(strings.NewReader(prefix + desc + ",2.00\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, desc, rows[0].Description)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
