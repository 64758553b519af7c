// Package export renders user data as downloadable files.
package export

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"finanzas/internal/dates"
)

// Header is the first row of a transactions export.
var Header = []string{"Fecha", "Descripcion", "Tipo", "Importe", "Categoria", "Cuenta", "Notas"}

// Row is one exported transaction. Amount is signed, in cents.
type Row struct {
	Date        time.Time
	Description string
	Type        string
	Amount      int64
	Category    string
	Account     string
	Notes       string
}

var typeLabels = map[string]string{
	"expense":  "Gasto",
	"income":   "Ingreso",
	"transfer": "Transferencia",
}

// TypeLabel returns the display name of a transaction type.
func TypeLabel(t string) string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return t
}

// FormatAmount renders cents with two decimals and a dot separator.
func FormatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// WriteTransactions writes the header and rows as CSV. Fields containing a
// comma, quote or newline are quoted with embedded quotes doubled.
func WriteTransactions(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			dates.Format(r.Date),
			r.Description,
			TypeLabel(r.Type),
			FormatAmount(r.Amount),
			r.Category,
			r.Account,
			r.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
