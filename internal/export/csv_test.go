package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/dates"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1250, "12.50"},
		{-1250, "-12.50"},
		{-99, "-0.99"},
		{123456789, "1234567.89"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.cents))
	}
}

func TestWriteTransactions(t *testing.T) {
	rows := []Row{
		{
			Date:        dates.Date(2024, 2, 29),
			Description: "Alquiler",
			Type:        "expense",
			Amount:      -85000,
			Category:    "Vivienda",
			Account:     "Banco",
		},
		{
			Date:        dates.Date(2024, 3, 1),
			Description: `Cena "Casa Pepe", postre`,
			Type:        "expense",
			Amount:      -4230,
			Category:    "Ocio",
			Account:     "Tarjeta",
			Notes:       "línea 1\nlínea 2",
		},
		{
			Date:        dates.Date(2024, 3, 2),
			Description: "Nómina",
			Type:        "income",
			Amount:      210000,
			Account:     "Banco",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, rows))

	want := strings.Join([]string{
		"Fecha,Descripcion,Tipo,Importe,Categoria,Cuenta,Notas",
		"2024-02-29,Alquiler,Gasto,-850.00,Vivienda,Banco,",
		`2024-03-01,"Cena ""Casa Pepe"", postre",Gasto,-42.30,Ocio,Tarjeta,"línea 1` + "\n" + `línea 2"`,
		"2024-03-02,Nómina,Ingreso,2100.00,,Banco,",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTransactions_EmptyHasHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, nil))
	assert.Equal(t, "Fecha,Descripcion,Tipo,Importe,Categoria,Cuenta,Notas\n", buf.String())
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "Transferencia", TypeLabel("transfer"))
	assert.Equal(t, "other", TypeLabel("other"))
}
