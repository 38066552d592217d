package pdftext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dslipak/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFileExtractor_Lines(t *testing.T) {
	ctx := context.Background()
	var ex FileExtractor

	t.Run("text file", func(t *testing.T) {
		path := writeFile(t, "nov.txt", "Transaction Details\r\n12 Nov '24 SWIGGY ₹450.00 Debit  \n\nPage 1 of 1\n")
		lines, err := ex.Lines(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Transaction Details",
			"12 Nov '24 SWIGGY ₹450.00 Debit",
			"",
			"Page 1 of 1",
		}, lines)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ex.Lines(ctx, filepath.Join(t.TempDir(), "nope.pdf"))
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := ex.Lines(ctx, writeFile(t, "nov.csv", "a,b"))
		assert.True(t, apperr.IsParse(err))
	})

	t.Run("positioned pdf columns become one row each", func(t *testing.T) {
		lines, err := ex.Lines(ctx, filepath.Join("testdata", "axis_statement.pdf"))
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Axis Bank Credit Card Statement",
			"Transaction Details",
			"12 Nov '24 SWIGGY BANGALORE Rs. 450.00 Debit",
			"13 Nov '24 UBER INDIA Rs. 210.00 Debit",
			"15 Nov '24 REFUND AMAZON Rs. 99.00 Credit",
			"18 Nov '24 NETFLIX Rs. 649.00",
			"Page 1 of 2",
			"20 Nov '24 IRCTC RAIL Rs. 1,234.56 Dr",
			"End of Transaction Details",
			"Page 2 of 2",
		}, lines)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := ex.Lines(cctx, filepath.Join("testdata", "axis_statement.pdf"))
		require.Error(t, err)
	})

	t.Run("malformed pdf", func(t *testing.T) {
		_, err := ex.Lines(ctx, writeFile(t, "broken.pdf", "this is not a pdf"))
		require.Error(t, err)
		assert.True(t, apperr.IsParse(err))
	})
}

func TestPageRows(t *testing.T) {
	glyph := func(x, y float64, s string) pdf.Text {
		return pdf.Text{X: x, Y: y, W: 5, FontSize: 10, S: s}
	}

	t.Run("orders rows top down and columns left to right", func(t *testing.T) {
		rows := pageRows([]pdf.Text{
			glyph(300, 700, "Debit"),
			glyph(50, 700.8, "12"),
			glyph(60, 700, "Nov"),
			glyph(50, 720, "Header"),
			glyph(50, 100, " "),
		})
		assert.Equal(t, []string{"Header", "12 Nov Debit"}, rows)
	})

	t.Run("glyphs sharing an x keep emission order", func(t *testing.T) {
		rows := pageRows([]pdf.Text{
			{X: 50, Y: 500, FontSize: 10, S: "A"},
			{X: 50, Y: 500, FontSize: 10, S: "B"},
			{X: 50, Y: 500, FontSize: 10, S: "C"},
		})
		assert.Equal(t, []string{"ABC"}, rows)
	})
}
