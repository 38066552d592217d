// Package pdftext turns a statement file into the raw text lines the
// statement parser consumes.
package pdftext

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/FACorreiaa/ccparser/pkg/apperr"
)

// Extractor returns the text lines of a statement file in reading order.
type Extractor interface {
	Lines(ctx context.Context, path string) ([]string, error)
}

// FileExtractor reads PDFs with dslipak/pdf. Files ending in .txt are read
// verbatim, which is how already-extracted statements are reprocessed.
type FileExtractor struct{}

var _ Extractor = FileExtractor{}

func (FileExtractor) Lines(ctx context.Context, path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.NewNotFound("statement file", path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return splitLines(f)
	case ".pdf":
		return pdfLines(ctx, path)
	default:
		return nil, apperr.NewParseError(path, "unsupported file type, expected .pdf or .txt", nil)
	}
}

func pdfLines(ctx context.Context, path string) (lines []string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = apperr.NewParseError(path, "malformed PDF", fmt.Errorf("%v", r))
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, apperr.NewParseError(path, "malformed PDF", err)
	}
	if r.NumPage() == 0 {
		return nil, apperr.NewParseError(path, "PDF has no pages", nil)
	}

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines = append(lines, pageRows(page.Content().Text)...)
	}
	return lines, nil
}

// rowTolerance is how far apart, in points, two glyph baselines may be and
// still belong to the same row.
const rowTolerance = 2.0

type row struct {
	y      float64
	glyphs []pdf.Text
}

// pageRows rebuilds the text rows of a page from positioned glyphs, top to
// bottom. Glyphs within a row are ordered left to right; a space is inserted
// where the gap between two glyphs is wider than a fraction of the font size.
// Columns placed with Tm or Td carry no line breaks in the page's plain text.
func pageRows(glyphs []pdf.Text) []string {
	var rows []*row
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		var target *row
		for _, r := range rows {
			if math.Abs(r.y-g.Y) <= rowTolerance {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{y: g.Y}
			rows = append(rows, target)
		}
		target.glyphs = append(target.glyphs, g)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if line := joinRow(r.glyphs); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func joinRow(glyphs []pdf.Text) string {
	// glyphs without width metrics share the X of their text run, so the
	// emission order has to survive the sort
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var (
		b      strings.Builder
		spaced bool
	)
	end := math.Inf(-1)
	for _, g := range glyphs {
		size := g.FontSize
		if size <= 0 {
			size = 1
		}
		if b.Len() > 0 && g.X-end > 0.2*size && !spaced && !strings.HasPrefix(g.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		spaced = strings.HasSuffix(g.S, " ")
		end = math.Max(end, g.X+g.W)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func splitLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), " \t\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statement text: %w", err)
	}
	return lines, nil
}
