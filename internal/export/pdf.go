// Package export renders the grid as a printable profile preview.
package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/instaplanner/internal/model"
)

const (
	DefaultColumns  = 3
	DefaultPageSize = "A4"

	margin = 10.0
	gap    = 2.0
	header = 12.0
)

// pdfImageTypes maps image.DecodeConfig format names to the types gofpdf can embed.
var pdfImageTypes = map[string]string{
	"jpeg": "JPG",
	"png":  "PNG",
	"gif":  "GIF",
}

// ProfileSheet lays items out in a square-tiled grid, in publish order, the
// way the profile shows them.
type ProfileSheet struct {
	columns  int
	pageSize string
	title    string
	logger   zerolog.Logger
}

type Option func(*ProfileSheet)

func WithColumns(n int) Option {
	return func(s *ProfileSheet) {
		if n > 0 {
			s.columns = n
		}
	}
}

func WithPageSize(size string) Option {
	return func(s *ProfileSheet) {
		if size != "" {
			s.pageSize = size
		}
	}
}

func WithTitle(title string) Option {
	return func(s *ProfileSheet) {
		s.title = title
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *ProfileSheet) {
		s.logger = l
	}
}

func NewProfileSheet(opts ...Option) *ProfileSheet {
	s := &ProfileSheet{
		columns:  DefaultColumns,
		pageSize: DefaultPageSize,
		title:    "Profile preview",
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ProfileSheet) Write(w io.Writer, items []model.Item) error {
	pdf := s.build(items)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error writing profile sheet: %w", err)
	}
	return nil
}

func (s *ProfileSheet) WriteFile(path string, items []model.Item) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}

	if err := s.Write(f, items); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func (s *ProfileSheet) build(items []model.Item) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", s.pageSize, "")
	pdf.SetTitle(s.title, true)
	pdf.SetCreator("instaplanner", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)

	pageW, pageH := pdf.GetPageSize()
	cell := (pageW - 2*margin - float64(s.columns-1)*gap) / float64(s.columns)

	pdf.AddPage()
	s.drawHeader(pdf, len(items))
	top := margin + header

	x, y := margin, top
	for i, item := range items {
		col := i % s.columns
		if col == 0 && i > 0 {
			y += cell + gap
		}
		if y+cell > pageH-margin {
			pdf.AddPage()
			y = margin
		}
		x = margin + float64(col)*(cell+gap)

		s.drawItem(pdf, item, x, y, cell)
	}

	return pdf
}

func (s *ProfileSheet) drawHeader(pdf *gofpdf.Fpdf, count int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 7, s.title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 4, fmt.Sprintf("%d posts", count), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawItem fits the image inside a square cell, or draws a placeholder when
// the payload is not an image format the PDF can embed.
func (s *ProfileSheet) drawItem(pdf *gofpdf.Fpdf, item model.Item, x, y, cell float64) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(item.Payload))
	imageType, supported := pdfImageTypes[format]
	if err != nil || !supported || cfg.Width == 0 || cfg.Height == 0 {
		s.logger.Debug().Str("id", string(item.ID)).Str("format", format).Msg("Drawing placeholder")
		pdf.SetFillColor(230, 230, 230)
		pdf.Rect(x, y, cell, cell, "F")
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType}
	name := "item-" + string(item.ID)
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(item.Payload))

	w, h := cell, cell
	ratio := float64(cfg.Width) / float64(cfg.Height)
	if ratio > 1 {
		h = cell / ratio
	} else {
		w = cell * ratio
	}
	pdf.ImageOptions(name, x+(cell-w)/2, y+(cell-h)/2, w, h, false, opts, 0, "")
}
