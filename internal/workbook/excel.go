package workbook

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/xuri/excelize/v2"
)

const (
	// DefaultSheetName is the name of the single worksheet.
	DefaultSheetName = "Workout Data"

	// ContentType is the MIME type of an encoded workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DefaultHeaderFill is the accent colour of header cells (#00A9E0).
var DefaultHeaderFill = colorful.Color{R: 0x00 / 255.0, G: 0xA9 / 255.0, B: 0xE0 / 255.0}

// Options controls how a grid is encoded.
type Options struct {
	SheetName  string
	HeaderFill colorful.Color
}

// DefaultOptions returns the standard sheet name and accent colour.
func DefaultOptions() Options {
	return Options{
		SheetName:  DefaultSheetName,
		HeaderFill: DefaultHeaderFill,
	}
}

// ParseFillColor parses a hex colour with or without a leading "#".
func ParseFillColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid fill colour %q: %w", s, err)
	}
	return c, nil
}

// ValidateSheetName reports whether Encode can use name for its worksheet.
func ValidateSheetName(name string) error {
	f := excelize.NewFile()
	defer f.Close()
	return f.SetSheetName(f.GetSheetName(0), name)
}

// excelHex renders a colour as "RRGGBB" for excelize.
func excelHex(c colorful.Color) string {
	return strings.ToUpper(strings.TrimPrefix(c.Clamped().Hex(), "#"))
}

func thinBorder() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, 0, len(sides))
	for _, side := range sides {
		borders = append(borders, excelize.Border{Type: side, Color: "000000", Style: 1})
	}
	return borders
}

// newStyles registers the three cell styles and returns their IDs.
func newStyles(f *excelize.File, fill colorful.Color) (map[Style]int, error) {
	defs := map[Style]*excelize.Style{
		StyleTitle: {
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		},
		StyleHeader: {
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{excelHex(fill)}},
			Border:    thinBorder(),
		},
		StyleData: {
			Border: thinBorder(),
		},
	}

	ids := make(map[Style]int, len(defs))
	for style, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return nil, err
		}
		ids[style] = id
	}
	return ids, nil
}

// Encode renders the grid into an .xlsx payload with a single worksheet.
func Encode(grid *Grid, opts Options) ([]byte, error) {
	const op = "Encode"

	if opts.SheetName == "" {
		opts.SheetName = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), opts.SheetName); err != nil {
		return nil, fmt.Errorf("%s: failed to name sheet: %w", op, err)
	}
	sheet := opts.SheetName

	styles, err := newStyles(f, opts.HeaderFill)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create styles: %w", op, err)
	}

	for _, coord := range grid.Cells() {
		cell, _ := grid.Cell(coord.Row, coord.Col)
		name, err := excelize.CoordinatesToCellName(coord.Col, coord.Row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := f.SetCellValue(sheet, name, cell.Value.Interface()); err != nil {
			return nil, fmt.Errorf("%s: failed to write %s: %w", op, name, err)
		}
		if id, ok := styles[cell.Style]; ok {
			if err := f.SetCellStyle(sheet, name, name, id); err != nil {
				return nil, fmt.Errorf("%s: failed to style %s: %w", op, name, err)
			}
		}
	}

	for _, m := range grid.Merges() {
		from, err := excelize.CoordinatesToCellName(m.FromCol, m.Row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		to, err := excelize.CoordinatesToCellName(m.ToCol, m.Row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := f.MergeCell(sheet, from, to); err != nil {
			return nil, fmt.Errorf("%s: failed to merge %s:%s: %w", op, from, to, err)
		}
	}

	_, cols := grid.Dimensions()
	for col := 1; col <= cols; col++ {
		width, ok := grid.ColumnWidth(col)
		if !ok {
			continue
		}
		if width > excelize.MaxColumnWidth {
			width = excelize.MaxColumnWidth
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return nil, fmt.Errorf("%s: failed to size column %s: %w", op, name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to serialize workbook: %w", op, err)
	}
	return buf.Bytes(), nil
}
