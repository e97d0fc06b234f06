// Package workbook lays workout tables out on a single worksheet and encodes
// the result as an .xlsx file.
//
// Layout happens on a Grid, an in-memory (row, column) -> Cell mapping that
// knows nothing about the spreadsheet format. Encode renders a finished Grid
// with excelize; the sheets package mirrors the same Grid into Google Sheets.
package workbook

import (
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"
)

// ValueKind identifies the type held by a CellValue.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
)

// CellValue is a typed spreadsheet value.
type CellValue struct {
	Kind  ValueKind
	Text  string
	Int   int64
	Float float64
}

// StringValue wraps s without any conversion.
func StringValue(s string) CellValue {
	return CellValue{Kind: KindString, Text: s}
}

// IntValue wraps an integer.
func IntValue(i int64) CellValue {
	return CellValue{Kind: KindInt, Int: i}
}

// FloatValue wraps a float.
func FloatValue(f float64) CellValue {
	return CellValue{Kind: KindFloat, Float: f}
}

// String renders the value the way it is measured for column widths.
func (v CellValue) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return v.Text
	}
}

// Interface returns the underlying Go value for encoders.
func (v CellValue) Interface() interface{} {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	default:
		return v.Text
	}
}

// Style selects the formatting applied to a cell.
type Style int

const (
	StyleNone Style = iota
	// StyleTitle is bold and horizontally centered.
	StyleTitle
	// StyleHeader is bold, centered, filled with the accent colour and bordered.
	StyleHeader
	// StyleData has a thin border on all four sides.
	StyleData
)

// Cell is a value plus its style.
type Cell struct {
	Value CellValue
	Style Style
}

// Coord addresses a cell. Rows and columns start at 1.
type Coord struct {
	Row int
	Col int
}

// Merge is a horizontal merged range within one row. The anchor cell is
// (Row, FromCol); the other cells of the range are not addressable.
type Merge struct {
	Row     int
	FromCol int
	ToCol   int
}

func (m Merge) covers(row, col int) bool {
	return row == m.Row && col > m.FromCol && col <= m.ToCol
}

func (m Merge) overlaps(o Merge) bool {
	return m.Row == o.Row && m.FromCol <= o.ToCol && o.FromCol <= m.ToCol
}

// Grid is a single worksheet under construction. SetCell, MergeRange and
// SetColumnWidth are its only mutators.
type Grid struct {
	cells  map[Coord]Cell
	merges []Merge
	widths map[int]float64
	maxRow int
	maxCol int
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{
		cells:  make(map[Coord]Cell),
		widths: make(map[int]float64),
	}
}

// SetCell stores a value and style at (row, col), replacing any previous cell.
func (g *Grid) SetCell(row, col int, value CellValue, style Style) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("%w: (%d, %d)", ErrInvalidCoordinate, row, col)
	}
	g.cells[Coord{Row: row, Col: col}] = Cell{Value: value, Style: style}
	g.grow(row, col)
	return nil
}

// MergeRange merges columns fromCol..toCol of one row.
func (g *Grid) MergeRange(row, fromCol, toCol int) error {
	if row < 1 || fromCol < 1 || toCol < fromCol {
		return fmt.Errorf("%w: row %d, columns %d..%d", ErrInvalidRange, row, fromCol, toCol)
	}
	m := Merge{Row: row, FromCol: fromCol, ToCol: toCol}
	for _, existing := range g.merges {
		if existing.overlaps(m) {
			return fmt.Errorf("%w: row %d, columns %d..%d", ErrOverlappingMerge, row, fromCol, toCol)
		}
	}
	g.merges = append(g.merges, m)
	g.grow(row, toCol)
	return nil
}

// SetColumnWidth sets the display width of a column, in characters.
func (g *Grid) SetColumnWidth(col int, width float64) error {
	if col < 1 {
		return fmt.Errorf("%w: column %d", ErrInvalidCoordinate, col)
	}
	if width < 0 {
		return fmt.Errorf("%w: column %d width %v", ErrInvalidRange, col, width)
	}
	g.widths[col] = width
	return nil
}

func (g *Grid) grow(row, col int) {
	if row > g.maxRow {
		g.maxRow = row
	}
	if col > g.maxCol {
		g.maxCol = col
	}
}

// Cell returns the cell at (row, col), if one was written.
func (g *Grid) Cell(row, col int) (Cell, bool) {
	c, ok := g.cells[Coord{Row: row, Col: col}]
	return c, ok
}

// Cells returns every written coordinate in row-major order.
func (g *Grid) Cells() []Coord {
	coords := make([]Coord, 0, len(g.cells))
	for c := range g.cells {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Row != coords[j].Row {
			return coords[i].Row < coords[j].Row
		}
		return coords[i].Col < coords[j].Col
	})
	return coords
}

// Merges returns the merged ranges in the order they were added.
func (g *Grid) Merges() []Merge {
	return append([]Merge(nil), g.merges...)
}

// ColumnWidth returns the width set for col, if any.
func (g *Grid) ColumnWidth(col int) (float64, bool) {
	w, ok := g.widths[col]
	return w, ok
}

// Dimensions returns the highest row and column touched.
func (g *Grid) Dimensions() (rows, cols int) {
	return g.maxRow, g.maxCol
}

// IsMergedAway reports whether (row, col) lies inside a merge but is not its anchor.
func (g *Grid) IsMergedAway(row, col int) bool {
	for _, m := range g.merges {
		if m.covers(row, col) {
			return true
		}
	}
	return false
}

// AutoSize sets each column's width to the longest rendered value among its
// addressable cells plus 2. Columns where every cell is merged away keep the
// default width.
func AutoSize(g *Grid) error {
	for col := 1; col <= g.maxCol; col++ {
		addressable := false
		longest := 0
		for row := 1; row <= g.maxRow; row++ {
			if g.IsMergedAway(row, col) {
				continue
			}
			addressable = true
			if cell, ok := g.Cell(row, col); ok {
				if n := utf8.RuneCountInString(cell.Value.String()); n > longest {
					longest = n
				}
			}
		}
		if !addressable {
			continue
		}
		if err := g.SetColumnWidth(col, float64(longest+2)); err != nil {
			return err
		}
	}
	return nil
}
