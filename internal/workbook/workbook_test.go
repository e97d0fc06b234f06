package workbook

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"liftsheet/internal/workout"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		input string
		want  CellValue
	}{
		{"10", IntValue(10)},
		{"007", IntValue(7)},
		{"12.5", FloatValue(12.5)},
		{"-3", FloatValue(-3)},
		{"abc", StringValue("abc")},
		{"", StringValue("")},
		{"NaN", StringValue("NaN")},
		{"inf", StringValue("inf")},
		{"99999999999999999999", FloatValue(99999999999999999999)},
	}

	for _, tt := range tests {
		if got := Coerce(tt.input); got != tt.want {
			t.Errorf("Coerce(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestGrid_Mutators(t *testing.T) {
	g := NewGrid()

	if err := g.SetCell(0, 1, StringValue("x"), StyleNone); !errors.Is(err, ErrInvalidCoordinate) {
		t.Errorf("SetCell(0, 1) error = %v, want ErrInvalidCoordinate", err)
	}
	if err := g.MergeRange(1, 3, 2); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("MergeRange(1, 3, 2) error = %v, want ErrInvalidRange", err)
	}
	if err := g.MergeRange(1, 1, 3); err != nil {
		t.Fatalf("MergeRange(1, 1, 3) = %v", err)
	}
	if err := g.MergeRange(1, 3, 4); !errors.Is(err, ErrOverlappingMerge) {
		t.Errorf("overlapping MergeRange error = %v, want ErrOverlappingMerge", err)
	}
	if err := g.SetColumnWidth(2, -1); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("SetColumnWidth(2, -1) error = %v, want ErrInvalidRange", err)
	}

	if g.IsMergedAway(1, 1) {
		t.Error("merge anchor reported as merged away")
	}
	if !g.IsMergedAway(1, 2) || !g.IsMergedAway(1, 3) {
		t.Error("covered cells not reported as merged away")
	}
	if rows, cols := g.Dimensions(); rows != 1 || cols != 3 {
		t.Errorf("Dimensions() = %d, %d, want 1, 3", rows, cols)
	}
}

func TestAutoSize(t *testing.T) {
	g := NewGrid()
	mustSet(t, g, 1, 1, StringValue("2024-03-03 - Leg Day"))
	if err := g.MergeRange(1, 1, 3); err != nil {
		t.Fatal(err)
	}
	mustSet(t, g, 2, 1, StringValue("Exercise"))
	mustSet(t, g, 2, 2, StringValue("Set 1"))
	mustSet(t, g, 3, 2, IntValue(100))

	if err := AutoSize(g); err != nil {
		t.Fatalf("AutoSize() = %v", err)
	}

	tests := []struct {
		col  int
		want float64
	}{
		{1, float64(len("2024-03-03 - Leg Day") + 2)},
		{2, float64(len("Set 1") + 2)},
		{3, 2},
	}
	for _, tt := range tests {
		got, ok := g.ColumnWidth(tt.col)
		if !ok {
			t.Errorf("column %d has no width", tt.col)
			continue
		}
		if got != tt.want {
			t.Errorf("column %d width = %v, want %v", tt.col, got, tt.want)
		}
	}
}

func TestAutoSize_FullyMergedColumnKeepsDefault(t *testing.T) {
	g := NewGrid()
	mustSet(t, g, 1, 1, StringValue("title"))
	if err := g.MergeRange(1, 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := AutoSize(g); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.ColumnWidth(2); ok {
		t.Error("column 2 only holds merged cells but got a width")
	}
}

func TestCompose_StacksBlocksWithSpacing(t *testing.T) {
	docs := []workout.Document{
		workout.Parse("a.jpg", workout.Transcription{"Leg Day", "March 3 2024", "Bench: 10/12/15 (warmup)", "Squat: 8/8"}),
		workout.Parse("b.jpg", workout.Transcription{"Arms", "Curl: 12/abc"}),
	}

	result, err := NewComposer().Compose(docs)
	if err != nil {
		t.Fatalf("Compose() = %v", err)
	}
	if len(result.Skipped) != 0 {
		t.Fatalf("Skipped = %v, want none", result.Skipped)
	}
	g := result.Grid

	// Block 1: title row 1, header row 2, data rows 3-4, blank rows 5-7.
	expectValue(t, g, 1, 1, StringValue("March 3 2024 - Leg Day"))
	expectValue(t, g, 2, 1, StringValue("Exercise"))
	expectValue(t, g, 2, 4, StringValue("Set 3"))
	expectValue(t, g, 2, 5, StringValue("Extra Info"))
	expectValue(t, g, 3, 1, StringValue("Bench"))
	expectValue(t, g, 3, 2, IntValue(10))
	expectValue(t, g, 3, 5, StringValue("warmup"))
	expectValue(t, g, 4, 4, StringValue(""))
	for row := 5; row <= 7; row++ {
		for col := 1; col <= 5; col++ {
			if _, ok := g.Cell(row, col); ok {
				t.Errorf("spacing cell (%d, %d) is not blank", row, col)
			}
		}
	}

	// Block 2 starts at row 8.
	expectValue(t, g, 8, 1, StringValue("Curl: 12/abc - Arms"))
	expectValue(t, g, 9, 3, StringValue("Extra Info"))
	expectValue(t, g, 10, 2, IntValue(12))

	merges := g.Merges()
	if len(merges) != 2 {
		t.Fatalf("got %d merges, want 2", len(merges))
	}
	if merges[0] != (Merge{Row: 1, FromCol: 1, ToCol: 5}) {
		t.Errorf("first merge = %+v", merges[0])
	}
	if merges[1] != (Merge{Row: 8, FromCol: 1, ToCol: 3}) {
		t.Errorf("second merge = %+v", merges[1])
	}

	if cell, _ := g.Cell(2, 1); cell.Style != StyleHeader {
		t.Errorf("header style = %v, want StyleHeader", cell.Style)
	}
	if cell, _ := g.Cell(3, 5); cell.Style != StyleData {
		t.Errorf("data style = %v, want StyleData", cell.Style)
	}
}

func TestCompose_SkipsMalformedDocument(t *testing.T) {
	docs := []workout.Document{
		{
			Name:        "broken.jpg",
			HeaderLabel: "x",
			Table: workout.Table{
				SetColumnCount: 3,
				Rows:           []workout.Row{{Exercise: "A", Sets: []string{"1"}}},
			},
		},
		workout.Parse("ok.jpg", workout.Transcription{"Chest", "Fly: 10/10"}),
	}

	result, err := NewComposer().Compose(docs)
	if err != nil {
		t.Fatalf("Compose() = %v", err)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("Skipped = %d, want 1", len(result.Skipped))
	}
	if !errors.Is(result.Skipped[0], ErrMalformedDocument) {
		t.Errorf("skip error %v does not match ErrMalformedDocument", result.Skipped[0])
	}
	expectValue(t, result.Grid, 1, 1, StringValue("Fly: 10/10 - Chest"))
}

func TestEncode_RoundTrip(t *testing.T) {
	docs := []workout.Document{
		workout.Parse("a.jpg", workout.Transcription{"Leg Day", "March 3 2024", "Squat: 8/8/8"}),
	}
	result, err := NewComposer().Compose(docs)
	if err != nil {
		t.Fatal(err)
	}

	data, err := Encode(result.Grid, DefaultOptions())
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != DefaultSheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, DefaultSheetName)
	}

	title, err := f.GetCellValue(DefaultSheetName, "A1")
	if err != nil || title != "March 3 2024 - Leg Day" {
		t.Errorf("A1 = %q, %v", title, err)
	}
	set, err := f.GetCellValue(DefaultSheetName, "B3")
	if err != nil || set != "8" {
		t.Errorf("B3 = %q, %v", set, err)
	}

	merged, err := f.GetMergeCells(DefaultSheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 || merged[0].GetStartAxis() != "A1" || merged[0].GetEndAxis() != "E1" {
		t.Errorf("merged cells = %v", merged)
	}

	width, err := f.GetColWidth(DefaultSheetName, "A")
	if err != nil || width != float64(len("March 3 2024 - Leg Day")+2) {
		t.Errorf("column A width = %v, %v", width, err)
	}
}

func TestParseFillColor(t *testing.T) {
	for _, in := range []string{"00A9E0", "#00a9e0", " 00A9E0 "} {
		c, err := ParseFillColor(in)
		if err != nil {
			t.Errorf("ParseFillColor(%q) = %v", in, err)
			continue
		}
		if got := excelHex(c); got != "00A9E0" {
			t.Errorf("excelHex(ParseFillColor(%q)) = %s, want 00A9E0", in, got)
		}
	}
	if _, err := ParseFillColor("blue"); err == nil {
		t.Error("ParseFillColor(\"blue\") = nil, want error")
	}
	if got := excelHex(DefaultHeaderFill); got != "00A9E0" {
		t.Errorf("excelHex(DefaultHeaderFill) = %s", got)
	}
}

func mustSet(t *testing.T, g *Grid, row, col int, v CellValue) {
	t.Helper()
	if err := g.SetCell(row, col, v, StyleData); err != nil {
		t.Fatalf("SetCell(%d, %d) = %v", row, col, err)
	}
}

func expectValue(t *testing.T, g *Grid, row, col int, want CellValue) {
	t.Helper()
	cell, ok := g.Cell(row, col)
	if !ok {
		t.Errorf("cell (%d, %d) missing, want %+v", row, col, want)
		return
	}
	if cell.Value != want {
		t.Errorf("cell (%d, %d) = %+v, want %+v", row, col, cell.Value, want)
	}
}

func TestValidateSheetName(t *testing.T) {
	tests := []struct {
		name string
		want error
	}{
		{DefaultSheetName, nil},
		{"Sheet1", nil},
		{"", excelize.ErrSheetNameBlank},
		{strings.Repeat("x", 32), excelize.ErrSheetNameLength},
		{"'Legs", excelize.ErrSheetNameSingleQuote},
		{"Week [3]", excelize.ErrSheetNameInvalid},
	}
	for _, tt := range tests {
		if err := ValidateSheetName(tt.name); !errors.Is(err, tt.want) {
			t.Errorf("ValidateSheetName(%q) = %v, want %v", tt.name, err, tt.want)
		}
	}
}
