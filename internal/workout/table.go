package workout

import (
	"strings"
	"unicode"
)

// exerciseLine is a line that passed both filters: it contains a slash and
// has at least one colon after period normalization.
type exerciseLine struct {
	name    string
	segment string
}

// parseExerciseLine applies the shared line filters. OCR often reads a colon
// as a period, so periods are treated as colons before splitting.
func parseExerciseLine(raw string) (exerciseLine, bool) {
	line := strings.ReplaceAll(raw, ".", ":")
	if !strings.Contains(line, "/") {
		return exerciseLine{}, false
	}

	parts := strings.Split(line, ":")
	if len(parts) < 2 {
		return exerciseLine{}, false
	}

	return exerciseLine{name: parts[0], segment: parts[1]}, true
}

// setValues returns the trimmed set pieces that are either all digits or
// empty. A parenthesised note is cut out of the segment first so that
// "15 (warmup)" still yields the set "15".
func (l exerciseLine) setValues() []string {
	segment := l.segment
	if open, end, ok := noteSpan(segment); ok {
		segment = segment[:open] + segment[end+1:]
	}

	pieces := strings.Split(strings.TrimSpace(segment), "/")
	sets := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if isSetValue(piece) {
			sets = append(sets, piece)
		}
	}
	return sets
}

// note returns the text between the first "(" and the first ")" after it.
func (l exerciseLine) note() string {
	open, end, ok := noteSpan(l.segment)
	if !ok {
		return ""
	}
	return l.segment[open+1 : end]
}

func noteSpan(s string) (open, end int, ok bool) {
	open = strings.IndexByte(s, '(')
	if open < 0 {
		return 0, 0, false
	}
	rel := strings.IndexByte(s[open+1:], ')')
	if rel < 0 {
		return 0, 0, false
	}
	return open, open + 1 + rel, true
}

func isSetValue(piece string) bool {
	for _, r := range piece {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// CountSetColumns returns the largest number of set values found on any
// exercise line. It is the first of the two table building passes.
func CountSetColumns(text Transcription) int {
	count := 0
	for _, raw := range text {
		line, ok := parseExerciseLine(raw)
		if !ok {
			continue
		}
		if n := len(line.setValues()); n > count {
			count = n
		}
	}
	return count
}

// BuildRows converts every exercise line into a Row whose sets are padded
// with EmptySet up to setColumnCount. Lines that fail the filters are skipped.
func BuildRows(text Transcription, setColumnCount int) []Row {
	var rows []Row
	for _, raw := range text {
		line, ok := parseExerciseLine(raw)
		if !ok {
			continue
		}

		sets := line.setValues()
		for len(sets) < setColumnCount {
			sets = append(sets, EmptySet)
		}

		rows = append(rows, Row{
			Exercise: strings.TrimSpace(line.name),
			Sets:     sets,
			Note:     line.note(),
		})
	}
	return rows
}

// BuildTable runs both passes and returns a rectangular table.
func BuildTable(text Transcription) Table {
	count := CountSetColumns(text)
	return Table{
		Rows:           BuildRows(text, count),
		SetColumnCount: count,
	}
}

// Validate reports whether every row has exactly SetColumnCount sets.
func (t Table) Validate() error {
	if t.SetColumnCount < 0 {
		return &ShapeError{Row: -1, Want: 0, Got: t.SetColumnCount}
	}
	for i, row := range t.Rows {
		if len(row.Sets) != t.SetColumnCount {
			return &ShapeError{Row: i, Want: t.SetColumnCount, Got: len(row.Sets)}
		}
	}
	return nil
}
