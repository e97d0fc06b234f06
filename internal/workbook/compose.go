package workbook

import (
	"fmt"

	"github.com/rs/zerolog"
	"liftsheet/internal/logger"
	"liftsheet/internal/workout"
)

const (
	// firstRow is where the first block starts.
	firstRow = 1

	// blockSpacing is the number of blank rows after each block.
	blockSpacing = 3

	exerciseHeader = "Exercise"
	noteHeader     = "Extra Info"
)

// Composer stacks document tables on one grid.
type Composer struct {
	log zerolog.Logger
}

// NewComposer creates a composer that logs skipped documents.
func NewComposer() *Composer {
	return &Composer{
		log: logger.WithComponent("workbook"),
	}
}

// ComposeResult is the laid-out grid plus the documents that were left out.
type ComposeResult struct {
	Grid    *Grid
	Skipped []*CompositionError
}

// Compose lays out every document in order: a merged title row, a header row,
// the data rows and three blank rows. Malformed documents are skipped and
// reported in the result; they never fail the whole workbook.
func (c *Composer) Compose(docs []workout.Document) (*ComposeResult, error) {
	const op = "Compose"

	grid := NewGrid()
	result := &ComposeResult{Grid: grid}
	cursor := firstRow

	for i, doc := range docs {
		if err := doc.Table.Validate(); err != nil {
			compErr := &CompositionError{Index: i, Name: doc.Name, Err: err}
			c.log.Warn().
				Err(err).
				Int("document", i).
				Str("file", doc.Name).
				Msg("Skipping malformed document")
			result.Skipped = append(result.Skipped, compErr)
			continue
		}

		next, err := writeBlock(grid, cursor, doc)
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", op, i, err)
		}
		cursor = next

		c.log.Debug().
			Int("document", i).
			Str("header", doc.HeaderLabel).
			Int("rows", len(doc.Table.Rows)).
			Int("set_columns", doc.Table.SetColumnCount).
			Msg("Document written")
	}

	if err := AutoSize(grid); err != nil {
		return nil, fmt.Errorf("%s: failed to size columns: %w", op, err)
	}

	return result, nil
}

// writeBlock writes one document starting at row and returns the row where
// the next block begins.
func writeBlock(grid *Grid, row int, doc workout.Document) (int, error) {
	table := doc.Table
	lastCol := table.SetColumnCount + 2

	if err := grid.SetCell(row, 1, StringValue(doc.HeaderLabel), StyleTitle); err != nil {
		return 0, err
	}
	if err := grid.MergeRange(row, 1, lastCol); err != nil {
		return 0, err
	}
	row++

	for col, title := range ColumnHeaders(table.SetColumnCount) {
		if err := grid.SetCell(row, col+1, StringValue(title), StyleHeader); err != nil {
			return 0, err
		}
	}
	row++

	for i, r := range table.Rows {
		if err := writeRow(grid, row+i, r); err != nil {
			return 0, err
		}
	}
	row += len(table.Rows)

	return row + blockSpacing, nil
}

func writeRow(grid *Grid, row int, r workout.Row) error {
	if err := grid.SetCell(row, 1, StringValue(r.Exercise), StyleData); err != nil {
		return err
	}
	for i, set := range r.Sets {
		if err := grid.SetCell(row, i+2, Coerce(set), StyleData); err != nil {
			return err
		}
	}
	return grid.SetCell(row, len(r.Sets)+2, StringValue(r.Note), StyleData)
}

// ColumnHeaders returns "Exercise", "Set 1".."Set n", "Extra Info".
func ColumnHeaders(setColumns int) []string {
	headers := make([]string, 0, setColumns+2)
	headers = append(headers, exerciseHeader)
	for i := 1; i <= setColumns; i++ {
		headers = append(headers, fmt.Sprintf("Set %d", i))
	}
	return append(headers, noteHeader)
}
