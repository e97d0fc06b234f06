// Package sheets mirrors a composed workout grid into a Google Sheet.
package sheets

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"liftsheet/internal/logger"
	"liftsheet/internal/workbook"
)

// Calibri 11 metrics: widest digit and the cell padding around it.
const (
	maxDigitWidth = 7
	columnPadding = 5
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Service handles Google Sheets operations
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewSheetsService creates a new Google Sheets service
func NewSheetsService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return newService(sheetsService, spreadsheetID), nil
}

func newService(svc *sheets.Service, spreadsheetID string) *Service {
	return &Service{
		sheetsService: svc,
		spreadsheetID: spreadsheetID,
		log:           logger.WithComponent("sheets"),
	}
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// WriteGrid replaces the contents of sheetName with the grid: values first,
// then merges, header styling, borders and column widths.
func (s *Service) WriteGrid(ctx context.Context, grid *workbook.Grid, sheetName string, fill colorful.Color) error {
	const op = "WriteGrid"

	rows, cols := grid.Dimensions()
	s.log.Info().
		Str("sheet", sheetName).
		Int("rows", rows).
		Int("columns", cols).
		Msg("Writing workbook grid to Google Sheet")

	sheetID, err := s.resetSheet(ctx, sheetName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return nil
	}

	valueRange := &sheets.ValueRange{Values: gridValues(grid)}
	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		a1Range(sheetName, "A1"),
		valueRange,
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to write values: %w", op, err)
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: formatRequests(sheetID, grid, fill)}
	if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%s: failed to format sheet: %w", op, err)
	}

	s.log.Info().
		Int("rows_written", rows).
		Int("format_requests", len(req.Requests)).
		Msg("Successfully wrote grid to Google Sheet")

	return nil
}

// resetSheet returns the ID of sheetName, creating it when missing and
// clearing values, merges and formats when it already exists.
func (s *Service) resetSheet(ctx context.Context, sheetName string) (int64, error) {
	const op = "resetSheet"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title != sheetName {
			continue
		}
		sheetID := sheet.Properties.SheetId

		_, err := s.sheetsService.Spreadsheets.Values.Clear(
			s.spreadsheetID, a1Range(sheetName, "A:ZZ"), &sheets.ClearValuesRequest{},
		).Context(ctx).Do()
		if err != nil {
			return 0, fmt.Errorf("%s: failed to clear sheet: %w", op, err)
		}

		whole := &sheets.GridRange{
			SheetId:         sheetID,
			ForceSendFields: []string{"SheetId"},
		}
		reset := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{UnmergeCells: &sheets.UnmergeCellsRequest{Range: whole}},
				{RepeatCell: &sheets.RepeatCellRequest{
					Range:  whole,
					Cell:   &sheets.CellData{},
					Fields: "userEnteredFormat",
				}},
			},
		}
		if _, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, reset).Context(ctx).Do(); err != nil {
			return 0, fmt.Errorf("%s: failed to reset sheet formatting: %w", op, err)
		}
		return sheetID, nil
	}

	s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

	add := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
		},
	}
	resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, add).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to create sheet: %w", op, err)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// a1Range quotes the sheet name for A1 notation.
func a1Range(sheetName, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheetName, "'", "''"), cells)
}

// gridValues renders the grid as a dense matrix; unset cells are "".
func gridValues(grid *workbook.Grid) [][]interface{} {
	rows, cols := grid.Dimensions()
	values := make([][]interface{}, rows)
	for r := range values {
		values[r] = make([]interface{}, cols)
		for c := range values[r] {
			values[r][c] = ""
		}
	}
	for _, coord := range grid.Cells() {
		cell, _ := grid.Cell(coord.Row, coord.Col)
		values[coord.Row-1][coord.Col-1] = cell.Value.Interface()
	}
	return values
}

// formatRequests builds merges, cell styles and borders for the grid.
// Grid coordinates are 1-based; GridRange indexes are 0-based and half-open.
func formatRequests(sheetID int64, grid *workbook.Grid, fill colorful.Color) []*sheets.Request {
	var requests []*sheets.Request

	for _, m := range grid.Merges() {
		requests = append(requests, &sheets.Request{
			MergeCells: &sheets.MergeCellsRequest{
				Range:     cellRange(sheetID, m.Row, m.FromCol, m.ToCol),
				MergeType: "MERGE_ALL",
			},
		})
	}

	for _, coord := range grid.Cells() {
		cell, _ := grid.Cell(coord.Row, coord.Col)
		rng := cellRange(sheetID, coord.Row, coord.Col, coord.Col)

		if format, fields := cellFormat(cell.Style, fill); format != nil {
			requests = append(requests, &sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range:  rng,
					Cell:   &sheets.CellData{UserEnteredFormat: format},
					Fields: fields,
				},
			})
		}

		if cell.Style == workbook.StyleHeader || cell.Style == workbook.StyleData {
			thin := &sheets.Border{Style: "SOLID", Width: 1}
			requests = append(requests, &sheets.Request{
				UpdateBorders: &sheets.UpdateBordersRequest{
					Range:  rng,
					Top:    thin,
					Bottom: thin,
					Left:   thin,
					Right:  thin,
				},
			})
		}
	}

	_, cols := grid.Dimensions()
	for col := 1; col <= cols; col++ {
		width, ok := grid.ColumnWidth(col)
		if !ok {
			continue
		}
		requests = append(requests, &sheets.Request{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "COLUMNS",
					StartIndex:      int64(col - 1),
					EndIndex:        int64(col),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
				Properties: &sheets.DimensionProperties{PixelSize: columnPixels(width)},
				Fields:     "pixelSize",
			},
		})
	}

	return requests
}

// columnPixels converts a width in characters to pixels using the
// default 11pt font, matching how Excel renders the same width.
func columnPixels(width float64) int64 {
	return int64(math.Round(width*maxDigitWidth + columnPadding))
}

func cellRange(sheetID int64, row, fromCol, toCol int) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(row - 1),
		EndRowIndex:      int64(row),
		StartColumnIndex: int64(fromCol - 1),
		EndColumnIndex:   int64(toCol),
		// sheet 0 is the default first sheet and must still be sent
		ForceSendFields: []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}
}

func cellFormat(style workbook.Style, fill colorful.Color) (*sheets.CellFormat, string) {
	switch style {
	case workbook.StyleTitle:
		return &sheets.CellFormat{
			TextFormat:          &sheets.TextFormat{Bold: true},
			HorizontalAlignment: "CENTER",
		}, "userEnteredFormat(textFormat,horizontalAlignment)"
	case workbook.StyleHeader:
		c := fill.Clamped()
		return &sheets.CellFormat{
			TextFormat:          &sheets.TextFormat{Bold: true},
			HorizontalAlignment: "CENTER",
			VerticalAlignment:   "MIDDLE",
			BackgroundColor:     &sheets.Color{Red: c.R, Green: c.G, Blue: c.B},
		}, "userEnteredFormat(textFormat,horizontalAlignment,verticalAlignment,backgroundColor)"
	default:
		return nil, ""
	}
}
