package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"liftsheet/internal/config"
	"liftsheet/internal/logger"
	"liftsheet/internal/pipeline"
	"liftsheet/internal/sheets"
	"liftsheet/internal/workbook"
)

var convertCmd = &cobra.Command{
	Use:   "convert [image-file...]",
	Short: "Convert workout-log photos into one Excel workbook",
	Long: `Run every image through OCR and write all parsed workouts into a single
worksheet, one block per image in the order given.

When --sheet-url (or GOOGLE_SHEET_URL) is set, the same layout is also
written to a Google Sheet. The service account needs edit access to it.`,
	Example: `  # Convert a week of logs
  liftsheet convert monday.jpg wednesday.jpg friday.jpg -o week.xlsx

  # Also mirror the result into a Google Sheet
  liftsheet convert logs/*.jpg --sheet-url https://docs.google.com/spreadsheets/d/ID/edit`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("output", "o", "workout.xlsx", "Output workbook path")
	convertCmd.Flags().String("sheet-url", "", "Google Sheets URL to mirror the workbook into (default: GOOGLE_SHEET_URL)")
	convertCmd.Flags().Int("timeout", 600, "Overall timeout in seconds")
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("convert")

	outputPath, _ := cmd.Flags().GetString("output")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if sheetURL == "" {
		sheetURL = cfg.GoogleSheetURL
	}

	uploads, err := readUploads(args, log)
	if err != nil {
		return err
	}

	log.Info().
		Int("files", len(uploads)).
		Str("output", outputPath).
		Bool("sheets_export", sheetURL != "").
		Msg("Starting conversion")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	processor, detector, err := newProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer detector.Close()

	startTime := time.Now()
	docs, err := processor.Process(ctx, uploads)
	if err != nil {
		return explainOCRError(err)
	}

	result, err := workbook.NewComposer().Compose(docs)
	if err != nil {
		return fmt.Errorf("failed to compose workbook: %w", err)
	}
	for _, skipped := range result.Skipped {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", skipped)
	}

	data, err := workbook.Encode(result.Grid, cfg.GetWorkbookOptions())
	if err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	log.Info().
		Int("documents", len(docs)).
		Int("skipped", len(result.Skipped)).
		Dur("duration", time.Since(startTime)).
		Str("output", outputPath).
		Msg("Workbook written")
	fmt.Printf("Wrote %d workout(s) to %s\n", len(docs)-len(result.Skipped), outputPath)

	if sheetURL != "" {
		if err := exportToSheet(ctx, cfg, result.Grid, sheetURL, log); err != nil {
			return err
		}
	}

	return nil
}

func exportToSheet(ctx context.Context, cfg *config.Config, grid *workbook.Grid, sheetURL string, log zerolog.Logger) error {
	svc, err := sheets.NewSheetsService(ctx, sheetURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}
	if err := svc.WriteGrid(ctx, grid, cfg.WorksheetName, cfg.HeaderFillColor); err != nil {
		return fmt.Errorf("failed to write Google Sheet: %w", err)
	}

	log.Info().Str("sheet", cfg.WorksheetName).Msg("Google Sheet updated")
	fmt.Printf("Updated sheet %q\n", cfg.WorksheetName)
	return nil
}

// readUploads loads every image argument, keeping the command-line order.
func readUploads(paths []string, log zerolog.Logger) ([]pipeline.Upload, error) {
	uploads := make([]pipeline.Upload, 0, len(paths))
	for _, path := range paths {
		if _, err := validateImageFile(path, log); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		uploads = append(uploads, pipeline.Upload{Name: filepath.Base(path), Data: data})
	}
	return uploads, nil
}
