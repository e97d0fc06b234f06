package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"liftsheet/internal/logger"
	"liftsheet/internal/ocr"
	"liftsheet/internal/pipeline"
	"liftsheet/internal/workout"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Detect text in one workout-log photo and show the parsed table",
	Long: `Run the configured OCR provider on a single image and print the
transcription together with the parsed header label and table.

Use this to check how a photo will be read before converting a batch.

Provider selection (OCR_PROVIDER):
  vision      Google Cloud Vision (default)
  documentai  Google Document AI OCR processor
  openai      OpenAI vision model
  tesseract   Local Tesseract (builds with -tags tesseract)

Google providers read GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.`,
	Example: `  # Print the transcription and parsed rows
  liftsheet ocr monday.jpg

  # Output as JSON
  liftsheet ocr monday.jpg --json -o monday.json

  # Process with custom timeout
  liftsheet ocr monday.jpg --timeout 120`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string        `json:"text"`
	HeaderLabel        string        `json:"header_label"`
	Table              workout.Table `json:"table"`
	Provider           string        `json:"provider"`
	ProcessingDuration string        `json:"processing_duration,omitempty"`
	FileName           string        `json:"file_name"`
	FileSize           int64         `json:"file_size"`
}

// transcriptRecorder keeps the raw transcription while the pipeline parses it.
type transcriptRecorder struct {
	ocr.TextDetector
	text string
}

func (t *transcriptRecorder) DetectText(ctx context.Context, image []byte) ([]string, error) {
	results, err := t.TextDetector.DetectText(ctx, image)
	t.text = ocr.FullText(results)
	return results, err
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	fileInfo, err := validateImageFile(imagePath, log)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	detector, err := ocr.NewTextDetector(ctx, cfg)
	if err != nil {
		return explainOCRError(err)
	}
	defer detector.Close()

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image file: %w", err)
	}

	recorder := &transcriptRecorder{TextDetector: detector}
	processor := pipeline.NewProcessor(recorder, pipelineOptions(cfg))

	startTime := time.Now()
	docs, err := processor.Process(ctx, []pipeline.Upload{{Name: filepath.Base(imagePath), Data: data}})
	if err != nil {
		log.Error().Err(err).Msg("OCR processing failed")
		return explainOCRError(err)
	}

	result := OCROutput{
		Text:               recorder.text,
		HeaderLabel:        docs[0].HeaderLabel,
		Table:              docs[0].Table,
		Provider:           cfg.OCRProvider,
		ProcessingDuration: time.Since(startTime).String(),
		FileName:           filepath.Base(fileInfo.Name()),
		FileSize:           fileInfo.Size(),
	}

	log.Info().
		Str("header", result.HeaderLabel).
		Int("rows", len(result.Table.Rows)).
		Int("text_length", len(result.Text)).
		Str("duration", result.ProcessingDuration).
		Msg("OCR processing completed successfully")

	return outputResults(result, outputPath, jsonOutput, log)
}

// validateImageFile checks that the path is a readable, non-empty regular file
// within the provider size limit.
func validateImageFile(imagePath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", imagePath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Permission denied accessing image file")
			return nil, fmt.Errorf("permission denied accessing image file: %s", imagePath)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", imagePath)
	}

	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("image file is empty: %s", imagePath)
	}

	if fileInfo.Size() > ocr.MaxImageBytes {
		log.Error().
			Str("file", imagePath).
			Int64("size", fileInfo.Size()).
			Int64("max_size", ocr.MaxImageBytes).
			Msg("Image file exceeds maximum size limit")
		return nil, fmt.Errorf("image file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), ocr.MaxImageBytes)
	}

	return fileInfo, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// explainOCRError provides user-friendly error messages for OCR failures
func explainOCRError(err error) error {
	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or OCR_TIMEOUT_SECONDS")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image is too large (maximum 20MB). Try a smaller photo or enable PREPROCESS_IMAGES")
	case errors.Is(err, ocr.ErrEmptyImage):
		return fmt.Errorf("image file is empty")
	case errors.Is(err, ocr.ErrUnknownProvider):
		return fmt.Errorf("unknown OCR_PROVIDER. Use one of: vision, documentai, openai, tesseract: %w", err)
	case errors.Is(err, ocr.ErrProviderUnavailable):
		return fmt.Errorf("the tesseract provider needs a build with -tags tesseract and libtesseract installed: %w", err)
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n"+
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n"+
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n"+
			"2. Export GOOGLE_CREDENTIALS with inline JSON:\n"+
			"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n"+
			"3. Use Application Default Credentials (if gcloud is configured):\n"+
			"   gcloud auth application-default login\n\n"+
			"Original error: %w", err)
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials and ensure the service account has access to the selected OCR API: %w", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Please ensure your service account may call the selected OCR API: %w", err)
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota"):
		return fmt.Errorf("OCR API quota exceeded. Check your project quotas: %w", err)
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return err
	}
}

// outputResults formats and outputs the OCR results
func outputResults(result OCROutput, outputPath string, jsonOutput bool, log zerolog.Logger) error {
	var outputData []byte

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = append(data, '\n')
	} else {
		outputData = []byte(formatText(result))
	}

	if outputPath == "" {
		if _, err := os.Stdout.Write(outputData); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(outputData)).
		Msg("OCR results written to file")
	return nil
}

func formatText(result OCROutput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== OCR Results for %s ===\n", result.FileName)
	fmt.Fprintf(&b, "Provider: %s\n", result.Provider)
	fmt.Fprintf(&b, "Processing time: %s\n\n", result.ProcessingDuration)
	b.WriteString("=== Extracted Text ===\n\n")
	b.WriteString(result.Text)
	b.WriteString("\n\n=== Parsed Table ===\n\n")
	fmt.Fprintf(&b, "%s\n", result.HeaderLabel)

	for _, row := range result.Table.Rows {
		fmt.Fprintf(&b, "  %-20s %s", row.Exercise, strings.Join(displaySets(row.Sets), " | "))
		if row.Note != "" {
			fmt.Fprintf(&b, "  (%s)", row.Note)
		}
		b.WriteString("\n")
	}
	if len(result.Table.Rows) == 0 {
		b.WriteString("  no exercise lines recognized\n")
	}
	return b.String()
}

func displaySets(sets []string) []string {
	out := make([]string, len(sets))
	for i, s := range sets {
		if s == workout.EmptySet {
			s = "-"
		}
		out[i] = s
	}
	return out
}
