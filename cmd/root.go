package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"liftsheet/internal/config"
	"liftsheet/internal/imageprep"
	"liftsheet/internal/logger"
	"liftsheet/internal/ocr"
	"liftsheet/internal/pipeline"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "liftsheet",
	Short: "Turn photos of handwritten workout logs into Excel workbooks",
	Long: `liftsheet reads photos of handwritten workout logs, detects their text with
an OCR provider and lays every log out as a table in a single Excel worksheet.

Lines such as "Bench: 60/60/65 (pause)" become one row with the exercise,
one column per set and the note in parentheses. Each photo gets its own
block headed by the detected date and workout title.

Run "liftsheet serve" for the HTTP upload endpoint or "liftsheet convert" to
process files from the command line.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("liftsheet executed")

		fmt.Println("Welcome to liftsheet!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

// loadConfig reads the environment configuration for a subcommand.
func loadConfig(log zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, err
	}
	return cfg, nil
}

// newProcessor wires the configured OCR provider and optional image
// preprocessing into a pipeline. The returned detector must be closed.
func newProcessor(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pipeline.Processor, ocr.TextDetector, error) {
	detector, err := ocr.NewTextDetector(ctx, cfg)
	if err != nil {
		log.Error().
			Err(err).
			Str("provider", cfg.OCRProvider).
			Msg("Failed to create OCR provider")
		return nil, nil, explainOCRError(err)
	}

	log.Debug().
		Str("provider", cfg.OCRProvider).
		Bool("preprocess", cfg.PreprocessImages).
		Msg("Pipeline created")

	return pipeline.NewProcessor(detector, pipelineOptions(cfg)), detector, nil
}

// pipelineOptions is shared by every command that runs OCR so a preview
// reads the image exactly the way serve and convert do.
func pipelineOptions(cfg *config.Config) pipeline.Options {
	opts := pipeline.Options{
		UploadDir: cfg.UploadDir,
		Timeout:   cfg.OCRTimeout,
	}
	if cfg.PreprocessImages {
		opts.Preparer = imageprep.NewPreparer(imageprep.Options{
			MaxDimension: cfg.PreprocessMaxDimension,
			Grayscale:    cfg.PreprocessGrayscale,
			Contrast:     cfg.PreprocessContrast,
		})
	}
	return opts
}
