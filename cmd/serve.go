package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"liftsheet/internal/logger"
	"liftsheet/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP upload endpoint",
	Long: `Start an HTTP server that converts uploaded workout-log photos into an
Excel workbook.

  GET  /   returns {"message": "Upload your files"}
  POST /   multipart field "files[]", responds with workout.xlsx

Cross-origin requests are allowed from any origin.`,
	Example: `  # Listen on the configured LISTEN_ADDR (default :5000)
  liftsheet serve

  # Listen on another port
  liftsheet serve --addr :8080

  # Upload two photos
  curl -F 'files[]=@monday.jpg' -F 'files[]=@tuesday.jpg' localhost:5000/ -o workout.xlsx`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: LISTEN_ADDR or :5000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.ListenAddr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor, detector, err := newProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := detector.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close OCR provider")
		}
	}()

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("provider", cfg.OCRProvider).
		Str("upload_dir", cfg.UploadDir).
		Int64("max_upload_bytes", cfg.MaxUploadBytes).
		Msg("Starting HTTP server")

	srv := server.New(processor, server.Options{
		Workbook:       cfg.GetWorkbookOptions(),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}
