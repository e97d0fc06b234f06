// Package server exposes the upload-to-workbook conversion over HTTP.
//
//	GET  /  returns {"message": "Upload your files"}
//	POST /  accepts multipart field "files[]" and returns workout.xlsx
//
// Every route allows cross-origin requests from any origin.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"liftsheet/internal/logger"
	"liftsheet/internal/pipeline"
	"liftsheet/internal/workbook"
	"liftsheet/internal/workout"
)

const (
	// FileField is the multipart field carrying the images.
	FileField = "files[]"

	// DownloadName is the attachment name of the generated workbook.
	DownloadName = "workout.xlsx"

	requestIDHeader = "X-Request-ID"
)

// ErrNoFiles is returned when a POST carries no files.
var ErrNoFiles = errors.New("No files received")

// DocumentProcessor turns uploads into parsed documents.
type DocumentProcessor interface {
	Process(ctx context.Context, uploads []pipeline.Upload) ([]workout.Document, error)
}

// Options configures a Server.
type Options struct {
	Workbook       workbook.Options
	MaxUploadBytes int64
}

// Server handles upload requests.
type Server struct {
	processor DocumentProcessor
	composer  *workbook.Composer
	opts      Options
	log       zerolog.Logger
}

// New creates a Server.
func New(processor DocumentProcessor, opts Options) *Server {
	if opts.Workbook.SheetName == "" {
		opts.Workbook = workbook.DefaultOptions()
	}
	return &Server{
		processor: processor,
		composer:  workbook.NewComposer(),
		opts:      opts,
		log:       logger.WithComponent("server"),
	}
}

// Handler returns the routed handler with CORS and request IDs applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleUpload)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", requestIDHeader},
	})

	return c.Handler(s.withRequestID(mux))
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		l := logger.WithRequestID(id)
		ctx := logger.IntoContext(r.Context(), l)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Upload your files"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), "server")
	startTime := time.Now()

	uploads, err := s.readUploads(w, r)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	log.Info().Int("files", len(uploads)).Msg("Processing upload")

	docs, err := s.processor.Process(r.Context(), uploads)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	result, err := s.composer.Compose(docs)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	for _, skipped := range result.Skipped {
		log.Warn().Err(skipped).Msg("Document left out of workbook")
	}

	data, err := workbook.Encode(result.Grid, s.opts.Workbook)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	w.Header().Set("Content-Type", workbook.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
		return
	}

	log.Info().
		Int("documents", len(docs)).
		Int("skipped", len(result.Skipped)).
		Int("bytes", len(data)).
		Dur("duration", time.Since(startTime)).
		Msg("Workbook sent")
}

// readUploads reads every file of the files[] field in request order.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]pipeline.Upload, error) {
	if s.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, ErrNoFiles
		}
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[FileField]
	if len(headers) == 0 {
		return nil, ErrNoFiles
	}

	uploads := make([]pipeline.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, pipeline.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) fail(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrNoFiles) {
		status = http.StatusBadRequest
		log.Warn().Msg("Upload without files")
	} else {
		log.Error().Err(err).Msg("Upload processing failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
