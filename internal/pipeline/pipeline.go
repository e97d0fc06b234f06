// Package pipeline runs uploaded workout-log images through text detection
// and parsing, one image at a time and in upload order.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"liftsheet/internal/logger"
	"liftsheet/internal/ocr"
	"liftsheet/internal/workout"
)

// Upload is one image received from a client or read from disk.
type Upload struct {
	Name string
	Data []byte
}

// Preparer rewrites image bytes before detection.
type Preparer interface {
	Prepare(data []byte) ([]byte, error)
}

// Options configures a Processor.
type Options struct {
	// UploadDir is where uploads are staged; empty means the system temp dir.
	UploadDir string
	// Timeout bounds each text detection call; 0 means no extra bound.
	Timeout time.Duration
	// Preparer is optional.
	Preparer Preparer
}

// Processor turns uploads into parsed documents.
type Processor struct {
	detector  ocr.TextDetector
	prep      Preparer
	uploadDir string
	timeout   time.Duration
}

// NewProcessor creates a Processor around an OCR provider.
func NewProcessor(detector ocr.TextDetector, opts Options) *Processor {
	return &Processor{
		detector:  detector,
		prep:      opts.Preparer,
		uploadDir: opts.UploadDir,
		timeout:   opts.Timeout,
	}
}

// Process handles every upload in order. The first failure aborts the whole
// batch; no partial result is returned.
func (p *Processor) Process(ctx context.Context, uploads []Upload) ([]workout.Document, error) {
	const op = "Process"
	log := logger.FromContext(ctx, "pipeline")

	if p.uploadDir != "" {
		if err := os.MkdirAll(p.uploadDir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: failed to create upload directory: %w", op, err)
		}
	}

	docs := make([]workout.Document, 0, len(uploads))
	for i, upload := range uploads {
		doc, err := p.processOne(ctx, upload, log)
		if err != nil {
			return nil, fmt.Errorf("%s: file %d (%s): %w", op, i, upload.Name, err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (p *Processor) processOne(ctx context.Context, upload Upload, log zerolog.Logger) (workout.Document, error) {
	startTime := time.Now()

	data, cleanup, err := p.stage(upload)
	if err != nil {
		return workout.Document{}, err
	}
	defer cleanup()

	if p.prep != nil {
		if data, err = p.prep.Prepare(data); err != nil {
			return workout.Document{}, fmt.Errorf("failed to prepare image: %w", err)
		}
	}

	detectCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		detectCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	results, err := p.detector.DetectText(detectCtx, data)
	if err != nil {
		return workout.Document{}, err
	}

	doc := workout.Parse(upload.Name, workout.NewTranscription(ocr.FullText(results)))

	log.Info().
		Str("file", upload.Name).
		Int("bytes", len(upload.Data)).
		Str("header", doc.HeaderLabel).
		Int("rows", len(doc.Table.Rows)).
		Int("set_columns", doc.Table.SetColumnCount).
		Dur("duration", time.Since(startTime)).
		Msg("Image processed")

	return doc, nil
}

// stage writes the upload to a temporary file in the upload directory and
// reads it back. The returned cleanup removes the file.
func (p *Processor) stage(upload Upload) ([]byte, func(), error) {
	f, err := os.CreateTemp(p.uploadDir, "upload-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.Write(upload.Data); err != nil {
		f.Close()
		cleanup()
		return nil, nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		cleanup()
		return nil, nil, fmt.Errorf("failed to rewind staged upload: %w", err)
	}

	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to read staged upload: %w", err)
	}

	return data, cleanup, nil
}
