package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"liftsheet/internal/logger"
)

// documentProcessor is the subset of the Document AI client used here.
type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentAIConfig identifies the Document AI OCR processor.
type DocumentAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

// processorName returns the fully qualified processor resource name.
func (c DocumentAIConfig) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAIService implements TextDetector with a Document AI OCR processor.
type DocumentAIService struct {
	client documentProcessor
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIService creates a Document AI client for the configured location.
func NewDocumentAIService(ctx context.Context, config DocumentAIConfig) (*DocumentAIService, error) {
	const op = "NewDocumentAIService"

	if config.Location == "" {
		config.Location = "us"
	}

	opts := googleClientOptions()
	credentialed := len(opts) > 0
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		if !credentialed {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return newDocumentAIService(client, config), nil
}

func newDocumentAIService(client documentProcessor, config DocumentAIConfig) *DocumentAIService {
	return &DocumentAIService{
		client: client,
		config: config,
		log:    logger.WithComponent("ocr-documentai"),
	}
}

// DetectText sends the image to the OCR processor and returns the document text.
func (d *DocumentAIService) DetectText(ctx context.Context, image []byte) ([]string, error) {
	const op = "DetectText"
	startTime := time.Now()

	if err := validateImage(op, image); err != nil {
		return nil, err
	}

	req := &documentaipb.ProcessRequest{
		Name: d.config.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: mimeType(image),
			},
		},
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, callFailed(op, err, "Document AI call failed")
	}

	text := resp.GetDocument().GetText()

	d.log.Debug().
		Str("processor", d.config.ProcessorID).
		Int("text_length", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("Document AI OCR completed")

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []string{text}, nil
}

// Close closes the underlying Document AI client.
func (d *DocumentAIService) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
