package ocr

import (
	"context"
	"fmt"

	"liftsheet/internal/config"
)

// NewTextDetector creates the provider named by cfg.OCRProvider.
func NewTextDetector(ctx context.Context, cfg *config.Config) (TextDetector, error) {
	const op = "NewTextDetector"

	var (
		detector TextDetector
		err      error
	)

	switch cfg.OCRProvider {
	case config.ProviderVision, "":
		var svc *GoogleVisionService
		if svc, err = NewGoogleVisionService(ctx); err == nil {
			detector = svc
		}
	case config.ProviderDocumentAI:
		var svc *DocumentAIService
		if svc, err = NewDocumentAIService(ctx, DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		}); err == nil {
			detector = svc
		}
	case config.ProviderOpenAI:
		var svc *OpenAIVisionService
		if svc, err = NewOpenAIVisionService(OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		}); err == nil {
			detector = svc
		}
	case config.ProviderTesseract:
		var svc *TesseractService
		if svc, err = NewTesseractService(cfg.TesseractLanguage); err == nil {
			detector = svc
		}
	default:
		err = NewOCRError(op, ErrUnknownProvider, fmt.Sprintf("provider %q", cfg.OCRProvider))
	}

	if err != nil {
		return nil, err
	}
	return detector, nil
}
