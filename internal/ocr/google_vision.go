package ocr

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"liftsheet/internal/logger"
)

// imageAnnotator is the subset of the Vision client used here.
type imageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// GoogleVisionService implements TextDetector using Google Cloud Vision API.
type GoogleVisionService struct {
	client imageAnnotator
	log    zerolog.Logger
}

// NewGoogleVisionService creates a Vision client with credentials from environment.
func NewGoogleVisionService(ctx context.Context) (*GoogleVisionService, error) {
	const op = "NewGoogleVisionService"

	opts := googleClientOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return newGoogleVisionService(client), nil
}

func newGoogleVisionService(client imageAnnotator) *GoogleVisionService {
	return &GoogleVisionService{
		client: client,
		log:    logger.WithComponent("ocr-vision"),
	}
}

// DetectText runs TEXT_DETECTION on the image and returns every annotation
// description. The first annotation covers the whole image.
func (g *GoogleVisionService) DetectText(ctx context.Context, image []byte) ([]string, error) {
	const op = "DetectText"
	startTime := time.Now()

	if err := validateImage(op, image); err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, callFailed(op, err, "Vision API call failed")
	}

	if len(resp.GetResponses()) == 0 {
		return nil, nil
	}

	imageResp := resp.GetResponses()[0]
	if imageResp.GetError() != nil && imageResp.GetError().GetMessage() != "" {
		return nil, WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", imageResp.GetError().GetMessage()))
	}

	texts := make([]string, 0, len(imageResp.GetTextAnnotations()))
	for _, annotation := range imageResp.GetTextAnnotations() {
		texts = append(texts, annotation.GetDescription())
	}

	g.log.Debug().
		Int("annotations", len(texts)).
		Int("image_bytes", len(image)).
		Dur("duration", time.Since(startTime)).
		Msg("Vision text detection completed")

	return texts, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
