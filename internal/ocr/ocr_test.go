package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/genproto/googleapis/rpc/status"
	"liftsheet/internal/config"
)

var pngImage = []byte("\x89PNG\r\n\x1a\nnot really a png")

type fakeAnnotator struct {
	resp   *visionpb.BatchAnnotateImagesResponse
	err    error
	req    *visionpb.BatchAnnotateImagesRequest
	closed bool
}

func (f *fakeAnnotator) BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeAnnotator) Close() error {
	f.closed = true
	return nil
}

func TestGoogleVisionService_DetectText(t *testing.T) {
	fake := &fakeAnnotator{
		resp: &visionpb.BatchAnnotateImagesResponse{
			Responses: []*visionpb.AnnotateImageResponse{
				{
					TextAnnotations: []*visionpb.EntityAnnotation{
						{Description: "Leg Day\nSquat: 8/8"},
						{Description: "Leg"},
						{Description: "Day"},
					},
				},
			},
		},
	}
	svc := newGoogleVisionService(fake)

	got, err := svc.DetectText(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("DetectText() = %v", err)
	}
	want := []string{"Leg Day\nSquat: 8/8", "Leg", "Day"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectText() = %q, want %q", got, want)
	}
	if FullText(got) != want[0] {
		t.Errorf("FullText() = %q", FullText(got))
	}

	feature := fake.req.GetRequests()[0].GetFeatures()[0].GetType()
	if feature != visionpb.Feature_TEXT_DETECTION {
		t.Errorf("feature = %v, want TEXT_DETECTION", feature)
	}

	if err := svc.Close(); err != nil || !fake.closed {
		t.Errorf("Close() = %v, closed = %v", err, fake.closed)
	}
}

func TestGoogleVisionService_NoTextIsNotAnError(t *testing.T) {
	for _, resp := range []*visionpb.BatchAnnotateImagesResponse{
		{},
		{Responses: []*visionpb.AnnotateImageResponse{{}}},
	} {
		svc := newGoogleVisionService(&fakeAnnotator{resp: resp})
		got, err := svc.DetectText(context.Background(), pngImage)
		if err != nil {
			t.Fatalf("DetectText() = %v, want nil", err)
		}
		if FullText(got) != "" {
			t.Errorf("FullText() = %q, want empty", FullText(got))
		}
	}
}

func TestGoogleVisionService_Errors(t *testing.T) {
	tests := []struct {
		name  string
		fake  *fakeAnnotator
		image []byte
		want  error
	}{
		{
			name:  "empty image",
			fake:  &fakeAnnotator{},
			image: nil,
			want:  ErrEmptyImage,
		},
		{
			name:  "image too large",
			fake:  &fakeAnnotator{},
			image: make([]byte, MaxImageBytes+1),
			want:  ErrImageTooLarge,
		},
		{
			name:  "transport failure",
			fake:  &fakeAnnotator{err: errors.New("unavailable")},
			image: pngImage,
			want:  ErrOCRFailed,
		},
		{
			name: "api error",
			fake: &fakeAnnotator{resp: &visionpb.BatchAnnotateImagesResponse{
				Responses: []*visionpb.AnnotateImageResponse{
					{Error: &status.Status{Code: 3, Message: "bad image data"}},
				},
			}},
			image: pngImage,
			want:  ErrOCRFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newGoogleVisionService(tt.fake).DetectText(context.Background(), tt.image)
			if !errors.Is(err, tt.want) {
				t.Errorf("DetectText() error = %v, want %v", err, tt.want)
			}
			var ocrErr *OCRError
			if !errors.As(err, &ocrErr) || ocrErr.Op != "DetectText" {
				t.Errorf("error %v is not an OCRError for DetectText", err)
			}
		})
	}
}

func TestDetectText_KeepsContextErrors(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent on a canceled context")
	}))
	defer srv.Close()
	openaiSvc, err := NewOpenAIVisionService(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIVisionService() = %v", err)
	}

	tests := []struct {
		name     string
		ctx      context.Context
		detector TextDetector
		want     error
	}{
		{
			name:     "vision deadline",
			ctx:      context.Background(),
			detector: newGoogleVisionService(&fakeAnnotator{err: context.DeadlineExceeded}),
			want:     context.DeadlineExceeded,
		},
		{
			name:     "document ai canceled",
			ctx:      context.Background(),
			detector: newDocumentAIService(&fakeProcessor{err: context.Canceled}, DocumentAIConfig{}),
			want:     context.Canceled,
		},
		{
			name:     "openai canceled",
			ctx:      canceled,
			detector: openaiSvc,
			want:     context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.detector.DetectText(tt.ctx, pngImage)
			if !errors.Is(err, tt.want) {
				t.Errorf("DetectText() error = %v, want %v in chain", err, tt.want)
			}
			if !errors.Is(err, ErrOCRFailed) {
				t.Errorf("DetectText() error = %v, want ErrOCRFailed in chain", err)
			}
			var ocrErr *OCRError
			if !errors.As(err, &ocrErr) || ocrErr.Op != "DetectText" {
				t.Errorf("error %v is not an OCRError for DetectText", err)
			}
		})
	}
}

type fakeProcessor struct {
	resp *documentaipb.ProcessResponse
	err  error
	req  *documentaipb.ProcessRequest
}

func (f *fakeProcessor) ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error) {
	f.req = req
	return f.resp, f.err
}

func (f *fakeProcessor) Close() error { return nil }

func TestDocumentAIService_DetectText(t *testing.T) {
	fake := &fakeProcessor{
		resp: &documentaipb.ProcessResponse{
			Document: &documentaipb.Document{Text: "Push Day\nBench: 5/5/5"},
		},
	}
	svc := newDocumentAIService(fake, DocumentAIConfig{ProjectID: "p", Location: "eu", ProcessorID: "ocr1"})

	got, err := svc.DetectText(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("DetectText() = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Push Day\nBench: 5/5/5"}) {
		t.Errorf("DetectText() = %q", got)
	}

	if fake.req.GetName() != "projects/p/locations/eu/processors/ocr1" {
		t.Errorf("processor name = %q", fake.req.GetName())
	}
	if mt := fake.req.GetRawDocument().GetMimeType(); mt != "image/png" {
		t.Errorf("mime type = %q, want image/png", mt)
	}
}

func TestDocumentAIService_BlankText(t *testing.T) {
	fake := &fakeProcessor{resp: &documentaipb.ProcessResponse{Document: &documentaipb.Document{Text: " \n"}}}
	got, err := newDocumentAIService(fake, DocumentAIConfig{}).DetectText(context.Background(), pngImage)
	if err != nil || len(got) != 0 {
		t.Errorf("DetectText() = %q, %v, want empty, nil", got, err)
	}
}

func TestOpenAIVisionService_DetectText(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		if !strings.Contains(string(raw), "data:image/png;base64,") {
			t.Errorf("request does not carry a PNG data URL: %s", raw)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Leg Day\nSquat: 8/8\n"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer srv.Close()

	svc, err := NewOpenAIVisionService(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIVisionService() = %v", err)
	}

	got, err := svc.DetectText(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("DetectText() = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"Leg Day\nSquat: 8/8"}) {
		t.Errorf("DetectText() = %q", got)
	}
	if body["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v, want gpt-4o-mini", body["model"])
	}
}

func TestOpenAIVisionService_RequiresKey(t *testing.T) {
	_, err := NewOpenAIVisionService(OpenAIConfig{})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("NewOpenAIVisionService() error = %v, want ErrMissingCredentials", err)
	}
}

func TestNewTextDetector_UnknownProvider(t *testing.T) {
	_, err := NewTextDetector(context.Background(), &config.Config{OCRProvider: "abbyy"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("NewTextDetector() error = %v, want ErrUnknownProvider", err)
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{pngImage, "image/png"},
		{[]byte("\xff\xd8\xff\xe0rest"), "image/jpeg"},
		{[]byte("plain text"), "image/jpeg"},
	}
	for _, tt := range tests {
		if got := mimeType(tt.data); got != tt.want {
			t.Errorf("mimeType(%q) = %s, want %s", tt.data, got, tt.want)
		}
	}
}
