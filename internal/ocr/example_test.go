package ocr_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"liftsheet/internal/config"
	"liftsheet/internal/ocr"
)

// Example demonstrates text detection with the default Vision provider.
func Example() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Credentials are read from GOOGLE_CREDENTIALS or
	// GOOGLE_APPLICATION_CREDENTIALS.
	detector, err := ocr.NewGoogleVisionService(ctx)
	if err != nil {
		log.Fatalf("Failed to create OCR service: %v", err)
	}
	defer detector.Close()

	image, err := os.ReadFile("workout_log.jpg")
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	results, err := detector.DetectText(ctx, image)
	if err != nil {
		log.Fatalf("Failed to detect text: %v", err)
	}

	fmt.Println(ocr.FullText(results))
}

// Example_fromConfig selects the provider from the environment configuration.
func Example_fromConfig() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	detector, err := ocr.NewTextDetector(ctx, cfg)
	if errors.Is(err, ocr.ErrProviderUnavailable) {
		log.Fatalf("Provider %s is not compiled in", cfg.OCRProvider)
	}
	if err != nil {
		log.Fatalf("Failed to create OCR provider: %v", err)
	}
	defer detector.Close()

	image, _ := os.ReadFile("workout_log.jpg")
	results, err := detector.DetectText(ctx, image)
	if err != nil {
		log.Fatalf("Failed to detect text: %v", err)
	}

	fmt.Printf("%d text annotations\n", len(results))
}

func ExampleFullText() {
	results := []string{"Leg Day\nSquat: 8/8/8", "Leg", "Day", "Squat"}
	fmt.Println(ocr.FullText(results))
	fmt.Printf("%q\n", ocr.FullText(nil))
	// Output:
	// Leg Day
	// Squat: 8/8/8
	// ""
}
