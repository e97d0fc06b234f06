package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"liftsheet/internal/logger"
	"liftsheet/internal/workbook"
)

// OCR provider names accepted in OCR_PROVIDER.
const (
	ProviderVision     = "vision"
	ProviderDocumentAI = "documentai"
	ProviderOpenAI     = "openai"
	ProviderTesseract  = "tesseract"
)

type Config struct {
	// HTTP Server Configuration
	ListenAddr     string
	UploadDir      string
	MaxUploadBytes int64

	// OCR Configuration
	OCRProvider string
	OCRTimeout  time.Duration

	// Google Cloud Configuration
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// OpenAI Configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Tesseract Configuration
	TesseractLanguage string

	// Image Preprocessing Configuration
	PreprocessImages       bool
	PreprocessMaxDimension int
	PreprocessGrayscale    bool
	PreprocessContrast     float64

	// Workbook Configuration
	WorksheetName   string
	HeaderFillColor colorful.Color

	// Optional: Google Sheets export
	GoogleSheetURL string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		ListenAddr:             getEnv("LISTEN_ADDR", ":5000"),
		UploadDir:              getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:         int64(getEnvInt("MAX_UPLOAD_BYTES", 32<<20)),
		OCRProvider:            strings.ToLower(getEnv("OCR_PROVIDER", ProviderVision)),
		OCRTimeout:             time.Duration(getEnvInt("OCR_TIMEOUT_SECONDS", 60)) * time.Second,
		GoogleCloudProject:     getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:    getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:  getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		TesseractLanguage:      getEnv("TESSERACT_LANGUAGE", "eng"),
		PreprocessImages:       getEnvBool("PREPROCESS_IMAGES", false),
		PreprocessMaxDimension: getEnvInt("PREPROCESS_MAX_DIMENSION", 2048),
		PreprocessGrayscale:    getEnvBool("PREPROCESS_GRAYSCALE", false),
		PreprocessContrast:     getEnvFloat("PREPROCESS_CONTRAST", 0),
		WorksheetName:          getEnv("WORKSHEET_NAME", workbook.DefaultSheetName),
		GoogleSheetURL:         getEnv("GOOGLE_SHEET_URL", ""),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:          getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:              getEnv("LOG_OUTPUT", "stdout"),
	}

	fill, err := workbook.ParseFillColor(getEnv("HEADER_FILL_COLOR", "00A9E0"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: HEADER_FILL_COLOR: %w", err)
	}
	config.HeaderFillColor = fill

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCRProvider {
	case ProviderVision, ProviderTesseract:
	case ProviderDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai provider")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown OCR_PROVIDER %q", c.OCRProvider)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT_SECONDS must be positive")
	}
	if c.PreprocessMaxDimension < 0 {
		return fmt.Errorf("PREPROCESS_MAX_DIMENSION must not be negative")
	}
	if c.PreprocessContrast < -100 || c.PreprocessContrast > 100 {
		return fmt.Errorf("PREPROCESS_CONTRAST must be between -100 and 100")
	}
	if c.WorksheetName == "" {
		return fmt.Errorf("WORKSHEET_NAME must not be empty")
	}
	if err := workbook.ValidateSheetName(c.WorksheetName); err != nil {
		return fmt.Errorf("WORKSHEET_NAME %q is not a valid sheet name: %w", c.WorksheetName, err)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetWorkbookOptions returns the encoding options for generated workbooks
func (c *Config) GetWorkbookOptions() workbook.Options {
	return workbook.Options{
		SheetName:  c.WorksheetName,
		HeaderFill: c.HeaderFillColor,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
