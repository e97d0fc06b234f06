package cmd

import (
	"testing"
	"time"

	"liftsheet/internal/config"
	"liftsheet/internal/imageprep"
)

func TestPipelineOptions(t *testing.T) {
	tests := []struct {
		name         string
		preprocess   bool
		wantPreparer bool
	}{
		{"preprocessing off", false, false},
		{"preprocessing on", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				UploadDir:              "uploads",
				OCRTimeout:             30 * time.Second,
				PreprocessImages:       tt.preprocess,
				PreprocessMaxDimension: 2000,
			}

			opts := pipelineOptions(cfg)
			if opts.UploadDir != "uploads" || opts.Timeout != 30*time.Second {
				t.Errorf("pipelineOptions() = %+v, want config values", opts)
			}

			_, ok := opts.Preparer.(*imageprep.Preparer)
			if ok != tt.wantPreparer {
				t.Errorf("Preparer = %T, want imageprep preparer: %v", opts.Preparer, tt.wantPreparer)
			}
			if !tt.wantPreparer && opts.Preparer != nil {
				t.Errorf("Preparer = %T, want nil", opts.Preparer)
			}
		})
	}
}
