package ocr

import (
	"os"

	"google.golang.org/api/option"
)

// googleClientOptions returns credential options from the environment. Inline
// JSON takes precedence over a credentials file; an empty result means
// Application Default Credentials.
func googleClientOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}
