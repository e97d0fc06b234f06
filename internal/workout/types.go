// Package workout turns OCR transcriptions of handwritten workout logs into
// structured tables.
//
// A transcription is read twice: once to find the widest row of set values
// (the document's set column count) and once to build the rows, each padded
// to that width. The title and date of the session are picked from the same
// lines by a separate heuristic and combined into a header label.
package workout

import "strings"

const (
	// DefaultTitle is used when no line qualifies as a title.
	DefaultTitle = "Workout"

	// DefaultDate is used when no line qualifies as a date.
	DefaultDate = "Unknown Date"

	// EmptySet marks a recognized but blank set value.
	EmptySet = ""
)

// Transcription is the ordered list of lines recognized in one image.
type Transcription []string

// NewTranscription splits raw OCR output on newlines. Lines are kept as-is;
// trimming happens where each rule needs it.
func NewTranscription(text string) Transcription {
	if text == "" {
		return nil
	}
	return Transcription(strings.Split(text, "\n"))
}

// Row is one exercise line from a workout log.
type Row struct {
	Exercise string   `json:"exercise"`
	Sets     []string `json:"sets"`
	Note     string   `json:"note"`
}

// Table holds the rows of one document. Every row has exactly SetColumnCount sets.
type Table struct {
	Rows           []Row `json:"rows"`
	SetColumnCount int   `json:"set_column_count"`
}

// Document is the parsed result for one uploaded image.
type Document struct {
	// Name is the uploaded file name, used for diagnostics only.
	Name        string `json:"name,omitempty"`
	Table       Table  `json:"table"`
	HeaderLabel string `json:"header_label"`
}

// Parse runs both extractors over a transcription.
func Parse(name string, text Transcription) Document {
	return Document{
		Name:        name,
		Table:       BuildTable(text),
		HeaderLabel: ExtractHeaderLabel(text),
	}
}
