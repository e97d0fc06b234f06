package workout

import (
	"strings"
	"unicode"
)

var monthAbbreviations = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// ExtractHeaderLabel picks a date and a title from the transcription and
// returns "<date> - <title>".
//
// Lines are scanned in order. The first line that mentions "date", a month
// abbreviation or any digit becomes the date; the first line without digits
// and without a slash becomes the title. Both checks run against the same
// line, date first, and scanning stops once both are set.
func ExtractHeaderLabel(text Transcription) string {
	var title, date string

	for _, raw := range text {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		if date == "" && isDateCandidate(lower) {
			date = line
		}
		if title == "" && isTitleCandidate(lower) {
			title = line
		}

		if title != "" && date != "" {
			break
		}
	}

	if title == "" {
		title = DefaultTitle
	}
	if date == "" {
		date = DefaultDate
	}

	return date + " - " + title
}

func isDateCandidate(lower string) bool {
	if strings.Contains(lower, "date") || containsDigit(lower) {
		return true
	}
	for _, month := range monthAbbreviations {
		if strings.Contains(lower, month) {
			return true
		}
	}
	return false
}

func isTitleCandidate(lower string) bool {
	return !containsDigit(lower) && !strings.Contains(lower, "/")
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
