package ai

import (
	"encoding/json"
	"strings"
)

// extractor pulls a JSON candidate out of raw model output. Strategies are
// tried in order, most specific first; the first candidate that decodes as
// valid JSON wins.
type extractor func(text string) (string, bool)

var extractors = []extractor{
	extractWhole,
	extractFenced,
	extractBraced,
}

const parseSampleLimit = 500

// ExtractJSON normalizes a raw model response into a JSON document.
// Returns ParsingError when no strategy yields valid JSON.
func ExtractJSON(text string) ([]byte, error) {
	for _, ex := range extractors {
		candidate, ok := ex(text)
		if !ok {
			continue
		}
		raw := []byte(candidate)
		if json.Valid(raw) {
			return raw, nil
		}
	}
	return nil, ParsingError{Sample: truncateRunes(text, parseSampleLimit)}
}

func extractWhole(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	return trimmed, trimmed != ""
}

// extractFenced returns the content of the first ```json fenced block.
func extractFenced(text string) (string, bool) {
	start := strings.Index(text, "```json")
	if start < 0 {
		return "", false
	}
	rest := text[start+len("```json"):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// extractBraced returns the greedy first-{ to last-} substring.
func extractBraced(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
