package jsonx

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON reports that the text contains neither a fenced JSON block nor a
// brace-delimited span.
var ErrNoJSON = errors.New("no JSON object found in text")

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractObject pulls the first plausible JSON object out of free-form model
// output. A fenced code block wins over the raw first-`{`-to-last-`}` span.
// If the selected span does not parse, a repair pass is attempted before
// giving up. The returned bytes are always valid JSON.
func ExtractObject(text string) ([]byte, error) {
	candidate := ""
	if m := fencedBlockPattern.FindStringSubmatch(text); m != nil {
		candidate = strings.TrimSpace(m[1])
	}
	if candidate == "" {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, ErrNoJSON
		}
		candidate = strings.TrimSpace(text[start : end+1])
	}

	var probe any
	if err := Unmarshal([]byte(candidate), &probe); err == nil {
		return []byte(candidate), nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return nil, fmt.Errorf("parse extracted JSON: %w", repairErr)
	}
	if err := Unmarshal([]byte(repaired), &probe); err != nil {
		return nil, fmt.Errorf("parse extracted JSON: %w", err)
	}
	return []byte(repaired), nil
}

// DecodeObject extracts a JSON object from text and unmarshals it into v.
func DecodeObject(text string, v any) error {
	data, err := ExtractObject(text)
	if err != nil {
		return err
	}
	return Unmarshal(data, v)
}
