// Package utils holds small helpers shared by the prompt and parsing code.
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a response contains no JSON value at all.
var ErrNoJSON = errors.New("no JSON found in response")

var (
	// ```json ... ``` or ``` ... ``` around the whole payload
	fenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?\\s*```$")

	// ,} or ,] left behind by the model
	trailingCommaRegex = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractAndParseJSON decodes the first JSON value in a completion response.
// A single fenced code block wrapping the payload is stripped first, and
// text after the JSON value is ignored.
func ExtractAndParseJSON[T any](response string) (T, error) {
	var result T

	cleaned := StripCodeFence(response)
	if cleaned == "" {
		return result, ErrNoJSON
	}

	idx := strings.IndexAny(cleaned, "{[")
	if idx == -1 {
		return result, ErrNoJSON
	}
	jsonPart := cleaned[idx:]

	err := json.NewDecoder(strings.NewReader(jsonPart)).Decode(&result)
	if err == nil {
		return result, nil
	}

	repaired := trailingCommaRegex.ReplaceAllString(jsonPart, `$1`)
	if repaired != jsonPart {
		var second T
		if err2 := json.NewDecoder(strings.NewReader(repaired)).Decode(&second); err2 == nil {
			return second, nil
		}
	}
	return result, fmt.Errorf("parse JSON: %w", err)
}

// StripCodeFence removes one leading/trailing markdown code fence.
func StripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if m := fenceRegex.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(response, "```") {
		// Unterminated fence: drop the opening line only.
		if nl := strings.IndexByte(response, '\n'); nl != -1 {
			return strings.TrimSpace(response[nl+1:])
		}
		return ""
	}
	return response
}
