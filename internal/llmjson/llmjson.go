package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/forPelevin/hookscan/internal/redact"
)

var ErrEmpty = errors.New("empty completion")

// Extract returns the JSON object or array embedded in a completion,
// tolerating markdown fences and surrounding prose.
func Extract(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", ErrEmpty
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	objStart := strings.Index(t, "{")
	arrStart := strings.Index(t, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(t, "]"); end > arrStart {
			return t[arrStart : end+1], nil
		}
	}
	if objStart >= 0 {
		if end := strings.LastIndex(t, "}"); end > objStart {
			return t[objStart : end+1], nil
		}
	}
	return "", fmt.Errorf("could not locate JSON in: %q", redact.Truncate(t, 200))
}

// Decode extracts and unmarshals a completion into v.
func Decode(s string, v any) error {
	clean, err := Extract(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}
