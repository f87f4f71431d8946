package classifier

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var fenceRegexp = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// parseResponse parses a backend response into a Result. Markdown code
// fences are stripped first since some models wrap JSON in them regardless
// of instructions. Schema violations are errors, never coerced.
func parseResponse(content string) (*Result, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if matches := fenceRegexp.FindStringSubmatch(content); len(matches) > 1 {
			content = matches[1]
		}
	}

	var raw struct {
		Module    string   `json:"module"`
		Submodule string   `json:"submodule"`
		Intent    string   `json:"intent"`
		Reply     string   `json:"reply"`
		Actions   []Action `json:"actions"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, errors.Wrap(err, "JSON unmarshal failed")
	}

	if raw.Module == "" || raw.Submodule == "" || raw.Intent == "" {
		return nil, errors.New("classification response is missing module, submodule, or intent")
	}

	return &Result{
		Module:    raw.Module,
		Submodule: raw.Submodule,
		Intent:    raw.Intent,
		Reply:     raw.Reply,
		Actions:   raw.Actions,
	}, nil
}
