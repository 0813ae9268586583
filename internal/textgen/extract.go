package textgen

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	fenceRe  = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")
	objectRe = regexp.MustCompile(`(\{[\s\S]*\})`)
)

// ExtractJSON parses a model response into out, tolerating markdown code
// fences and surrounding prose around the JSON object.
func ExtractJSON(text string, out any) error {
	candidate := strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(candidate), out); err == nil {
		return nil
	}

	if m := fenceRe.FindStringSubmatch(candidate); m != nil {
		if err := json.Unmarshal([]byte(m[1]), out); err == nil {
			return nil
		}
	}

	if m := objectRe.FindStringSubmatch(candidate); m != nil {
		if err := json.Unmarshal([]byte(m[1]), out); err == nil {
			return nil
		}
	}

	return eris.New("textgen: response does not contain valid JSON")
}
