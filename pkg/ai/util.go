package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema reflects a Go type into a JSON Schema for structured model
// output. additionalProperties is disallowed so the model cannot invent
// fields the caller will silently drop.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}

// UnmarshalFlexible parses model-produced JSON into out, tolerating the
// failure modes models actually exhibit: double-encoded objects
// (`"{\"type\": ...}"`), duplicated opening braces, unquoted keys, single
// quotes, trailing commas and truncated closings. The chain is: plain
// unmarshal, unwrap one level of string encoding, then jsonrepair.
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	// A stringified object decodes as a JSON string first; retry on its
	// unwrapped contents and keep them for the repair pass.
	var unwrapped string
	if err := json.Unmarshal([]byte(input), &unwrapped); err == nil {
		unwrapped = strings.TrimSpace(unwrapped)
		if err := json.Unmarshal([]byte(unwrapped), out); err == nil {
			return nil
		}
		input = unwrapped
	}

	repaired, err := jsonrepair.JSONRepair(dropDoubledBrace(input))
	if err != nil {
		return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("unmarshal failed after repair: input=%s repaired=%s", input, repaired)
	}
	return nil
}

// dropDoubledBrace removes the first of two consecutive opening braces, a
// glitch some models emit when asked for a bare JSON object.
func dropDoubledBrace(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		rest := strings.TrimSpace(s[1:])
		if strings.HasPrefix(rest, "{") {
			return rest
		}
	}
	return s
}
