package output

import "encoding/json"

// FormatJSON marshals any result with indentation for CLI output.
func FormatJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
