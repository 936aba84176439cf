package jsonx

import json "github.com/goccy/go-json"

// ToDynamicJSON round-trips val through JSON into a map[string]any. Logging
// hooks use it to attach typed payloads as structured attributes instead of
// pre-rendered strings.
func ToDynamicJSON(val any) (map[string]any, error) {
	result := make(map[string]any)
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}
