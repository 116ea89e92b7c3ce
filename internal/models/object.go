package models

import "encoding/json"

// decodeObject keeps the tracker's object whole and fills the typed view
// best-effort. Unmarshal skips fields whose type does not match, so a
// mismatched known field never loses the rest of the object.
func decodeObject(data []byte, typed any) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, nil
	}
	_ = json.Unmarshal(data, typed)
	return fields, nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}
