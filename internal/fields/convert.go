package fields

import (
	"encoding/json"
	"fmt"
)

// From converts an arbitrary value, typically an AWS SDK output struct, into
// the JSON data model via encoding/json. Exported struct fields keep their
// Go names, so SDK shapes read the same as the API documentation.
func From(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode field value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode field value: %w", err)
	}
	return out, nil
}

// FromJSON parses a JSON document into the data model.
func FromJSON(data []byte) (any, error) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode JSON document: %w", err)
	}
	return out, nil
}
