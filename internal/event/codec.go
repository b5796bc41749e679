package event

import (
	"encoding/json"
	"fmt"
)

// EncodeData renders an event's data tree as canonical JSON text. Go's
// encoding/json already sorts map[string]any keys lexically, which is what
// makes two semantically-equal payloads produce byte-identical output — the
// property the projection engine's determinism guarantee depends on.
func EncodeData(data map[string]any) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return b, nil
}

// DecodeData parses canonical JSON text back into a data tree.
func DecodeData(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return data, nil
}
