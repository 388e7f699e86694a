package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// #region canonical

// CanonicalJSON produces a deterministic serialization of v: the value is
// normalized through a JSON round-trip (so int/float representations of the
// same number collapse) and object keys are emitted in sorted order at every
// nesting level. Two logically equal values always canonicalize to identical
// bytes, which is what the hash chain depends on.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}
	var normalized interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&normalized); err != nil {
		return nil, fmt.Errorf("canonical normalize: %w", err)
	}
	out, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("canonical remarshal: %w", err)
	}
	return out, nil
}

// #endregion canonical
