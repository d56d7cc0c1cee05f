package models

import (
	"encoding/json"
	"fmt"
)

// unmarshalEnum decodes a JSON string and validates it with parse, so that
// unknown wire values are rejected where the payload enters the program.
func unmarshalEnum[T ~string](data []byte, parse func(string) (T, error), dst *T) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func parseEnum[T ~string](kind, s string, allowed ...T) (T, error) {
	for _, a := range allowed {
		if string(a) == s {
			return a, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, s)
}
