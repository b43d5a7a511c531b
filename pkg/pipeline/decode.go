package pipeline

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode converts a validated value (typically ActionParams.Input) into T,
// matching record keys against `json` struct tags.
func Decode[T any](value any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(value); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}
