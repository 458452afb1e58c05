package mcp

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// ErrInvalidArgument marks tool calls rejected before any work started.
var ErrInvalidArgument = errors.New("invalid argument")

// requireStrings checks that every named field is present and holds a string.
// Emptiness is left to the pipeline.
func requireStrings(args map[string]any, fields ...string) error {
	for _, field := range fields {
		v, ok := args[field]
		if !ok || v == nil {
			return fmt.Errorf("%w: missing required field '%s'", ErrInvalidArgument, field)
		}
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: field '%s' must be a string, got %T", ErrInvalidArgument, field, v)
		}
	}
	return nil
}

// mapToStruct decodes tool arguments into T using its mapstructure tags.
// JSON numbers arrive as float64, so weak typing is enabled for integers.
func mapToStruct[T any](m map[string]any) (T, error) {
	var result T
	if m == nil {
		return result, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return result, err
	}
	if err := decoder.Decode(m); err != nil {
		return result, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return result, nil
}
