// Package codec selects the JSON encoder used for table schemas and metadata
// renderings.
//
// Schemas record the codec name, so a codec is chosen by name when a
// description is read back.
package codec

import "fmt"

// Codec encodes and decodes values. Implementations are safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, error) {
	switch name {
	case JSON{}.Name():
		return JSON{}, nil
	case GoJSON{}.Name():
		return GoJSON{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}
