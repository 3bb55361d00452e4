package metadata

import (
	"maps"
	"slices"

	"github.com/hupe1980/tabula/codec"
)

// Document is a typed metadata document.
type Document map[string]Value

// Set stores v under key.
func (d Document) Set(key string, v Value) { d[key] = v }

func (d Document) SetString(key, v string)        { d[key] = String(v) }
func (d Document) SetInt(key string, v int64)     { d[key] = Int(v) }
func (d Document) SetFloat(key string, v float64) { d[key] = Float(v) }
func (d Document) SetBool(key string, v bool)     { d[key] = Bool(v) }

// Has reports whether key is present.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Get returns the value stored under key.
func (d Document) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

// GetString returns the string under key, or def when the key is missing or
// holds another kind.
func (d Document) GetString(key, def string) string {
	if s, ok := d[key].AsString(); ok {
		return s
	}
	return def
}

// GetInt returns the integer under key, or def.
func (d Document) GetInt(key string, def int64) int64 {
	if i, ok := d[key].AsInt64(); ok {
		return i
	}
	return def
}

// GetFloat returns the number under key, or def. Ints are widened.
func (d Document) GetFloat(key string, def float64) float64 {
	if f, ok := d[key].AsFloat64(); ok {
		return f
	}
	return def
}

// GetBool returns the boolean under key, or def.
func (d Document) GetBool(key string, def bool) bool {
	if b, ok := d[key].AsBool(); ok {
		return b
	}
	return def
}

// Keys returns the keys in sorted order.
func (d Document) Keys() []string {
	return slices.Sorted(maps.Keys(d))
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v.clone()
	}
	return out
}

// CopyTo copies the named keys into dst. With no keys, every entry is copied.
// Missing keys are skipped.
func (d Document) CopyTo(dst Document, keys ...string) {
	if len(keys) == 0 {
		for k, v := range d {
			dst[k] = v.clone()
		}
		return
	}
	for _, k := range keys {
		if v, ok := d[k]; ok {
			dst[k] = v.clone()
		}
	}
}

// CopyAllExcept copies every entry except the named keys into dst.
func (d Document) CopyAllExcept(dst Document, keys ...string) {
	for k, v := range d {
		if !slices.Contains(keys, k) {
			dst[k] = v.clone()
		}
	}
}

// Equal reports whether both documents hold the same keys and values.
func (d Document) Equal(o Document) bool {
	if len(d) != len(o) {
		return false
	}
	for k, v := range d {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ToMap converts the document to plain Go values.
func (d Document) ToMap() map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v.Any()
	}
	return out
}

// JSON renders the document as a JSON object of plain values using c, or
// codec.Default when c is nil.
func (d Document) JSON(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(d.ToMap())
}
