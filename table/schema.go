package table

import (
	"fmt"

	"github.com/hupe1980/tabula/codec"
	"github.com/hupe1980/tabula/metadata"
)

// ColumnSchema describes one column.
type ColumnSchema struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Schema describes a table's shape without its rows.
type Schema struct {
	Version     int32          `json:"version"`
	Orientation string         `json:"orientation"`
	Rows        uint32         `json:"rows"`
	Columns     []ColumnSchema `json:"columns"`
}

// Describe returns the schema of t.
func Describe(t Table) (Schema, error) {
	mds, err := t.ColumnMetadata()
	if err != nil {
		return Schema{}, err
	}
	s := Schema{
		Version:     FormatVersion,
		Orientation: t.Orientation().String(),
		Rows:        t.RowCount(),
		Columns:     make([]ColumnSchema, len(mds)),
	}
	for i, ct := range t.ColumnTypes() {
		s.Columns[i] = ColumnSchema{
			Name:     mds[i].GetString(metadata.KeyName, ""),
			Type:     ct.String(),
			Metadata: mds[i].ToMap(),
		}
	}
	return s, nil
}

// Types parses the column types back from their names.
func (s Schema) Types() ([]ColumnType, error) {
	out := make([]ColumnType, len(s.Columns))
	for i, c := range s.Columns {
		ct, err := ParseColumnType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		out[i] = ct
	}
	return out, nil
}

// JSON renders the schema with c, or codec.Default when c is nil.
func (s Schema) JSON(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(s)
}

// ParseSchema decodes a schema rendered by JSON with c, or codec.Default when
// c is nil.
func ParseSchema(data []byte, c codec.Codec) (Schema, error) {
	if c == nil {
		c = codec.Default
	}
	var s Schema
	if err := c.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("table: parse schema: %w", err)
	}
	return s, nil
}
