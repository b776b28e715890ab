package dataflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ValueKind tags the concrete type held by a DataValue.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt
	KindText
	KindTime
)

// DataValue is a single column value in a row. Values are immutable once
// constructed and compared by value; the engine never looks inside them
// beyond equality and ordering.
//
// Timestamps are stored as unix nanoseconds so that DataValue stays
// comparable and can be used directly as a map key.
type DataValue struct {
	kind ValueKind
	i    int64
	s    string
}

func NullValue() DataValue {
	return DataValue{kind: KindNull}
}

func IntValue(v int64) DataValue {
	return DataValue{kind: KindInt, i: v}
}

func TextValue(v string) DataValue {
	return DataValue{kind: KindText, s: v}
}

func TimeValue(t time.Time) DataValue {
	return DataValue{kind: KindTime, i: t.UnixNano()}
}

func (v DataValue) Kind() ValueKind { return v.kind }

func (v DataValue) Int() int64 { return v.i }

func (v DataValue) Text() string { return v.s }

func (v DataValue) Time() time.Time { return time.Unix(0, v.i) }

// Equal reports value equality. Values of different kinds are never equal.
func (v DataValue) Equal(o DataValue) bool { return v == o }

// Compare orders two values: first by kind, then by the value itself.
// Nulls sort before everything else.
func (v DataValue) Compare(o DataValue) int {
	if v.kind != o.kind {
		return int(v.kind) - int(o.kind)
	}
	switch v.kind {
	case KindNull:
		return 0
	case KindText:
		return strings.Compare(v.s, o.s)
	default:
		switch {
		case v.i < o.i:
			return -1
		case v.i > o.i:
			return 1
		}
		return 0
	}
}

func (v DataValue) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindText:
		return fmt.Sprintf("%q", v.s)
	case KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	}
	return "?"
}

type valueJSON struct {
	Kind ValueKind `json:"k"`
	Int  int64     `json:"i,omitempty"`
	Text string    `json:"s,omitempty"`
}

func (v DataValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueJSON{Kind: v.kind, Int: v.i, Text: v.s})
}

func (v *DataValue) UnmarshalJSON(b []byte) error {
	var raw valueJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v.kind = raw.Kind
	v.i = raw.Int
	v.s = raw.Text
	return nil
}

// Row is an ordered sequence of column values.
type Row []DataValue

// Equal reports element-for-element equality.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

func (r Row) String() string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
