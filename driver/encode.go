// File: driver/encode.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Encoding half of the cell codec, used by the synchronous backend and the
// wire reference server to normalize native values into canonical cells.

package driver

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"

	"github.com/momentics/hostbridge/api"
)

func encodeErr(msg string, kind api.ColumnKind) error {
	return api.NewError(api.ErrCodeDecode, msg).WithContext("kind", kind.String())
}

// EncodeCell converts a native Go value into the canonical cell encoding
// for kind. Integers accept any signed integer width; documents accept raw
// JSON as string or []byte; UUIDs accept uuid.UUID, the 16-byte form, or
// the canonical string form.
func EncodeCell(kind api.ColumnKind, v any) ([]byte, error) {
	if v == nil {
		return nil, encodeErr("null column value", kind)
	}
	switch kind {
	case api.KindBool:
		b, ok := asBool(v)
		if !ok {
			return nil, encodeErr("value is not a bool", kind)
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case api.KindInt16:
		n, ok := asInt64(v)
		if !ok || n < math.MinInt16 || n > math.MaxInt16 {
			return nil, encodeErr("value is not an int2", kind)
		}
		cell := make([]byte, 2)
		binary.BigEndian.PutUint16(cell, uint16(int16(n)))
		return cell, nil
	case api.KindInt32:
		n, ok := asInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return nil, encodeErr("value is not an int4", kind)
		}
		cell := make([]byte, 4)
		binary.BigEndian.PutUint32(cell, uint32(int32(n)))
		return cell, nil
	case api.KindInt64:
		n, ok := asInt64(v)
		if !ok {
			return nil, encodeErr("value is not an int8", kind)
		}
		cell := make([]byte, 8)
		binary.BigEndian.PutUint64(cell, uint64(n))
		return cell, nil
	case api.KindFloat32:
		f, ok := asFloat64(v)
		if !ok {
			return nil, encodeErr("value is not a float4", kind)
		}
		cell := make([]byte, 4)
		binary.BigEndian.PutUint32(cell, math.Float32bits(float32(f)))
		return cell, nil
	case api.KindFloat64:
		f, ok := asFloat64(v)
		if !ok {
			return nil, encodeErr("value is not a float8", kind)
		}
		cell := make([]byte, 8)
		binary.BigEndian.PutUint64(cell, math.Float64bits(f))
		return cell, nil
	case api.KindText:
		s, ok := asBytes(v)
		if !ok {
			return nil, encodeErr("value is not text", kind)
		}
		return s, nil
	case api.KindJSON:
		s, ok := asBytes(v)
		if !ok {
			return nil, encodeErr("value is not a document", kind)
		}
		return s, nil
	case api.KindJSONB:
		s, ok := asBytes(v)
		if !ok {
			return nil, encodeErr("value is not a document", kind)
		}
		return append([]byte{jsonbVersion}, s...), nil
	case api.KindUUID:
		return encodeUUID(v)
	}
	return nil, encodeErr("unknown column kind", kind)
}

// EncodeRow encodes one native row against the declared kinds.
func EncodeRow(kinds []api.ColumnKind, values []any) (RawRow, error) {
	if len(values) != len(kinds) {
		return nil, api.NewError(api.ErrCodeDecode, "column count mismatch").
			WithContext("declared", len(kinds)).
			WithContext("received", len(values))
	}
	row := make(RawRow, len(values))
	for i, v := range values {
		cell, err := EncodeCell(kinds[i], v)
		if err != nil {
			return nil, err
		}
		row[i] = cell
	}
	return row, nil
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int64:
		return x != 0, true
	}
	return false, false
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func asBytes(v any) ([]byte, bool) {
	switch x := v.(type) {
	case string:
		return []byte(x), true
	case []byte:
		return x, true
	}
	return nil, false
}

func encodeUUID(v any) ([]byte, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x[:], nil
	case []byte:
		if len(x) == 16 {
			return x, nil
		}
	case string:
		id, err := uuid.Parse(x)
		if err == nil {
			return id[:], nil
		}
	}
	return nil, encodeErr("value is not a uuid", api.KindUUID)
}
