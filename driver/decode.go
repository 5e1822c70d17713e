// File: driver/decode.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Canonical cell codec. One closed switch per direction, shared by every
// backend; an unrecognized kind or malformed cell is a typed decode error
// delivered through the completion callback, never a process abort.

package driver

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/google/uuid"

	"github.com/momentics/hostbridge/api"
)

// jsonbVersion prefixes binary documents in the versioned sub-encoding.
const jsonbVersion = 0x01

func decodeErr(msg string, kind api.ColumnKind, col int) error {
	return api.NewError(api.ErrCodeDecode, msg).
		WithContext("kind", kind.String()).
		WithContext("column", col)
}

// DecodeCell converts one canonical cell into a Go value.
func DecodeCell(kind api.ColumnKind, cell []byte, col int) (any, error) {
	if cell == nil {
		return nil, decodeErr("null column value", kind, col)
	}
	switch kind {
	case api.KindBool:
		if len(cell) != 1 {
			return nil, decodeErr("bool cell must be one byte", kind, col)
		}
		return cell[0] != 0, nil
	case api.KindInt16:
		if len(cell) != 2 {
			return nil, decodeErr("int2 cell must be two bytes", kind, col)
		}
		return int16(binary.BigEndian.Uint16(cell)), nil
	case api.KindInt32:
		if len(cell) != 4 {
			return nil, decodeErr("int4 cell must be four bytes", kind, col)
		}
		return int32(binary.BigEndian.Uint32(cell)), nil
	case api.KindInt64:
		if len(cell) != 8 {
			return nil, decodeErr("int8 cell must be eight bytes", kind, col)
		}
		return int64(binary.BigEndian.Uint64(cell)), nil
	case api.KindFloat32:
		if len(cell) != 4 {
			return nil, decodeErr("float4 cell must be four bytes", kind, col)
		}
		return math.Float32frombits(binary.BigEndian.Uint32(cell)), nil
	case api.KindFloat64:
		if len(cell) != 8 {
			return nil, decodeErr("float8 cell must be eight bytes", kind, col)
		}
		return math.Float64frombits(binary.BigEndian.Uint64(cell)), nil
	case api.KindText:
		return string(cell), nil
	case api.KindJSON:
		return decodeDocument(kind, cell, col)
	case api.KindJSONB:
		if len(cell) < 1 || cell[0] != jsonbVersion {
			return nil, decodeErr("missing jsonb version prefix", kind, col)
		}
		return decodeDocument(kind, cell[1:], col)
	case api.KindUUID:
		id, err := uuid.FromBytes(cell)
		if err != nil {
			return nil, decodeErr("uuid cell must be sixteen bytes", kind, col)
		}
		return id, nil
	}
	return nil, decodeErr("unknown column kind", kind, col)
}

func decodeDocument(kind api.ColumnKind, raw []byte, col int) (any, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, decodeErr("malformed document", kind, col)
	}
	return doc, nil
}

// DecodeRow decodes every cell of one row against the declared kinds.
func DecodeRow(kinds []api.ColumnKind, cells RawRow) ([]any, error) {
	if len(cells) != len(kinds) {
		return nil, api.NewError(api.ErrCodeDecode, "column count mismatch").
			WithContext("declared", len(kinds)).
			WithContext("received", len(cells))
	}
	row := make([]any, len(cells))
	for i, cell := range cells {
		v, err := DecodeCell(kinds[i], cell, i)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// DecodeRows decodes a full result set.
func DecodeRows(kinds []api.ColumnKind, raw RawRows) ([][]any, error) {
	rows := make([][]any, len(raw))
	for i, r := range raw {
		row, err := DecodeRow(kinds, r)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}
