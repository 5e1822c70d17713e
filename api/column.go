// File: api/column.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Canonical column kind enumeration shared by all driver backends.

package api

import "strings"

// ColumnKind is the closed set of primitive column types the row decoder
// understands. Query callers must declare the kind of every result column
// up front; the asynchronous backend cannot expose result schema ahead of
// execution.
type ColumnKind uint8

const (
	KindBool ColumnKind = iota
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindText
	// KindJSON is a binary document in plain encoding.
	KindJSON
	// KindJSONB is a binary document with a one-byte version prefix.
	KindJSONB
	// KindUUID is a 128-bit identifier in its 16-byte form.
	KindUUID
)

var columnKindNames = map[ColumnKind]string{
	KindBool:    "bool",
	KindInt16:   "int2",
	KindInt32:   "int4",
	KindInt64:   "int8",
	KindFloat32: "float4",
	KindFloat64: "float8",
	KindText:    "text",
	KindJSON:    "json",
	KindJSONB:   "jsonb",
	KindUUID:    "uuid",
}

// String returns the canonical lowercase name of the kind.
func (k ColumnKind) String() string {
	if s, ok := columnKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseColumnKind maps a type name to its ColumnKind. Names are matched
// case-insensitively; "bpchar", "varchar" and "name" alias to text.
func ParseColumnKind(name string) (ColumnKind, error) {
	switch strings.ToLower(name) {
	case "bool":
		return KindBool, nil
	case "int2":
		return KindInt16, nil
	case "int4", "oid":
		return KindInt32, nil
	case "int8":
		return KindInt64, nil
	case "float4":
		return KindFloat32, nil
	case "float8":
		return KindFloat64, nil
	case "text", "unknown", "bpchar", "varchar", "name":
		return KindText, nil
	case "json":
		return KindJSON, nil
	case "jsonb":
		return KindJSONB, nil
	case "uuid":
		return KindUUID, nil
	}
	return 0, NewError(ErrCodeDecode, "unknown column kind").WithContext("name", name)
}

// ParseColumnKinds maps a list of type names, failing on the first unknown.
func ParseColumnKinds(names []string) ([]ColumnKind, error) {
	kinds := make([]ColumnKind, len(names))
	for i, name := range names {
		k, err := ParseColumnKind(name)
		if err != nil {
			return nil, err
		}
		kinds[i] = k
	}
	return kinds, nil
}
