package wtv

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// metadata field names written by Windows Media Center
const (
	FieldTitle                     = "Title"
	FieldSubTitle                  = "WM/SubTitle"
	FieldSubTitleDescription       = "WM/SubTitleDescription"
	FieldOriginalBroadcastDateTime = "WM/MediaOriginalBroadcastDateTime"
)

// Kind identifies which member of a Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindInt32
	KindString
	KindBlob
	KindBool
	KindInt64
	KindHex
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt32:
		return "int32"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindHex:
		return "hex"
	default:
		return "unknown"
	}
}

// Value is a single decoded metadata value. Int holds both int32 and int64
// payloads, Str holds strings and hex-encoded payloads, Raw holds blobs and
// payloads of unrecognised type codes.
type Value struct {
	Kind Kind
	Type uint32
	Int  int64
	Str  string
	Bool bool
	Raw  []byte
}

// display form used by the metadata command
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "<null>"
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.Int, 10)
	case KindString, KindHex:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindBlob:
		return fmt.Sprintf("<%d bytes>", len(v.Raw))
	default:
		return fmt.Sprintf("<type %d: %s>", v.Type, hex.EncodeToString(v.Raw))
	}
}

// decoded metadata keyed by field name
type Metadata map[string]Value

// Lookup returns the value stored under field. Absent fields and fields with
// a zero-length payload both report a *MissingFieldError.
func (m Metadata) Lookup(field string) (Value, error) {
	v, ok := m[field]
	if !ok || v.Kind == KindNull {
		return Value{}, &MissingFieldError{Field: field}
	}
	return v, nil
}

// String returns the string value of field, or "" when it is absent or not
// a string.
func (m Metadata) String(field string) string {
	v, err := m.Lookup(field)
	if err != nil || v.Kind != KindString {
		return ""
	}
	return v.Str
}
