package wtv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"
)

func utf16le(s string, terminate bool) []byte {
	units := utf16.Encode([]rune(s))
	if terminate {
		units = append(units, 0)
	}
	buf := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[2*i:], u)
	}
	return buf
}

func record(typ uint32, name string, payload []byte) []byte {
	var b bytes.Buffer
	b.Write(Magic[:])
	_ = binary.Write(&b, binary.LittleEndian, typ)
	_ = binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(utf16le(name, true))
	b.Write(payload)
	return b.Bytes()
}

func le32(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

func le64(v int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestDecodeEmptyTable(t *testing.T) {
	sources := map[string][]byte{
		"empty source":   {},
		"no magic":       bytes.Repeat([]byte{0xAB}, 64),
		"short of magic": Magic[:10],
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			meta, err := Decode(bytes.NewReader(src), 0)
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if len(meta) != 0 {
				t.Errorf("expected empty metadata, got %v", meta)
			}
		})
	}
}

func TestDecodeAllTypes(t *testing.T) {
	src := concat(
		record(0, "WM/SeasonNumber", le32(-7)),
		record(1, "Title", utf16le("Parking Wars", true)),
		record(2, "WM/Picture", []byte{0xFF, 0xD8, 0xFF}),
		record(3, "WM/MediaIsRepeat", []byte{0, 0, 0, 0}),
		record(3, "WM/MediaIsStereo", []byte{1, 0, 0, 0}),
		record(4, "WM/MediaOriginalRunTime", le64(18000000000)),
		record(6, "WM/WMRVServiceID", []byte{0xDE, 0xAD, 0xBE, 0xEF}),
		record(9, "WM/Mystery", []byte{0x01, 0x02}),
		record(1, "WM/SubTitle", nil),
		[]byte("trailing bytes that are not magic"),
	)

	meta, err := Decode(bytes.NewReader(src), 0)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(meta) != 9 {
		t.Fatalf("expected 9 fields, got %d: %v", len(meta), meta)
	}

	tests := []struct {
		field string
		kind  Kind
		check func(Value) bool
	}{
		{"WM/SeasonNumber", KindInt32, func(v Value) bool { return v.Int == -7 }},
		{"Title", KindString, func(v Value) bool { return v.Str == "Parking Wars" }},
		{"WM/Picture", KindBlob, func(v Value) bool { return bytes.Equal(v.Raw, []byte{0xFF, 0xD8, 0xFF}) }},
		{"WM/MediaIsRepeat", KindBool, func(v Value) bool { return !v.Bool }},
		{"WM/MediaIsStereo", KindBool, func(v Value) bool { return v.Bool }},
		{"WM/MediaOriginalRunTime", KindInt64, func(v Value) bool { return v.Int == 18000000000 }},
		{"WM/WMRVServiceID", KindHex, func(v Value) bool { return v.Str == "deadbeef" }},
		{"WM/Mystery", KindUnknown, func(v Value) bool { return v.Type == 9 && len(v.Raw) == 2 }},
		{"WM/SubTitle", KindNull, func(v Value) bool { return v.Type == 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			v, ok := meta[tt.field]
			if !ok {
				t.Fatalf("field %q missing", tt.field)
			}
			if v.Kind != tt.kind {
				t.Errorf("kind: got %s, want %s", v.Kind, tt.kind)
			}
			if !tt.check(v) {
				t.Errorf("unexpected value %+v", v)
			}
		})
	}
}

func TestDecodeAtOffset(t *testing.T) {
	prefix := bytes.Repeat([]byte{0x00}, 100)
	src := concat(prefix, record(1, "Title", utf16le("Jeopardy!", true)))

	meta, err := Decode(bytes.NewReader(src), int64(len(prefix)))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got := meta.String(FieldTitle); got != "Jeopardy!" {
		t.Errorf("Title: got %q, want %q", got, "Jeopardy!")
	}

	meta, err = Decode(bytes.NewReader(src), 0)
	if err != nil {
		t.Fatalf("Decode at 0 returned error: %v", err)
	}
	if len(meta) != 0 {
		t.Errorf("expected no fields when starting before the table, got %v", meta)
	}
}

func TestDecodeNonASCIIName(t *testing.T) {
	src := record(1, "Ünïcødé 🎬", utf16le("value", true))

	meta, err := Decode(bytes.NewReader(src), 0)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if meta.String("Ünïcødé 🎬") != "value" {
		t.Errorf("unexpected metadata %v", meta)
	}
}

func TestDecodeErrors(t *testing.T) {
	full := record(1, "Title", utf16le("Some Show", true))
	loneSurrogate := concat(
		Magic[:],
		le32(0), le32(4),
		[]byte{0x00, 0xD8, 0x41, 0x00, 0x00, 0x00},
		le32(1),
	)

	tests := []struct {
		name string
		src  []byte
	}{
		{"truncated header", concat(Magic[:], []byte{1, 0, 0})},
		{"unterminated name", concat(Magic[:], le32(1), le32(4), utf16le("Tit", false))},
		{"truncated payload", full[:len(full)-3]},
		{"unpaired surrogate in name", loneSurrogate},
		{"short int32", record(0, "WM/SeasonNumber", []byte{1, 2})},
		{"short int64", record(4, "WM/MediaOriginalRunTime", []byte{1, 2, 3, 4})},
		{"odd string payload", record(1, "Title", []byte{0x41, 0x00, 0x42, 0x00, 0x00})},
		{"good record then truncated", concat(record(0, "A", le32(1)), full[:len(full)-1])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := Decode(bytes.NewReader(tt.src), 0)
			if err == nil {
				t.Fatalf("expected error, got metadata %v", meta)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if meta != nil {
				t.Errorf("expected no partial metadata, got %v", meta)
			}
		})
	}
}

// hides Size and Len so the decoder cannot bound reads up front
type sizelessReader struct{ r io.ReaderAt }

func (s sizelessReader) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

func TestDecodeOversizedPayload(t *testing.T) {
	src := concat(Magic[:], le32(2), []byte{0xF0, 0xFF, 0xFF, 0xFF}, utf16le("Thumb", true), []byte{1, 2, 3})

	for name, r := range map[string]io.ReaderAt{
		"sized":    bytes.NewReader(src),
		"sizeless": sizelessReader{bytes.NewReader(src)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(r, 0)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if perr.Field != "Thumb" {
				t.Errorf("error field %q, want Thumb", perr.Field)
			}
		})
	}
}

func TestDecodeFile(t *testing.T) {
	data := make([]byte, TableOffset)
	data = append(data, record(1, "Title", utf16le("Cops", true))...)
	data = append(data, record(1, "WM/SubTitle", utf16le("Bad Boys", true))...)

	path := filepath.Join(t.TempDir(), "Cops_WXYZ_2012_10_13_04_00_00.wtv")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	meta, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile returned error: %v", err)
	}
	if meta.String(FieldTitle) != "Cops" || meta.String(FieldSubTitle) != "Bad Boys" {
		t.Errorf("unexpected metadata %v", meta)
	}
}

func TestLookupMissingField(t *testing.T) {
	meta := Metadata{"WM/SubTitle": {Kind: KindNull, Type: 1}}

	for _, field := range []string{"WM/SubTitle", "Title"} {
		_, err := meta.Lookup(field)
		var missing *MissingFieldError
		if !errors.As(err, &missing) {
			t.Fatalf("Lookup(%q): expected *MissingFieldError, got %v", field, err)
		}
		if missing.Field != field {
			t.Errorf("Field: got %q, want %q", missing.Field, field)
		}
	}
}
