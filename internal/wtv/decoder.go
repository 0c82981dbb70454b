package wtv

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"

	"golang.org/x/exp/mmap"
)

// TableOffset is where the metadata record table starts in a .wtv file.
const TableOffset = 0x12000

// Magic prefixes every metadata record. The table has no record count; the
// first position that does not start with Magic ends it.
var Magic = [16]byte{
	0x5A, 0xFE, 0xD7, 0x6D, 0xC8, 0x1D, 0x8F, 0x4A,
	0x99, 0x22, 0xFA, 0xB1, 0x1C, 0x38, 0x14, 0x53,
}

// MaxPayload bounds a single record value. Embedded thumbnails are the
// largest values seen in practice and stay far below it.
const MaxPayload = 32 << 20

// record type codes
const (
	typeInt32  uint32 = 0
	typeString uint32 = 1
	typeBlob   uint32 = 2
	typeBool   uint32 = 3
	typeInt64  uint32 = 4
	typeHex    uint32 = 6
)

type decoder struct {
	r    io.ReaderAt
	pos  int64
	size int64 // -1 when the source length is unknown
}

// DecodeFile memory-maps a recording and decodes its metadata table.
func DecodeFile(path string) (Metadata, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}
	defer func() {
		_ = r.Close()
	}()

	return Decode(r, TableOffset)
}

// Decode reads metadata records from r starting at offset until the magic
// sequence no longer matches. A source without magic at offset yields an
// empty map.
func Decode(r io.ReaderAt, offset int64) (Metadata, error) {
	d := &decoder{r: r, pos: offset, size: sourceSize(r)}
	meta := make(Metadata)

	for d.peekMagic() {
		d.pos += int64(len(Magic))

		name, value, err := d.readRecord()
		if err != nil {
			return nil, err
		}
		meta[name] = value
	}

	return meta, nil
}

func sourceSize(r io.ReaderAt) int64 {
	switch s := r.(type) {
	case interface{ Size() int64 }:
		return s.Size()
	case interface{ Len() int }:
		return int64(s.Len())
	default:
		return -1
	}
}

func (d *decoder) peekMagic() bool {
	var buf [len(Magic)]byte
	n, _ := d.r.ReadAt(buf[:], d.pos)
	return n == len(buf) && buf == Magic
}

func (d *decoder) readRecord() (string, Value, error) {
	header, err := d.read(8, "", "record header")
	if err != nil {
		return "", Value{}, err
	}
	typ := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])

	name, err := d.readName()
	if err != nil {
		return "", Value{}, err
	}

	if length == 0 {
		return name, Value{Kind: KindNull, Type: typ}, nil
	}

	payloadAt := d.pos
	if length > MaxPayload {
		return "", Value{}, &ParseError{
			Offset: payloadAt,
			Field:  name,
			Reason: fmt.Sprintf("payload of %d bytes exceeds %d byte limit", length, MaxPayload),
		}
	}
	if d.size >= 0 && int64(length) > d.size-d.pos {
		return "", Value{}, &ParseError{
			Offset: payloadAt,
			Field:  name,
			Reason: fmt.Sprintf("payload of %d bytes runs past end of source", length),
			Err:    io.ErrUnexpectedEOF,
		}
	}
	payload, err := d.read(int(length), name, "payload")
	if err != nil {
		return "", Value{}, err
	}

	value, err := decodeValue(typ, payload)
	if err != nil {
		return "", Value{}, &ParseError{Offset: payloadAt, Field: name, Reason: err.Error()}
	}
	return name, value, nil
}

// readName consumes UTF-16LE code units up to and including the 0x0000
// terminator.
func (d *decoder) readName() (string, error) {
	start := d.pos
	var units []uint16
	for {
		unit, err := d.read(2, "", "field name")
		if err != nil {
			return "", err
		}
		u := binary.LittleEndian.Uint16(unit)
		if u == 0 {
			break
		}
		units = append(units, u)
	}

	name, ok := decodeUTF16(units)
	if !ok {
		return "", &ParseError{Offset: start, Reason: "field name is not valid UTF-16"}
	}
	return name, nil
}

func (d *decoder) read(n int, field, what string) ([]byte, error) {
	buf := make([]byte, n)
	got, err := d.r.ReadAt(buf, d.pos)
	if got < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &ParseError{
			Offset: d.pos,
			Field:  field,
			Reason: fmt.Sprintf("truncated %s: want %d bytes, got %d", what, n, got),
			Err:    err,
		}
	}
	d.pos += int64(n)
	return buf, nil
}

func decodeValue(typ uint32, payload []byte) (Value, error) {
	v := Value{Type: typ}

	switch typ {
	case typeInt32:
		if len(payload) != 4 {
			return v, fmt.Errorf("int32 payload has %d bytes", len(payload))
		}
		v.Kind = KindInt32
		v.Int = int64(int32(binary.LittleEndian.Uint32(payload)))
	case typeString:
		body := payload[:max(0, len(payload)-2)]
		if len(body)%2 != 0 {
			return v, fmt.Errorf("string payload has odd length %d", len(payload))
		}
		units := make([]uint16, len(body)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(body[2*i:])
		}
		s, ok := decodeUTF16(units)
		if !ok {
			return v, errors.New("string payload is not valid UTF-16")
		}
		v.Kind = KindString
		v.Str = s
	case typeBlob:
		v.Kind = KindBlob
		v.Raw = payload
	case typeBool:
		v.Kind = KindBool
		v.Bool = !(len(payload) == 4 && binary.LittleEndian.Uint32(payload) == 0)
	case typeInt64:
		if len(payload) != 8 {
			return v, fmt.Errorf("int64 payload has %d bytes", len(payload))
		}
		v.Kind = KindInt64
		v.Int = int64(binary.LittleEndian.Uint64(payload))
	case typeHex:
		v.Kind = KindHex
		v.Str = hex.EncodeToString(payload)
	default:
		v.Kind = KindUnknown
		v.Raw = payload
	}

	return v, nil
}

// decodeUTF16 rejects unpaired surrogates instead of substituting U+FFFD.
func decodeUTF16(units []uint16) (string, bool) {
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u <= 0xDBFF:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] > 0xDFFF {
				return "", false
			}
			i++
		case u >= 0xDC00 && u <= 0xDFFF:
			return "", false
		}
	}
	return string(utf16.Decode(units)), true
}
