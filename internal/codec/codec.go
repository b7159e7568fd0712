// Package codec implements BSQL's binary row and header encoding
// (spec.md §4.1): fixed-width numerics, length-prefixed UTF-8 text, and a
// one-byte tag distinguishing null from each typed variant. It owns the
// header and row-payload layout; internal/table writes the per-row framing
// (live/tombstone tag byte and payload length) around these payloads itself.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"bsql/internal/bsqlerr"
	"bsql/internal/value"
)

// Value tags, per spec.md §4.1.
const (
	tagNull    = 0
	tagInt32   = 1
	tagInt64   = 2
	tagReal    = 3
	tagText    = 4
)

// ColumnType is a column's declared SQL type.
type ColumnType uint8

const (
	TypeInteger ColumnType = iota
	TypeLong
	TypeText
	TypeReal
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeLong:
		return "LONG"
	case TypeText:
		return "TEXT"
	case TypeReal:
		return "REAL"
	default:
		return "UNKNOWN"
	}
}

// ColumnFlag bits, per spec.md §3.
type ColumnFlag uint8

const (
	FlagNotNull ColumnFlag = 1 << iota
	FlagPrimaryKey
	FlagAutoIncrement
)

// Column is one column's persisted definition.
type Column struct {
	Name  string
	Type  ColumnType
	Flags ColumnFlag
}

func (c Column) NotNull() bool       { return c.Flags&FlagNotNull != 0 }
func (c Column) PrimaryKey() bool    { return c.Flags&FlagPrimaryKey != 0 }
func (c Column) AutoIncrement() bool { return c.Flags&FlagAutoIncrement != 0 }

// magic identifies a BSQL table file, per spec.md §6.
var magic = [4]byte{'B', 'S', 'Q', 'L'}

const fileVersion uint16 = 1

// Header is the fixed preamble of a table file.
type Header struct {
	Version     uint16
	Flags       uint16
	Columns     []Column
	AutoIncNext int64
	RowCount    uint64 // row_count_at_last_compaction
}

// EncodeHeader writes the table file preamble.
func EncodeHeader(w io.Writer, h Header) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := writeU16(w, h.Version); err != nil {
		return err
	}
	if err := writeU16(w, h.Flags); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(h.Columns))); err != nil {
		return err
	}
	for _, col := range h.Columns {
		nameBytes := []byte(col.Name)
		if err := writeU16(w, uint16(len(nameBytes))); err != nil {
			return err
		}
		if _, err := w.Write(nameBytes); err != nil {
			return err
		}
		if _, err := w.Write([]byte{byte(col.Type), byte(col.Flags)}); err != nil {
			return err
		}
	}
	if err := writeI64(w, h.AutoIncNext); err != nil {
		return err
	}
	return writeU64(w, h.RowCount)
}

// DecodeHeader reads and validates a table file preamble.
func DecodeHeader(r io.Reader) (Header, error) {
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return Header{}, bsqlerr.NewCorruption("short header")
	}
	if gotMagic != magic {
		return Header{}, bsqlerr.NewCorruption("bad magic")
	}
	version, err := readU16(r)
	if err != nil {
		return Header{}, bsqlerr.NewCorruption("short header: version")
	}
	if version != fileVersion {
		return Header{}, bsqlerr.NewCorruption(fmt.Sprintf("unsupported file version %d", version))
	}
	flags, err := readU16(r)
	if err != nil {
		return Header{}, bsqlerr.NewCorruption("short header: flags")
	}
	colCount, err := readU32(r)
	if err != nil {
		return Header{}, bsqlerr.NewCorruption("short header: column count")
	}
	cols := make([]Column, 0, colCount)
	for i := uint32(0); i < colCount; i++ {
		nameLen, err := readU16(r)
		if err != nil {
			return Header{}, bsqlerr.NewCorruption("short header: column name length")
		}
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBytes); err != nil {
			return Header{}, bsqlerr.NewCorruption("short header: column name")
		}
		typeFlags := make([]byte, 2)
		if _, err := io.ReadFull(r, typeFlags); err != nil {
			return Header{}, bsqlerr.NewCorruption("short header: column type/flags")
		}
		cols = append(cols, Column{
			Name:  string(nameBytes),
			Type:  ColumnType(typeFlags[0]),
			Flags: ColumnFlag(typeFlags[1]),
		})
	}
	autoInc, err := readI64(r)
	if err != nil {
		return Header{}, bsqlerr.NewCorruption("short header: auto_inc_next")
	}
	rowCount, err := readU64(r)
	if err != nil {
		return Header{}, bsqlerr.NewCorruption("short header: row_count_at_last_compaction")
	}
	return Header{
		Version:     version,
		Flags:       flags,
		Columns:     cols,
		AutoIncNext: autoInc,
		RowCount:    rowCount,
	}, nil
}

// EncodeRow encodes a row's values in schema order: one tag byte per
// column followed by its payload.
func EncodeRow(cols []Column, row []value.Value) ([]byte, error) {
	if len(row) != len(cols) {
		return nil, bsqlerr.NewArityMismatch(fmt.Sprintf("want %d columns, got %d", len(cols), len(row)))
	}
	buf := make([]byte, 0, 32*len(row))
	for i, v := range row {
		switch v.Kind {
		case value.KindNull:
			buf = append(buf, tagNull)
		case value.KindInteger32:
			buf = append(buf, tagInt32)
			buf = binary.BigEndian.AppendUint32(buf, uint32(v.I32))
		case value.KindInteger64:
			buf = append(buf, tagInt64)
			buf = binary.BigEndian.AppendUint64(buf, uint64(v.I64))
		case value.KindReal:
			buf = append(buf, tagReal)
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v.R))
		case value.KindText:
			buf = append(buf, tagText)
			strBytes := []byte(v.S)
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(strBytes)))
			buf = append(buf, strBytes...)
		default:
			return nil, fmt.Errorf("codec: unknown value kind for column %q", cols[i].Name)
		}
	}
	return buf, nil
}

// DecodeRow decodes exactly len(cols) values from payload. It returns
// Corruption if payload is shorter than the schema requires, so a
// truncated trailing row is surfaced uniformly with other corruption.
func DecodeRow(cols []Column, payload []byte) ([]value.Value, error) {
	row := make([]value.Value, len(cols))
	pos := 0
	for i := range cols {
		if pos >= len(payload) {
			return nil, bsqlerr.NewCorruption("row shorter than schema")
		}
		tag := payload[pos]
		pos++
		switch tag {
		case tagNull:
			row[i] = value.Null
		case tagInt32:
			if pos+4 > len(payload) {
				return nil, bsqlerr.NewCorruption("truncated int32")
			}
			row[i] = value.Integer32(int32(binary.BigEndian.Uint32(payload[pos : pos+4])))
			pos += 4
		case tagInt64:
			if pos+8 > len(payload) {
				return nil, bsqlerr.NewCorruption("truncated int64")
			}
			row[i] = value.Integer64(int64(binary.BigEndian.Uint64(payload[pos : pos+8])))
			pos += 8
		case tagReal:
			if pos+8 > len(payload) {
				return nil, bsqlerr.NewCorruption("truncated real")
			}
			row[i] = value.Real(math.Float64frombits(binary.BigEndian.Uint64(payload[pos : pos+8])))
			pos += 8
		case tagText:
			if pos+4 > len(payload) {
				return nil, bsqlerr.NewCorruption("truncated text length")
			}
			strLen := binary.BigEndian.Uint32(payload[pos : pos+4])
			pos += 4
			if pos+int(strLen) > len(payload) {
				return nil, bsqlerr.NewCorruption("truncated text")
			}
			row[i] = value.Text(string(payload[pos : pos+int(strLen)]))
			pos += int(strLen)
		default:
			return nil, bsqlerr.NewCorruption(fmt.Sprintf("invalid row tag %d", tag))
		}
	}
	return row, nil
}

func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeI64(w io.Writer, v int64) error { return writeU64(w, uint64(v)) }

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func readI64(r io.Reader) (int64, error) {
	v, err := readU64(r)
	return int64(v), err
}
