package tensor

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Binary format constants.
const (
	MagicBytes    = "RWND"
	FormatVersion = 1

	// maxDecodeElements bounds the element count a decoder will accept,
	// so a corrupted header cannot trigger a huge allocation.
	maxDecodeElements = 1 << 28
)

// Encoding selects the on-disk element width. Narrower encodings are
// lossy: values round-trip through float32 or float16 precision.
type Encoding uint8

const (
	EncodingFloat64 Encoding = iota
	EncodingFloat32
	EncodingFloat16
)

func (e Encoding) String() string {
	switch e {
	case EncodingFloat64:
		return "float64"
	case EncodingFloat32:
		return "float32"
	case EncodingFloat16:
		return "float16"
	default:
		return "unknown"
	}
}

// Common decode errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrUnknownEncoding    = errors.New("unknown element encoding")
)

// Encode writes t to w in the binary tensor format:
//
//	magic    4 bytes ("RWND")
//	version  uint16, little-endian
//	encoding uint8
//	rank     uint8
//	dims     rank × uint32, little-endian
//	payload  NumElements × element, little-endian, row-major
func Encode(w io.Writer, t *Dense, enc Encoding) error {
	if enc > EncodingFloat16 {
		return errors.Wrapf(ErrUnknownEncoding, "encoding %d", enc)
	}
	if len(t.shape) > 255 {
		return errors.Errorf("rank %d exceeds format limit", len(t.shape))
	}
	if _, err := io.WriteString(w, MagicBytes); err != nil {
		return errors.Wrap(err, "writing magic bytes")
	}
	header := []any{uint16(FormatVersion), uint8(enc), uint8(len(t.shape))}
	for _, field := range header {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return errors.Wrap(err, "writing header")
		}
	}
	for _, dim := range t.shape {
		if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
			return errors.Wrap(err, "writing dimensions")
		}
	}
	if err := encodePayload(w, t.data, enc); err != nil {
		return errors.Wrap(err, "writing payload")
	}
	return nil
}

func encodePayload(w io.Writer, data []float64, enc Encoding) error {
	switch enc {
	case EncodingFloat64:
		return binary.Write(w, binary.LittleEndian, data)
	case EncodingFloat32:
		narrowed := make([]float32, len(data))
		for i, v := range data {
			narrowed[i] = float32(v)
		}
		return binary.Write(w, binary.LittleEndian, narrowed)
	case EncodingFloat16:
		bits := make([]uint16, len(data))
		for i, v := range data {
			bits[i] = float16.Fromfloat32(float32(v)).Bits()
		}
		return binary.Write(w, binary.LittleEndian, bits)
	}
	return errors.Wrapf(ErrUnknownEncoding, "encoding %d", enc)
}

// Decode reads one tensor in the binary format from r. The result is
// always float64 regardless of the on-disk encoding.
func Decode(r io.Reader) (*Dense, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, errors.Wrap(err, "reading magic bytes")
	}
	if string(magic) != MagicBytes {
		return nil, errors.Wrapf(ErrInvalidMagic, "got %q", magic)
	}
	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "reading version")
	}
	if version != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}
	var enc, rank uint8
	if err := binary.Read(r, binary.LittleEndian, &enc); err != nil {
		return nil, errors.Wrap(err, "reading encoding")
	}
	if Encoding(enc) > EncodingFloat16 {
		return nil, errors.Wrapf(ErrUnknownEncoding, "encoding %d", enc)
	}
	if err := binary.Read(r, binary.LittleEndian, &rank); err != nil {
		return nil, errors.Wrap(err, "reading rank")
	}
	shape := make(Shape, rank)
	elements := 1
	for i := range shape {
		var dim uint32
		if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
			return nil, errors.Wrap(err, "reading dimensions")
		}
		shape[i] = int(dim)
		elements *= int(dim)
		if elements <= 0 || elements > maxDecodeElements {
			return nil, errors.Errorf("implausible shape %s in header", shape[:i+1])
		}
	}
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "decoding shape")
	}
	data, err := decodePayload(r, elements, Encoding(enc))
	if err != nil {
		return nil, errors.Wrap(err, "reading payload")
	}
	return &Dense{shape: shape, data: data}, nil
}

func decodePayload(r io.Reader, elements int, enc Encoding) ([]float64, error) {
	data := make([]float64, elements)
	switch enc {
	case EncodingFloat64:
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return nil, err
		}
	case EncodingFloat32:
		narrowed := make([]float32, elements)
		if err := binary.Read(r, binary.LittleEndian, narrowed); err != nil {
			return nil, err
		}
		for i, v := range narrowed {
			data[i] = float64(v)
		}
	case EncodingFloat16:
		bits := make([]uint16, elements)
		if err := binary.Read(r, binary.LittleEndian, bits); err != nil {
			return nil, err
		}
		for i, b := range bits {
			data[i] = float64(float16.Frombits(b).Float32())
		}
	}
	return data, nil
}

// Save encodes t to a file at path.
func Save(path string, t *Dense, enc Encoding) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating tensor file")
	}
	if err := Encode(file, t, enc); err != nil {
		file.Close()
		return err
	}
	return errors.Wrap(file.Close(), "closing tensor file")
}

// Load decodes a tensor from the file at path.
func Load(path string) (*Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening tensor file")
	}
	defer file.Close()
	return Decode(file)
}
