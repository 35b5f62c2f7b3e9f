package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/roach88/vcq/internal/ir"
)

// Value markers. Their order matches ir.Compare across kinds, and null
// sorts after every present value.
const (
	markerBool   byte = 0x02
	markerInt    byte = 0x03
	markerString byte = 0x04
	markerNull   byte = 0xFF
)

// appendValue appends the order-preserving encoding of v. The encoding is
// prefix-free, so bitwise inversion (desc) reverses the order.
func appendValue(buf []byte, v ir.IRValue, desc bool) ([]byte, error) {
	start := len(buf)
	switch val := v.(type) {
	case nil, ir.IRNull:
		buf = append(buf, markerNull)
	case ir.IRBool:
		b := byte(0)
		if val {
			b = 1
		}
		buf = append(buf, markerBool, b)
	case ir.IRInt:
		buf = append(buf, markerInt)
		buf = binary.BigEndian.AppendUint64(buf, uint64(val)^(1<<63))
	case ir.IRString:
		buf = append(buf, markerString)
		for _, c := range []byte(ir.Normalize(string(val))) {
			if c == 0x00 {
				buf = append(buf, 0x00, 0xFF)
			} else {
				buf = append(buf, c)
			}
		}
		buf = append(buf, 0x00, 0x01)
	default:
		return nil, fmt.Errorf("codec: value of kind %s cannot be ordered", ir.KindOf(v))
	}
	if desc {
		for i := start; i < len(buf); i++ {
			buf[i] = ^buf[i]
		}
	}
	return buf, nil
}

// appendID appends an id as 8 big-endian bytes.
func appendID(buf []byte, id int64) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// VertexKey is the row key of a vertex.
func VertexKey(id int64) []byte {
	return appendID(make([]byte, 0, 8), id)
}

// VertexIDFromKey inverts VertexKey.
func VertexIDFromKey(key []byte) (int64, error) {
	if len(key) != 8 {
		return 0, fmt.Errorf("codec: vertex key has %d bytes, want 8", len(key))
	}
	return int64(binary.BigEndian.Uint64(key)), nil
}
