package sqlite

import (
	"encoding/binary"
	"math"
)

// VectorToBytes serializes an embedding as little-endian float32 bytes for
// BLOB storage. Returns nil for an empty vector so the column stays NULL.
func VectorToBytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// VectorFromBytes deserializes a BLOB back into an embedding.
// Returns nil for malformed data rather than propagating a partial vector.
func VectorFromBytes(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
