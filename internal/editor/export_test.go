package editor

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

// EncodeBlock builds a shared-memory image for tests.
func EncodeBlock(window uint32, width, height, rate, scale, audioRate, audioCh int32, projectPath string) []byte {
	data := make([]byte, blockSize)
	le := binary.LittleEndian
	le.PutUint32(data[0:], window)
	for i, v := range []int32{width, height, rate, scale, audioRate, audioCh, 2} {
		le.PutUint32(data[4+i*4:], uint32(v))
	}
	encoded, _ := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(projectPath))
	copy(data[32:32+projectPathUnits*2], encoded)
	return data
}
