package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteWAV writes a silent 16-bit PCM file of the given length.
func WriteWAV(t testing.TB, path string, sampleRate, channels int, length time.Duration) {
	t.Helper()

	mkdirFor(t, path)
	if err := os.WriteFile(path, WAVBytes(sampleRate, channels, length), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WAVBytes builds a silent 16-bit PCM file image.
func WAVBytes(sampleRate, channels int, length time.Duration) []byte {
	const bits = 16
	blockAlign := channels * bits / 8
	byteRate := sampleRate * blockAlign
	frames := int64(sampleRate) * int64(length) / int64(time.Second)
	dataSize := uint32(frames * int64(blockAlign))

	out := make([]byte, 44+int(dataSize))
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], 36+dataSize)
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], bits)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], dataSize)
	return out
}

func mkdirFor(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
}
