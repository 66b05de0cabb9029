// Package wave measures the playback length of RIFF/WAVE files.
package wave

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TicksPerSecond is the resolution of duration ticks (100ns units).
const TicksPerSecond = 10_000_000

var (
	ErrNotWave   = errors.New("not a RIFF/WAVE file")
	ErrNoFormat  = errors.New("wave file has no fmt chunk before data")
	ErrNoData    = errors.New("wave file has no data chunk")
	ErrZeroRate  = errors.New("wave file has zero byte rate")
	errShortRead = errors.New("truncated chunk")
)

// Format is the subset of the fmt chunk needed for timing.
type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Info describes a parsed file.
type Info struct {
	Format   Format
	DataSize uint32
}

// Duration is the playback length of the data chunk.
func (i Info) Duration() time.Duration {
	return time.Duration(int64(i.DataSize) * int64(time.Second) / int64(i.Format.ByteRate))
}

// Ticks is the playback length in 100ns units.
func (i Info) Ticks() int64 {
	return int64(i.Duration() / 100)
}

// Read parses the header chunks of the file at path.
func Read(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	info, err := Parse(bufio.NewReader(f))
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// Duration reads path and returns its playback length.
func Duration(path string) (time.Duration, error) {
	info, err := Read(path)
	if err != nil {
		return 0, err
	}
	return info.Duration(), nil
}

// Parse walks RIFF chunks until the data chunk.
func Parse(r io.Reader) (Info, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Info{}, ErrNotWave
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Info{}, ErrNotWave
	}

	var (
		info      Info
		haveFmt   bool
		chunkHead [8]byte
	)
	for {
		if _, err := io.ReadFull(r, chunkHead[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Info{}, ErrNoData
			}
			return Info{}, err
		}
		id := string(chunkHead[0:4])
		size := binary.LittleEndian.Uint32(chunkHead[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return Info{}, fmt.Errorf("fmt chunk: %w", errShortRead)
			}
			if err := binary.Read(r, binary.LittleEndian, &info.Format); err != nil {
				return Info{}, fmt.Errorf("fmt chunk: %w", err)
			}
			if err := skip(r, int64(size)-16+int64(size&1)); err != nil {
				return Info{}, err
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return Info{}, ErrNoFormat
			}
			if info.Format.ByteRate == 0 {
				return Info{}, ErrZeroRate
			}
			info.DataSize = size
			return info, nil
		default:
			if err := skip(r, int64(size)+int64(size&1)); err != nil {
				return Info{}, err
			}
		}
	}
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	copied, err := io.CopyN(io.Discard, r, n)
	if err != nil || copied != n {
		return errShortRead
	}
	return nil
}
