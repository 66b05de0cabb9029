package editor

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/text/encoding/unicode"

	"talkclip/internal/ipc"
)

const (
	projectPathUnits = 260
	// window, width, height, video rate, video scale, audio rate, audio
	// channels, api version, project path, flags
	blockSize = 8*4 + projectPathUnits*2 + 4
	fpsDigits = 3
)

// DropArgs is the request of the drop helper's Drops.Drop method.
type DropArgs struct {
	Path      string `json:"path"`
	Frames    int    `json:"frames"`
	Layer     int    `json:"layer"`
	TimeoutMS int    `json:"timeout_ms"`
}

// DropReply carries the helper's result name.
type DropReply struct {
	Result string `json:"result"`
}

// Client reads the drop helper's shared-memory block and sends drops to
// its socket.
type Client struct {
	SharedMemoryPath string
	DropSocket       string
}

// Query maps the shared-memory block read-only and decodes it.
func (c Client) Query(context.Context) (Info, Result) {
	f, err := os.Open(c.SharedMemoryPath)
	if err != nil {
		return Info{}, FileMappingFail
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil || st.Size() < blockSize {
		return Info{}, MapViewFail
	}
	data, err := unix.Mmap(int(f.Fd()), 0, blockSize, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return Info{}, MapViewFail
	}
	defer func() { _ = unix.Munmap(data) }()

	return decodeBlock(data), Success
}

func decodeBlock(data []byte) Info {
	le := binary.LittleEndian
	window := le.Uint32(data[0:])
	width := int32(le.Uint32(data[4:]))
	height := int32(le.Uint32(data[8:]))
	videoRate := int32(le.Uint32(data[12:]))
	videoScale := int32(le.Uint32(data[16:]))
	audioRate := int32(le.Uint32(data[20:]))
	audioCh := int32(le.Uint32(data[24:]))
	apiVersion := int32(le.Uint32(data[28:]))

	info := Info{
		WindowOpened:    window != 0,
		ProjectOpened:   width > 0 && height > 0,
		Width:           int(width),
		Height:          int(height),
		AudioSampleRate: int(audioRate),
		AudioChannels:   int(audioCh),
		APIVersion:      int(apiVersion),
		ProjectPath:     decodePath(data[32 : 32+projectPathUnits*2]),
	}
	if videoScale > 0 && videoRate > 0 {
		pow := math.Pow10(fpsDigits)
		info.FPS = math.Round(float64(videoRate)/float64(videoScale)*pow) / pow
	}
	return info
}

func decodePath(raw []byte) string {
	end := len(raw)
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			end = i
			break
		}
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw[:end])
	if err != nil {
		return ""
	}
	return string(out)
}

// Drop asks the helper to place path on the timeline. A missing helper is
// FileMappingFail; no reply within timeout is MessageTimeout.
func (c Client) Drop(ctx context.Context, path string, frames, layer int, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DropTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ipc.Dial(ctx, c.DropSocket)
	if err != nil {
		if ipc.IsTimeout(err) {
			return MessageTimeout
		}
		return FileMappingFail
	}
	defer client.Close()

	var reply DropReply
	args := DropArgs{Path: path, Frames: frames, Layer: layer, TimeoutMS: int(timeout / time.Millisecond)}
	if err := client.Call(ctx, "Drops.Drop", args, &reply); err != nil {
		switch {
		case ipc.IsTimeout(err):
			return MessageTimeout
		case ipc.IsRemote(err):
			return MessageFail
		default:
			return Fail
		}
	}
	return ParseResult(reply.Result)
}
