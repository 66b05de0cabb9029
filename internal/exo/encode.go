package exo

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TextFieldLength is the fixed hex length of the text item.
const TextFieldLength = 4096

// EncodeText renders s as UTF-16LE hex, zero padded to TextFieldLength.
// Text that does not fit is cut at a code-unit boundary, leaving room for a
// terminating zero unit.
func EncodeText(s string) string {
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		utf16le = nil
	}
	encoded := hex.EncodeToString(utf16le)
	if limit := TextFieldLength - 4; len(encoded) > limit {
		encoded = encoded[:limit]
	}
	return encoded + strings.Repeat("0", TextFieldLength-len(encoded))
}

// Encode writes f as Shift-JIS with CRLF line endings. Characters Shift-JIS
// cannot represent (outside the hex text field) become '?'.
func Encode(w io.Writer, f Fragment) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("invalid fragment: %w", err)
	}
	sjis := transform.NewWriter(w, encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()))
	bw := bufio.NewWriter(sjis)

	section := func(name string) { fmt.Fprintf(bw, "[%s]\r\n", name) }
	kv := func(key, value string) { fmt.Fprintf(bw, "%s=%s\r\n", key, value) }
	num := func(key string, v int) { kv(key, strconv.Itoa(v)) }

	section("exedit")
	num("width", f.Width)
	num("height", f.Height)
	num("rate", f.FPSBase)
	num("scale", f.FPSScale)
	num("length", f.Length)
	num("audio_rate", f.AudioSampleRate)
	num("audio_ch", f.AudioChannels)

	for i, layer := range f.Layers {
		section(strconv.Itoa(i))
		num("start", layer.Begin)
		num("end", layer.End)
		num("layer", layer.Layer)
		if layer.Group > 0 {
			num("group", layer.Group)
		}
		num("overlay", 1)
		if layer.Clipping {
			num("clipping", 1)
		}
		if layer.Audio {
			num("audio", 1)
		} else {
			num("camera", 0)
		}
		for j, c := range layer.Components {
			section(strconv.Itoa(i) + "." + strconv.Itoa(j))
			kv("_name", c.ComponentName())
			for _, it := range c.items() {
				kv(it.key, it.value)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	return sjis.Close()
}

// WriteFile encodes f to path, replacing any existing file.
func WriteFile(path string, f Fragment) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(file, f); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}
