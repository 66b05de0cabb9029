package fragment

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"talkclip/internal/wave"
)

// maxFPSDecimals bounds the scale of configured frame rates.
const maxFPSDecimals = 6

// Rounding selects how a fractional frame count becomes an integer.
type Rounding int

const (
	// Floor truncates, matching how the editor cuts object length.
	Floor Rounding = iota
	Ceil
)

func (r Rounding) String() string {
	if r == Ceil {
		return "ceil"
	}
	return "floor"
}

// ParseRounding accepts "floor" (or empty) and "ceil".
func ParseRounding(value string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "floor":
		return Floor, nil
	case "ceil", "ceiling":
		return Ceil, nil
	default:
		return Floor, fmt.Errorf("unknown rounding %q", value)
	}
}

// FPSRatio splits fps into base/scale where scale is 10 to the number of
// decimal places (29.97 -> 2997/100).
func FPSRatio(fps float64) (base, scale int, err error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 0, 0, fmt.Errorf("frame rate must be positive, got %v", fps)
	}
	text := strconv.FormatFloat(fps, 'f', -1, 64)
	if dot := strings.IndexByte(text, '.'); dot >= 0 && len(text)-dot-1 > maxFPSDecimals {
		text = strings.TrimRight(strconv.FormatFloat(fps, 'f', maxFPSDecimals, 64), "0")
		text = strings.TrimSuffix(text, ".")
	}
	intPart, fracPart, _ := strings.Cut(text, ".")
	scale = 1
	for range len(fracPart) {
		scale *= 10
	}
	base, err = strconv.Atoi(intPart + fracPart)
	if err != nil {
		return 0, 0, fmt.Errorf("frame rate %v: %w", fps, err)
	}
	if base <= 0 {
		return 0, 0, fmt.Errorf("frame rate %v rounds to zero", fps)
	}
	return base, scale, nil
}

func decimalRat(v float64) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'f', -1, 64))
	if !ok {
		return nil, fmt.Errorf("invalid number %v", v)
	}
	return r, nil
}

// FrameCount converts an audio length in 100ns ticks to frames:
//
//	ticks * fps / (playSpeed * TicksPerSecond / 100)
//
// playSpeed is a percentage. The division is exact; only the final
// conversion to an integer applies rounding.
func FrameCount(ticks int64, fps, playSpeed float64, rounding Rounding) (int, error) {
	if ticks < 0 {
		return 0, errors.New("duration must not be negative")
	}
	if playSpeed <= 0 {
		return 0, fmt.Errorf("play speed must be positive, got %v", playSpeed)
	}
	base, scale, err := FPSRatio(fps)
	if err != nil {
		return 0, err
	}
	speed, err := decimalRat(playSpeed)
	if err != nil {
		return 0, err
	}

	num := new(big.Rat).SetInt64(ticks)
	num.Mul(num, big.NewRat(int64(base), int64(scale)))
	den := new(big.Rat).Mul(speed, big.NewRat(wave.TicksPerSecond/100, 1))
	frames := new(big.Rat).Quo(num, den)

	q, rem := new(big.Int).QuoRem(frames.Num(), frames.Denom(), new(big.Int))
	if rounding == Ceil && rem.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsInt64() || q.Int64() > math.MaxInt32 {
		return 0, errors.New("frame count overflows")
	}
	return int(q.Int64()), nil
}
