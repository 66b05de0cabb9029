package exo

import (
	"strconv"
	"strings"
)

// MoveMode is the editor's movement curve index.
type MoveMode int

const (
	MoveNone MoveMode = iota
	MoveLinear
	MoveCurve
	MoveTeleport
	MoveIgnoreMidpoint
	MoveRandom
	MoveAccelerate
	MoveRepeat
)

const (
	flagAccelerate = 0x40
	flagDecelerate = 0x20
)

// Movement describes how a value travels from Begin to End.
type Movement struct {
	Mode         MoveMode
	Accelerating bool
	Decelerating bool
	Interval     int
}

func (m Movement) code() int {
	code := int(m.Mode)
	if m.Accelerating {
		code |= flagAccelerate
	}
	if m.Decelerating {
		code |= flagDecelerate
	}
	return code
}

// MovableValue is a numeric item that may move over the object's duration.
type MovableValue struct {
	Begin    float64
	End      float64
	Movement Movement
	Digits   int
}

// Fixed returns a non-moving value.
func Fixed(v float64, digits int) MovableValue {
	return MovableValue{Begin: v, End: v, Digits: digits}
}

// String renders "begin" or "begin,end,code[,interval]".
func (v MovableValue) String() string {
	begin := formatNumber(v.Begin, v.Digits)
	if v.Movement.Mode == MoveNone {
		return begin
	}
	var b strings.Builder
	b.WriteString(begin)
	b.WriteByte(',')
	b.WriteString(formatNumber(v.End, v.Digits))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(v.Movement.code()))
	if v.Movement.Interval != 0 {
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(v.Movement.Interval))
	}
	return b.String()
}

func formatNumber(v float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	return strconv.FormatFloat(v, 'f', digits, 64)
}
