package exo

import "strconv"

// Component is one filter of a layer. The set is closed to this package.
type Component interface {
	ComponentName() string
	items() []item
}

type item struct {
	key   string
	value string
}

func boolItem(key string, v bool) item {
	if v {
		return item{key, "1"}
	}
	return item{key, "0"}
}

// TextComponent is a styled caption.
type TextComponent struct {
	Size         MovableValue
	DisplaySpeed MovableValue
	PerCharacter bool
	OnMovePath   bool
	AutoScroll   bool
	Bold         bool
	Italic       bool
	Decorate     int
	AutoAdjust   bool
	Soft         bool
	Monospace    bool
	Align        int
	SpacingX     int
	SpacingY     int
	Precision    bool
	Color        string
	EdgeColor    string
	Font         string
	Text         string
}

// NewTextComponent returns the editor's default caption settings.
func NewTextComponent() *TextComponent {
	return &TextComponent{
		Size:         Fixed(34, 0),
		DisplaySpeed: Fixed(0, 1),
		Soft:         true,
		Precision:    true,
		Color:        "ffffff",
		EdgeColor:    "000000",
		Font:         "MS UI Gothic",
	}
}

func (*TextComponent) ComponentName() string { return "テキスト" }

func (c *TextComponent) items() []item {
	return []item{
		{"サイズ", c.Size.String()},
		{"表示速度", c.DisplaySpeed.String()},
		boolItem("文字毎に個別オブジェクト", c.PerCharacter),
		boolItem("移動座標上に表示する", c.OnMovePath),
		boolItem("自動スクロール", c.AutoScroll),
		boolItem("B", c.Bold),
		boolItem("I", c.Italic),
		{"type", strconv.Itoa(c.Decorate)},
		boolItem("autoadjust", c.AutoAdjust),
		boolItem("soft", c.Soft),
		boolItem("monospace", c.Monospace),
		{"align", strconv.Itoa(c.Align)},
		{"spacing_x", strconv.Itoa(c.SpacingX)},
		{"spacing_y", strconv.Itoa(c.SpacingY)},
		boolItem("precision", c.Precision),
		{"color", c.Color},
		{"color2", c.EdgeColor},
		{"font", c.Font},
		{"text", EncodeText(c.Text)},
	}
}

// BlendMode is the layer composition mode.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendAdd
	BlendSubtract
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendLighten
	BlendDarken
	BlendLuminance
	BlendChroma
	BlendShadow
	BlendLightDark
	BlendDifference
)

// Axis selects one coordinate of a RenderComponent.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Coordinate holds the begin and end of one axis.
type Coordinate struct {
	Begin float64
	End   float64
}

const coordinateDigits = 1

// RenderComponent positions a visual object. X, Y and Z always share one
// Movement; there is no per-axis movement to drift apart.
type RenderComponent struct {
	X, Y, Z      Coordinate
	Scale        MovableValue
	Transparency MovableValue
	Rotation     MovableValue
	Blend        BlendMode

	movement Movement
}

// NewRenderComponent returns the editor defaults.
func NewRenderComponent() *RenderComponent {
	return &RenderComponent{
		Scale:        Fixed(100, 2),
		Transparency: Fixed(0, 1),
		Rotation:     Fixed(0, 2),
	}
}

func (*RenderComponent) ComponentName() string { return "標準描画" }

// Movement returns the movement shared by X, Y and Z.
func (c *RenderComponent) Movement() Movement { return c.movement }

// SetMovement changes the movement of all three axes at once.
func (c *RenderComponent) SetMovement(m Movement) { c.movement = m }

// Axis returns one coordinate as a movable value.
func (c *RenderComponent) Axis(a Axis) MovableValue {
	var coord Coordinate
	switch a {
	case AxisY:
		coord = c.Y
	case AxisZ:
		coord = c.Z
	default:
		coord = c.X
	}
	return MovableValue{Begin: coord.Begin, End: coord.End, Movement: c.movement, Digits: coordinateDigits}
}

func (c *RenderComponent) items() []item {
	return []item{
		{"X", c.Axis(AxisX).String()},
		{"Y", c.Axis(AxisY).String()},
		{"Z", c.Axis(AxisZ).String()},
		{"拡大率", c.Scale.String()},
		{"透明度", c.Transparency.String()},
		{"回転", c.Rotation.String()},
		{"blend", strconv.Itoa(int(c.Blend))},
	}
}

// AudioFileComponent references the saved audio.
type AudioFileComponent struct {
	Position  MovableValue
	PlaySpeed MovableValue
	Loop      bool
	LinkVideo bool
	Path      string
}

// NewAudioFileComponent plays path from the start at playSpeed percent.
func NewAudioFileComponent(path string, playSpeed float64) *AudioFileComponent {
	return &AudioFileComponent{
		Position:  Fixed(0, 2),
		PlaySpeed: Fixed(playSpeed, 1),
		Path:      path,
	}
}

func (*AudioFileComponent) ComponentName() string { return "音声ファイル" }

func (c *AudioFileComponent) items() []item {
	return []item{
		{"再生位置", c.Position.String()},
		{"再生速度", c.PlaySpeed.String()},
		boolItem("ループ再生", c.Loop),
		boolItem("動画ファイルと連携", c.LinkVideo),
		{"file", c.Path},
	}
}

// PlaybackComponent sets volume and pan of an audio layer.
type PlaybackComponent struct {
	Volume MovableValue
	Pan    MovableValue
}

// NewPlaybackComponent returns full volume, centred.
func NewPlaybackComponent() *PlaybackComponent {
	return &PlaybackComponent{Volume: Fixed(100, 1), Pan: Fixed(0, 1)}
}

func (*PlaybackComponent) ComponentName() string { return "標準再生" }

func (c *PlaybackComponent) items() []item {
	return []item{
		{"音量", c.Volume.String()},
		{"左右", c.Pan.String()},
	}
}
