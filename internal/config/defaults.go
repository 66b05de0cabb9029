package config

const (
	defaultSaveDir          = "~/talkclip"
	defaultLogDir           = "~/.local/share/talkclip/logs"
	defaultNamingTemplate   = "{date}_{time}_{character}_{text}"
	defaultMaxTextLength    = 12
	defaultMaxPathLength    = 259
	defaultTextEncoding     = "utf-8"
	defaultFragmentWidth    = 1920
	defaultFragmentHeight   = 1080
	defaultFragmentFPS      = 30
	defaultExtraFrames      = 0
	defaultAudioSampleRate  = 44100
	defaultAudioChannels    = 2
	defaultRounding         = "floor"
	defaultEditorProcess    = "aviutl"
	defaultSharedMemoryPath = "/dev/shm/GCMZDrops"
	defaultDropSocket       = "~/.local/state/talkclip/gcmz.sock"
	defaultDropTimeoutMS    = 3000
	defaultTimelineProcess  = "YukkuriMovieMaker_v3"
	defaultBridgeSocket     = "~/.local/state/talkclip/automation.sock"
	defaultTimelineAttempts = 9
	defaultTimelineDelayMS  = 250
	defaultHostTimeout      = 60
	defaultAPIBind          = "127.0.0.1:7561"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultPlaySpeed        = 100
	defaultVolume           = 100
	defaultTextFont         = "MS UI Gothic"
	defaultTextSize         = 34
	defaultTextColor        = "ffffff"
	defaultTextEdgeColor    = "000000"
	defaultTextAlign        = 4
	defaultRenderScale      = 100
	defaultRenderY          = 200
	defaultDropLayer        = 1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SaveDir:  defaultSaveDir,
			StateDir: defaultStateDir(),
			LogDir:   defaultLogDir,
		},
		Naming: Naming{
			Template:      defaultNamingTemplate,
			MaxTextLength: defaultMaxTextLength,
			MaxPathLength: defaultMaxPathLength,
		},
		Text: Text{
			WriteSidecar: true,
			Encoding:     defaultTextEncoding,
		},
		Fragment: Fragment{
			Enabled:         true,
			Width:           defaultFragmentWidth,
			Height:          defaultFragmentHeight,
			FPS:             defaultFragmentFPS,
			ExtraFrames:     defaultExtraFrames,
			AudioSampleRate: defaultAudioSampleRate,
			AudioChannels:   defaultAudioChannels,
			Grouping:        true,
			Rounding:        defaultRounding,
		},
		Editor: Editor{
			ProcessName:      defaultEditorProcess,
			SharedMemoryPath: defaultSharedMemoryPath,
			DropSocket:       defaultDropSocket,
			DropTimeoutMS:    defaultDropTimeoutMS,
		},
		Timeline: Timeline{
			ProcessName:     defaultTimelineProcess,
			BridgeSocket:    defaultBridgeSocket,
			SelectCharacter: true,
			AddClip:         true,
			MaxAttempts:     defaultTimelineAttempts,
			RetryDelayMS:    defaultTimelineDelayMS,
		},
		Host: Host{
			TimeoutSeconds: defaultHostTimeout,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultCharacter returns the style used when no character entry matches.
func DefaultCharacter() Character {
	return Character{
		PlaySpeed: defaultPlaySpeed,
		Volume:    defaultVolume,
		Layer:     defaultDropLayer,
		Text: TextStyle{
			Font:      defaultTextFont,
			Size:      defaultTextSize,
			Color:     defaultTextColor,
			EdgeColor: defaultTextEdgeColor,
			Align:     defaultTextAlign,
		},
		Render: RenderStyle{
			Y:     defaultRenderY,
			Scale: defaultRenderScale,
		},
	}
}
