package blade

import (
	"fmt"
	"strings"

	"github.com/dangdungcntt/go-blade/v2/internal/cache"
)

// Mode controls when templates are recompiled. The values are bit flags:
// ModeSlow and ModeFast together are a configuration error.
type Mode int

const (
	// ModeAuto recompiles when the artifact is missing or older than the source.
	ModeAuto Mode = 0
	// ModeSlow recompiles on every render.
	ModeSlow Mode = 1
	// ModeFast runs the last compiled artifact without any check.
	ModeFast Mode = 2
	// ModeDebug recompiles on every render and names artifacts literally.
	ModeDebug Mode = 5
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeSlow:
		return "slow"
	case ModeFast:
		return "fast"
	case ModeDebug:
		return "debug"
	}
	return fmt.Sprint(int(m))
}

func (m Mode) conflicting() bool { return m&3 == 3 }
func (m Mode) forced() bool      { return m&ModeSlow != 0 }
func (m Mode) fast() bool        { return m&ModeFast != 0 }

// MarshalText writes the mode name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts what ParseMode accepts.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode accepts auto, slow, fast, debug or a numeric mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "slow":
		return ModeSlow, nil
	case "fast":
		return ModeFast, nil
	case "debug":
		return ModeDebug, nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("unknown mode %q", s)
	}
	return Mode(n), nil
}

// Naming selects how compiled artifacts are named.
type Naming = cache.Naming

const (
	NamingAuto   = cache.NamingAuto
	NamingNormal = cache.NamingNormal
	NamingSHA1   = cache.NamingSHA1
	NamingMD5    = cache.NamingMD5
)

// Tags is an open/close echo delimiter pair.
type Tags struct {
	Open  string `mapstructure:"open" yaml:"open"`
	Close string `mapstructure:"close" yaml:"close"`
}

// Config holds the engine settings.
type Config struct {
	TemplatePaths     []string `mapstructure:"template_paths" yaml:"template_paths"`
	CompiledPath      string   `mapstructure:"compiled_path" yaml:"compiled_path"`
	FileExtension     string   `mapstructure:"file_extension" yaml:"file_extension"`
	CompiledExtension string   `mapstructure:"compiled_extension" yaml:"compiled_extension"`
	Mode              Mode     `mapstructure:"-" yaml:"mode"`
	Naming            Naming   `mapstructure:"naming" yaml:"naming"`
	// Optimize compacts runs of blanks in literal text.
	Optimize bool `mapstructure:"optimize" yaml:"optimize"`
	// Pipes enables {{ $x | filter:arg }} chains.
	Pipes bool `mapstructure:"pipes" yaml:"pipes"`
	// IncludeScope restores the caller's variables after a child render.
	IncludeScope bool `mapstructure:"include_scope" yaml:"include_scope"`
	// ThrowOnError returns non-critical errors instead of rendering them inline.
	ThrowOnError bool `mapstructure:"throw_on_error" yaml:"throw_on_error"`
	// Strict rejects unknown directives instead of passing them through.
	Strict bool `mapstructure:"strict" yaml:"strict"`

	RawTags     Tags `mapstructure:"raw_tags" yaml:"raw_tags"`
	EscapedTags Tags `mapstructure:"escaped_tags" yaml:"escaped_tags"`
	ContentTags Tags `mapstructure:"content_tags" yaml:"content_tags"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		FileExtension:     ".blade.html",
		CompiledExtension: ".bladec",
		Mode:              ModeAuto,
		Naming:            NamingAuto,
		ThrowOnError:      true,
		RawTags:           Tags{Open: "{!!", Close: "!!}"},
		EscapedTags:       Tags{Open: "{{{", Close: "}}}"},
		ContentTags:       Tags{Open: "{{", Close: "}}"},
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.Mode.conflicting() {
		return newError(ErrModeConflict, "Mode", "", true, nil, "fast and slow mode can't be used together (mode %d)", int(c.Mode))
	}
	for _, t := range []Tags{c.RawTags, c.EscapedTags, c.ContentTags} {
		if t.Open == "" || t.Close == "" {
			return fmt.Errorf("echo tags must have an open and a close delimiter")
		}
	}
	switch c.Naming {
	case NamingAuto, NamingNormal, NamingSHA1, NamingMD5:
	default:
		return fmt.Errorf("unknown naming %q", c.Naming)
	}
	return nil
}

// naming resolves NamingAuto for the configured mode.
func (c Config) naming() Naming {
	if c.Naming != NamingAuto && c.Naming != "" {
		return c.Naming
	}
	if c.Mode == ModeDebug {
		return NamingNormal
	}
	return NamingSHA1
}
