package blade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "Fast": ModeFast, "slow": ModeSlow, "debug": ModeDebug, "3": Mode(3)} {
		m, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, m, in)
	}
	_, err := ParseMode("turbo")
	assert.Error(t, err)
	assert.Equal(t, "3", Mode(3).String())
}

func TestConfigYAML(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte("mode: fast\npipes: true\ncontent_tags: {open: '[[', close: ']]'}\n"), &cfg))
	assert.Equal(t, ModeFast, cfg.Mode)
	assert.True(t, cfg.Pipes)
	assert.Equal(t, Tags{Open: "[[", Close: "]]"}, cfg.ContentTags)

	out, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, string(out), "mode: auto")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.RawTags.Close = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Naming = "crc"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Mode = ModeSlow | ModeFast
	assert.ErrorIs(t, cfg.Validate(), ErrModeConflict)
}

func TestConfigNaming(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, NamingSHA1, cfg.naming())
	cfg.Mode = ModeDebug
	assert.Equal(t, NamingNormal, cfg.naming())
	cfg.Naming = NamingMD5
	assert.Equal(t, NamingMD5, cfg.naming())
}
