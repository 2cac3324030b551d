package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thrift-rewrite/internal/config"
)

func TestParseYAML(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(`
options:
  indentWidth: 4
  useTabs: true
comment_ranges: true
log_level: debug
color: never
`), ".yaml")
	require.NoError(t, err)
	assert.True(t, cfg.CommentRanges)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.ColorNever, cfg.Color)

	opts, err := cfg.RewriteOptions()
	require.NoError(t, err)
	assert.Equal(t, 4, opts.IndentWidth)
	assert.True(t, opts.UseTabs)
}

func TestParseTOML(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(`
comment_ranges = true
color = "always"

[options]
lineWidth = 80
tabWidth = 8
`), ".toml")
	require.NoError(t, err)
	assert.True(t, cfg.CommentRanges)
	assert.Equal(t, config.ColorAlways, cfg.Color)
	assert.Equal(t, "warn", cfg.LogLevel)

	opts, err := cfg.RewriteOptions()
	require.NoError(t, err)
	assert.Equal(t, 80, opts.LineWidth)
	assert.Equal(t, 8, opts.TabWidth)
}

func TestParseRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		ext  string
		want string
	}{
		{name: "color", data: "color: rainbow\n", ext: ".yaml", want: "color"},
		{name: "log level", data: "log_level: loud\n", ext: ".yml", want: "log_level"},
		{name: "option", data: "options:\n  tabWidth: wide\n", ext: ".yaml", want: "tabWidth"},
		{name: "syntax", data: "options = [", ext: ".toml", want: "parse toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Parse([]byte(tt.data), tt.ext)
			require.ErrorContains(t, err, tt.want)
		})
	}

	_, err := config.Parse(nil, ".json")
	require.ErrorIs(t, err, config.ErrUnknownFormat)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := config.Resolve("", nested)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, config.ColorAuto, cfg.Color)

	path := filepath.Join(root, ".thriftrewrite.toml")
	require.NoError(t, os.WriteFile(path, []byte("comment_ranges = true\n"), 0o644))

	cfg, err = config.Resolve("", nested)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.True(t, cfg.CommentRanges)

	explicit := filepath.Join(nested, "custom.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("log_level: error\n"), 0o644))
	cfg, err = config.Resolve(explicit, nested)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.False(t, cfg.CommentRanges)
}

func TestSessionOptions(t *testing.T) {
	t.Parallel()

	opts, err := config.Default().SessionOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}
