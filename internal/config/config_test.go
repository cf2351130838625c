package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-formdef/internal/config"
	"github.com/goliatone/go-formdef/pkg/fields"
)

func TestLoad_File(t *testing.T) {
	path := filepath.Join("testdata", "formdef.toml")
	cfg, used, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	assert.Equal(t, "yaml", cfg.Format)
	assert.True(t, cfg.Loader.AllowHTTP)
	assert.Equal(t, 3*time.Second, cfg.Timeout())
	assert.False(t, cfg.Labels.Sanitize)
	assert.True(t, cfg.Labels.Derive, "keys absent from the file keep their defaults")
	assert.Equal(t, "kind", cfg.Fill.ItemTypeKey)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	assert.Equal(t, map[fields.Kind]string{
		fields.KindInteger:      "number-input",
		fields.KindSingleSelect: "radio-group",
	}, cfg.WidgetOverrides())
	assert.Len(t, cfg.ConverterOptions(), 2)
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := config.Load(filepath.Join("testdata", "missing.toml"))
	assert.ErrorIs(t, err, config.ErrConfigFileNotFound)

	_, _, err = config.Load(filepath.Join("testdata", "bad_widget.toml"))
	assert.ErrorIs(t, err, config.ErrUnknownWidgetKind)

	_, _, err = config.Load(filepath.Join("testdata", "bad_version.toml"))
	assert.ErrorIs(t, err, config.ErrConfigVersionMismatch)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, used, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, config.Default(), cfg)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cfg.LogLevel = "chatty"
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogLevel)

	cfg = config.Default()
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Labels.Derive = false
	assert.Len(t, cfg.ConverterOptions(), 3)
}

func TestOptionRegistry(t *testing.T) {
	cfg, _, err := config.Load(filepath.Join("testdata", "formdef.toml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test", cfg.Options.BaseURL)

	registry, err := cfg.OptionRegistry(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"owner"}, registry.Names())

	cfg = config.Default()
	cfg.Options.BaseURL = "/relative"
	assert.Error(t, cfg.Validate())
}
