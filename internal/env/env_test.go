package env

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Host    string        `env:"TEST_HOST" default:"localhost"`
	Port    int           `env:"TEST_PORT" default:"8080"`
	Enabled bool          `env:"TEST_ENABLED" default:"true"`
	Timeout time.Duration `env:"TEST_TIMEOUT" default:"5s"`
	Ratio   float64       `env:"TEST_RATIO" default:"0.5"`
	Tags    []string      `env:"TEST_TAGS"`
	NoDef   string        `env:"TEST_NO_DEF"`
	Nested  nestedConfig
}

type nestedConfig struct {
	Limit int `env:"TEST_LIMIT" default:"10"`
}

func (c *nestedConfig) Validate() error {
	if c.Limit <= 0 {
		return errors.New("limit must be positive")
	}
	return nil
}

type rootValidated struct {
	Name string `env:"TEST_NAME"`
}

func (c *rootValidated) Validate() error {
	if c.Name == "" {
		return errors.New("TEST_NAME is required")
	}
	return nil
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_HOST", "example.com")
	t.Setenv("TEST_PORT", "9090")
	t.Setenv("TEST_ENABLED", "false")
	t.Setenv("TEST_TIMEOUT", "1m30s")
	t.Setenv("TEST_RATIO", "0.25")
	t.Setenv("TEST_TAGS", "a, b,,c ")
	t.Setenv("TEST_NO_DEF", "foo")
	t.Setenv("TEST_LIMIT", "3")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "example.com", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.InDelta(t, 0.25, cfg.Ratio, 1e-9)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	assert.Equal(t, "foo", cfg.NoDef)
	assert.Equal(t, 3, cfg.Nested.Limit)
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Nil(t, cfg.Tags)
	assert.Empty(t, cfg.NoDef)
	assert.Equal(t, 10, cfg.Nested.Limit)
}

func TestLoad_EmptyValues(t *testing.T) {
	t.Setenv("TEST_HOST", "")
	t.Setenv("TEST_PORT", "")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "", cfg.Host, "empty strings are respected")
	assert.Equal(t, 8080, cfg.Port, "empty non-strings fall back to the default")
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TEST_PORT", "eighty")

	var cfg testConfig
	err := Load(&cfg)

	var invalid ErrInvalidValue
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "TEST_PORT", invalid.EnvVar)
	assert.Equal(t, "Port", invalid.Field)
	assert.Contains(t, err.Error(), `TEST_PORT="eighty"`)
}

func TestLoad_NestedValidation(t *testing.T) {
	t.Setenv("TEST_LIMIT", "0")

	var cfg testConfig
	assert.EqualError(t, Load(&cfg), "limit must be positive")
}

func TestLoad_RootValidation(t *testing.T) {
	var cfg rootValidated
	assert.EqualError(t, Load(&cfg), "TEST_NAME is required")

	t.Setenv("TEST_NAME", "compass")
	require.NoError(t, Load(&cfg))
	assert.Equal(t, "compass", cfg.Name)
}

func TestLoad_NotStructPointer(t *testing.T) {
	var cfg testConfig
	var target ErrNotStructPointer

	assert.ErrorAs(t, Load(cfg), &target)
	assert.ErrorAs(t, Load(new(int)), &target)
}

func TestLoad_UnsupportedType(t *testing.T) {
	t.Setenv("TEST_CHANNELS", "1")

	var cfg struct {
		Channels []int `env:"TEST_CHANNELS"`
	}
	var target ErrUnsupportedType
	assert.ErrorAs(t, Load(&cfg), &target)
}
