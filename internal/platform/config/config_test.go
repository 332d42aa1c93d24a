package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_defaults(t *testing.T) {
	c, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, 500*time.Millisecond, c.PrimingDelay)
	assert.Equal(t, time.Second, c.FirstRevealDelay)
	assert.Equal(t, 10*time.Second, c.RevealInterval)
	assert.Equal(t, 7*time.Second, c.OverlayDuration)
	assert.Equal(t, 2*time.Second, c.EndGrace)
	assert.Equal(t, 100*time.Millisecond, c.EmbedAPIPoll)
}

func TestParse_overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REVEAL_INTERVAL", "15s")
	t.Setenv("SUBMIT_RATE_LIMIT", "3")

	c, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, 15*time.Second, c.RevealInterval)
	assert.Equal(t, 3, c.SubmitRateLimit)
}

func TestParse_invalidDuration(t *testing.T) {
	t.Setenv("END_GRACE", "soon")
	_, err := Parse()
	assert.ErrorContains(t, err, "parse env:")
}

func TestLoad_dotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_FORMAT=text\n"), 0o600))
	t.Setenv("LOG_FORMAT", "")
	require.NoError(t, os.Unsetenv("LOG_FORMAT"))

	require.NoError(t, Load(path))
	c, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "text", c.LogFormat)
}

func TestLoad_missingFile(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "absent.env")))
}
