package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hexkit/hexview"
	"github.com/joshuapare/hexkit/internal/hexfmt"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, hexview.DefaultConfig().PageBytes(), cfg.HexView().PageBytes())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
view:
  bytes_per_row: 8
  rows_per_page: 64
  charset: cp437
storage:
  root: /srv/evidence
server:
  max_length: 4096
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.View.BytesPerRow)
	assert.Equal(t, 64, cfg.View.RowsPerPage)
	assert.Equal(t, hexfmt.CP437, cfg.Charset())
	assert.Equal(t, "/srv/evidence", cfg.Storage.Root)
	assert.Equal(t, int64(4096), cfg.Server.MaxLength)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr, "unset keys keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("view:\n  bytes_per_row: 8\n"), 0o644))
	t.Setenv("HEXKIT_BYTES_PER_ROW", "32")
	t.Setenv("HEXKIT_MAX_LENGTH", "0x1000")
	t.Setenv("HEXKIT_DEBUG", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.View.BytesPerRow)
	assert.Equal(t, int64(0x1000), cfg.Server.MaxLength)
	assert.True(t, cfg.Log.Debug)
}

func TestLoad_ConfigEnvSelectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  dir: /tmp/out\n"), 0o644))
	t.Setenv(PathEnv, path)

	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, path, p)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.Export.Dir)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad yaml":  "view: [",
		"bad width": "view:\n  bytes_per_row: 0\n",
		"charset":   "view:\n  charset: ebcdic\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}

	t.Setenv("HEXKIT_ROWS_PER_PAGE", "many")
	_, err := Load(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.View.OverlayLimit = 100

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, got.View.OverlayLimit)
}
