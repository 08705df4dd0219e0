package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/settings"
	"github.com/vrsandeep/xwc-settings/internal/store"
	"github.com/vrsandeep/xwc-settings/internal/testutil"
)

func init() {
	color.NoColor = true
}

// run executes the CLI against a fresh sqlite file and returns its output.
func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	configFile, debug = "", false

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	cfg := "settings:\n  page: xwc\ndatabase:\n  path: " + filepath.Join(dir, "xwc.db") + "\nplugins:\n  path: " + filepath.Join(dir, "plugins") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath
}

func TestImportThenRead(t *testing.T) {
	cfgPath := writeConfig(t)
	importFile := filepath.Join(filepath.Dir(cfgPath), "options.yml")
	require.NoError(t, os.WriteFile(importFile, []byte(`
xwc_settings_checkout--enabled: "yes"
xwc_settings_core:
  currency: EUR
  rows: [a, b]
blogname: Shop
`), 0o644))

	out, err := run(t, cfgPath, "import", importFile)
	require.NoError(t, err, out)
	assert.Contains(t, out, "imported 3 options")

	out, err = run(t, cfgPath, "get", "checkout.enabled")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = run(t, cfgPath, "get", "core.currency")
	require.NoError(t, err)
	assert.Equal(t, "EUR\n", out)

	out, err = run(t, cfgPath, "has", "core.rows")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = run(t, cfgPath, "dump", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"checkout":{"enabled":true},"core":{"currency":"EUR","rows":["a","b"]}}`, out)

	out, err = run(t, cfgPath, "options", "xwc_*")
	require.NoError(t, err)
	assert.Contains(t, out, "xwc_settings_checkout--enabled yes")
	assert.NotContains(t, out, "blogname")

	_, err = run(t, cfgPath, "delete", "xwc_settings_core")
	require.NoError(t, err)
	out, err = run(t, cfgPath, "has", "core")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestGetMissing(t *testing.T) {
	cfgPath := writeConfig(t)

	_, err := run(t, cfgPath, "get", "nope")
	assert.Error(t, err)

	out, err := run(t, cfgPath, "get", "nope", "--default", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback\n", out)
}

func TestImportOptionsEncodesStructuredValues(t *testing.T) {
	db := testutil.SetupTestDB(t)
	options := store.New(db)
	ctx := context.Background()

	names, err := importOptions(ctx, options, codec.FormatJSON, []byte("b: {x: 1}\na: plain\nc:\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	raw, found, err := options.GetOption(ctx, "b")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"x":1}`, raw)

	raw, _, err = options.GetOption(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "plain", raw)

	raw, found, err = options.GetOption(ctx, "c")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, raw)
}

func TestWriteTree(t *testing.T) {
	tree := settings.Branch{
		"general": settings.Branch{"title": settings.Leaf{Value: "Shop"}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeTree(&buf, tree, "yaml"))
	assert.Equal(t, "general:\n  title: Shop\n", buf.String())

	assert.Error(t, writeTree(&buf, tree, "xml"))
}
