package plugins_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/xwc-settings/internal/plugins"
)

// Each case is a pair of field plugin releases found under the same id.
func TestDuplicateFieldPluginResolution(t *testing.T) {
	testCases := []struct {
		name      string
		installed string
		found     string
		replace   bool
	}{
		{"patch release of color picker", "1.0.0", "1.0.1", true},
		{"older copy left in a backup folder", "1.4.2", "1.3.9", false},
		{"same release copied twice", "2.1.0", "2.1.0", false},
		{"release candidate after final", "2.0.0", "2.0.0-rc.1", false},
		{"final after release candidate", "2.0.0-rc.1", "2.0.0", true},
		{"build metadata does not count", "1.1.0+20260301", "1.1.0+20260415", false},
		{"manifest written with v prefix", "v1.9.0", "1.10.0", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			newer, err := plugins.IsNewerVersion(tc.installed, tc.found)
			require.NoError(t, err)
			assert.Equal(t, tc.replace, newer)
		})
	}
}

func TestCompareFieldPluginVersions(t *testing.T) {
	testCases := []struct {
		v1, v2 string
		want   int
	}{
		{"1.10.0", "1.9.0", 1},
		{"0.3.0", "0.3.0", 0},
		{"3.0.0-beta.2", "3.0.0-beta.10", -1},
	}

	for _, tc := range testCases {
		t.Run(tc.v1+" vs "+tc.v2, func(t *testing.T) {
			got, err := plugins.CompareVersions(tc.v1, tc.v2)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUnparseablePluginVersion(t *testing.T) {
	_, err := plugins.CompareVersions("latest", "1.0.0")
	assert.Error(t, err)

	newer, err := plugins.IsNewerVersion("1.0.0", "nightly")
	assert.Error(t, err)
	assert.False(t, newer, "a broken manifest never replaces a loaded plugin")
}

func TestManifestVersionValidity(t *testing.T) {
	assert.True(t, plugins.IsValidVersion("0.1.0"))
	assert.True(t, plugins.IsValidVersion("v2.3.4-rc.1+sha.5114f85"))
	assert.False(t, plugins.IsValidVersion(""))
	assert.False(t, plugins.IsValidVersion("color-picker"))
}

func TestValidateAPIVersion(t *testing.T) {
	testCases := []struct {
		version string
		wantErr bool
	}{
		{plugins.APIVersion, false},
		{"v1.0", false},
		{"1", false},
		{"1.1", true},
		{"2.0", true},
		{"0.9", true},
		{"not-a-version", true},
	}

	for _, tc := range testCases {
		t.Run(tc.version, func(t *testing.T) {
			err := plugins.ValidateAPIVersion(tc.version)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
