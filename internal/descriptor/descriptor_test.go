package descriptor_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/vrsandeep/plugin-host/internal/descriptor"
)

const testDescriptor = `
sdkVersion: 5.0
sdkMinimumVersion: 5.0
toolkitIdentifier: com.example.export.test
pluginName: "$$$/Test/PluginName=Test Export"
exportServiceProvider: { title: "Test", file: "Test.export" }
metadataProvider: Metadata.module
version: { major: 1, minor: 0, revision: 0, build: "x" }
`

func TestParse_RoundTrip(t *testing.T) {
	d, err := descriptor.Parse([]byte(testDescriptor))
	require.NoError(t, err)

	assert.Equal(t, "5.0", d.SDKVersion.String())
	assert.Equal(t, "5.0", d.SDKMinimumVersion.String())
	assert.Equal(t, "com.example.export.test", d.ToolkitIdentifier)
	assert.Equal(t, descriptor.LocString("$$$/Test/PluginName=Test Export"), d.PluginName)
	require.Len(t, d.ExportServiceProviders, 1)
	assert.Equal(t, descriptor.LocString("Test"), d.ExportServiceProviders[0].Title)
	assert.Equal(t, "Test.export", d.ExportServiceProviders[0].File)
	assert.Equal(t, "Metadata.module", d.MetadataProvider)
	require.NotNil(t, d.Version)
	assert.Equal(t, descriptor.BuildVersion{Major: 1, Minor: 0, Revision: 0, Build: "x"}, *d.Version)
	assert.Equal(t, "Test Export", d.DisplayName())
}

func TestParse_ProviderList(t *testing.T) {
	src := `
sdkVersion: 6
toolkitIdentifier: com.example.multi
exportServiceProvider:
  - { title: "One", file: "One.export" }
  - { title: "Two", file: "Two.export" }
`
	d, err := descriptor.Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, d.ExportServiceProviders, 2)
	assert.Equal(t, "Two.export", d.ExportServiceProviders[1].File)
	// Minimum defaults to the target SDK.
	assert.Equal(t, 0, d.SDKMinimumVersion.Compare(d.SDKVersion))
	assert.Nil(t, d.Version)
	assert.Equal(t, "com.example.multi", d.DisplayName())
}

func TestParse_JSONDescriptor(t *testing.T) {
	src := `{"sdkVersion": 5.0, "sdkMinimumVersion": 4.1, "toolkitIdentifier": "com.example.json",
  "exportServiceProvider": {"title": "Json", "file": "Json.export"}}`
	d, err := descriptor.Parse([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "4.1", d.SDKMinimumVersion.String())
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing toolkitIdentifier",
			src:   "sdkVersion: 5.0\nexportServiceProvider: { title: T, file: T.export }\n",
			field: "toolkitIdentifier",
		},
		{
			name:  "missing sdkVersion",
			src:   "toolkitIdentifier: com.example.a\nexportServiceProvider: { title: T, file: T.export }\n",
			field: "sdkVersion",
		},
		{
			name:  "missing service provider",
			src:   "sdkVersion: 5.0\ntoolkitIdentifier: com.example.a\n",
			field: "exportServiceProvider",
		},
		{
			name:  "empty service provider list",
			src:   "sdkVersion: 5.0\ntoolkitIdentifier: com.example.a\nexportServiceProvider: []\n",
			field: "exportServiceProvider",
		},
		{
			name:  "provider without file",
			src:   "sdkVersion: 5.0\ntoolkitIdentifier: com.example.a\nexportServiceProvider: { title: T }\n",
			field: "exportServiceProvider[0].file",
		},
		{
			name:  "identifier not reverse-domain",
			src:   "sdkVersion: 5.0\ntoolkitIdentifier: myplugin\nexportServiceProvider: { title: T, file: T.export }\n",
			field: "toolkitIdentifier",
		},
		{
			name:  "negative version",
			src:   "sdkVersion: 5.0\ntoolkitIdentifier: com.example.a\nexportServiceProvider: { title: T, file: T.export }\nversion: { major: -1, minor: 0, revision: 0 }\n",
			field: "version.major",
		},
		{
			name:  "minimum newer than target",
			src:   "sdkVersion: 4.0\nsdkMinimumVersion: 5.0\ntoolkitIdentifier: com.example.a\nexportServiceProvider: { title: T, file: T.export }\n",
			field: "sdkMinimumVersion",
		},
		{
			name:  "bad info url",
			src:   "sdkVersion: 5.0\ntoolkitIdentifier: com.example.a\npluginInfoUrl: not a url\nexportServiceProvider: { title: T, file: T.export }\n",
			field: "pluginInfoUrl",
		},
		{
			name: "sdk version not a decimal",
			src:  "sdkVersion: five\ntoolkitIdentifier: com.example.a\nexportServiceProvider: { title: T, file: T.export }\n",
		},
		{
			name: "provider is a scalar",
			src:  "sdkVersion: 5.0\ntoolkitIdentifier: com.example.a\nexportServiceProvider: Test.export\n",
		},
		{
			name: "not yaml",
			src:  "sdkVersion: [5.0\n",
		},
		{
			name: "empty",
			src:  "  \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := descriptor.Parse([]byte(tt.src))
			require.Error(t, err)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, descriptor.ErrMalformedDescriptor)

			kind, ok := descriptor.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, descriptor.KindMalformedDescriptor, kind)

			if tt.field != "" {
				var de *descriptor.Error
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tt.field, de.Field)
			}
		})
	}
}

func TestParse_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		segments := rapid.SliceOfN(rapid.StringMatching(`[a-z][a-z0-9]{0,7}`), 2, 5).Draw(t, "segments")
		id := segments[0]
		for _, s := range segments[1:] {
			id += "." + s
		}
		minMajor := rapid.IntRange(0, 20).Draw(t, "minMajor")
		minMinor := rapid.IntRange(0, 9).Draw(t, "minMinor")
		major := rapid.IntRange(minMajor, 25).Draw(t, "major")
		minor := rapid.IntRange(0, 9).Draw(t, "minor")
		if major == minMajor && minor < minMinor {
			minor = minMinor
		}
		title := rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,15}`).Draw(t, "title")
		file := rapid.StringMatching(`[A-Za-z][A-Za-z0-9_]{0,10}\.export`).Draw(t, "file")
		v := descriptor.BuildVersion{
			Major:    rapid.IntRange(0, 100).Draw(t, "vmajor"),
			Minor:    rapid.IntRange(0, 100).Draw(t, "vminor"),
			Revision: rapid.IntRange(0, 100).Draw(t, "vrevision"),
			Build:    rapid.StringMatching(`[a-z0-9]{1,8}`).Draw(t, "build"),
		}

		src := fmt.Sprintf(`sdkVersion: %d.%d
sdkMinimumVersion: %d.%d
toolkitIdentifier: %s
exportServiceProvider: { title: %q, file: %q }
version: { major: %d, minor: %d, revision: %d, build: %q }
`, major, minor, minMajor, minMinor, id, title, file, v.Major, v.Minor, v.Revision, v.Build)

		d, err := descriptor.Parse([]byte(src))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", src, err)
		}
		if got, want := d.SDKVersion.String(), fmt.Sprintf("%d.%d", major, minor); got != want {
			t.Fatalf("sdkVersion = %s, want %s", got, want)
		}
		if got, want := d.SDKMinimumVersion.String(), fmt.Sprintf("%d.%d", minMajor, minMinor); got != want {
			t.Fatalf("sdkMinimumVersion = %s, want %s", got, want)
		}
		if d.ToolkitIdentifier != id {
			t.Fatalf("toolkitIdentifier = %s, want %s", d.ToolkitIdentifier, id)
		}
		if string(d.ExportServiceProviders[0].Title) != title || d.ExportServiceProviders[0].File != file {
			t.Fatalf("provider = %+v, want {%s %s}", d.ExportServiceProviders[0], title, file)
		}
		if *d.Version != v {
			t.Fatalf("version = %+v, want %+v", *d.Version, v)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("reads plugin.yml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "plugin.yml"), []byte(testDescriptor), 0644))

		d, err := descriptor.Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "com.example.export.test", d.ToolkitIdentifier)
	})

	t.Run("no descriptor file", func(t *testing.T) {
		_, err := descriptor.Load(t.TempDir())
		require.Error(t, err)
		assert.ErrorIs(t, err, descriptor.ErrDescriptorNotFound)
		assert.ErrorIs(t, err, descriptor.ErrMalformedDescriptor)
	})

	t.Run("malformed file carries its path", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "plugin.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"sdkVersion": 5.0}`), 0644))

		_, err := descriptor.Load(dir)
		var de *descriptor.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, path, de.Path)
		assert.NotErrorIs(t, err, descriptor.ErrDescriptorNotFound)
	})
}
