package fs

import (
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteFile(t *testing.T) {
	tests := []struct {
		name    string
		setupFS func(fs afero.Fs)
		path    string
		data    string
		wantErr bool
	}{
		{
			name: "Overwrite existing file",
			setupFS: func(fs afero.Fs) {
				_ = afero.WriteFile(fs, "/run/stat.json", []byte(`{"a":"much longer old content"}`), 0o644)
			},
			path: "/run/stat.json",
			data: `{"b":1}`,
		},
		{
			name:    "Create new file",
			setupFS: func(fs afero.Fs) { _ = fs.MkdirAll("/run", 0o755) },
			path:    "/run/new.json",
			data:    `{}`,
		},
		{
			name:    "Empty path",
			setupFS: func(fs afero.Fs) {},
			path:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			tt.setupFS(fs)

			err := RewriteFile(fs, tt.path, []byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			got, err := afero.ReadFile(fs, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.data, string(got))
		})
	}
}

func TestRewriteFile_ReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/stat.json", []byte(`{}`), 0o644))

	err := RewriteFile(afero.NewReadOnlyFs(base), "/stat.json", []byte(`{"x":1}`))
	assert.Error(t, err)
}

func TestMoveFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/capture.tiff", []byte("pixels"), 0o644))

	require.NoError(t, MoveFile(fs, "/tmp/capture.tiff", "/out/samples/case_sample_2.png"))

	got, err := afero.ReadFile(fs, "/out/samples/case_sample_2.png")
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(got))

	exists, err := afero.Exists(fs, "/tmp/capture.tiff")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMoveFile_MissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.Error(t, MoveFile(fs, "/tmp/missing.png", "/out/a.png"))
	assert.Error(t, MoveFile(fs, "", "/out/a.png"))
	assert.Error(t, MoveFile(fs, "/tmp/a.png", ""))
}

func TestUpdateJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ts.json", []byte(`{"keep":"me","t1":1}`), 0o644))

	require.NoError(t, UpdateJSON(fs, "/ts.json", map[string]any{"t1": 2.5, "t2": 3.0}))

	data, err := afero.ReadFile(fs, "/ts.json")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{"keep": "me", "t1": 2.5, "t2": 3.0}, got)
}

func TestUpdateJSON_MissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, UpdateJSON(fs, "/out/ts.json", map[string]any{"t1": 1.0}))

	data, err := afero.ReadFile(fs, "/out/ts.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"t1":1}`, string(data))
}

func TestUpdateJSON_InvalidExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ts.json", []byte(`{not json`), 0o644))

	assert.Error(t, UpdateJSON(fs, "/ts.json", map[string]any{"t1": 1.0}))
}
