package utils

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationPath(t *testing.T) {
	fm := NewFileManager(memfs.New(), "/data/Fattura_Xml/", "/data/FATTURA PER CLIENTE")

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "/data/Fattura_Xml/2024/2024-03/inv2.xml", want: "/data/FATTURA PER CLIENTE/2024/2024-03/inv2.xml"},
		{in: "/data/Fattura_Xml/x/y/2023/2023-12/a.xml", want: "/data/FATTURA PER CLIENTE/x/y/2023/2023-12/a.xml"},
		{in: "/data/Fattura_Xml", wantErr: true},
		{in: "/data/Fattura_Xml_old/2024/2024-03/inv2.xml", wantErr: true},
		{in: "/elsewhere/inv2.xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := fm.DestinationPath(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelocateCopies(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/src/2024/2024-03", 0755))
	require.NoError(t, util.WriteFile(fs, "/src/2024/2024-03/inv2.xml", []byte("<inv2/>"), 0644))

	fm := NewFileManager(fs, "/src", "/dst")
	dest, err := fm.Relocate("/src/2024/2024-03/inv2.xml")
	require.NoError(t, err)
	assert.Equal(t, "/dst/2024/2024-03/inv2.xml", dest)

	data, err := util.ReadFile(fs, dest)
	require.NoError(t, err)
	assert.Equal(t, "<inv2/>", string(data))

	assert.True(t, FileExists(fs, "/src/2024/2024-03/inv2.xml"), "source is kept")
}

func TestRelocateOverwritesStaleCopy(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/src/2024/2024-03", 0755))
	require.NoError(t, fs.MkdirAll("/dst/2024/2024-03", 0755))
	require.NoError(t, util.WriteFile(fs, "/src/2024/2024-03/a.xml", []byte("new"), 0644))
	require.NoError(t, util.WriteFile(fs, "/dst/2024/2024-03/a.xml", []byte("stale content"), 0644))

	_, err := NewFileManager(fs, "/src", "/dst").Relocate("/src/2024/2024-03/a.xml")
	require.NoError(t, err)

	data, err := util.ReadFile(fs, "/dst/2024/2024-03/a.xml")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestRelocateMissingSource(t *testing.T) {
	fm := NewFileManager(memfs.New(), "/src", "/dst")
	_, err := fm.Relocate("/src/2024/2024-03/missing.xml")
	require.Error(t, err)
}

func TestEnsureSentDir(t *testing.T) {
	fs := memfs.New()
	fm := NewFileManager(fs, "/src", "/data/sent")

	created, err := fm.EnsureSentDir()
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, FileExists(fs, "/data/sent"))

	created, err = fm.EnsureSentDir()
	require.NoError(t, err)
	assert.False(t, created, "existing tree is left alone")
}
