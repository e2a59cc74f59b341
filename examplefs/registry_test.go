package examplefs

import (
	"testing"

	"github.com/dendrascience/fusecompat/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		gen  filesystem.Generation
	}{
		{NameHello, filesystem.Gen1},
		{NameMemFS, filesystem.Gen2},
		{NamePassthrough, filesystem.Gen3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := New(tt.name, t.TempDir(), false)
			require.NoError(t, err)
			assert.Equal(t, tt.gen, filesystem.Detect(fs))
		})
	}

	_, err := New("ext4", "", false)
	assert.ErrorIs(t, err, ErrUnknownFilesystem)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"hello", "memfs", "passthrough"}, Names())
}
