package native

import (
	"context"
	"errors"
	"syscall"
	"testing"

	"github.com/dendrascience/fusecompat/compat"
	"github.com/dendrascience/fusecompat/filesystem"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptChains(t *testing.T) {
	logger, _ := test.NewNullLogger()

	tests := []struct {
		name  string
		fs    any
		gen   filesystem.Generation
		chain []string
	}{
		{"gen3", newFakeGen3(nil), filesystem.Gen3, []string{StageNative}},
		{"gen2", gen2Tree{}, filesystem.Gen2, []string{StageNative, StageGen2ToGen3}},
		{"gen1", gen1Tree{}, filesystem.Gen1, []string{StageNative, StageGen2ToGen3, StageGen1ToGen2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Adapt(tt.fs, logger)
			require.NoError(t, err)
			require.NotNil(t, a)
			assert.Equal(t, tt.gen, a.Generation())
			assert.Equal(t, tt.chain, a.Chain())
			assert.Equal(t, StateMounted, a.State())
		})
	}
}

func TestAdaptGen2HasNoGen1Stage(t *testing.T) {
	a, err := AdaptDefault(gen2Tree{})
	require.NoError(t, err)

	outer, ok := a.Unwrap().(*compat.Gen2ToGen3)
	require.True(t, ok, "gen2 must be wrapped directly by Gen2ToGen3")
	_, wrapped := outer.Unwrap().(*compat.Gen1ToGen2)
	assert.False(t, wrapped)
	assert.NotContains(t, a.Chain(), StageGen1ToGen2)
}

func TestAdaptGen3IsServedDirectly(t *testing.T) {
	fs := newFakeGen3(nil)
	a, err := AdaptDefault(fs)
	require.NoError(t, err)
	assert.Same(t, fs, a.Unwrap())
}

func TestAdaptUnrecognized(t *testing.T) {
	for _, v := range []any{nil, 42, "not a filesystem", struct{}{}} {
		a, err := Adapt(v, nil)
		assert.Nil(t, a)
		assert.True(t, errors.Is(err, ErrUnrecognizedFilesystem), "%T: %v", v, err)
	}
}

func TestAdaptGen1Scenario(t *testing.T) {
	ctx := context.Background()
	a, err := Adapt(gen1Tree{}, nil)
	require.NoError(t, err)

	h, errno := a.Open(ctx, "/a.txt", 0)
	assert.Equal(t, ENOTSUP, errno)
	assert.Zero(t, h)
	assert.Zero(t, a.OpenHandles())

	st, errno := a.Getattr(ctx, "/")
	require.Zero(t, errno)
	assert.True(t, st.IsDir())

	entries, errno := a.Readdir(ctx, "/")
	require.Zero(t, errno)
	assert.Equal(t, []filesystem.DirEntry{{Name: "a.txt"}}, entries)

	_, errno = a.Getattr(ctx, "/nope")
	assert.Equal(t, syscall.ENOENT, errno)
}

func TestAdaptGen1CapabilityGaps(t *testing.T) {
	ctx := context.Background()
	a, err := Adapt(gen1Tree{}, nil)
	require.NoError(t, err)

	_, errno := a.Create(ctx, "/b", 0o644, 0)
	assert.Equal(t, ENOTSUP, errno)
	_, errno = a.Getxattr(ctx, "/", "user.x")
	assert.Equal(t, ENOTSUP, errno)
	assert.Equal(t, ENOTSUP, a.Removexattr(ctx, "/", "user.x"))
	assert.Equal(t, ENOTSUP, a.Unlink(ctx, "/a.txt"))
}

func TestLoggerFields(t *testing.T) {
	fields := LoggerFields(gen1Tree{})
	assert.Equal(t, "native.gen1Tree", fields["fs"])
	assert.Len(t, fields["fs_tag"], 3)
	assert.Equal(t, fields, LoggerFields(gen1Tree{}), "tag must be stable")

	entry, ok := DefaultLogger(gen1Tree{}).(*logrus.Entry)
	require.True(t, ok)
	assert.Equal(t, "native.gen1Tree", entry.Data["fs"])
}
