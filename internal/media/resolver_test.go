package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b.mp4", "a.mp4", "notes.txt", "c.webm")

	names, err := NewResolver(root, nil).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.mp4", "b.mp4", "c.webm"}, names)
}

func TestListCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not", "yet")

	names, err := NewResolver(root, nil).List(context.Background())
	require.NoError(t, err)
	require.Empty(t, names)

	info, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestListMatchesExtensionsCaseInsensitively(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "LOUD.MP4", "quiet.Ogg", "clip.mkv")
	require.NoError(t, os.Mkdir(filepath.Join(root, "folder.mp4"), 0o755))

	names, err := NewResolver(root, nil).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"LOUD.MP4", "quiet.Ogg"}, names)

	names, err = NewResolver(root, []string{"MKV", " .mp4 "}).List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"LOUD.MP4", "clip.mkv"}, names)
}

func TestListSeesDirectoryChanges(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root, nil)

	names, err := r.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, names)

	touch(t, root, "late.webm")
	names, err = r.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"late.webm"}, names)
}

func TestListHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewResolver(t.TempDir(), nil).List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveForPlayback(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "../../etc/passwd", want: "passwd"},
		{in: "a/b/c.mp4", want: "c.mp4"},
		{in: "movie.mp4", want: "movie.mp4"},
		{in: `..\..\windows\win.ini`, want: "win.ini"},
		{in: "", want: ""},
		{in: "..", want: ""},
		{in: ".", want: ""},
		{in: "dir/..", want: ""},
		{in: "trailing/", want: ""},
		{in: "/abs/path.webm", want: "path.webm"},
		{in: "..movie.mp4", want: "..movie.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, ResolveForPlayback(tt.in))
		})
	}
}

func FuzzResolveForPlayback(f *testing.F) {
	seeds := []string{"../../etc/passwd", "a/b/c.mp4", `a\b`, "..", "", "movie.mp4"}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, in string) {
		out := ResolveForPlayback(in)
		if strings.ContainsAny(out, `/\`) {
			t.Fatalf("ResolveForPlayback(%q) = %q contains a separator", in, out)
		}
		if out == ".." || out == "." {
			t.Fatalf("ResolveForPlayback(%q) = %q is a directory reference", in, out)
		}
		if !strings.HasSuffix(strings.ReplaceAll(in, `\`, "/"), out) {
			t.Fatalf("ResolveForPlayback(%q) = %q is not a suffix of the input", in, out)
		}
	})
}

func TestOpenRestrictsToPlayableFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "clip.mp4", "secret-notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(root, "nested.mp4"), 0o755))
	r := NewResolver(root, nil)

	f, info, err := r.Open("clip.mp4")
	require.NoError(t, err)
	require.Equal(t, int64(1), info.Size())
	require.NoError(t, f.Close())

	for _, name := range []string{"", "secret-notes.txt", "missing.mp4", "nested.mp4", "../clip.mp4", "sub/clip.mp4", ".."} {
		_, _, err := r.Open(name)
		require.ErrorIs(t, err, ErrNotPlayable, name)
	}
}
