package source

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newFileSource(t *testing.T) (*File, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "a.bin"), []byte("0123456789"), 0o644))
	f := NewFile(root)
	t.Cleanup(func() { _ = f.Close() })
	return f, root
}

func TestFile_FetchWithStoragePrefix(t *testing.T) {
	f, _ := newFileSource(t)

	for _, ref := range []Ref{"/storage/uploads/a.bin", "uploads/a.bin", "/uploads/a.bin"} {
		resp, err := f.Fetch(t.Context(), Request{Ref: ref, Offset: 4, Length: 3})
		require.NoError(t, err, ref)
		require.Equal(t, []byte("456"), resp.Data)
		require.Equal(t, int64(10), resp.TotalSize)
	}
}

func TestFile_Size(t *testing.T) {
	f, _ := newFileSource(t)
	n, err := f.Size("uploads/a.bin")
	require.NoError(t, err)
	require.Equal(t, int64(10), n)
}

func TestFile_NotFound(t *testing.T) {
	f, _ := newFileSource(t)
	_, err := f.Fetch(t.Context(), Request{Ref: "uploads/none.bin", Length: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFile_RejectsEscape(t *testing.T) {
	f, _ := newFileSource(t)
	for _, ref := range []Ref{"../etc/passwd", "/storage/../../x", "/storage"} {
		_, err := f.Fetch(t.Context(), Request{Ref: ref, Length: 1})
		require.ErrorIs(t, err, ErrNotFound, ref)
	}
}

func TestFile_NoRootUsesPlainPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.bin")
	require.NoError(t, os.WriteFile(path, []byte{9, 8, 7}, 0o644))

	f := NewFile("")
	defer f.Close()
	resp, err := f.Fetch(t.Context(), Request{Ref: Ref(path), Length: 8})
	require.NoError(t, err)
	require.Equal(t, []byte{9, 8, 7}, resp.Data)
}

func TestFile_Closed(t *testing.T) {
	f, _ := newFileSource(t)
	_, err := f.Fetch(t.Context(), Request{Ref: "uploads/a.bin", Length: 1})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err = f.Fetch(t.Context(), Request{Ref: "uploads/a.bin", Length: 1})
	require.ErrorIs(t, err, ErrClosed)
}

func TestFile_CloseDuringFetch(t *testing.T) {
	f, root := newFileSource(t)
	big := make([]byte, 256<<10)
	for i := range big {
		big[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "big.bin"), big, 0o644))
	_, err := f.Fetch(t.Context(), Request{Ref: "uploads/big.bin", Length: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				resp, err := f.Fetch(t.Context(), Request{Ref: "uploads/big.bin", Length: int64(len(big))})
				if errors.Is(err, ErrClosed) {
					return
				}
				if err != nil || len(resp.Data) != len(big) || resp.Data[len(big)-1] != big[len(big)-1] {
					t.Errorf("fetch during close: err=%v len=%d", err, len(resp.Data))
					return
				}
			}
		}()
	}
	require.NoError(t, f.Close())
	wg.Wait()
}
