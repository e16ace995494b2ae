package hexview

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"

	"github.com/joshuapare/hexkit/hexview/materialize"
	"github.com/joshuapare/hexkit/hexview/overlay"
	"github.com/joshuapare/hexkit/hexview/source"
	"github.com/joshuapare/hexkit/internal/rangeserver"
)

const testRef source.Ref = "/storage/case1/disk.img"

// gatedSource counts fetches and, while block is set, parks each fetch
// until release is signalled.
type gatedSource struct {
	inner   source.Source
	block   atomic.Bool
	calls   atomic.Int32
	started chan source.Request
	release chan struct{}
}

func newGatedSource(inner source.Source) *gatedSource {
	return &gatedSource{
		inner:   inner,
		started: make(chan source.Request, 4),
		release: make(chan struct{}),
	}
}

func (g *gatedSource) Fetch(ctx context.Context, req source.Request) (source.Response, error) {
	g.calls.Add(1)
	if g.block.Load() {
		g.started <- req
		<-g.release
	}
	return g.inner.Fetch(ctx, req)
}

func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func memorySource(data []byte) *source.Memory {
	mem := source.NewMemory()
	mem.Put(testRef, data)
	return mem
}

func openController(t *testing.T, src source.Source) *Controller {
	t.Helper()
	ctl, err := New(src, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, ctl.Open(context.Background(), testRef))
	return ctl
}

type loadResult struct {
	ok  bool
	err error
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(source.NewMemory(), Config{BytesPerRow: 0, RowsPerPage: 32})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(nil, DefaultConfig())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestController_StartsIdle(t *testing.T) {
	ctl, err := New(source.NewMemory(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, ctl.State())
	assert.NotEmpty(t, ctl.ID())

	_, err = ctl.LoadMore(context.Background())
	require.ErrorIs(t, err, ErrNotOpen)
	require.ErrorIs(t, ctl.Goto(context.Background(), 0), ErrNotOpen)
}

func TestOpen_LoadsFirstPage(t *testing.T) {
	ctl := openController(t, memorySource(pattern(2000)))

	assert.Equal(t, StateReady, ctl.State())
	assert.Equal(t, int64(2000), ctl.TotalSize())
	assert.Equal(t, int64(0), ctl.Base())
	assert.Equal(t, 512, ctl.Len())
	assert.True(t, ctl.NeedsMore())
	assert.Equal(t, testRef, ctl.Ref())
	assert.NoError(t, ctl.Err())
}

func TestOpen_SourceFailure(t *testing.T) {
	boom := errors.New("backend down")
	src := source.Func(func(context.Context, source.Request) (source.Response, error) {
		return source.Response{}, boom
	})
	ctl, err := New(src, DefaultConfig())
	require.NoError(t, err)

	err = ctl.Open(context.Background(), testRef)
	require.ErrorIs(t, err, ErrSourceUnavailable)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateError, ctl.State())
	assert.ErrorIs(t, ctl.Err(), boom)
}

func TestOpen_MissingFile(t *testing.T) {
	ctl, err := New(source.NewMemory(), DefaultConfig())
	require.NoError(t, err)

	err = ctl.Open(context.Background(), "nope.bin")
	require.ErrorIs(t, err, source.ErrNotFound)
	assert.Equal(t, StateError, ctl.State())
}

func TestOpen_DiscardsPreviousSession(t *testing.T) {
	mem := memorySource(pattern(600))
	mem.Put("other.bin", []byte{1, 2, 3})
	ctl := openController(t, mem)
	_, err := ctl.EditByte(3, "AA")
	require.NoError(t, err)

	require.NoError(t, ctl.Open(context.Background(), "other.bin"))
	assert.Equal(t, 0, ctl.Modified())
	assert.Equal(t, int64(3), ctl.TotalSize())
}

func TestLoadMore_AppendsUntilEnd(t *testing.T) {
	data := pattern(1200)
	ctl := openController(t, memorySource(data))
	ctx := context.Background()

	ok, err := ctl.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1024, ctl.Len())

	ok, err = ctl.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1200, ctl.Len())
	assert.False(t, ctl.NeedsMore())

	ok, err = ctl.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "window already reaches the end")

	for _, addr := range []int64{0, 511, 512, 1199} {
		b, err := ctl.ReadByte(addr)
		require.NoError(t, err)
		assert.Equal(t, data[addr], b)
	}
}

func TestLoadMore_SingleFlight(t *testing.T) {
	src := newGatedSource(memorySource(pattern(4096)))
	ctl := openController(t, src)
	require.Equal(t, int32(1), src.calls.Load())

	src.block.Store(true)
	done := make(chan loadResult, 1)
	go func() {
		ok, err := ctl.LoadMore(context.Background())
		done <- loadResult{ok, err}
	}()
	<-src.started
	assert.Equal(t, StateLoading, ctl.State())

	ok, err := ctl.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "second trigger is dropped while the first is in flight")

	src.release <- struct{}{}
	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.ok)

	assert.Equal(t, int32(2), src.calls.Load(), "exactly one page fetch")
	assert.Equal(t, 1024, ctl.Len())
	assert.Equal(t, StateReady, ctl.State())
}

func TestLoadMore_StaleResponseDroppedAfterGoto(t *testing.T) {
	src := newGatedSource(memorySource(pattern(8192)))
	ctl := openController(t, src)

	src.block.Store(true)
	done := make(chan loadResult, 1)
	go func() {
		ok, err := ctl.LoadMore(context.Background())
		done <- loadResult{ok, err}
	}()
	<-src.started
	src.block.Store(false)

	require.NoError(t, ctl.Goto(context.Background(), 4100))
	src.release <- struct{}{}
	res := <-done
	require.NoError(t, res.err)
	assert.False(t, res.ok)

	assert.Equal(t, int64(4096), ctl.Base())
	assert.Equal(t, 512, ctl.Len())
	assert.Equal(t, StateReady, ctl.State())
}

func TestLoadMore_FailureMovesToError(t *testing.T) {
	mem := memorySource(pattern(2048))
	var calls atomic.Int32
	src := source.Func(func(ctx context.Context, req source.Request) (source.Response, error) {
		if calls.Add(1) == 2 {
			return source.Response{}, errors.New("timeout")
		}
		return mem.Fetch(ctx, req)
	})
	ctl := openController(t, src)

	_, err := ctl.LoadMore(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, StateError, ctl.State())
	assert.Equal(t, 512, ctl.Len(), "window kept on failure")

	// The user may re-trigger from the error state.
	ok, err := ctl.LoadMore(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateReady, ctl.State())
	assert.NoError(t, ctl.Err())
}

func TestGoto_Bounds(t *testing.T) {
	const total = 1000
	ctl := openController(t, memorySource(pattern(total)))
	ctx := context.Background()

	err := ctl.Goto(ctx, total)
	require.ErrorIs(t, err, ErrInvalidAddress)
	assert.Equal(t, int64(0), ctl.Base(), "window untouched")
	assert.Equal(t, 512, ctl.Len())

	require.ErrorIs(t, ctl.Goto(ctx, -1), ErrInvalidAddress)

	require.NoError(t, ctl.Goto(ctx, total-1))
	assert.Equal(t, int64(992), ctl.Base())
	assert.Equal(t, 8, ctl.Len())
}

func TestGoto_DiscardsWindow(t *testing.T) {
	data := pattern(4096)
	ctl := openController(t, memorySource(data))
	ctx := context.Background()
	_, err := ctl.LoadMore(ctx)
	require.NoError(t, err)

	require.NoError(t, ctl.Goto(ctx, 0x805))
	assert.Equal(t, int64(0x800), ctl.Base())
	assert.Equal(t, 512, ctl.Len())

	_, err = ctl.ReadByte(0)
	require.ErrorIs(t, err, ErrNotLoaded)
	b, err := ctl.ReadByte(0x805)
	require.NoError(t, err)
	assert.Equal(t, data[0x805], b)
}

func TestGoto_FailureKeepsWindow(t *testing.T) {
	mem := memorySource(pattern(4096))
	var fail atomic.Bool
	src := source.Func(func(ctx context.Context, req source.Request) (source.Response, error) {
		if fail.Load() {
			return source.Response{}, errors.New("unreachable")
		}
		return mem.Fetch(ctx, req)
	})
	ctl := openController(t, src)

	fail.Store(true)
	err := ctl.Goto(context.Background(), 2048)
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, StateError, ctl.State())
	assert.Equal(t, int64(0), ctl.Base())
	assert.Equal(t, 512, ctl.Len())
}

func TestEdits_SurviveGoto(t *testing.T) {
	ctl := openController(t, memorySource(make([]byte, 4096)))
	ctx := context.Background()

	_, err := ctl.EditByte(10, "7F")
	require.NoError(t, err)

	require.NoError(t, ctl.Goto(ctx, 3000))
	assert.Equal(t, 1, ctl.Modified())
	b, err := ctl.ReadByte(10)
	require.NoError(t, err, "overlay answers reads outside the window")
	assert.Equal(t, byte(0x7F), b)

	require.NoError(t, ctl.Goto(ctx, 0))
	assert.True(t, ctl.IsModified(10))
	b, err = ctl.ReadByte(10)
	require.NoError(t, err)
	assert.Equal(t, byte(0x7F), b)
}

func TestEditByte(t *testing.T) {
	ctl := openController(t, memorySource(pattern(600)))

	res, err := ctl.EditByte(5, "aa")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, byte(0xAA), res.Value)
	assert.Equal(t, byte(5), res.Previous)
	assert.Equal(t, 1, ctl.Modified())

	res, err = ctl.EditByte(6, " f ")
	require.NoError(t, err)
	assert.Equal(t, byte(0x0F), res.Value)

	b, err := ctl.ReadByte(5)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), b)
}

func TestEditByte_InvalidInputReverts(t *testing.T) {
	ctl := openController(t, memorySource(pattern(600)))
	_, err := ctl.EditByte(3, "10")
	require.NoError(t, err)

	for _, raw := range []string{"zz", "", "123", "0x1", "G"} {
		res, err := ctl.EditByte(3, raw)
		require.ErrorIs(t, err, ErrInvalidEditInput, raw)
		assert.False(t, res.Changed)
		assert.Equal(t, byte(0x10), res.Value, "display reverts to the pre-edit value")
		assert.Equal(t, 1, ctl.Modified())
	}
}

func TestEditByte_SameValueIsNoop(t *testing.T) {
	ctl := openController(t, memorySource(pattern(600)))

	res, err := ctl.EditByte(7, "07")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, 0, ctl.Modified())
}

func TestEditByte_BackToBaseValueKeepsEntry(t *testing.T) {
	ctl := openController(t, memorySource(pattern(600)))
	_, err := ctl.EditByte(7, "FF")
	require.NoError(t, err)

	res, err := ctl.EditByte(7, "07")
	require.NoError(t, err)
	assert.True(t, res.Changed, "differs from the effective byte")
	assert.Equal(t, 1, ctl.Modified())

	assert.True(t, ctl.RevertByte(7))
	assert.False(t, ctl.RevertByte(7))
	assert.Equal(t, 0, ctl.Modified())
}

func TestEditByte_AddressChecks(t *testing.T) {
	ctl := openController(t, memorySource(pattern(2000)))

	_, err := ctl.EditByte(2000, "00")
	require.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ctl.EditByte(1500, "00")
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestEditByte_OverlayLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OverlayLimit = 1
	ctl, err := New(memorySource(pattern(600)), cfg)
	require.NoError(t, err)
	require.NoError(t, ctl.Open(context.Background(), testRef))

	_, err = ctl.EditByte(1, "AA")
	require.NoError(t, err)
	_, err = ctl.EditByte(2, "AA")
	require.Error(t, err)
	assert.Equal(t, 1, ctl.Modified())
}

func TestResetEdits(t *testing.T) {
	data := pattern(2048)
	src := newGatedSource(memorySource(data))
	ctl := openController(t, src)
	ctx := context.Background()

	require.ErrorIs(t, ctl.ResetEdits(ctx), ErrNothingToReset)
	assert.True(t, IsNoop(ErrNothingToReset))

	_, err := ctl.LoadMore(ctx)
	require.NoError(t, err)
	_, err = ctl.EditByte(100, "00")
	require.NoError(t, err)
	_, err = ctl.EditByte(900, "00")
	require.NoError(t, err)
	assert.True(t, ctl.CanReset())

	before := src.calls.Load()
	require.NoError(t, ctl.ResetEdits(ctx))
	assert.Equal(t, before+1, src.calls.Load(), "window reloaded")
	assert.Equal(t, 0, ctl.Modified())
	assert.Equal(t, 1024, ctl.Len(), "same length reloaded")
	assert.Equal(t, StateReady, ctl.State())

	b, err := ctl.ReadByte(900)
	require.NoError(t, err)
	assert.Equal(t, data[900], b)
}

func TestSearch(t *testing.T) {
	ctl := openController(t, memorySource([]byte{0xFF, 0xD8, 0xFF, 0xD8, 0x00}))

	res, err := ctl.Search("FF D8")
	require.NoError(t, err)
	require.Equal(t, 2, res.Count())
	assert.Equal(t, 0, res.Matches[0].Start)
	assert.Equal(t, 2, res.Matches[1].Start)

	hit, ok := ctl.CurrentMatch()
	require.True(t, ok)
	assert.Equal(t, int64(0), hit.Address)

	hit, ok = ctl.NextMatch()
	require.True(t, ok)
	assert.Equal(t, int64(2), hit.Address)
	assert.Equal(t, 1, hit.Index)
	assert.Equal(t, 2, hit.Count)

	hit, ok = ctl.NextMatch()
	require.True(t, ok)
	assert.Equal(t, int64(0), hit.Address, "wraps to first")

	hit, ok = ctl.PrevMatch()
	require.True(t, ok)
	assert.Equal(t, int64(2), hit.Address, "wraps to last")
}

func TestSearch_NoMatchesIsNotAnError(t *testing.T) {
	ctl := openController(t, memorySource([]byte{1, 2, 3}))

	res, err := ctl.Search("0000")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	_, ok := ctl.NextMatch()
	assert.False(t, ok)
}

func TestSearch_RejectsBadPatterns(t *testing.T) {
	ctl := openController(t, memorySource([]byte{1, 2, 3}))

	for _, p := range []string{"", "  ", "XYZ", "ABC"} {
		_, err := ctl.Search(p)
		require.Error(t, err, p)
	}
}

func TestSearch_SeesPendingEdits(t *testing.T) {
	ctl := openController(t, memorySource([]byte{0x00, 0x00, 0x00, 0x00}))
	_, err := ctl.EditByte(2, "4D")
	require.NoError(t, err)
	_, err = ctl.EditByte(3, "5A")
	require.NoError(t, err)

	res, err := ctl.Search("4D5A")
	require.NoError(t, err)
	require.Equal(t, 1, res.Count())
	assert.Equal(t, 2, res.Matches[0].Start)
}

func TestSearch_OnlyLoadedWindow(t *testing.T) {
	data := make([]byte, 2048)
	data[1500] = 0xCA
	data[1501] = 0xFE
	ctl := openController(t, memorySource(data))

	res, err := ctl.Search("CAFE")
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestSearch_InvalidatedByWindowChange(t *testing.T) {
	ctl := openController(t, memorySource(make([]byte, 2048)))

	res, err := ctl.Search("00")
	require.NoError(t, err)
	require.False(t, res.Empty())

	_, err = ctl.LoadMore(context.Background())
	require.NoError(t, err)
	_, ok := ctl.NextMatch()
	assert.False(t, ok)
}

func TestSave(t *testing.T) {
	const n = 64
	src := newGatedSource(memorySource(make([]byte, n)))
	ctl := openController(t, src)
	ctx := context.Background()

	_, err := ctl.Save(ctx)
	require.ErrorIs(t, err, ErrNothingToSave)
	assert.True(t, IsNoop(err))
	assert.False(t, ctl.CanSave())

	_, err = ctl.EditByte(5, "AA")
	require.NoError(t, err)
	_, err = ctl.EditByte(9, "01")
	require.NoError(t, err)

	exp, err := ctl.Save(ctx)
	require.NoError(t, err)
	want := make([]byte, n)
	want[5] = 0xAA
	want[9] = 0x01
	assert.Equal(t, want, exp.Data)
	assert.Equal(t, "modified_disk.img", exp.Name)
	assert.Equal(t, 2, exp.Applied)
	assert.Equal(t, 2, ctl.Modified(), "save keeps the overlay")

	var out bytes.Buffer
	res, err := ctl.ExportTo(ctx, &out, 10)
	require.NoError(t, err)
	assert.Equal(t, want, out.Bytes())
	assert.Equal(t, exp.Checksum, res.Checksum)
}

func TestSave_SourceFailureKeepsState(t *testing.T) {
	mem := memorySource(make([]byte, 600))
	var fail atomic.Bool
	src := source.Func(func(ctx context.Context, req source.Request) (source.Response, error) {
		if fail.Load() {
			return source.Response{}, errors.New("gone")
		}
		return mem.Fetch(ctx, req)
	})
	ctl := openController(t, src)
	_, err := ctl.EditByte(1, "01")
	require.NoError(t, err)

	fail.Store(true)
	_, err = ctl.Save(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, StateReady, ctl.State())
	assert.Equal(t, 1, ctl.Modified())
}

func TestSaveTo(t *testing.T) {
	ctl := openController(t, memorySource(make([]byte, 16)))
	_, err := ctl.EditByte(0, "FF")
	require.NoError(t, err)

	sink := materialize.DirSink{Dir: t.TempDir()}
	loc, exp, err := ctl.SaveTo(context.Background(), sink)
	require.NoError(t, err)
	assert.Contains(t, loc, "modified_disk.img")
	assert.Equal(t, byte(0xFF), exp.Data[0])
}

func TestSaveTo_StreamsPastServerLimit(t *testing.T) {
	data := pattern(4096)
	srv := httptest.NewServer(rangeserver.New(memorySource(data), rangeserver.Options{MaxLength: 1024}))
	defer srv.Close()

	ctl := openController(t, source.NewHTTP(srv.URL, source.WithHTTPClient(srv.Client())))
	_, err := ctl.EditByte(3, "AA")
	require.NoError(t, err)

	_, err = ctl.Save(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable, "one full-file request exceeds the server limit")

	dir := t.TempDir()
	loc, exp, err := ctl.SaveTo(context.Background(), materialize.DirSink{Dir: dir})
	require.NoError(t, err)
	assert.Nil(t, exp.Data)
	assert.Equal(t, int64(4096), exp.Size)
	assert.Equal(t, 1, exp.Applied)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	want := bytes.Clone(data)
	want[3] = 0xAA
	assert.Equal(t, want, got)
	assert.Equal(t, xxh3.Hash(want), exp.Checksum)
	assert.Equal(t, 1, ctl.Modified())
}

func TestRows(t *testing.T) {
	ctl := openController(t, memorySource(pattern(40)))
	_, err := ctl.EditByte(17, "EE")
	require.NoError(t, err)
	_, err = ctl.Search("1213")
	require.NoError(t, err)

	assert.Equal(t, 3, ctl.RowCount())
	rows := ctl.Rows(0, 10)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(16), rows[1].Address)
	assert.Len(t, rows[2].Cells, 8, "short last row")

	edited := rows[1].Cells[1]
	assert.Equal(t, int64(17), edited.Address)
	assert.Equal(t, byte(0xEE), edited.Value)
	assert.True(t, edited.Modified)

	hit := rows[1].Cells[2]
	assert.True(t, hit.Match)
	assert.True(t, hit.Current)
	assert.False(t, rows[1].Cells[4].Match)

	assert.Nil(t, ctl.Rows(3, 1))
	assert.Len(t, ctl.Rows(2, 5), 1)
}

func TestStatus(t *testing.T) {
	ctl := openController(t, memorySource(pattern(32)))
	assert.Equal(t, "No modifications", ctl.Status())

	_, err := ctl.EditByte(0, "AB")
	require.NoError(t, err)
	_, err = ctl.EditByte(1, "AB")
	require.NoError(t, err)
	assert.Equal(t, "2 byte(s) modified", ctl.Status())

	_, err = ctl.EditByte(5, "01")
	require.NoError(t, err)
	assert.Equal(t, []overlay.Range{{Off: 0, Len: 2}, {Off: 5, Len: 1}}, ctl.ModifiedRanges())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "state(9)", State(9).String())
}
