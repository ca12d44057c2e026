package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neron/internal/graph"
	"neron/internal/theme"
)

const waitFor = 2 * time.Second

type harness struct {
	host     *Host
	renderer *StreamConn
	themes   *theme.Store
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	hostSide, rendSide := Pipe()
	hs := &harness{renderer: rendSide, themes: theme.NewStore(theme.Matrix)}

	if opts.Resolver == nil {
		opts.Resolver = ResolverFunc(func(context.Context) (string, error) { return "test-renderer", nil })
	}
	if opts.Launcher == nil {
		opts.Launcher = LauncherFunc(func(context.Context, string) (Conn, error) { return hostSide, nil })
	}
	if opts.Themes == nil {
		opts.Themes = hs.themes
	}
	hs.host = NewHost(opts)
	t.Cleanup(func() {
		_ = hs.host.Close()
		_ = rendSide.Close()
	})
	return hs
}

func (hs *harness) rendererSend(t *testing.T, m Message) {
	t.Helper()
	data, err := Encode(m)
	require.NoError(t, err)
	require.NoError(t, hs.renderer.Send(data))
}

func (hs *harness) rendererRecv(t *testing.T) Outbound {
	t.Helper()
	select {
	case data, ok := <-hs.renderer.Messages():
		require.True(t, ok, "renderer connection closed")
		msg, err := DecodeOutbound(data)
		require.NoError(t, err)
		return msg
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for host message")
	}
	return nil
}

func (hs *harness) rendererQuiet(t *testing.T) {
	t.Helper()
	select {
	case data := <-hs.renderer.Messages():
		t.Fatalf("unexpected host message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitState(t *testing.T, h *Host, want State) StateChanged {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case ev, ok := <-h.Events():
			require.True(t, ok, "events closed")
			if sc, ok := ev.(StateChanged); ok && sc.To == want {
				return sc
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s, host is %s", want, h.State())
		}
	}
}

func waitEvent[T Event](t *testing.T, h *Host) T {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case ev, ok := <-h.Events():
			require.True(t, ok, "events closed")
			if e, ok := ev.(T); ok {
				return e
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func (hs *harness) mountReady(t *testing.T) {
	t.Helper()
	require.NoError(t, hs.host.Mount(context.Background()))
	waitState(t, hs.host, Loading)
	hs.rendererSend(t, InitializationComplete{})
	waitState(t, hs.host, Ready)
}

func TestHostHandshakeReachesReady(t *testing.T) {
	hs := newHarness(t, Options{})
	require.Equal(t, Uninitialized, hs.host.State())

	require.NoError(t, hs.host.Mount(context.Background()))
	sc := waitState(t, hs.host, AssetResolving)
	assert.Equal(t, Uninitialized, sc.From)
	waitState(t, hs.host, Loading)

	hs.rendererSend(t, InitializationComplete{})
	sc = waitState(t, hs.host, Ready)
	assert.Equal(t, Loading, sc.From)
	assert.NoError(t, sc.Err)

	first := hs.rendererRecv(t)
	assert.Equal(t, UpdateTheme{Theme: theme.Matrix}, first)
}

func TestHostQueuesUntilReadyInOrder(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.host.Send(UpdateTheme{Theme: theme.Regular})
	hs.host.Send(UpdateTheme{Theme: theme.Matrix})

	require.NoError(t, hs.host.Mount(context.Background()))
	waitState(t, hs.host, Loading)
	hs.rendererQuiet(t)
	assert.Equal(t, 3, hs.host.QueueLen())

	hs.rendererSend(t, InitializationComplete{})
	waitState(t, hs.host, Ready)

	assert.Equal(t, UpdateTheme{Theme: theme.Matrix}, hs.rendererRecv(t))
	assert.Equal(t, UpdateTheme{Theme: theme.Regular}, hs.rendererRecv(t))
	assert.Equal(t, UpdateTheme{Theme: theme.Matrix}, hs.rendererRecv(t))
	assert.Equal(t, 0, hs.host.QueueLen())
}

func TestHostAnswersDataRequest(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.host.SetDataset(graph.DemoDataset())
	hs.mountReady(t)
	hs.rendererRecv(t) // theme

	hs.rendererSend(t, RequestGraphData{})
	msg := hs.rendererRecv(t)
	load, ok := msg.(LoadGraphData)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, theme.Matrix, load.Theme)
	assert.Len(t, load.Data.Nodes, 4)
	assert.Len(t, load.Data.Links, 3)
	assert.Equal(t, 9, load.Data.Nodes[0].Val)
}

func TestHostDataRequestBeforeDatasetIsAnsweredLater(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.mountReady(t)
	hs.rendererRecv(t)

	hs.rendererSend(t, RequestGraphData{})
	hs.rendererQuiet(t)

	hs.host.SetDataset(graph.DemoDataset())
	load, ok := hs.rendererRecv(t).(LoadGraphData)
	require.True(t, ok)
	assert.Len(t, load.Data.Nodes, 4)
}

func TestHostThemeChangeIsForwarded(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.mountReady(t)
	hs.rendererRecv(t)

	hs.themes.Set(theme.Regular)
	assert.Equal(t, UpdateTheme{Theme: theme.Regular}, hs.rendererRecv(t))
}

func TestHostNodeClickedFallsBackToHostDataset(t *testing.T) {
	hs := newHarness(t, Options{})
	ds := graph.DemoDataset()
	hs.host.SetDataset(ds)
	hs.mountReady(t)

	hs.rendererSend(t, NodeClicked{Node: graph.VisualNode{ID: "node2", Name: "node2", Type: "Bug Fix"}})
	sel := waitEvent[NodeSelected](t, hs.host)
	assert.Equal(t, "node2", sel.Node.Name)
	assert.Equal(t, 1, sel.Node.Val)
	assert.Equal(t, theme.MustGet(theme.Matrix).Colors.Primary, sel.Node.Color)
	assert.NotNil(t, sel.Node.Observations)
	assert.Equal(t, ds, sel.AllData)
}

func TestHostNodeClickedCarriesRendererData(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.host.SetDataset(graph.DemoDataset())
	hs.mountReady(t)

	other := graph.Dataset{Entities: []graph.Entity{{Name: "solo", Type: "Note"}}, Relations: []graph.Relation{}}
	hs.rendererSend(t, NodeClicked{Node: graph.VisualNode{ID: "solo", Name: "solo", Val: 5, Color: "#fff"}, AllData: &other})
	sel := waitEvent[NodeSelected](t, hs.host)
	assert.Equal(t, other, sel.AllData)
	assert.Equal(t, 5, sel.Node.Val)
}

func TestHostIgnoresUnknownAndMalformed(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.mountReady(t)

	require.NoError(t, hs.renderer.Send([]byte(`{"type":"telemetry","x":1}`)))
	require.NoError(t, hs.renderer.Send([]byte(`{not json`)))
	require.NoError(t, hs.renderer.Send([]byte(`{"level":"info"}`)))
	hs.rendererSend(t, WebGLError{Error: "no context"})

	re := waitEvent[RenderError](t, hs.host)
	assert.Equal(t, "no context", re.Message)
	assert.Equal(t, Ready, hs.host.State())
}

func TestHostHandshakeTimeout(t *testing.T) {
	hs := newHarness(t, Options{HandshakeTimeout: 30 * time.Millisecond})
	require.NoError(t, hs.host.Mount(context.Background()))

	sc := waitState(t, hs.host, Error)
	assert.Equal(t, Loading, sc.From)
	assert.ErrorIs(t, sc.Err, ErrHandshakeTimeout)
	assert.ErrorIs(t, hs.host.Err(), ErrHandshakeTimeout)
	assert.Equal(t, 0, hs.host.QueueLen())
}

func TestHostResolveFailure(t *testing.T) {
	hs := newHarness(t, Options{
		Resolver: ResolverFunc(func(context.Context) (string, error) {
			return "", ErrAssetNotFound
		}),
	})
	require.NoError(t, hs.host.Mount(context.Background()))

	sc := waitState(t, hs.host, Error)
	assert.Equal(t, AssetResolving, sc.From)
	assert.ErrorIs(t, sc.Err, ErrAssetNotFound)
}

func TestHostAssetTimeout(t *testing.T) {
	hs := newHarness(t, Options{
		AssetTimeout: 20 * time.Millisecond,
		Resolver: ResolverFunc(func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}),
	})
	require.NoError(t, hs.host.Mount(context.Background()))

	sc := waitState(t, hs.host, Error)
	assert.ErrorIs(t, sc.Err, context.DeadlineExceeded)
}

func TestHostLaunchFailure(t *testing.T) {
	boom := errors.New("boom")
	hs := newHarness(t, Options{
		Launcher: LauncherFunc(func(context.Context, string) (Conn, error) { return nil, boom }),
	})
	require.NoError(t, hs.host.Mount(context.Background()))

	sc := waitState(t, hs.host, Error)
	assert.Equal(t, Loading, sc.From)
	assert.ErrorIs(t, sc.Err, boom)
}

func TestHostInitializationFailed(t *testing.T) {
	hs := newHarness(t, Options{})
	require.NoError(t, hs.host.Mount(context.Background()))
	waitState(t, hs.host, Loading)

	hs.rendererSend(t, InitializationFailed{Error: "listen: address in use"})
	sc := waitState(t, hs.host, Error)
	assert.ErrorIs(t, sc.Err, ErrInitializationFailed)
	assert.Contains(t, sc.Err.Error(), "address in use")
}

func TestHostRendererExit(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.mountReady(t)

	require.NoError(t, hs.renderer.Close())
	sc := waitState(t, hs.host, Error)
	assert.Equal(t, Ready, sc.From)
	assert.ErrorIs(t, sc.Err, ErrRendererExited)
}

func TestHostSendInErrorIsDropped(t *testing.T) {
	hs := newHarness(t, Options{HandshakeTimeout: 10 * time.Millisecond})
	require.NoError(t, hs.host.Mount(context.Background()))
	waitState(t, hs.host, Error)

	hs.host.Send(UpdateTheme{Theme: theme.Regular})
	assert.Equal(t, 0, hs.host.QueueLen())
}

func TestHostReloadRecovers(t *testing.T) {
	launches := 0
	var rendSide *StreamConn
	hs := newHarness(t, Options{
		HandshakeTimeout: 50 * time.Millisecond,
		Launcher: LauncherFunc(func(context.Context, string) (Conn, error) {
			launches++
			var hostSide *StreamConn
			hostSide, rendSide = Pipe()
			return hostSide, nil
		}),
	})
	require.NoError(t, hs.host.Mount(context.Background()))
	waitState(t, hs.host, Error)

	require.NoError(t, hs.host.Reload(context.Background()))
	waitState(t, hs.host, Loading)
	hs.renderer = rendSide
	hs.rendererSend(t, InitializationComplete{})
	waitState(t, hs.host, Ready)

	assert.Equal(t, 2, launches)
	assert.NoError(t, hs.host.Err())
	assert.Equal(t, UpdateTheme{Theme: theme.Matrix}, hs.rendererRecv(t))
}

func TestHostMountTwice(t *testing.T) {
	hs := newHarness(t, Options{})
	require.NoError(t, hs.host.Mount(context.Background()))
	assert.Error(t, hs.host.Mount(context.Background()))
}

func TestHostClose(t *testing.T) {
	hs := newHarness(t, Options{})
	hs.mountReady(t)
	require.NoError(t, hs.host.Close())

	assert.ErrorIs(t, hs.host.Mount(context.Background()), ErrClosed)
	assert.ErrorIs(t, hs.host.Reload(context.Background()), ErrClosed)

	// events drains and closes
	deadline := time.After(waitFor)
	for {
		select {
		case _, ok := <-hs.host.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel not closed")
		}
	}
}
