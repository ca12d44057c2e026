package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"neron/internal/graph"
	"neron/internal/logger"
	"neron/internal/theme"
)

var (
	ErrClosed               = errors.New("bridge: host closed")
	ErrHandshakeTimeout     = errors.New("bridge: renderer did not finish initializing in time")
	ErrRendererExited       = errors.New("bridge: renderer exited")
	ErrInitializationFailed = errors.New("bridge: renderer initialization failed")
)

const (
	DefaultAssetTimeout     = 10 * time.Second
	DefaultHandshakeTimeout = 20 * time.Second
)

// Event is something the host reports to the UI.
type Event interface {
	event()
}

// StateChanged reports a lifecycle transition. Err is set when To is Error.
type StateChanged struct {
	From, To State
	Err      error
}

// NodeSelected asks the UI to open the detail view for Node.
type NodeSelected struct {
	Node    graph.VisualNode
	AllData graph.Dataset
}

// RenderError is a recoverable drawing failure reported by the renderer.
// The surface stays up; the UI offers a retry, which reloads the host.
type RenderError struct {
	Message string
}

func (StateChanged) event() {}
func (NodeSelected) event() {}
func (RenderError) event()  {}

// Options configures a Host.
type Options struct {
	Resolver Resolver
	Launcher Launcher
	// Themes is read when graph data is sent and watched for changes.
	Themes *theme.Store
	Logger *logger.Logger

	AssetTimeout     time.Duration
	HandshakeTimeout time.Duration
}

// Host drives the render surface from the application side: it brings the
// renderer up, holds outbound messages until the renderer has completed its
// handshake, answers data requests and turns renderer events into UI events.
type Host struct {
	opts Options
	log  *logger.Logger
	// rlog receives the renderer's own log lines.
	rlog *logger.Logger

	mu             sync.Mutex
	state          State
	err            error
	gen            int
	conn           Conn
	cancel         context.CancelFunc
	timer          *time.Timer
	queue          []Outbound
	dataset        graph.Dataset
	hasData        bool
	pendingRequest bool
	closed         bool
	unsubscribe    func()

	pending []Event
	notify  chan struct{}
	done    chan struct{}
	events  chan Event
}

// NewHost returns an unmounted host.
func NewHost(opts Options) *Host {
	if opts.AssetTimeout <= 0 {
		opts.AssetTimeout = DefaultAssetTimeout
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}

	h := &Host{
		opts:   opts,
		log:    opts.Logger.With("component", "bridge"),
		rlog:   opts.Logger.With("component", "renderer"),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		events: make(chan Event, 16),
	}
	if opts.Themes != nil {
		h.unsubscribe = opts.Themes.Subscribe(func(t theme.Theme) {
			h.Send(UpdateTheme{Theme: t.Name})
		})
	}
	go h.pump()
	return h
}

// Events delivers UI events in order. It is closed after Close.
func (h *Host) Events() <-chan Event {
	return h.events
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err returns the error that moved the host into Error, if any.
func (h *Host) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// QueueLen reports how many outbound messages are waiting for Ready.
func (h *Host) QueueLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

func (h *Host) currentTheme() theme.Theme {
	if h.opts.Themes == nil {
		return theme.MustGet(theme.Default)
	}
	return h.opts.Themes.Current()
}

// SetDataset replaces the dataset served to the renderer. When the renderer
// is up, or has already asked for data, the new graph is sent right away.
func (h *Host) SetDataset(ds graph.Dataset) {
	h.mu.Lock()
	h.dataset = ds
	h.hasData = true
	send := h.state == Ready || h.pendingRequest
	h.pendingRequest = false
	h.mu.Unlock()

	if send {
		h.Send(h.loadMessage(ds))
	}
}

func (h *Host) loadMessage(ds graph.Dataset) LoadGraphData {
	th := h.currentTheme()
	return LoadGraphData{Data: graph.Transform(ds, th), Theme: th.Name}
}

// Send delivers m once the renderer is ready. Before that it is queued and
// flushed in order on the transition to Ready. Messages sent while in Error
// are dropped; the queue is rebuilt on Reload.
func (h *Host) Send(m Outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case Ready:
		h.writeLocked(m)
	case Error:
		h.log.Debug("dropping message while in error state", "type", m.Kind())
	default:
		if h.closed {
			return
		}
		h.queue = append(h.queue, m)
	}
}

func (h *Host) writeLocked(m Outbound) {
	data, err := Encode(m)
	if err != nil {
		h.log.Error("encode outbound message", "type", m.Kind(), "err", err)
		return
	}
	if err := h.conn.Send(data); err != nil {
		h.failLocked(fmt.Errorf("send %s: %w", m.Kind(), err))
	}
}

// Mount starts bringing the render surface up. It returns immediately;
// progress arrives as StateChanged events.
func (h *Host) Mount(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	if h.state != Uninitialized {
		st := h.state
		h.mu.Unlock()
		return fmt.Errorf("bridge: cannot mount in state %s", st)
	}
	gen := h.gen
	// the renderer gets the active theme before anything else
	h.queue = append([]Outbound{UpdateTheme{Theme: h.currentTheme().Name}}, h.queue...)
	mctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.setStateLocked(AssetResolving, nil)
	h.mu.Unlock()

	go h.bringUp(mctx, gen)
	return nil
}

func (h *Host) bringUp(ctx context.Context, gen int) {
	rctx, cancel := context.WithTimeout(ctx, h.opts.AssetTimeout)
	address, err := h.opts.Resolver.Resolve(rctx)
	cancel()
	if err != nil {
		h.fail(gen, fmt.Errorf("resolve renderer: %w", err))
		return
	}
	h.log.Debug("renderer resolved", "address", address)

	h.mu.Lock()
	if gen != h.gen || h.state != AssetResolving {
		h.mu.Unlock()
		return
	}
	h.setStateLocked(Loading, nil)
	h.mu.Unlock()

	conn, err := h.opts.Launcher.Launch(ctx, address)
	if err != nil {
		h.fail(gen, fmt.Errorf("load renderer: %w", err))
		return
	}

	h.mu.Lock()
	if gen != h.gen || h.state != Loading {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.conn = conn
	h.timer = time.AfterFunc(h.opts.HandshakeTimeout, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if gen == h.gen && h.state == Loading {
			h.failLocked(ErrHandshakeTimeout)
		}
	})
	h.mu.Unlock()

	go h.readLoop(gen, conn)
}

func (h *Host) readLoop(gen int, conn Conn) {
	for data := range conn.Messages() {
		msg, err := DecodeInbound(data)
		if err != nil {
			h.log.Warn("discarding malformed renderer message", "err", err)
			continue
		}
		h.handle(gen, msg)
	}

	cause := conn.Err()
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen || h.state == Error {
		return
	}
	if cause != nil {
		h.failLocked(fmt.Errorf("%w: %w", ErrRendererExited, cause))
	} else {
		h.failLocked(ErrRendererExited)
	}
}

func (h *Host) handle(gen int, msg Inbound) {
	h.mu.Lock()
	stale := gen != h.gen
	h.mu.Unlock()
	if stale {
		return
	}

	switch m := msg.(type) {
	case Log:
		h.rlog.Level(m.Level, m.Message)

	case InitializationComplete:
		h.mu.Lock()
		if gen == h.gen && h.state == Loading {
			h.stopTimerLocked()
			h.setStateLocked(Ready, nil)
			h.flushLocked()
		}
		h.mu.Unlock()

	case InitializationFailed:
		h.mu.Lock()
		if gen == h.gen && h.state.Busy() {
			h.failLocked(fmt.Errorf("%w: %s", ErrInitializationFailed, m.Error))
		}
		h.mu.Unlock()

	case RequestGraphData:
		h.mu.Lock()
		ds, ok := h.dataset, h.hasData
		if !ok {
			h.pendingRequest = true
		}
		h.mu.Unlock()
		if !ok {
			h.log.Info("renderer requested data before any was loaded")
			return
		}
		msg := h.loadMessage(ds)
		h.log.Info("sending graph data", "nodes", len(msg.Data.Nodes), "links", len(msg.Data.Links))
		h.Send(msg)

	case NodeClicked:
		h.emit(h.nodeSelected(m))

	case WebGLError:
		h.log.Error("renderer cannot draw", "err", m.Error)
		h.emit(RenderError{Message: m.Error})

	case Unknown:
		h.log.Warn("ignoring unknown renderer message", "type", m.Type)
	}
}

func (h *Host) nodeSelected(m NodeClicked) NodeSelected {
	node := m.Node
	if node.Color == "" {
		node.Color = h.currentTheme().Colors.Primary
	}
	if node.Val == 0 {
		node.Val = 1
	}
	if node.Observations == nil {
		node.Observations = []string{}
	}

	var all graph.Dataset
	if m.AllData != nil {
		all = *m.AllData
	} else {
		h.mu.Lock()
		all = h.dataset
		h.mu.Unlock()
	}
	return NodeSelected{Node: node, AllData: all}
}

func (h *Host) flushLocked() {
	queued := h.queue
	h.queue = nil
	for i, m := range queued {
		if h.state != Ready {
			h.log.Debug("dropping queued messages after failure", "count", len(queued)-i)
			return
		}
		h.writeLocked(m)
	}
}

func (h *Host) fail(gen int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen == h.gen {
		h.failLocked(err)
	}
}

func (h *Host) failLocked(err error) {
	if h.state == Error || h.closed {
		return
	}
	h.log.Error("render surface failed", "state", h.state, "err", err)
	h.stopTimerLocked()
	h.queue = nil
	if h.conn != nil {
		go h.conn.Close()
		h.conn = nil
	}
	h.setStateLocked(Error, err)
}

func (h *Host) stopTimerLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *Host) setStateLocked(to State, err error) {
	from := h.state
	h.state = to
	h.err = err
	h.log.Debug("state change", "from", from, "to", to)
	h.emitLocked(StateChanged{From: from, To: to, Err: err})
}

// Reload tears the current surface down and mounts a fresh one. This is the
// manual retry for every error state.
func (h *Host) Reload(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	h.gen++
	conn := h.teardownLocked()
	h.queue = nil
	h.pendingRequest = false
	if h.state != Uninitialized {
		h.setStateLocked(Uninitialized, nil)
	}
	h.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	return h.Mount(ctx)
}

func (h *Host) teardownLocked() Conn {
	h.stopTimerLocked()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	conn := h.conn
	h.conn = nil
	return conn
}

// Close unmounts the surface and stops event delivery.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.gen++
	conn := h.teardownLocked()
	h.queue = nil
	unsubscribe := h.unsubscribe
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	close(h.done)

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (h *Host) emit(e Event) {
	h.mu.Lock()
	h.emitLocked(e)
	h.mu.Unlock()
}

func (h *Host) emitLocked(e Event) {
	h.pending = append(h.pending, e)
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// pump delivers pending events in order without ever blocking a caller that
// holds h.mu.
func (h *Host) pump() {
	defer close(h.events)
	for {
		select {
		case <-h.done:
			return
		case <-h.notify:
		}

		h.mu.Lock()
		batch := h.pending
		h.pending = nil
		h.mu.Unlock()

		for _, e := range batch {
			select {
			case h.events <- e:
			case <-h.done:
				return
			}
		}
	}
}
