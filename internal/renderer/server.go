// Package renderer is the sandboxed side of the bridge. It owns the live graph
// and theme, serves the 3D viewer page and relays what happens there back to
// the host as bridge messages.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neron/internal/bridge"
	"neron/internal/graph"
	"neron/internal/logger"
	"neron/internal/theme"
)

const DefaultAddr = "127.0.0.1:0"

// Options configures a Server.
type Options struct {
	// Addr is the listen address for the viewer page.
	Addr   string
	Page   []byte
	Logger *logger.Logger
}

// Server is one renderer instance bound to one bridge connection.
type Server struct {
	id     string
	conn   bridge.Conn
	opts   Options
	log    *logger.Logger
	engine *gin.Engine

	mu      sync.RWMutex
	data    graph.GraphData
	hasData bool
	theme   theme.Name
	version int
	url     string
}

// New builds a server speaking the bridge protocol over conn.
func New(conn bridge.Conn, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	s := &Server{
		id:    uuid.NewString(),
		conn:  conn,
		opts:  opts,
		theme: theme.Default,
	}
	s.log = opts.Logger.With("instance", s.id[:8])
	s.engine = s.routes()
	return s
}

// ID identifies this renderer instance.
func (s *Server) ID() string { return s.id }

// URL is the viewer address once Run is listening.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Handler exposes the HTTP routes.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.page)
	api := r.Group("/api")
	api.GET("/graph", s.graph)
	api.POST("/click", s.click)
	api.POST("/error", s.renderError)
	api.POST("/log", s.pageLog)
	return r
}

// Run listens, performs the initialization handshake and then applies host
// messages until the connection closes or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		err = fmt.Errorf("listen %s: %w", s.opts.Addr, err)
		s.send(bridge.InitializationFailed{Error: err.Error()})
		return err
	}
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("viewer server stopped", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	url := "http://" + ln.Addr().String()
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()

	s.send(bridge.InitializationComplete{})
	s.send(bridge.Log{Message: "viewer at " + url, Level: "info"})
	s.send(bridge.RequestGraphData{})

	return s.serve(ctx)
}

func (s *Server) serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-s.conn.Messages():
			if !ok {
				return s.conn.Err()
			}
			msg, err := bridge.DecodeOutbound(data)
			if err != nil {
				s.log.Warn("discarding host message", "err", err)
				continue
			}
			s.Apply(msg)
		}
	}
}

// Apply updates the renderer state from a host message.
func (s *Server) Apply(msg bridge.Outbound) {
	switch m := msg.(type) {
	case bridge.LoadGraphData:
		s.mu.Lock()
		s.data = m.Data
		s.hasData = true
		s.theme = knownTheme(m.Theme)
		s.version++
		s.mu.Unlock()
		s.log.Info("graph data loaded", "nodes", len(m.Data.Nodes), "links", len(m.Data.Links))

	case bridge.UpdateTheme:
		s.mu.Lock()
		s.theme = knownTheme(m.Theme)
		if s.hasData {
			s.data = graph.Recolor(s.data, theme.MustGet(s.theme))
			s.version++
		}
		s.mu.Unlock()
		s.log.Info("theme updated", "theme", m.Theme)
	}
}

func knownTheme(n theme.Name) theme.Name {
	if _, ok := theme.Get(n); ok {
		return n
	}
	return theme.Regular
}

func (s *Server) send(m bridge.Message) {
	data, err := bridge.Encode(m)
	if err != nil {
		s.log.Error("encode message", "type", m.Kind(), "err", err)
		return
	}
	if err := s.conn.Send(data); err != nil {
		s.log.Error("send message", "type", m.Kind(), "err", err)
	}
}

// Snapshot is the viewer's view of the renderer state.
type Snapshot struct {
	ID      string             `json:"id"`
	Version int                `json:"version"`
	HasData bool               `json:"hasData"`
	Theme   theme.Name         `json:"theme"`
	Render  theme.RenderParams `json:"render"`
	Data    graph.GraphData    `json:"data"`
}

func (s *Server) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:      s.id,
		Version: s.version,
		HasData: s.hasData,
		Theme:   s.theme,
		Render:  theme.MustGet(s.theme).Render,
		Data:    s.data,
	}
}

func (s *Server) page(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.opts.Page)
}

func (s *Server) graph(c *gin.Context) {
	c.JSON(http.StatusOK, s.Snapshot())
}

type clickReq struct {
	ID string `json:"id"`
}

func (s *Server) click(c *gin.Context) {
	var req clickReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	s.mu.RLock()
	node, ok := s.data.Node(req.ID)
	all := s.data.Dataset()
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "node not found"})
		return
	}

	s.send(bridge.NodeClicked{Node: node, AllData: &all})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type errorReq struct {
	Error string `json:"error"`
}

func (s *Server) renderError(c *gin.Context) {
	var req errorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Error == "" {
		req.Error = "unknown rendering error"
	}
	s.send(bridge.WebGLError{Error: req.Error})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type logReq struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

func (s *Server) pageLog(c *gin.Context) {
	var req logReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Level == "" {
		req.Level = "info"
	}
	s.send(bridge.Log{Message: req.Message, Level: req.Level})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
