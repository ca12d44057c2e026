package tui

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	zone "github.com/lrstanley/bubblezone"

	"neron/internal/bridge"
	"neron/internal/database"
	"neron/internal/detail"
	"neron/internal/graph"
	"neron/internal/logger"
	"neron/internal/output"
	"neron/internal/theme"
	"neron/ui/tui/components"
	"neron/ui/tui/state"
	"neron/ui/tui/styles"
	"neron/ui/tui/views"
)

// Options wires the TUI to its collaborators.
type Options struct {
	Loader database.Loader
	Source string
	// Host is the render surface; nil runs the TUI on its own.
	Host   *bridge.Host
	Themes *theme.Store
	// Ring feeds the console page.
	Ring   *logger.Ring
	Logger *logger.Logger
	// Watch reloads the dataset periodically when positive.
	Watch time.Duration
}

// MainModel is the Bubble Tea Model acting as the Controller
type MainModel struct {
	ctx     context.Context
	loader  database.Loader
	host    *bridge.Host
	themes  *theme.Store
	ring    *logger.Ring
	watcher primer
	log     *logger.Logger
	styles  styles.Styles
	state   state.AppState
	spinner spinner.Model
	minimap components.GraphWidget

	index *detail.Index
	nav   *detail.Navigator

	cursor         int
	overviewCursor int
	animCursor     float64
	velocity       float64 // Physics velocity
	spring         harmonica.Spring
	consoleScrollY int
	mouseX         int
	mouseY         int
	quitting       bool
	width          int
	height         int
}

// primer is told about every dataset the screen shows.
type primer interface {
	Prime(ds graph.Dataset)
}

// Messages
type TickMsg time.Time
type AnimateMsg time.Time

// DatasetLoadedMsg carries a finished pipeline run.
type DatasetLoadedMsg struct {
	Payload *output.PipelinePayload
	Err     error
}

// BridgeEventMsg wraps one render surface event.
type BridgeEventMsg struct {
	Event bridge.Event
}

type bridgeClosedMsg struct{}

type mountedMsg struct {
	Err error
}

func InitialModel(ctx context.Context, opts Options) MainModel {
	themes := opts.Themes
	if themes == nil {
		themes = theme.NewStore(theme.Default)
	}
	th := themes.Current()

	s := spinner.New()
	s.Spinner = spinner.Dot
	st := styles.New(th)
	s.Style = st.Title

	// Increased frequency (12.0) for faster response and damping (0.9) to prevent overshoot
	spring := harmonica.NewSpring(harmonica.FPS(60), 12.0, 0.9)

	return MainModel{
		ctx:     ctx,
		loader:  opts.Loader,
		host:    opts.Host,
		themes:  themes,
		ring:    opts.Ring,
		log:     opts.Logger.With("component", "tui"),
		styles:  st,
		spinner: s,
		minimap: components.NewMinimap(36, 12),
		spring:  spring,
		state: state.AppState{
			CurrentPage: state.PageOverview,
			Loading:     true,
			Source:      opts.Source,
		},
	}
}

func (m *MainModel) Init() tea.Cmd {
	zone.NewGlobal()
	cmds := []tea.Cmd{
		m.spinner.Tick,
		tickCmd(),
		animateCmd(),
		loadDatasetCmd(m.ctx, m.loader, m.themes.Current()),
	}
	if m.host != nil {
		cmds = append(cmds, mountCmd(m.ctx, m.host), waitForEvent(m.host.Events()))
	}
	return tea.Batch(cmds...)
}

// Commands
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second*1, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animateCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*16, func(t time.Time) tea.Msg {
		return AnimateMsg(t)
	})
}

func loadDatasetCmd(ctx context.Context, loader database.Loader, th theme.Theme) tea.Cmd {
	return func() tea.Msg {
		if loader == nil {
			return DatasetLoadedMsg{Err: errors.New("no dataset source configured")}
		}
		payload, err := output.RunPipeline(ctx, loader, th)
		return DatasetLoadedMsg{Payload: payload, Err: err}
	}
}

func mountCmd(ctx context.Context, h *bridge.Host) tea.Cmd {
	return func() tea.Msg {
		return mountedMsg{Err: h.Mount(ctx)}
	}
}

func reloadCmd(ctx context.Context, h *bridge.Host) tea.Cmd {
	return func() tea.Msg {
		return mountedMsg{Err: h.Reload(ctx)}
	}
}

// waitForEvent delivers the next bridge event; the handler re-arms it.
func waitForEvent(events <-chan bridge.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return bridgeClosedMsg{}
		}
		return BridgeEventMsg{Event: ev}
	}
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case AnimateMsg:
		return m.handleAnimateMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)

	case TickMsg:
		m.refreshConsole()
		return m, tickCmd()

	case DatasetLoadedMsg:
		return m.handleDatasetLoaded(msg)

	case BridgeEventMsg:
		return m.handleBridgeEvent(msg)

	case mountedMsg:
		if msg.Err != nil {
			m.log.Warn("render surface not mounted", "err", msg.Err)
		}
		return m, nil

	case bridgeClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	}

	return m, nil
}

func (m *MainModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "t":
		m.toggleTheme()
		return m, nil
	case "r":
		return m, m.retry()
	case "c":
		if m.state.CurrentPage != state.PageConsole {
			m.refreshConsole()
			m.state.CurrentPage = state.PageConsole
			m.consoleScrollY = max(len(m.state.ConsoleLogs)-1, 0)
			return m, nil
		}
	}

	switch m.state.CurrentPage {
	case state.PageOverview:
		rows := views.OverviewRows(m.state.Payload)
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(rows)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(rows) {
				m.overviewCursor = m.cursor
				m.openDetail(m.index, rows[m.cursor])
			}
		}

	case state.PageDetail:
		rows := views.DetailRows(m.state.Detail)
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(rows)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(rows) {
				m.follow(rows[m.cursor])
			}
		case "b", "esc", "backspace":
			m.back()
		}

	case state.PageConsole:
		switch msg.String() {
		case "up", "k":
			if m.consoleScrollY > 0 {
				m.consoleScrollY--
			}
		case "down", "j":
			m.consoleScrollY++
		case "b", "esc", "backspace":
			m.consoleScrollY = 0
			if m.nav != nil && m.nav.Depth() > 0 {
				m.state.CurrentPage = state.PageDetail
			} else {
				m.state.CurrentPage = state.PageOverview
				m.cursor = m.overviewCursor
			}
		}
	}
	return m, nil
}

// openDetail starts a fresh drill-down at node.
func (m *MainModel) openDetail(idx *detail.Index, node graph.VisualNode) {
	if idx == nil {
		idx = detail.NewIndex(graph.Dataset{})
	}
	m.nav = detail.NewNavigator(idx)
	m.nav.Open(node)
	m.syncDetail()
	m.state.CurrentPage = state.PageDetail
	m.cursor = 0
}

func (m *MainModel) follow(c detail.Connection) {
	if !c.Navigable() || m.nav == nil {
		return
	}
	if _, ok := m.nav.Follow(c.PeerName, m.themes.Current()); ok {
		m.syncDetail()
		m.cursor = 0
	}
}

func (m *MainModel) back() {
	if m.nav != nil && m.nav.Pop() && m.nav.Depth() > 0 {
		m.syncDetail()
		m.cursor = 0
		return
	}
	m.nav = nil
	m.state.Detail = nil
	m.state.Depth = 0
	m.state.CurrentPage = state.PageOverview
	m.cursor = m.overviewCursor
	m.syncMinimap()
}

func (m *MainModel) syncDetail() {
	d, ok := m.nav.Current()
	if !ok {
		m.state.Detail = nil
		m.state.Depth = 0
		return
	}
	m.state.Detail = &d
	m.state.Depth = m.nav.Depth()
	m.minimap.SetDetail(d)
}

func (m *MainModel) syncMinimap() {
	if m.state.Payload != nil {
		m.minimap.SetGraph(m.state.Payload.Graph)
	}
}

// toggleTheme flips the theme store. The host is subscribed and forwards the
// new theme to the renderer; local colors are re-resolved here.
func (m *MainModel) toggleTheme() {
	th := m.themes.Toggle()
	m.styles = styles.New(th)
	m.spinner.Style = m.styles.Title
	if m.state.Payload != nil {
		m.state.Payload = output.Build(m.state.Payload.Dataset, th)
	}
	if m.nav != nil {
		m.nav.Recolor(th)
		m.syncDetail()
	}
	m.log.Info("theme changed", "theme", th.Name)
}

func (m *MainModel) retry() tea.Cmd {
	var cmds []tea.Cmd
	if m.state.LoadErr != nil {
		m.state.Loading = true
		cmds = append(cmds, loadDatasetCmd(m.ctx, m.loader, m.themes.Current()))
	}
	if m.host != nil && (m.state.Bridge == bridge.Error || m.state.RenderErr != "") {
		m.state.RenderErr = ""
		cmds = append(cmds, reloadCmd(m.ctx, m.host))
	}
	return tea.Batch(cmds...)
}

func (m *MainModel) handleAnimateMsg(msg AnimateMsg) (tea.Model, tea.Cmd) {
	var v float64 = m.velocity
	m.animCursor, v = m.spring.Update(m.animCursor, float64(m.cursor), v)
	m.velocity = v
	return m, animateCmd()
}

func (m *MainModel) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.minimap.Resize(max(msg.Width/3-4, 10), max(msg.Height/3, 6))
	return m, nil
}

func (m *MainModel) handleDatasetLoaded(msg DatasetLoadedMsg) (tea.Model, tea.Cmd) {
	m.state.Loading = false
	if msg.Err != nil {
		m.state.LoadErr = msg.Err
		m.log.Error("dataset load failed", "err", msg.Err)
		return m, nil
	}

	p := msg.Payload
	if th := m.themes.Current(); p.Theme != th.Name {
		p = output.Build(p.Dataset, th)
	}
	m.state.LoadErr = nil
	m.state.LastUpdate = time.Now()
	if m.watcher != nil {
		m.watcher.Prime(p.Dataset)
	}
	if m.state.Payload != nil && reflect.DeepEqual(m.state.Payload.Dataset, p.Dataset) {
		m.log.Debug("dataset unchanged")
		return m, nil
	}
	m.state.Payload = p
	m.index = detail.NewIndex(p.Dataset)
	if m.host != nil {
		m.host.SetDataset(p.Dataset)
	}

	if rows := len(views.OverviewRows(p)); m.state.CurrentPage == state.PageOverview && m.cursor >= rows {
		m.cursor = max(rows-1, 0)
	}
	if m.state.CurrentPage != state.PageDetail {
		m.syncMinimap()
	}
	m.log.Info("dataset loaded", "entities", p.Summary.Entities, "relations", p.Summary.Relations, "status", p.Summary.Status)
	return m, nil
}

func (m *MainModel) handleBridgeEvent(msg BridgeEventMsg) (tea.Model, tea.Cmd) {
	var next tea.Cmd
	if m.host != nil {
		next = waitForEvent(m.host.Events())
	}

	switch ev := msg.Event.(type) {
	case bridge.StateChanged:
		m.state.Bridge = ev.To
		m.state.BridgeErr = ev.Err
		if ev.To == bridge.Ready {
			m.state.RenderErr = ""
		}

	case bridge.NodeSelected:
		idx := m.index
		if len(ev.AllData.Entities) > 0 {
			idx = detail.NewIndex(ev.AllData)
		}
		if m.state.CurrentPage == state.PageOverview {
			m.overviewCursor = m.cursor
		}
		m.openDetail(idx, ev.Node)

	case bridge.RenderError:
		m.state.RenderErr = ev.Message
	}
	return m, next
}

func (m *MainModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.mouseX = msg.X
	m.mouseY = msg.Y

	if msg.Action != tea.MouseActionRelease {
		return m, nil
	}
	if zone.Get(views.RetryZone).InBounds(msg) {
		return m, m.retry()
	}

	switch m.state.CurrentPage {
	case state.PageOverview:
		rows := views.OverviewRows(m.state.Payload)
		for i := range rows {
			if zone.Get(views.NodeZone(i)).InBounds(msg) {
				m.cursor = i
				m.overviewCursor = i
				m.openDetail(m.index, rows[i])
				return m, nil
			}
		}
	case state.PageDetail:
		rows := views.DetailRows(m.state.Detail)
		for i := range rows {
			if zone.Get(views.ConnectionZone(i)).InBounds(msg) {
				m.cursor = i
				m.follow(rows[i])
				return m, nil
			}
		}
	}
	return m, nil
}

func (m *MainModel) refreshConsole() {
	if m.ring != nil {
		m.state.ConsoleLogs = m.ring.Lines()
	}
}

func (m *MainModel) props() views.ViewProps {
	return views.ViewProps{
		Width:       m.width,
		Height:      m.height,
		MouseX:      m.mouseX,
		MouseY:      m.mouseY,
		Styles:      m.styles,
		Cursor:      m.cursor,
		AnimCursor:  m.animCursor,
		SpinnerView: m.spinner.View(),
		MinimapView: m.minimap.View(),
		ScrollY:     m.consoleScrollY,
	}
}

func (m *MainModel) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	switch m.state.CurrentPage {
	case state.PageDetail:
		return views.RenderDetail(m.state, m.props())
	case state.PageConsole:
		return views.RenderConsole(m.state, m.props())
	default:
		return views.RenderOverview(m.state, m.props())
	}
}

// Start runs the TUI until the user quits. The host, when given, is closed on
// exit.
func Start(ctx context.Context, opts Options) error {
	m := InitialModel(ctx, opts)
	p := tea.NewProgram(
		&m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if opts.Watch > 0 && opts.Loader != nil {
		worker, err := database.NewDataWorker(opts.Loader, m.themes, func(payload *output.PipelinePayload) {
			p.Send(DatasetLoadedMsg{Payload: payload})
		}, database.WithInterval(opts.Watch), database.WithLogger(opts.Logger))
		if err != nil {
			return err
		}
		m.watcher = worker
		if err := worker.Start(ctx); err != nil {
			return err
		}
		defer worker.Stop()
	}
	if opts.Host != nil {
		defer opts.Host.Close()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
