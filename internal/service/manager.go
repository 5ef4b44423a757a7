package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"proctorfeed/internal/config"
	"proctorfeed/internal/dispatch"
	"proctorfeed/internal/dto"
	"proctorfeed/internal/feed"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/model"
	"proctorfeed/internal/render"
	"proctorfeed/internal/service/cache"
	"proctorfeed/internal/service/capture"
	"proctorfeed/internal/service/channel"
	"proctorfeed/internal/service/hub"
	"proctorfeed/internal/service/storage"
	"proctorfeed/internal/timeline"
	"proctorfeed/internal/wire"
)

// ConnectedMessage is the system notification added on every connect.
const ConnectedMessage = "Connected to server"

// History is the server's authoritative snapshot store.
type History interface {
	List(ctx context.Context) ([]model.SnapshotAlert, error)
	Delete(ctx context.Context, id string) error
	Snapshot(ctx context.Context, id string) ([]byte, error)
	Resolve(locator string) string
}

// Store is the advisory local copy of the UI state.
type Store interface {
	Load() (cache.State, error)
	AppendNotification(n model.Notification) error
	SaveAlert(n model.Notification, p model.TimelinePoint) error
	RemoveAlert(id, locator string) error
	Replace(st cache.State) error
}

// Archive keeps local copies of flagged snapshots.
type Archive interface {
	Add(snap storage.Snapshot)
	Get(id string) ([]byte, bool)
	Remove(id string)
}

// Broadcaster pushes updates to dashboard viewers.
type Broadcaster interface {
	Broadcast(kind string, data interface{})
}

// Channel is the shared connection to the proctoring server.
type Channel interface {
	capture.Sender
	Start(ctx context.Context)
	Close()
}

// ChannelFactory builds the channel on first use.
type ChannelFactory func(sink channel.Sink, onConnect func()) Channel

// Dependencies wires the Manager. Only Opener, History and NewChannel are required.
type Dependencies struct {
	Opener     capture.Opener
	Probe      func() []string
	History    History
	Store      Store
	Archive    Archive
	Hub        Broadcaster
	NewChannel ChannelFactory
	// Fallback produces the frame served when nothing was rendered yet.
	Fallback func() ([]byte, error)
	Ticker   capture.TickerFunc
}

// Manager owns the capture session, the channel, the notification feed and
// the timeline, and keeps them in sync with the server and the local cache.
type Manager struct {
	cfg    *config.Config
	logger *logger.Logger
	deps   Dependencies

	sessions   *capture.Manager
	dispatcher *dispatch.Dispatcher
	feed       *feed.Feed
	timeline   *timeline.Timeline

	channelMu sync.Mutex
	channel   Channel

	ctxMu   sync.Mutex
	baseCtx context.Context

	stateMu sync.Mutex // serialises feed + timeline + cache updates

	frameMu  sync.RWMutex
	frame    []byte
	cheating bool

	wg sync.WaitGroup
}

func NewManager(cfg *config.Config, logger *logger.Logger, deps Dependencies) *Manager {
	var opts []capture.Option
	if deps.Ticker != nil {
		opts = append(opts, capture.WithTicker(deps.Ticker))
	}

	m := &Manager{
		cfg:      cfg,
		logger:   logger,
		deps:     deps,
		sessions: capture.NewManager(deps.Opener, logger, opts...),
		feed:     feed.New(),
		baseCtx:  context.Background(),
	}
	m.timeline = timeline.New(func(p model.TimelinePoint) model.Detail {
		return model.Detail{ID: p.ID, ImageURL: deps.History.Resolve(p.Locator), Timestamp: p.DisplayTime}
	})
	m.dispatcher = dispatch.New(m, 64)
	return m
}

// Run drains inbound events until ctx is done. Background work started by
// the Manager is bound to ctx.
func (m *Manager) Run(ctx context.Context) {
	m.ctxMu.Lock()
	m.baseCtx = ctx
	m.ctxMu.Unlock()

	m.logger.Info("🎬 Manager started")
	m.dispatcher.Run(ctx)
}

func (m *Manager) context() context.Context {
	m.ctxMu.Lock()
	defer m.ctxMu.Unlock()
	return m.baseCtx
}

// Dispatcher exposes the inbound queue.
func (m *Manager) Dispatcher() *dispatch.Dispatcher {
	return m.dispatcher
}

// Start opens the camera and begins streaming. An empty deviceID uses the configured camera.
func (m *Manager) Start(ctx context.Context, deviceID string) (dto.SessionInfo, error) {
	if deviceID == "" {
		deviceID = m.cfg.CameraDevice
	}

	ch := m.ensureChannel()
	if _, err := m.sessions.Start(ctx, deviceID, ch); err != nil {
		m.broadcastStatus()
		return m.Status(), err
	}
	m.broadcastStatus()
	return m.Status(), nil
}

// Stop ends the capture session. The channel stays open for the next Start.
func (m *Manager) Stop() {
	m.sessions.Stop()
	m.broadcastStatus()
}

// ensureChannel creates the shared channel once and reuses it afterwards.
func (m *Manager) ensureChannel() Channel {
	m.channelMu.Lock()
	defer m.channelMu.Unlock()

	if m.channel == nil {
		m.channel = m.deps.NewChannel(m.dispatcher, m.onConnect)
		m.channel.Start(m.context())
	}
	return m.channel
}

func (m *Manager) connected() bool {
	m.channelMu.Lock()
	defer m.channelMu.Unlock()
	return m.channel != nil && m.channel.Connected()
}

func (m *Manager) onConnect() {
	m.stateMu.Lock()
	n := m.feed.AppendSystem(ConnectedMessage)
	if m.deps.Store != nil {
		if err := m.deps.Store.AppendNotification(n); err != nil {
			m.logger.Warning("Cache write failed: %v", err)
		}
	}
	m.stateMu.Unlock()

	m.broadcast(hub.TypeNotification, n)
	m.broadcastStatus()
}

// HandleRenderFrame shows the server's annotated frame and updates the indicator.
func (m *Manager) HandleRenderFrame(e dispatch.RenderFrame) {
	jpeg, _, err := wire.DecodeDataURL(e.Image)

	m.frameMu.Lock()
	if err == nil {
		m.frame = jpeg
	}
	m.cheating = e.Cheating
	m.frameMu.Unlock()

	if err != nil {
		m.logger.Debug("Rendered frame not decodable: %v", err)
	} else {
		m.broadcast(hub.TypeFrame, e.Image)
	}
	m.broadcastStatus()
}

// HandleAlert records a new alert. Alerts whose locator was seen before are ignored.
func (m *Manager) HandleAlert(e dispatch.AlertRaised) {
	alert := model.NewSnapshotAlert(e.ID, e.Message, e.URL, e.Timestamp)

	m.stateMu.Lock()
	n, ok := m.feed.IngestAlert(alert)
	if !ok {
		m.stateMu.Unlock()
		m.logger.Debug("Duplicate alert %s ignored", alert.URL)
		return
	}

	p := model.TimelinePointFromAlert(alert)
	m.timeline.Add(p)
	if _, err := m.timeline.Select(alert.ID); err != nil {
		m.logger.Warning("Cannot select point %s: %v", alert.ID, err)
	}

	if m.deps.Store != nil {
		if err := m.deps.Store.SaveAlert(n, p); err != nil {
			m.logger.Warning("Cache write failed: %v", err)
		}
	}
	m.stateMu.Unlock()

	m.logger.Warning("🚨 Cheating detected at %s (%s)", alert.DisplayTime, alert.URL)
	m.broadcast(hub.TypeNotification, n)
	m.broadcast(hub.TypeTimeline, m.Timeline())
	m.archive(alert)
}

func (m *Manager) archive(alert model.SnapshotAlert) {
	if m.deps.Archive == nil {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(m.context(), m.cfg.RequestTimeout)
		defer cancel()

		data, err := m.deps.History.Snapshot(ctx, alert.ID)
		if err != nil {
			m.logger.Warning("Snapshot %s not archived: %v", alert.ID, err)
			return
		}

		// Alert mógł zostać usunięty w trakcie pobierania.
		m.stateMu.Lock()
		defer m.stateMu.Unlock()
		if _, ok := m.feed.Lookup(alert.ID); !ok {
			m.logger.Debug("Alert %s deleted before its snapshot arrived", alert.ID)
			return
		}
		m.deps.Archive.Add(storage.Snapshot{ID: alert.ID, At: alert.Time(), Data: data})
	}()
}

// DeleteAlert deletes the alert on the server, then locally. When the server
// call fails the alert stays everywhere and the error is returned. Deleting an
// id the feed does not hold still reaches the server and leaves the list as is.
func (m *Manager) DeleteAlert(ctx context.Context, id string) error {
	if err := m.deps.History.Delete(ctx, id); err != nil {
		m.logger.Error("Failed to delete alert %s: %v", id, err)
		return err
	}

	m.stateMu.Lock()
	n, ok := m.feed.Lookup(id)
	if ok {
		m.feed.Remove(n.Locator)
		m.timeline.Remove(id)
		if m.deps.Store != nil {
			if err := m.deps.Store.RemoveAlert(id, n.Locator); err != nil {
				m.logger.Warning("Cache delete failed: %v", err)
			}
		}
	}
	m.stateMu.Unlock()

	if m.deps.Archive != nil {
		m.deps.Archive.Remove(id)
	}
	if !ok {
		m.logger.Debug("Alert %s not in the list, nothing to remove locally", id)
		return nil
	}

	m.logger.Info("Deleted alert %s", id)
	m.broadcast(hub.TypeRemoved, id)
	m.broadcast(hub.TypeTimeline, m.Timeline())
	return nil
}

// Restore rebuilds the feed and timeline from the cache, then reconciles
// them with the server's history. An unreachable server keeps the cached view.
func (m *Manager) Restore(ctx context.Context) error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	var st cache.State
	if m.deps.Store != nil {
		loaded, err := m.deps.Store.Load()
		if err != nil {
			m.logger.Warning("Cache unreadable, starting empty: %v", err)
		} else {
			st = loaded
		}
	}

	alerts, err := m.deps.History.List(ctx)
	if err != nil {
		m.logger.Warning("History unavailable, using cached state: %v", err)
		m.apply(st)
		return err
	}

	st = reconcile(st, alerts)
	m.apply(st)
	if m.deps.Store != nil {
		if err := m.deps.Store.Replace(st); err != nil {
			m.logger.Warning("Cache write failed: %v", err)
		}
	}

	m.logger.Info("Restored %d notifications, %d timeline points", len(st.Notifications), len(st.Points))
	return nil
}

func (m *Manager) apply(st cache.State) {
	m.feed.Restore(st.Notifications, st.Seen)
	m.timeline.Restore(st.Points)
	m.timeline.SelectNewest()
}

// reconcile keeps the cached order, drops alerts the server no longer has
// and appends server alerts the cache never saw.
func reconcile(st cache.State, alerts []model.SnapshotAlert) cache.State {
	onServer := make(map[string]model.SnapshotAlert, len(alerts))
	for _, a := range alerts {
		onServer[a.ID] = a
	}

	out := cache.State{}
	present := make(map[string]bool)
	for _, n := range st.Notifications {
		if n.Kind == model.KindAlert {
			if _, ok := onServer[n.ID]; !ok {
				continue
			}
			present[n.ID] = true
		}
		out.Notifications = append(out.Notifications, n)
	}
	for _, a := range alerts {
		if !present[a.ID] {
			out.Notifications = append(out.Notifications, model.AlertNotification(a))
		}
		out.Points = append(out.Points, model.TimelinePointFromAlert(a))
	}

	seen := make(map[string]bool)
	for _, l := range st.Seen {
		if !seen[l] {
			seen[l] = true
			out.Seen = append(out.Seen, l)
		}
	}
	for _, a := range alerts {
		if !seen[a.URL] {
			seen[a.URL] = true
			out.Seen = append(out.Seen, a.URL)
		}
	}
	return out
}

// Notifications returns the list newest-first.
func (m *Manager) Notifications() dto.NotificationsData {
	list := m.feed.Display()
	return dto.NotificationsData{Notifications: list, Length: len(list)}
}

// Timeline returns the points with their positions and the active detail.
func (m *Manager) Timeline() dto.TimelineData {
	data := dto.TimelineData{Points: m.timeline.Points(), Active: m.timeline.Active()}
	if detail, ok := m.timeline.ActiveDetail(); ok {
		data.Detail = &detail
	}
	return data
}

// SelectPoint activates a timeline point.
func (m *Manager) SelectPoint(id string) (model.Detail, error) {
	detail, err := m.timeline.Select(id)
	if err != nil {
		return model.Detail{}, err
	}
	m.broadcast(hub.TypeTimeline, m.Timeline())
	return detail, nil
}

// ResolvePoint activates the point named in path, or the newest one.
func (m *Manager) ResolvePoint(path string) (model.Detail, bool) {
	detail, ok := m.timeline.ResolveInitial(path)
	if ok {
		m.broadcast(hub.TypeTimeline, m.Timeline())
	}
	return detail, ok
}

// LatestFrame returns the last rendered frame, or the fallback frame.
func (m *Manager) LatestFrame() ([]byte, error) {
	m.frameMu.RLock()
	frame := m.frame
	m.frameMu.RUnlock()

	if frame != nil {
		return frame, nil
	}
	return m.fallback()
}

// Snapshot returns a snapshot JPEG from the archive, the server or the fallback, in that order.
func (m *Manager) Snapshot(ctx context.Context, id string) ([]byte, error) {
	if m.deps.Archive != nil {
		if data, ok := m.deps.Archive.Get(id); ok {
			return data, nil
		}
	}
	data, err := m.deps.History.Snapshot(ctx, id)
	if err == nil {
		return data, nil
	}
	m.logger.Debug("Snapshot %s unavailable: %v", id, err)
	return m.fallback()
}

func (m *Manager) fallback() ([]byte, error) {
	if m.deps.Fallback == nil {
		return nil, errors.New("no frame available")
	}
	return m.deps.Fallback()
}

// Status describes the session, the channel and the indicator.
func (m *Manager) Status() dto.SessionInfo {
	m.frameMu.RLock()
	cheating := m.cheating
	m.frameMu.RUnlock()

	info := dto.SessionInfo{Connected: m.connected(), Status: render.Status(cheating)}
	if s := m.sessions.Current(); s != nil {
		info.Running = true
		info.SessionID = s.ID
		info.Device = s.DeviceID
	}
	return info
}

// Devices lists cameras that can be opened.
func (m *Manager) Devices() []string {
	if m.deps.Probe == nil {
		return nil
	}
	return m.deps.Probe()
}

// Step runs one capture tick synchronously.
func (m *Manager) Step() (bool, error) {
	return m.sessions.Step()
}

// Close stops capture, closes the channel and waits for background work.
func (m *Manager) Close() {
	m.sessions.Stop()

	m.channelMu.Lock()
	ch := m.channel
	m.channelMu.Unlock()
	if ch != nil {
		ch.Close()
	}

	done := make(chan struct{})
	go func() {
		m.sessions.Wait()
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		m.logger.Warning("Background work still running at shutdown")
	}
	m.logger.Info("🛑 Manager stopped")
}

func (m *Manager) broadcastStatus() {
	m.broadcast(hub.TypeStatus, m.Status())
}

func (m *Manager) broadcast(kind string, data interface{}) {
	if m.deps.Hub != nil {
		m.deps.Hub.Broadcast(kind, data)
	}
}
