// Package capture runs the capture/send loop: at a fixed cadence it grabs a
// frame from the active camera and emits it over the shared channel when the
// channel is connected. Frames are dropped, never queued.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"proctorfeed/internal/dto"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/wire"

	"github.com/google/uuid"
)

const (
	// FrameInterval is the capture cadence (4 frames per second).
	FrameInterval = 250 * time.Millisecond
	// JPEGQuality is the reduced encode quality for outbound frames.
	JPEGQuality = 60
)

var (
	ErrNotReady          = errors.New("capture device not ready")
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	errStopped           = errors.New("session stopped")
)

// Device is an acquired camera.
type Device interface {
	// Dimensions reports the frame size; zero until the device has decoded data.
	Dimensions() (width, height int)
	// Capture grabs the current frame as JPEG. It returns ErrNotReady when no frame is decoded yet.
	Capture(quality int) ([]byte, error)
	// Close releases the camera.
	Close() error
}

// Opener acquires a camera by identifier.
type Opener interface {
	Open(ctx context.Context, deviceID string) (Device, error)
}

// Sender is the outbound side of the shared channel.
type Sender interface {
	Connected() bool
	Emit(event string, payload interface{}) error
}

// TickerFunc returns a tick channel and a stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Session is one capture session. It is armed from Start until Stop.
type Session struct {
	ID        string
	DeviceID  string
	StartedAt time.Time

	device Device
	sender Sender
	armed  atomic.Bool

	mu     sync.Mutex // serialises device use with Close
	closed bool

	sent    atomic.Int64
	skipped atomic.Int64
}

// Armed reports whether the session still accepts ticks.
func (s *Session) Armed() bool {
	return s.armed.Load()
}

// Stats returns the number of frames sent and ticks skipped.
func (s *Session) Stats() (sent, skipped int64) {
	return s.sent.Load(), s.skipped.Load()
}

// step performs one tick. It reports whether a frame was emitted.
func (s *Session) step() (bool, error) {
	if !s.armed.Load() {
		return false, errStopped
	}
	if s.sender == nil || !s.sender.Connected() {
		s.skipped.Add(1)
		return false, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, errStopped
	}
	if w, h := s.device.Dimensions(); w == 0 || h == 0 {
		s.mu.Unlock()
		s.skipped.Add(1)
		return false, nil
	}
	jpeg, err := s.device.Capture(JPEGQuality)
	s.mu.Unlock()

	if errors.Is(err, ErrNotReady) {
		s.skipped.Add(1)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("capture frame: %w", err)
	}

	if err := s.sender.Emit(wire.EventFrame, dto.FrameMessage{Image: wire.JPEGDataURL(jpeg)}); err != nil {
		// The channel dropped between the check and the write; the frame is lost.
		s.skipped.Add(1)
		return false, nil
	}
	s.sent.Add(1)
	return true, nil
}

// release stops the device synchronously. Safe to call more than once.
func (s *Session) release() error {
	s.armed.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.device.Close()
}

// Manager owns the single capture session.
type Manager struct {
	opener    Opener
	logger    *logger.Logger
	interval  time.Duration
	newTicker TickerFunc

	mu      sync.Mutex
	current *Session
	wg      sync.WaitGroup
}

type Option func(*Manager)

// WithTicker replaces the time source of the loop.
func WithTicker(f TickerFunc) Option {
	return func(m *Manager) { m.newTicker = f }
}

func NewManager(opener Opener, logger *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		opener:    opener,
		logger:    logger,
		interval:  FrameInterval,
		newTicker: realTicker,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start tears down any active session, acquires the device and arms a new
// session whose frames go to sender. On failure no session is left behind.
func (m *Manager) Start(ctx context.Context, deviceID string, sender Sender) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.stopLocked()
	}

	device, err := m.opener.Open(ctx, deviceID)
	if err != nil {
		m.logger.Error("Failed to open camera %s: %v", deviceID, err)
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	s := &Session{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		StartedAt: time.Now(),
		device:    device,
		sender:    sender,
	}
	s.armed.Store(true)
	m.current = s

	ticks, stopTicker := m.newTicker(m.interval)
	m.wg.Add(1)
	go m.loop(s, ticks, stopTicker)

	m.logger.Info("📹 Capture session %s started on camera %s", s.ID, deviceID)
	return s, nil
}

// Stop disarms the active session and releases its camera before returning.
// The loop notices on its next tick.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	s := m.current
	if s == nil {
		return
	}
	m.current = nil

	if err := s.release(); err != nil {
		m.logger.Warning("Error closing camera %s: %v", s.DeviceID, err)
	}
	sent, skipped := s.Stats()
	m.logger.Info("🛑 Capture session %s stopped (%d frames sent, %d ticks skipped)", s.ID, sent, skipped)
}

// Current returns the active session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Step runs one tick of the active session synchronously.
func (m *Manager) Step() (bool, error) {
	s := m.Current()
	if s == nil {
		return false, nil
	}
	sent, err := s.step()
	if errors.Is(err, errStopped) {
		return false, nil
	}
	return sent, err
}

// Wait blocks until every loop has observed its stop.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) loop(s *Session, ticks <-chan time.Time, stopTicker func()) {
	defer m.wg.Done()
	defer stopTicker()

	for range ticks {
		if !s.armed.Load() {
			return
		}
		if _, err := s.step(); err != nil {
			if errors.Is(err, errStopped) {
				return
			}
			m.logger.Warning("Capture tick failed for session %s: %v", s.ID, err)
		}
	}
}
