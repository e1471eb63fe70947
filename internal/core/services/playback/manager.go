package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"guild-jukebox/internal/adapters/metrics"
	"guild-jukebox/internal/core/domain"
	"guild-jukebox/internal/core/ports"
	"guild-jukebox/internal/fault"

	"golang.org/x/sync/singleflight"
)

// leaveEchoWindow bounds how long after the manager disconnects a guild it
// treats the resulting leave event as its own.
const leaveEchoWindow = 10 * time.Second

var (
	ErrNoSession      = errors.New("no active session for guild")
	ErrNothingPlaying = errors.New("nothing is playing")
	ErrAlreadyPaused  = errors.New("playback is already paused")
	ErrNotPaused      = errors.New("playback is not paused")
	ErrSessionClosed  = errors.New("session is closed")
	ErrNoVoiceChannel = errors.New("voice channel is required")
)

// Manager keeps at most one Session per guild.
type Manager struct {
	transport   ports.VoiceTransport
	streamer    ports.AudioStreamer
	history     ports.HistoryRecorder
	idleTimeout time.Duration
	reporter    *fault.Reporter

	mu       sync.Mutex
	sessions map[string]*Session
	closing  map[string]*Session
	leaves   map[string]time.Time
	group    singleflight.Group
}

// NewManager creates a manager. history and reporter may be nil; an
// idleTimeout of zero keeps idle sessions connected until they are destroyed.
func NewManager(transport ports.VoiceTransport, streamer ports.AudioStreamer, history ports.HistoryRecorder, idleTimeout time.Duration, reporter *fault.Reporter) *Manager {
	return &Manager{
		transport:   transport,
		streamer:    streamer,
		history:     history,
		idleTimeout: idleTimeout,
		reporter:    reporter,
		sessions:    make(map[string]*Session),
		closing:     make(map[string]*Session),
		leaves:      make(map[string]time.Time),
	}
}

func (m *Manager) Get(guildID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

// GetOrCreate returns the guild's session, joining channelID to create one
// if needed. Concurrent callers for the same guild share a single join, and
// a join never starts before the guild's previous session has disconnected.
func (m *Manager) GetOrCreate(ctx context.Context, guildID, channelID string) (*Session, error) {
	if s, ok := m.Get(guildID); ok {
		return s, nil
	}
	if channelID == "" {
		return nil, ErrNoVoiceChannel
	}

	v, err, _ := m.group.Do(guildID, func() (any, error) {
		m.mu.Lock()
		s, ok := m.sessions[guildID]
		old := m.closing[guildID]
		m.mu.Unlock()
		if ok {
			return s, nil
		}
		if old != nil {
			if err := m.awaitTeardown(ctx, old); err != nil {
				return nil, err
			}
		}

		conn, err := m.transport.Join(ctx, guildID, channelID)
		if err != nil {
			return nil, fmt.Errorf("join voice channel: %w", err)
		}

		s = newSession(guildID, conn, m)

		m.mu.Lock()
		m.sessions[guildID] = s
		m.mu.Unlock()
		metrics.ActiveSessions.Inc()

		go s.run()

		slog.Info("Audio session created", "guild_id", guildID, "channel_id", channelID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Play enqueues track on the guild's session, creating it first if needed.
// The returned position is zero when the track starts immediately.
func (m *Manager) Play(ctx context.Context, guildID, channelID string, track domain.Track) (*Session, int, error) {
	for attempt := 0; attempt < 2; attempt++ {
		s, err := m.GetOrCreate(ctx, guildID, channelID)
		if err != nil {
			return nil, 0, err
		}

		pos, err := s.enqueue(track)
		if errors.Is(err, ErrSessionClosed) {
			m.forget(s, "closed")
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		return s, pos, nil
	}
	return nil, 0, ErrSessionClosed
}

func (m *Manager) Pause(guildID string) error {
	s, ok := m.Get(guildID)
	if !ok {
		return ErrNoSession
	}
	return s.pause()
}

func (m *Manager) Resume(guildID string) error {
	s, ok := m.Get(guildID)
	if !ok {
		return ErrNoSession
	}
	return s.resume()
}

// Skip stops the current track and returns it.
func (m *Manager) Skip(guildID string) (domain.Track, error) {
	s, ok := m.Get(guildID)
	if !ok {
		return domain.Track{}, ErrNoSession
	}
	return s.skip()
}

// Stop clears the queue and leaves the voice channel.
func (m *Manager) Stop(guildID string) error {
	if !m.Destroy(guildID) {
		return ErrNoSession
	}
	return nil
}

// Destroy tears down the guild's session. It reports whether a session
// existed; calling it again is a no-op.
func (m *Manager) Destroy(guildID string) bool {
	s, ok := m.Get(guildID)
	if !ok {
		return false
	}
	return m.destroy(s, "destroyed")
}

// Left handles the bot leaving voice in guildID. The leave caused by the
// manager's own disconnect is ignored once a newer session has joined.
func (m *Manager) Left(guildID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[guildID]
	issued, own := m.leaves[guildID]
	delete(m.leaves, guildID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	if own && s.created.After(issued) && time.Since(issued) < leaveEchoWindow {
		slog.Debug("Ignoring leave from previous session", "guild_id", guildID)
		return false
	}
	return m.destroy(s, "left")
}

func (m *Manager) destroy(s *Session, reason string) bool {
	if !m.forget(s, reason) {
		return false
	}
	s.close()
	m.settle(s)

	slog.Info("Audio session destroyed", "guild_id", s.guildID, "reason", reason)
	return true
}

func (m *Manager) DestroyAll() int {
	m.mu.Lock()
	guildIDs := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		guildIDs = append(guildIDs, id)
	}
	m.mu.Unlock()

	count := 0
	for _, id := range guildIDs {
		if m.Destroy(id) {
			count++
		}
	}
	return count
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) Snapshot(guildID string) (Snapshot, error) {
	s, ok := m.Get(guildID)
	if !ok {
		return Snapshot{}, ErrNoSession
	}
	return s.Snapshot(), nil
}

// forget detaches s from the map if it is still the guild's session. Until
// it has disconnected, s blocks new joins for the guild.
func (m *Manager) forget(s *Session, reason string) bool {
	m.mu.Lock()
	current, ok := m.sessions[s.guildID]
	if ok && current == s {
		delete(m.sessions, s.guildID)
		m.closing[s.guildID] = s
	}
	m.mu.Unlock()

	if !ok || current != s {
		return false
	}

	metrics.ActiveSessions.Dec()
	metrics.SessionsDestroyed.WithLabelValues(reason).Inc()
	return true
}

// remove is called by a session whose playback loop has exited.
func (m *Manager) remove(s *Session, reason string) {
	if m.forget(s, reason) {
		slog.Info("Audio session removed", "guild_id", s.guildID, "reason", reason)
	}
	s.close()
	m.settle(s)
}

// settle drops s from the closing set once it has disconnected.
func (m *Manager) settle(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closing[s.guildID] == s {
		delete(m.closing, s.guildID)
	}
}

func (m *Manager) awaitTeardown(ctx context.Context, old *Session) error {
	select {
	case <-old.disconnected:
		m.settle(old)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for previous session to leave: %w", ctx.Err())
	}
}

// noteLeave records that the manager is about to disconnect guildID itself.
func (m *Manager) noteLeave(guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves[guildID] = time.Now()
}

func (m *Manager) report(guildID string, err error) {
	if m.reporter == nil {
		slog.Error("Playback loop failed", "guild_id", guildID, "error", err)
		return
	}
	m.reporter.Report(guildID, "playback", err)
}
