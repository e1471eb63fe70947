package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"guild-jukebox/internal/adapters/metrics"
	"guild-jukebox/internal/core/domain"
	"guild-jukebox/internal/core/ports"
	"guild-jukebox/internal/fault"
)

const historyTimeout = 5 * time.Second

// Session is the live audio handle of a single guild. It owns the voice
// connection, the pending queue and the goroutine that streams tracks.
type Session struct {
	guildID string
	conn    ports.VoiceConn
	manager *Manager
	created time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// disconnected is closed once the voice connection has been released.
	disconnected chan struct{}

	mu        sync.Mutex
	queue     []domain.Track
	current   *domain.Track
	skipTrack context.CancelFunc
	paused    bool
	resumed   chan struct{}
	closed    bool
}

// Snapshot is a point-in-time view of a session used for rendering.
type Snapshot struct {
	GuildID   string
	ChannelID string
	Current   *domain.Track
	Queue     []domain.Track
	Paused    bool
}

func newSession(guildID string, conn ports.VoiceConn, m *Manager) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	resumed := make(chan struct{})
	close(resumed)

	return &Session{
		guildID:      guildID,
		conn:         conn,
		manager:      m,
		created:      time.Now(),
		ctx:          ctx,
		cancel:       cancel,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		disconnected: make(chan struct{}),
		resumed:      resumed,
	}
}

func (s *Session) GuildID() string { return s.guildID }

func (s *Session) ChannelID() string { return s.conn.ChannelID() }

// Done is closed once the playback loop has exited and the session has
// been detached from its manager.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		GuildID:   s.guildID,
		ChannelID: s.conn.ChannelID(),
		Queue:     append([]domain.Track(nil), s.queue...),
		Paused:    s.paused,
	}
	if s.current != nil {
		current := *s.current
		snap.Current = &current
	}
	return snap
}

// enqueue appends a track and returns its position. Zero means the track
// starts immediately.
func (s *Session) enqueue(track domain.Track) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSessionClosed
	}

	s.queue = append(s.queue, track)
	pos := len(s.queue)
	if s.current == nil {
		pos--
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return pos, nil
}

func (s *Session) pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNothingPlaying
	}
	if s.paused {
		return ErrAlreadyPaused
	}

	s.paused = true
	s.resumed = make(chan struct{})
	return nil
}

func (s *Session) resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paused {
		return ErrNotPaused
	}
	s.unpauseLocked()
	return nil
}

func (s *Session) skip() (domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.Track{}, ErrNothingPlaying
	}

	skipped := *s.current
	if s.paused {
		s.unpauseLocked()
	}
	if s.skipTrack != nil {
		s.skipTrack()
	}
	return skipped, nil
}

func (s *Session) unpauseLocked() {
	s.paused = false
	close(s.resumed)
}

// close tears down the voice connection. It never waits for the playback
// loop, so it is safe to call from inside it.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.mu.Unlock()

		s.cancel()

		if err := s.conn.Speaking(false); err != nil {
			slog.Debug("Failed to clear speaking state", "guild_id", s.guildID, "error", err)
		}
		s.manager.noteLeave(s.guildID)
		if err := s.conn.Disconnect(); err != nil {
			slog.Warn("Failed to disconnect voice", "guild_id", s.guildID, "error", err)
		}
		close(s.disconnected)
	})
}

func (s *Session) run() {
	reason := "stopped"
	defer close(s.done)
	defer func() { s.manager.remove(s, reason) }()

	err := fault.Catch(func() error {
		reason = s.loop()
		return nil
	})
	if err != nil {
		reason = "panic"
		s.manager.report(s.guildID, err)
	}
}

// loop plays queued tracks until the session ends and returns why it ended.
func (s *Session) loop() string {
	for {
		track, trackCtx, ok := s.next()
		if !ok {
			if s.ctx.Err() != nil {
				return "stopped"
			}
			if s.waitIdle() {
				continue
			}
			if s.ctx.Err() != nil {
				return "stopped"
			}
			slog.Info("Session idle, leaving voice", "guild_id", s.guildID)
			return "idle"
		}

		err := s.play(trackCtx, track)
		if errors.Is(err, ports.ErrVoiceTransport) {
			slog.Warn("Voice transport failed, destroying session", "guild_id", s.guildID, "error", err)
			return "transport"
		}
		if s.ctx.Err() != nil {
			return "stopped"
		}
	}
}

// next pops the head of the queue and makes it current.
func (s *Session) next() (domain.Track, context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.skipTrack != nil {
		s.skipTrack()
		s.skipTrack = nil
	}

	if s.closed || len(s.queue) == 0 {
		s.current = nil
		if s.paused {
			s.unpauseLocked()
		}
		return domain.Track{}, nil, false
	}

	track := s.queue[0]
	s.queue = s.queue[1:]
	s.current = &track

	trackCtx, cancel := context.WithCancel(s.ctx)
	s.skipTrack = cancel
	return track, trackCtx, true
}

// waitIdle blocks until a track is enqueued (true) or the session is closed
// or has been idle for too long (false).
func (s *Session) waitIdle() bool {
	var expired <-chan time.Time
	if timeout := s.manager.idleTimeout; timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-s.wake:
		return true
	case <-s.ctx.Done():
		return false
	case <-expired:
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.queue) > 0 {
			return true
		}
		s.closed = true
		return false
	}
}

func (s *Session) play(ctx context.Context, track domain.Track) error {
	s.recordPlay(track)

	if err := s.conn.Speaking(true); err != nil {
		slog.Warn("Failed to set speaking state", "guild_id", s.guildID, "error", err)
	}
	defer func() {
		if err := s.conn.Speaking(false); err != nil {
			slog.Debug("Failed to clear speaking state", "guild_id", s.guildID, "error", err)
		}
	}()

	source := track.StreamURL
	if source == "" {
		source = track.URL
	}

	slog.Info("Playing track", "guild_id", s.guildID, "title", track.DisplayTitle())
	err := s.manager.streamer.Stream(ctx, source, gatedSink{s})

	switch {
	case err == nil:
		metrics.TracksPlayed.WithLabelValues("completed").Inc()
	case errors.Is(err, ports.ErrVoiceTransport):
		metrics.TracksPlayed.WithLabelValues("failed").Inc()
		return err
	case errors.Is(err, context.Canceled):
		metrics.TracksPlayed.WithLabelValues("skipped").Inc()
	default:
		metrics.TracksPlayed.WithLabelValues("failed").Inc()
		slog.Warn("Track stream failed, skipping", "guild_id", s.guildID, "url", track.URL, "error", err)
	}
	return nil
}

func (s *Session) recordPlay(track domain.Track) {
	if s.manager.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	err := s.manager.history.RecordPlay(ctx, domain.PlayRecord{
		GuildID:     s.guildID,
		URL:         track.URL,
		Title:       track.DisplayTitle(),
		RequestedBy: track.RequestedBy,
		PlayedAt:    time.Now(),
	})
	if err != nil {
		slog.Warn("Failed to record play history", "guild_id", s.guildID, "error", err)
	}
}

func (s *Session) waitUnpaused(ctx context.Context) error {
	s.mu.Lock()
	resumed := s.resumed
	s.mu.Unlock()

	select {
	case <-resumed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// gatedSink holds frames back while the session is paused.
type gatedSink struct {
	s *Session
}

func (g gatedSink) Send(ctx context.Context, frame []byte) error {
	if err := g.s.waitUnpaused(ctx); err != nil {
		return err
	}
	return g.s.conn.Send(ctx, frame)
}
