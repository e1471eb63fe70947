package playback

import (
	"context"
	"sync"
	"time"

	"guild-jukebox/internal/core/domain"
	"guild-jukebox/internal/core/ports"
)

type mockConn struct {
	channelID string

	mu          sync.Mutex
	frames      int
	disconnects int
	sendFunc    func(ctx context.Context, frame []byte) error

	// entering and release, when set, hold Disconnect until released.
	entering chan struct{}
	release  chan struct{}
}

func (m *mockConn) ChannelID() string            { return m.channelID }
func (m *mockConn) Speaking(speaking bool) error { return nil }

func (m *mockConn) Send(ctx context.Context, frame []byte) error {
	m.mu.Lock()
	m.frames++
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(ctx, frame)
	}
	return nil
}

func (m *mockConn) Disconnect() error {
	if m.entering != nil {
		m.entering <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects++
	return nil
}

func (m *mockConn) Disconnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnects
}

// sharedConnJoin hands back the guild's existing connection until it has
// been disconnected, the way a gateway does.
func sharedConnJoin(newConn func(channelID string) *mockConn) func(ctx context.Context, guildID, channelID string) (ports.VoiceConn, error) {
	conns := make(map[string]*mockConn)
	return func(ctx context.Context, guildID, channelID string) (ports.VoiceConn, error) {
		if c, ok := conns[guildID]; ok && c.Disconnects() == 0 {
			return c, nil
		}
		c := newConn(channelID)
		conns[guildID] = c
		return c, nil
	}
}

type mockTransport struct {
	mu       sync.Mutex
	joins    int
	conns    []*mockConn
	delay    time.Duration
	joinFunc func(ctx context.Context, guildID, channelID string) (ports.VoiceConn, error)
}

func (m *mockTransport) Join(ctx context.Context, guildID, channelID string) (ports.VoiceConn, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.joins++

	if m.joinFunc != nil {
		return m.joinFunc(ctx, guildID, channelID)
	}

	conn := &mockConn{channelID: channelID}
	m.conns = append(m.conns, conn)
	return conn, nil
}

func (m *mockTransport) Joins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joins
}

func (m *mockTransport) LastConn() *mockConn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.conns) == 0 {
		return nil
	}
	return m.conns[len(m.conns)-1]
}

// mockStreamer reports each started source and, by default, blocks until
// the track is skipped or the session closes.
type mockStreamer struct {
	started    chan string
	streamFunc func(ctx context.Context, source string, sink ports.FrameSink) error
}

func newMockStreamer() *mockStreamer {
	return &mockStreamer{started: make(chan string, 16)}
}

func (m *mockStreamer) Stream(ctx context.Context, source string, sink ports.FrameSink) error {
	m.started <- source
	if m.streamFunc != nil {
		return m.streamFunc(ctx, source, sink)
	}
	<-ctx.Done()
	return ctx.Err()
}

type mockHistory struct {
	records chan domain.PlayRecord
}

func (m *mockHistory) RecordPlay(ctx context.Context, record domain.PlayRecord) error {
	m.records <- record
	return nil
}

type mockNotifier struct {
	mu      sync.Mutex
	sources []string
}

func (m *mockNotifier) NotifyError(guildID, source, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, source)
	return nil
}

func (m *mockNotifier) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sources...)
}
