package commands

import (
	"context"
	"errors"
	"sync"
	"time"

	"guild-jukebox/internal/core/domain"
	"guild-jukebox/internal/core/services/playback"

	"github.com/bwmarrin/discordgo"
)

type mockSession struct {
	mu       sync.Mutex
	responds []*discordgo.InteractionResponse
	edits    []*discordgo.WebhookEdit
	sends    []*discordgo.MessageSend
	typing   int
	statuses []string

	respondErr error
	statusErr  error
}

func (m *mockSession) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, opts ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responds = append(m.responds, resp)
	return m.respondErr
}

func (m *mockSession) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, opts ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, edit)
	return &discordgo.Message{}, nil
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, opts ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, data)
	return &discordgo.Message{}, nil
}

func (m *mockSession) ChannelTyping(channelID string, opts ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing++
	return nil
}

func (m *mockSession) UpdateGameStatus(idle int, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, name)
	return m.statusErr
}

func (m *mockSession) HeartbeatLatency() time.Duration {
	return 42 * time.Millisecond
}

// replies returns the embeds delivered as command replies, in order.
func (m *mockSession) replies() []*discordgo.MessageEmbed {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*discordgo.MessageEmbed
	for _, e := range m.edits {
		if e.Embeds != nil {
			out = append(out, *e.Embeds...)
		}
	}
	for _, r := range m.responds {
		if r.Data != nil {
			out = append(out, r.Data.Embeds...)
		}
	}
	for _, s := range m.sends {
		out = append(out, s.Embeds...)
	}
	return out
}

type mockState struct {
	guildName string
	voice     map[string]string
}

func (m *mockState) Guild(guildID string) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID, Name: m.guildName}, nil
}

func (m *mockState) VoiceState(guildID, userID string) (*discordgo.VoiceState, error) {
	ch, ok := m.voice[guildID+"/"+userID]
	if !ok {
		return nil, discordgo.ErrStateNotFound
	}
	return &discordgo.VoiceState{GuildID: guildID, UserID: userID, ChannelID: ch}, nil
}

type mockSettings struct {
	mu       sync.Mutex
	djRole   string
	getErr   error
	setErr   error
	plays    []domain.PlayRecord
	playsErr error
	setCalls []string
	logs     []domain.CommandLog
}

func (m *mockSettings) GetSettings(ctx context.Context, guildID string) (domain.GuildSettings, error) {
	if m.getErr != nil {
		return domain.GuildSettings{}, m.getErr
	}
	return domain.GuildSettings{GuildID: guildID, DJRoleID: m.djRole}, nil
}

func (m *mockSettings) LogCommand(ctx context.Context, entry domain.CommandLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
	return nil
}

func (m *mockSettings) SetDJRole(ctx context.Context, guildID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls = append(m.setCalls, roleID)
	return m.setErr
}

func (m *mockSettings) RecentPlays(ctx context.Context, guildID string, limit int) ([]domain.PlayRecord, error) {
	return m.plays, m.playsErr
}

func (m *mockSettings) statuses() []domain.CommandStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CommandStatus, len(m.logs))
	for i, l := range m.logs {
		out[i] = l.Status
	}
	return out
}

type mockPlayback struct {
	playFunc func(guildID, channelID string, track domain.Track) (int, error)
	err      error
	skipped  domain.Track
	snapshot playback.Snapshot
}

func (m *mockPlayback) Play(ctx context.Context, guildID, channelID string, track domain.Track) (*playback.Session, int, error) {
	if m.playFunc != nil {
		pos, err := m.playFunc(guildID, channelID, track)
		return nil, pos, err
	}
	return nil, 0, nil
}

func (m *mockPlayback) Pause(guildID string) error  { return m.err }
func (m *mockPlayback) Resume(guildID string) error { return m.err }
func (m *mockPlayback) Stop(guildID string) error   { return m.err }

func (m *mockPlayback) Skip(guildID string) (domain.Track, error) {
	return m.skipped, m.err
}

func (m *mockPlayback) Snapshot(guildID string) (playback.Snapshot, error) {
	return m.snapshot, m.err
}

type mockResolver struct {
	track *domain.Track
	err   error
}

func (m *mockResolver) Resolve(ctx context.Context, query string) (*domain.Track, error) {
	if m.err != nil {
		return nil, m.err
	}
	t := *m.track
	return &t, nil
}

var errBoom = errors.New("boom")

func makeInteraction(guildID, userID, name string, perms int64, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   guildID,
			ChannelID: "text-" + guildID,
			Member: &discordgo.Member{
				User:        &discordgo.User{ID: userID, Username: "user-" + userID},
				Permissions: perms,
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: opts,
			},
		},
	}
}

func makeMessage(guildID, userID, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "msg-1",
			GuildID:   guildID,
			ChannelID: "text-" + guildID,
			Content:   content,
			Author:    &discordgo.User{ID: userID, Username: "user-" + userID},
			Member:    &discordgo.Member{},
		},
	}
}

func option(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}
