package services

import (
	"context"
	"fmt"
	"sync"

	"guild-jukebox/internal/core/domain"
	"guild-jukebox/internal/core/ports"
)

const maxHistoryLimit = 25

// SettingsService fronts the repository for guild settings and play
// history. Settings are cached because every dispatched command reads them.
type SettingsService struct {
	repo ports.Repository

	mu    sync.RWMutex
	cache map[string]domain.GuildSettings
}

func NewSettingsService(repo ports.Repository) *SettingsService {
	return &SettingsService{
		repo:  repo,
		cache: make(map[string]domain.GuildSettings),
	}
}

func (s *SettingsService) GetSettings(ctx context.Context, guildID string) (domain.GuildSettings, error) {
	s.mu.RLock()
	settings, ok := s.cache[guildID]
	s.mu.RUnlock()
	if ok {
		return settings, nil
	}

	loaded, err := s.repo.GetGuildSettings(ctx, guildID)
	if err != nil {
		return domain.GuildSettings{GuildID: guildID}, err
	}

	settings = domain.GuildSettings{GuildID: guildID}
	if loaded != nil {
		settings = *loaded
	}

	s.mu.Lock()
	s.cache[guildID] = settings
	s.mu.Unlock()

	return settings, nil
}

// SetDJRole stores roleID as the guild's DJ role. An empty roleID clears it.
func (s *SettingsService) SetDJRole(ctx context.Context, guildID, roleID string) error {
	if err := s.repo.SetDJRole(ctx, guildID, roleID); err != nil {
		s.invalidate(guildID)
		return fmt.Errorf("set dj role: %w", err)
	}

	s.mu.Lock()
	s.cache[guildID] = domain.GuildSettings{GuildID: guildID, DJRoleID: roleID}
	s.mu.Unlock()
	return nil
}

func (s *SettingsService) RecentPlays(ctx context.Context, guildID string, limit int) ([]domain.PlayRecord, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.RecentPlays(ctx, guildID, limit)
}

func (s *SettingsService) LogCommand(ctx context.Context, entry domain.CommandLog) error {
	return s.repo.LogCommand(ctx, entry)
}

func (s *SettingsService) invalidate(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, guildID)
}
