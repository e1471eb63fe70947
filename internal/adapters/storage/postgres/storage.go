package postgres

import (
	"context"
	"errors"
	"fmt"

	"guild-jukebox/internal/adapters/storage/postgres/db"
	"guild-jukebox/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
	q    *db.Queries
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{
		pool: pool,
		q:    db.New(pool),
	}

	if err := store.q.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// -- Guild Settings Methods --

// GetGuildSettings returns the stored settings, or defaults when the guild
// has never been configured.
func (s *PostgresStore) GetGuildSettings(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	row, err := s.q.GetGuildSettings(ctx, guildID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.GuildSettings{GuildID: guildID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get guild settings: %w", err)
	}

	return &domain.GuildSettings{
		GuildID:  row.GuildID,
		DJRoleID: row.DjRoleID.String,
	}, nil
}

func (s *PostgresStore) SetDJRole(ctx context.Context, guildID, roleID string) error {
	return s.q.SetDJRole(ctx, db.SetDJRoleParams{
		GuildID:  guildID,
		DjRoleID: pgtype.Text{String: roleID, Valid: roleID != ""},
	})
}

// -- Play History Methods --

func (s *PostgresStore) RecordPlay(ctx context.Context, record domain.PlayRecord) error {
	return s.q.InsertPlayHistory(ctx, db.InsertPlayHistoryParams{
		GuildID:     record.GuildID,
		Url:         record.URL,
		Title:       record.Title,
		RequestedBy: record.RequestedBy,
		PlayedAt:    pgtype.Timestamptz{Time: record.PlayedAt, Valid: true},
	})
}

func (s *PostgresStore) RecentPlays(ctx context.Context, guildID string, limit int) ([]domain.PlayRecord, error) {
	rows, err := s.q.ListRecentPlays(ctx, db.ListRecentPlaysParams{
		GuildID: guildID,
		Limit:   int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list recent plays: %w", err)
	}

	result := make([]domain.PlayRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.PlayRecord{
			GuildID:     row.GuildID,
			URL:         row.Url,
			Title:       row.Title,
			RequestedBy: row.RequestedBy,
			PlayedAt:    row.PlayedAt.Time,
		})
	}
	return result, nil
}

// -- Command Log Methods --

func (s *PostgresStore) LogCommand(ctx context.Context, entry domain.CommandLog) error {
	return s.q.InsertCommandLog(ctx, db.InsertCommandLogParams{
		GuildID:    entry.GuildID,
		ChannelID:  entry.ChannelID,
		UserID:     entry.UserID,
		Command:    entry.Command,
		Status:     string(entry.Status),
		DurationMs: entry.Duration.Milliseconds(),
		CreatedAt:  pgtype.Timestamptz{Time: entry.CreatedAt, Valid: true},
	})
}
