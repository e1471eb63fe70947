package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getGuildSettings = `-- name: GetGuildSettings :one
SELECT guild_id, dj_role_id FROM guild_settings
WHERE guild_id = $1
`

type GetGuildSettingsRow struct {
	GuildID  string
	DjRoleID pgtype.Text
}

func (q *Queries) GetGuildSettings(ctx context.Context, guildID string) (GetGuildSettingsRow, error) {
	row := q.db.QueryRow(ctx, getGuildSettings, guildID)
	var i GetGuildSettingsRow
	err := row.Scan(&i.GuildID, &i.DjRoleID)
	return i, err
}

const setDJRole = `-- name: SetDJRole :exec
INSERT INTO guild_settings (guild_id, dj_role_id, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (guild_id) DO UPDATE
SET dj_role_id = EXCLUDED.dj_role_id, updated_at = NOW()
`

type SetDJRoleParams struct {
	GuildID  string
	DjRoleID pgtype.Text
}

func (q *Queries) SetDJRole(ctx context.Context, arg SetDJRoleParams) error {
	_, err := q.db.Exec(ctx, setDJRole, arg.GuildID, arg.DjRoleID)
	return err
}

const insertPlayHistory = `-- name: InsertPlayHistory :exec
INSERT INTO play_history (guild_id, url, title, requested_by, played_at)
VALUES ($1, $2, $3, $4, $5)
`

type InsertPlayHistoryParams struct {
	GuildID     string
	Url         string
	Title       string
	RequestedBy string
	PlayedAt    pgtype.Timestamptz
}

func (q *Queries) InsertPlayHistory(ctx context.Context, arg InsertPlayHistoryParams) error {
	_, err := q.db.Exec(ctx, insertPlayHistory,
		arg.GuildID,
		arg.Url,
		arg.Title,
		arg.RequestedBy,
		arg.PlayedAt,
	)
	return err
}

const listRecentPlays = `-- name: ListRecentPlays :many
SELECT guild_id, url, title, requested_by, played_at FROM play_history
WHERE guild_id = $1
ORDER BY played_at DESC
LIMIT $2
`

type ListRecentPlaysParams struct {
	GuildID string
	Limit   int32
}

type ListRecentPlaysRow struct {
	GuildID     string
	Url         string
	Title       string
	RequestedBy string
	PlayedAt    pgtype.Timestamptz
}

func (q *Queries) ListRecentPlays(ctx context.Context, arg ListRecentPlaysParams) ([]ListRecentPlaysRow, error) {
	rows, err := q.db.Query(ctx, listRecentPlays, arg.GuildID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRecentPlaysRow
	for rows.Next() {
		var i ListRecentPlaysRow
		if err := rows.Scan(
			&i.GuildID,
			&i.Url,
			&i.Title,
			&i.RequestedBy,
			&i.PlayedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertCommandLog = `-- name: InsertCommandLog :exec
INSERT INTO command_log (guild_id, channel_id, user_id, command, status, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type InsertCommandLogParams struct {
	GuildID    string
	ChannelID  string
	UserID     string
	Command    string
	Status     string
	DurationMs int64
	CreatedAt  pgtype.Timestamptz
}

func (q *Queries) InsertCommandLog(ctx context.Context, arg InsertCommandLogParams) error {
	_, err := q.db.Exec(ctx, insertCommandLog,
		arg.GuildID,
		arg.ChannelID,
		arg.UserID,
		arg.Command,
		arg.Status,
		arg.DurationMs,
		arg.CreatedAt,
	)
	return err
}
