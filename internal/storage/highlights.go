package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

type Highlight struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	UserID    string
	Word      string
	InvokedAt time.Time
}

var highlightColumns = []string{
	"guild_id", "channel_id", "message_id", "author_id", "user_id", "word", "invoked_at",
}

// InsertHighlights writes the batch with a single COPY.
func (s *Store) InsertHighlights(ctx context.Context, highlights []Highlight) error {
	if len(highlights) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"highlights"},
		highlightColumns,
		pgx.CopyFromSlice(len(highlights), func(i int) ([]any, error) {
			h := highlights[i]
			return []any{h.GuildID, h.ChannelID, h.MessageID, h.AuthorID, h.UserID, h.Word, h.InvokedAt.UTC()}, nil
		}),
	)
	return err
}

// HighlightCounts returns the number of delivered highlights overall and in
// the given guild.
func (s *Store) HighlightCounts(ctx context.Context, guildID string) (total int64, guild int64, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE guild_id = $1)
		FROM highlights
	`, guildID).Scan(&total, &guild)
	return total, guild, err
}

// TopWords returns the most frequently delivered words in a guild.
func (s *Store) TopWords(ctx context.Context, guildID string, limit int) ([]WordCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT word, COUNT(*) AS count
		FROM highlights
		WHERE guild_id = $1
		GROUP BY word
		ORDER BY COUNT(*) DESC, word
		LIMIT $2
	`, guildID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[WordCount])
}

type WordCount struct {
	Word  string `db:"word"`
	Count int64  `db:"count"`
}
