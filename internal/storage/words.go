package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Word struct {
	UserID  string `db:"user_id"`
	GuildID string `db:"guild_id"`
	Word    string `db:"word"`
}

func (s *Store) AddWord(ctx context.Context, word Word) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO words (user_id, guild_id, word)
		VALUES ($1, $2, $3)
	`, word.UserID, word.GuildID, word.Word)
	if isUniqueViolation(err) {
		return ErrDuplicateWord
	}
	return err
}

func (s *Store) RemoveWord(ctx context.Context, word Word) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM words
		WHERE user_id = $1 AND guild_id = $2 AND word = $3
	`, word.UserID, word.GuildID, word.Word)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWordNotFound
	}
	return nil
}

// ClearWords deletes the user's words in a guild and returns what was removed.
func (s *Store) ClearWords(ctx context.Context, userID, guildID string) ([]Word, error) {
	rows, err := s.pool.Query(ctx, `
		DELETE FROM words
		WHERE user_id = $1 AND guild_id = $2
		RETURNING user_id, guild_id, word
	`, userID, guildID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Word])
}

func (s *Store) ListWords(ctx context.Context, userID, guildID string) ([]Word, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, guild_id, word
		FROM words
		WHERE user_id = $1 AND guild_id = $2
		ORDER BY word
	`, userID, guildID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Word])
}

func (s *Store) AllWords(ctx context.Context) ([]Word, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id, guild_id, word FROM words`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Word])
}

// WordOwners returns every user registered for word in guild.
func (s *Store) WordOwners(ctx context.Context, guildID, word string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT user_id
		FROM words
		WHERE guild_id = $1 AND word = $2
	`, guildID, word)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

// TransferWords copies the user's words from one guild into another, skipping
// words already present in the destination. It returns the inserted rows.
func (s *Store) TransferWords(ctx context.Context, userID, fromGuildID, toGuildID string) ([]Word, error) {
	rows, err := s.pool.Query(ctx, `
		INSERT INTO words (user_id, guild_id, word)
		SELECT src.user_id, $3, src.word
		FROM words AS src
		WHERE src.user_id = $1 AND src.guild_id = $2
		ON CONFLICT (user_id, guild_id, word) DO NOTHING
		RETURNING user_id, guild_id, word
	`, userID, fromGuildID, toGuildID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Word])
}

// Forget deletes every word and the settings row of a user in one transaction.
func (s *Store) Forget(ctx context.Context, userID string) ([]Word, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		DELETE FROM words
		WHERE user_id = $1
		RETURNING user_id, guild_id, word
	`, userID)
	if err != nil {
		return nil, err
	}
	removed, err := pgx.CollectRows(rows, pgx.RowToStructByName[Word])
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM settings WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM timers WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return removed, nil
}
