package storage

import (
	"context"
	"errors"
	"slices"

	"github.com/jackc/pgx/v5"
)

type UserSettings struct {
	UserID          string   `db:"user_id"`
	Disabled        bool     `db:"disabled"`
	Timezone        int      `db:"timezone"`
	BlockedUsers    []string `db:"blocked_users"`
	BlockedChannels []string `db:"blocked_channels"`
}

// IsBlockedUser reports whether the author is on the block list.
func (s UserSettings) IsBlockedUser(userID string) bool {
	return slices.Contains(s.BlockedUsers, userID)
}

// IsBlockedChannel reports whether any of the given channel ids (the channel
// itself and its parent category) is on the block list.
func (s UserSettings) IsBlockedChannel(channelIDs ...string) bool {
	for _, id := range channelIDs {
		if id != "" && slices.Contains(s.BlockedChannels, id) {
			return true
		}
	}
	return false
}

// GetSettings returns the stored settings, or defaults when no row exists.
func (s *Store) GetSettings(ctx context.Context, userID string) (UserSettings, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, disabled, timezone, blocked_users, blocked_channels
		FROM settings
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return UserSettings{}, err
	}
	settings, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[UserSettings])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserSettings{UserID: userID}, nil
		}
		return UserSettings{}, err
	}
	return settings, nil
}

func (s *Store) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (user_id, disabled)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET disabled = excluded.disabled
	`, userID, disabled)
	return err
}

func (s *Store) SetTimezone(ctx context.Context, userID string, offset int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (user_id, timezone)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET timezone = excluded.timezone
	`, userID, offset)
	return err
}

// BlockUser adds target to the user's blocked users. It reports false when the
// target was already blocked.
func (s *Store) BlockUser(ctx context.Context, userID, targetID string) (bool, error) {
	return s.addBlocked(ctx, "blocked_users", userID, targetID)
}

func (s *Store) UnblockUser(ctx context.Context, userID, targetID string) (bool, error) {
	return s.removeBlocked(ctx, "blocked_users", userID, targetID)
}

func (s *Store) BlockChannel(ctx context.Context, userID, channelID string) (bool, error) {
	return s.addBlocked(ctx, "blocked_channels", userID, channelID)
}

func (s *Store) UnblockChannel(ctx context.Context, userID, channelID string) (bool, error) {
	return s.removeBlocked(ctx, "blocked_channels", userID, channelID)
}

func (s *Store) ClearBlocked(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE settings
		SET blocked_users = '{}', blocked_channels = '{}'
		WHERE user_id = $1
	`, userID)
	return err
}

// column is one of the two fixed array column names above, never user input.
func (s *Store) addBlocked(ctx context.Context, column, userID, targetID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO settings (user_id, `+column+`)
		VALUES ($1, ARRAY[$2::TEXT])
		ON CONFLICT (user_id) DO UPDATE
		SET `+column+` = array_append(settings.`+column+`, $2::TEXT)
		WHERE NOT ($2::TEXT = ANY(settings.`+column+`))
	`, userID, targetID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) removeBlocked(ctx context.Context, column, userID, targetID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE settings
		SET `+column+` = array_remove(`+column+`, $2::TEXT)
		WHERE user_id = $1 AND $2::TEXT = ANY(`+column+`)
	`, userID, targetID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
