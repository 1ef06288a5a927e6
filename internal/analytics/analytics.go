package analytics

import (
	"context"

	"highlight-bot/internal/storage"
)

type Source interface {
	HighlightCounts(ctx context.Context, guildID string) (int64, int64, error)
	TopWords(ctx context.Context, guildID string, limit int) ([]storage.WordCount, error)
}

type Service struct {
	store Source
}

func New(store Source) *Service {
	return &Service{store: store}
}

type Report struct {
	Total    int64
	InGuild  int64
	TopWords []storage.WordCount
}

func (s *Service) Report(ctx context.Context, guildID string) (Report, error) {
	total, inGuild, err := s.store.HighlightCounts(ctx, guildID)
	if err != nil {
		return Report{}, err
	}

	report := Report{Total: total, InGuild: inGuild}
	if guildID == "" {
		return report, nil
	}
	report.TopWords, err = s.store.TopWords(ctx, guildID, 5)
	if err != nil {
		return Report{}, err
	}
	return report, nil
}
