package story

import (
	"context"
	"log/slog"
	"time"
)

// RunPurger calls Purge every interval until ctx is done.
func (s *Service) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Purge(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.ErrorContext(ctx, "failed to purge expired stories", slog.Any("error", err))
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "purged expired stories", slog.Int64("count", n))
			}
		}
	}
}
