package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Cank256/market-mail/internal/defra"
)

// Initialize applies every schema. Collections that already exist are
// skipped, so it is safe to call on each start.
func Initialize(ctx context.Context, client *defra.Client, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	schemas, err := All()
	if err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}

	for _, s := range schemas {
		err := client.AddSchema(ctx, s.SDL)
		switch {
		case errors.Is(err, defra.ErrSchemaExists):
			logger.Debug("schema already exists", "name", s.Name)
		case err != nil:
			return fmt.Errorf("failed to add schema %s: %w", s.Name, err)
		default:
			logger.Info("schema added", "name", s.Name)
		}
	}
	return nil
}
