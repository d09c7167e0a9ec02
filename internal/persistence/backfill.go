package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/directory"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

// BackfillLegacyBindings derives facility and work-area bindings for
// accounts imported from the old system, where both were encoded in
// the username ("T700 EL"). Runs once at startup when enabled;
// usernames that do not parse are logged and left for manual binding.
func BackfillLegacyBindings(ctx context.Context, actors repository.ActorRepository, logger *zap.Logger) error {
	unbound, err := actors.ListUnbound(ctx)
	if err != nil {
		return err
	}

	var bound, skipped int
	for _, actor := range unbound {
		facility, area, ok := directory.ParseLegacyUsername(actor.Username)
		if !ok {
			skipped++
			logger.Warn("legacy username did not parse",
				zap.String("actor_id", actor.ID),
				zap.String("username", actor.Username))
			continue
		}
		if err := actors.UpdateBinding(ctx, actor.ID, facility, area); err != nil {
			return err
		}
		bound++
	}

	if bound > 0 || skipped > 0 {
		logger.Info("legacy binding backfill finished",
			zap.Int("bound", bound),
			zap.Int("skipped", skipped))
	}
	return nil
}
