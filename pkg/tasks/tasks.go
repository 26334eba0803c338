package tasks

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
)

// BestEffort runs fn inline and swallows its failure. Side effects like email
// sends and listing clones ride behind a committed financial state change, so
// their errors are logged and never propagated.
func BestEffort(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logError(ctx, logg, name, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(ctx); err != nil {
		logError(ctx, logg, name, err)
	}
}

// BestEffortGroup runs each task in order, collecting failures into one logged
// error. Later tasks still run when earlier ones fail.
func BestEffortGroup(ctx context.Context, logg *logger.Logger, name string, fns ...func(context.Context) error) {
	var combined error
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					combined = multierr.Append(combined, fmt.Errorf("panic: %v", r))
				}
			}()
			combined = multierr.Append(combined, fn(ctx))
		}()
	}
	if combined != nil {
		logError(ctx, logg, name, combined)
	}
}

func logError(ctx context.Context, logg *logger.Logger, name string, err error) {
	if logg == nil {
		return
	}
	ctx = logg.WithField(ctx, "task", name)
	logg.Error(ctx, "best-effort task failed", err)
}
