package app

import (
	"context"

	auth "github.com/goliatone/go-leave-auth"
	"github.com/goliatone/go-leave-auth/activitymap"
	"github.com/goliatone/go-print"
)

// NewLogActivitySink writes every activity event to logger as a normalized
// JSON record.
func NewLogActivitySink(logger auth.Logger) auth.ActivitySink {
	return auth.ActivitySinkFunc(func(_ context.Context, event auth.ActivityEvent) error {
		record := activitymap.Normalize(event)
		logger.Info("activity %s", print.MaybePrettyJSON(record))
		return nil
	})
}
