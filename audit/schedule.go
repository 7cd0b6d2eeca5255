package audit

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// ParseSchedule parses a standard cron schedule such as "*/5 * * * *" or
// "@every 10m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid recheck schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// RunScheduled re-assembles the manifest on a standard cron schedule until
// ctx is done. It covers filesystems that deliver no change notifications.
func (w *ManifestWatcher) RunScheduled(ctx context.Context, spec string) error {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return err
	}

	c := cron.New()
	c.Schedule(schedule, cron.FuncJob(w.reassemble))
	c.Start()
	w.logger.Debug("Scheduled manifest recheck", "path", w.path, "schedule", spec)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
