package tasks

import (
	"github.com/slipstream/releasedecider/internal/config"
	"github.com/slipstream/releasedecider/internal/pending"
	"github.com/slipstream/releasedecider/internal/scheduler"
)

const PendingReevaluationTaskID = "pending-reevaluation"

// RegisterPendingReevaluationTask registers the pending release
// re-evaluation task with the scheduler.
func RegisterPendingReevaluationTask(sched *scheduler.Scheduler, service *pending.Service, cfg *config.PendingConfig) error {
	if !cfg.Enabled {
		return nil
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          PendingReevaluationTaskID,
		Name:        "Pending Release Re-evaluation",
		Description: "Re-run temporarily rejected releases through the decision engine",
		Cron:        cfg.Cron,
		RunOnStart:  cfg.RunOnStart,
		Func:        service.Run,
	})
}
