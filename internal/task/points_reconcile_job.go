package task

import (
	"context"
	"time"

	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// Reconciler 积分对账，由 *logic.RewardsLogic 实现
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// PointsReconcileJob 按积分流水修复积分汇总
type PointsReconcileJob struct {
	rewards  Reconciler
	interval time.Duration
}

func NewPointsReconcileJob(rewards Reconciler, seconds int) *PointsReconcileJob {
	return &PointsReconcileJob{rewards: rewards, interval: interval(seconds, 3600)}
}

func (j *PointsReconcileJob) GetName() string {
	return "points_reconcile"
}

func (j *PointsReconcileJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *PointsReconcileJob) Execute(ctx context.Context) error {
	repaired, err := j.rewards.Reconcile(ctx)
	if err != nil {
		return err
	}
	if repaired > 0 {
		logger.Warn("Points reconciliation repaired %d wallets", repaired)
	}
	return nil
}
