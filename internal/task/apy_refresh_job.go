package task

import (
	"context"
	"time"

	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// APYRefresher 刷新收益率缓存，由 *vault.APYClient 实现
type APYRefresher interface {
	Refresh(ctx context.Context) float64
}

// APYRefreshJob 收益率刷新任务
type APYRefreshJob struct {
	apy      APYRefresher
	interval time.Duration
}

func NewAPYRefreshJob(apy APYRefresher, seconds int) *APYRefreshJob {
	return &APYRefreshJob{apy: apy, interval: interval(seconds, 300)}
}

func (j *APYRefreshJob) GetName() string {
	return "apy_refresh"
}

func (j *APYRefreshJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 数据源不可用时 Refresh 自行回退，任务本身不报错
func (j *APYRefreshJob) Execute(ctx context.Context) error {
	apy := j.apy.Refresh(ctx)
	logger.Debug("APY refreshed: %.4f", apy)
	return nil
}
