package task

import (
	"context"
	"time"

	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// Poller 链上事件轮询，由 *monitor.EventMonitor 实现
type Poller interface {
	Poll(ctx context.Context) (int, error)
}

// ChainMonitorJob 金库事件监控任务
type ChainMonitorJob struct {
	monitor  Poller
	interval time.Duration
}

func NewChainMonitorJob(monitor Poller, seconds int) *ChainMonitorJob {
	return &ChainMonitorJob{monitor: monitor, interval: interval(seconds, 60)}
}

func (j *ChainMonitorJob) GetName() string {
	return "chain_monitor"
}

func (j *ChainMonitorJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *ChainMonitorJob) Execute(ctx context.Context) error {
	stored, err := j.monitor.Poll(ctx)
	if err != nil {
		return err
	}
	if stored > 0 {
		logger.Info("Chain monitor stored %d vault events", stored)
	}
	return nil
}
