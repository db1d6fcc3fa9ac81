package task

import (
	"context"
	"time"

	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/cleyfe/chaincare/internal/metrics"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute(ctx context.Context) error
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewManager 创建新的任务管理器
func NewManager() (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{scheduler: s, ctx: ctx, cancel: cancel}, nil
}

// Register 注册任务，同一任务不会并发执行
func (m *Manager) Register(job Job, startImmediately bool) error {
	opts := []gocron.JobOption{
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if startImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := m.scheduler.NewJob(job.GetSchedule(), gocron.NewTask(func() { m.run(job) }), opts...)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
		return err
	}
	logger.Info("Registered job %s", job.GetName())
	return nil
}

func (m *Manager) run(job Job) {
	start := time.Now()
	err := job.Execute(m.ctx)
	metrics.RecordJobRun(job.GetName(), time.Since(start), err)
	if err != nil {
		logger.Error("Job %s failed: %v", job.GetName(), err)
		return
	}
	logger.Debug("Job %s completed in %s", job.GetName(), time.Since(start))
}

// Start 启动调度器
func (m *Manager) Start() {
	m.scheduler.Start()
	logger.Info("Task manager started successfully")
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	m.cancel()
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}

func interval(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
