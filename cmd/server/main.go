package main

import (
	"context"
	"errors"
	"io"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cleyfe/chaincare/internal/cache"
	"github.com/cleyfe/chaincare/internal/chain"
	"github.com/cleyfe/chaincare/internal/config"
	"github.com/cleyfe/chaincare/internal/database"
	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/cleyfe/chaincare/internal/logic"
	"github.com/cleyfe/chaincare/internal/monitor"
	"github.com/cleyfe/chaincare/internal/router"
	"github.com/cleyfe/chaincare/internal/task"
	"github.com/cleyfe/chaincare/internal/vault"
)

func main() {
	// 加载配置
	cfg := config.Load()
	if err := logger.Setup(cfg.Log); err != nil {
		logger.Fatal("Failed to set up logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.Init(cfg.Database, cfg.Log.Level)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	store, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to initialize cache: %v", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	apy := vault.NewAPYClient(cfg.APY, store)

	tasks, err := task.NewManager()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}
	if err := tasks.Register(task.NewAPYRefreshJob(apy, cfg.Task.APYRefreshInterval), true); err != nil {
		logger.Fatal("Failed to register APY refresh job: %v", err)
	}
	if err := tasks.Register(task.NewPointsReconcileJob(logic.NewRewardsLogic(db), cfg.Task.ReconcileInterval), false); err != nil {
		logger.Fatal("Failed to register reconcile job: %v", err)
	}

	deps := router.Deps{DB: db, Config: cfg, Store: store, APY: apy}

	// 初始化链与金库
	if cfg.Chain.Enabled {
		manager, err := chain.NewManager(ctx, cfg.Chain)
		if err != nil {
			logger.Fatal("Failed to initialize chain manager: %v", err)
		}
		defer manager.Close()

		vaultContract, err := manager.GetContract(chain.VaultContract)
		if err != nil {
			logger.Fatal("Vault contract not configured: %v", err)
		}
		tokenContract, err := manager.GetContract(chain.TokenContract)
		if err != nil {
			logger.Fatal("Token contract not configured: %v", err)
		}

		var signer vault.Signer
		if cfg.Chain.PrivateKey != "" {
			keySigner, err := vault.NewKeySigner(cfg.Chain.PrivateKey, big.NewInt(cfg.Chain.ChainId))
			if err != nil {
				logger.Fatal("Failed to load server signer: %v", err)
			}
			logger.Info("Server signer %s enabled for vault operations", keySigner.Address().Hex())
			signer = keySigner
		}

		client := manager.GetClient()
		deps.Vault = vault.New(client, signer, vaultContract, tokenContract, cfg.Chain.Decimals)
		deps.Chain = manager

		eventMonitor, err := monitor.NewEventMonitor(client, []*chain.Contract{vaultContract}, logic.NewEventLogic(db), monitor.Options{
			BatchSize:     int64(cfg.Task.MonitorBatchSize),
			Workers:       cfg.Task.MonitorWorkers,
			Confirmations: int64(cfg.Chain.Confirmations),
			Decimals:      cfg.Chain.Decimals,
			BatchDelay:    500 * time.Millisecond,
		})
		if err != nil {
			logger.Fatal("Failed to create event monitor: %v", err)
		}
		defer eventMonitor.Close()

		if err := tasks.Register(task.NewChainMonitorJob(eventMonitor, cfg.Task.MonitorInterval), true); err != nil {
			logger.Fatal("Failed to register chain monitor job: %v", err)
		}
	} else {
		logger.Warn("Chain integration disabled; vault endpoints will return 503")
	}

	// 初始化路由
	r := router.Setup(deps)

	// 启动定时任务
	tasks.Start()
	defer tasks.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
}
