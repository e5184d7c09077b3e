package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ivofi20024w-art/in1bet-sub001/internal/config"
	betDB "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/repository/db"
	betDomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/domain"
	betUseCase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/bet/usecase"
	crashMachine "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/crash/machine"
	crashUseCase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/crash/usecase"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/scheduler"
	gatewayHttp "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/gateway/adapter/http"
	"github.com/ivofi20024w-art/in1bet-sub001/internal/modules/gateway/ws"
	historyRedis "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/history/repository/redis"
	minesUseCase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/mines/usecase"
	plinkoUseCase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/plinko/usecase"
	walletDomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet/domain"
	walletUseCase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wallet/usecase"
	wheelMachine "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wheel/machine"
	wheelUseCase "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/wheel/usecase"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/service"
)

func main() {
	pprofPort := flag.String("pprof-port", "", "Port to run pprof server on (e.g., 6060)")
	flag.Parse()

	// .env is optional, the environment wins either way
	_ = godotenv.Load()

	cfg := config.Load()

	logger.InitWithFile(cfg.Server.LogFile, cfg.Server.LogLevel, cfg.Server.LogFormat)
	defer logger.Flush()

	if *pprofPort != "" {
		go func() {
			addr := "localhost:" + *pprofPort
			logger.InfoGlobal().Str("addr", addr).Msg("📈 Starting pprof server")
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.ErrorGlobal().Err(err).Msg("Failed to start pprof server")
			}
		}()
	}

	fmt.Printf("🚀 Starting Casino Wagering Core... Logs are being written to %s (rotating)\n", cfg.Server.LogFile)
	logger.InfoGlobal().Msg("🎰 Starting Casino Wagering Core...")

	// 1. Infrastructure
	dbConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name)

	db, err := gorm.Open(postgres.Open(dbConnStr), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to get database instance")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to ping database")
	}

	if err := db.AutoMigrate(&walletDomain.Wallet{}, &walletDomain.Transaction{}, &betDomain.Bet{}); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to migrate schema")
	}
	logger.InfoGlobal().Msg("✅ Database connected")

	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to ping redis")
	}
	logger.InfoGlobal().Msg("✅ Redis connected")

	// 2. Wallet ledger and bet lifecycle
	ledgerUC := walletUseCase.NewLedgerUseCase(db)

	hooks := &service.Hooks{
		Jackpot:         service.LogJackpot{},
		Missions:        service.LogMissions{},
		Notifier:        service.LogNotifier{},
		BigWinThreshold: decimal.NewFromFloat(cfg.Games.BigWinThreshold),
	}

	betRepo := betDB.NewBetRepository(db)
	betUC := betUseCase.NewBetUseCase(
		ledgerUC,
		betRepo,
		hooks,
		decimal.NewFromFloat(cfg.Games.MinWager),
		decimal.NewFromFloat(cfg.Games.MaxWager),
	)
	logger.InfoGlobal().Msg("✅ Wallet and bet modules initialized")

	// Repair wins that flipped before their payout landed in a previous run.
	if repaired, err := betUC.ReconcileUnpaidWins(context.Background()); err != nil {
		logger.ErrorGlobal().Err(err).Msg("Unpaid win reconciliation failed")
	} else if repaired > 0 {
		logger.InfoGlobal().Int("repaired", repaired).Msg("💰 Reconciled unpaid wins")
	}

	// 3. Gateway (initialize early so engines can broadcast)
	wsManager := ws.NewManager()
	go wsManager.Run()

	// 4. Game engines
	history := historyRedis.NewHistoryRepository(rdb)

	crashM := crashMachine.NewMachine(
		cfg.Games.Crash.WaitingDuration,
		cfg.Games.Crash.CrashedDuration,
		cfg.Games.Crash.GrowthRate,
	)
	crashUC := crashUseCase.NewCrashUseCase(crashM, betUC, history, wsManager, cfg.Games.HouseEdge)

	wheelM := wheelMachine.NewMachine(
		cfg.Games.Wheel.Size,
		cfg.Games.Wheel.BettingDuration,
		cfg.Games.Wheel.SpinDuration,
		cfg.Games.Wheel.ResultDuration,
	)
	wheelUC := wheelUseCase.NewWheelUseCase(wheelM, betUC, history, wsManager)

	minesUC := minesUseCase.NewMinesUseCase(betUC, history, cfg.Games.HouseEdge)
	plinkoUC := plinkoUseCase.NewPlinkoUseCase(betUC, history)
	logger.InfoGlobal().Msg("✅ Game engines initialized")

	// 5. Round scheduler
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	sched := scheduler.New(cfg.Games.Tick)
	sched.Register(crashUC)
	sched.Register(wheelUC)
	sched.Register(minesUC)
	sched.Register(plinkoUC)
	sched.Start(schedCtx)
	logger.InfoGlobal().Dur("tick", cfg.Games.Tick).Msg("✅ Round scheduler started")

	// 6. HTTP server
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware())

	handler := gatewayHttp.NewHandler(crashUC, wheelUC, minesUC, plinkoUC, betUC, ledgerUC, wsManager)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.HTTPPort,
		Handler: router,
	}

	logger.InfoGlobal().
		Str("http_port", cfg.Server.HTTPPort).
		Str("ws_url", fmt.Sprintf("ws://localhost:%s/ws", cfg.Server.HTTPPort)).
		Msg("🚀 Casino Wagering Core running")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalGlobal().Err(err).Msg("HTTP server failed")
		}
	}()

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoGlobal().Msg("🛑 Shutting down...")

	// Stop accepting new requests first
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorGlobal().Err(err).Msg("HTTP server forced to shutdown")
	}

	// Stop the engine loops, then drop the WebSocket clients
	stopScheduler()
	sched.Wait()

	logger.InfoGlobal().Msg("🔌 Closing all WebSocket connections...")
	wsManager.Shutdown()

	logger.InfoGlobal().Msg("👋 Server exited properly")
}
