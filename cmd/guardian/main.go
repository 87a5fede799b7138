package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vdtran/position-guardian/internal/exchange"
	"github.com/vdtran/position-guardian/internal/exchange/bybit"
	"github.com/vdtran/position-guardian/internal/guardian"
	"github.com/vdtran/position-guardian/internal/logger"
	"github.com/vdtran/position-guardian/internal/monitoring"
	"github.com/vdtran/position-guardian/internal/notifications"
	"github.com/vdtran/position-guardian/pkg/config"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file (e.g., guardian.json)")
		envFile    = flag.String("env", ".env", "Environment file path (default: .env)")
		demo       = flag.Bool("demo", false, "Force demo trading environment")
	)
	flag.Parse()

	if *configFile == "" {
		log.Fatal("Please specify a config file with -config flag")
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("Warning: Could not load %s (%v), using process environment", *envFile, err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv()

	if *demo {
		cfg.Exchange.Bybit.Demo = true
		cfg.Exchange.Bybit.Testnet = false
	}
	if cfg.Exchange.Bybit.APIKey == "" || cfg.Exchange.Bybit.APISecret == "" {
		log.Fatal("BYBIT_API_KEY and BYBIT_API_SECRET must be set")
	}

	client := bybit.NewClient(bybit.Config{
		APIKey:    cfg.Exchange.Bybit.APIKey,
		APISecret: cfg.Exchange.Bybit.APISecret,
		Category:  cfg.Exchange.Bybit.Category,
		Testnet:   cfg.Exchange.Bybit.Testnet,
		Demo:      cfg.Exchange.Bybit.Demo,
	})
	executor := bybit.NewExecutor(client)

	var notifier notifications.Notifier = notifications.Nop{}
	if cfg.Telegram.Enabled && cfg.Telegram.Token != "" {
		notifier = notifications.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
	}

	health := monitoring.NewHealthChecker()
	checkConnection(executor, health)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, acct := range cfg.Accounts {
		runner, closeLog, err := buildRunner(acct, cfg, executor, notifier, health)
		if err != nil {
			log.Fatalf("Failed to set up account %s: %v", acct.Name, err)
		}
		defer closeLog()

		wg.Add(1)
		go func() {
			defer wg.Done()
			runner.Run(ctx)
		}()
	}

	server := startMetricsServer(cfg.MetricsAddr, health)

	fmt.Printf("Position guardian running: %d accounts, %s environment\n",
		len(cfg.Accounts), client.Environment())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutdown signal received...")
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Metrics server shutdown: %v", err)
	}
	fmt.Println("Stopped.")
}

// checkConnection verifies the credentials with a wallet read before any
// account loop starts. Bad keys are fatal; a transient failure only marks the
// health endpoint until the first successful cycle.
func checkConnection(executor exchange.Executor, health *monitoring.HealthChecker) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	equity, err := executor.AccountEquity(ctx)
	if err != nil {
		if bybit.IsAuthenticationError(err) {
			log.Fatalf("Bybit rejected the API credentials: %v", err)
		}
		log.Printf("Warning: startup balance check failed: %v", err)
		health.SetConnected(false)
		health.AddError(fmt.Sprintf("startup balance check: %v", err))
		return
	}

	health.SetConnected(true)
	fmt.Printf("Connected to Bybit: equity $%.2f\n", equity)
}

func buildRunner(acct config.AccountConfig, cfg *config.Config, executor exchange.Executor, notifier notifications.Notifier, health *monitoring.HealthChecker) (*guardian.Runner, func(), error) {
	accountLog, err := logger.NewLogger(acct.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}

	coord, err := guardian.NewCoordinator(acct.Name, &guardian.Config{
		Trailing:    acct.Trailing,
		Protect:     acct.Protect,
		Rotation:    acct.Rotation,
		Capital:     acct.Capital,
		BaseCapital: acct.BaseCapital,
	}, executor, accountLog)
	if err != nil {
		accountLog.Close()
		return nil, nil, err
	}
	coord.SetNotifier(notifier)

	runner := guardian.NewRunner(coord, executor, accountLog, guardian.RunnerOptions{
		Symbols:  acct.Symbols,
		Interval: acct.Interval,
		Lookback: cfg.KlineLookback,
		Cycle:    cfg.CycleInterval(),
		OnCycle: func(report guardian.CycleReport) {
			health.MarkCycle()
			health.SetConnected(true)
			if report.Errors > 0 {
				health.AddError(fmt.Sprintf("%s: %d evaluation errors", acct.Name, report.Errors))
			}
		},
	})
	return runner, func() { accountLog.Close() }, nil
}

func startMetricsServer(addr string, health *monitoring.HealthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", health)

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	return server
}
