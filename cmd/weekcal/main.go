package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"weekcal/internal/config"
	appLog "weekcal/internal/log"
	"weekcal/internal/store"
	"weekcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	debug      bool
}

func main() {
	// .env is optional; real deployments pass environment directly.
	if err := godotenv.Load(); err == nil {
		appLog.Info("loaded environment from .env")
	}

	appLog.Info("weekcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"session_ttl_minutes", conf.SessionTTLMinutes,
		"sweep", conf.SweepCron,
		"redis", conf.RedisAddr != "",
		"capture_enabled", conf.Capture.Enabled,
		"basic_auth", conf.BasicAuth != nil,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	clock := clockwork.NewRealClock()
	ttl := time.Duration(conf.SessionTTLMinutes) * time.Minute

	var scheduleStore store.Store
	var sweeper *cron.Cron

	if conf.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: conf.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			appLog.Error("redis unreachable", err, "addr", conf.RedisAddr)
			os.Exit(1)
		}
		defer rdb.Close()
		scheduleStore = store.NewRedisStore(rdb, ttl)
		appLog.Info("using redis schedule store", "addr", conf.RedisAddr)
	} else {
		mem := store.NewMemoryStore(ttl, clock)
		scheduleStore = mem

		// Redis expires entries on its own; the memory store needs a
		// periodic sweep.
		sweeper = cron.New()
		if _, err := sweeper.AddFunc(conf.SweepCron, func() { mem.Sweep() }); err != nil {
			appLog.Error("invalid sweep schedule", err, "sweep", conf.SweepCron)
			os.Exit(1)
		}
		sweeper.Start()
		appLog.Info("using in-memory schedule store", "sweep", conf.SweepCron)
	}

	srv := web.NewServer(conf, scheduleStore, clock, flags.debug)
	err = web.StartServer(ctx, srv)

	if sweeper != nil {
		<-sweeper.Stop().Done()
	}

	if err != nil && err != http.ErrServerClosed {
		appLog.Error("server exited", err)
		os.Exit(1)
	}
	appLog.Info("weekcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/weekcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
