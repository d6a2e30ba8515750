package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"arena-siege/internal/api"
	"arena-siege/internal/config"
	"arena-siege/internal/game"
	"arena-siege/internal/logging"
)

func main() {
	// .env from the parent directory first, then the working directory
	envErr := godotenv.Load("../.env")
	if envErr != nil {
		envErr = godotenv.Load(".env")
	}

	appConfig := config.Load()
	logger := logging.New(appConfig.Log.Level, appConfig.Log.Pretty)
	if envErr != nil {
		logger.Info().Msg("no .env file found, using environment variables only")
	}

	matchCfg, err := config.LoadMatch(appConfig.Engine.MatchConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", appConfig.Engine.MatchConfigPath).Msg("invalid match config")
	}

	engine := game.NewEngine(game.EngineConfig{
		TickRate: appConfig.Engine.TickRate,
		Match:    matchCfg,
		Seed:     appConfig.Engine.Seed,
		Logger:   logger.With().Str("component", "engine").Logger(),
	})
	logger.Info().
		Str("match", engine.MatchID()).
		Int64("seed", engine.Seed()).
		Int("bases", len(matchCfg.BaseLocations)).
		Dur("duration", matchCfg.Duration).
		Dur("warmup", matchCfg.StageOneDuration).
		Msg("match configured")

	engine.SetCallbacks(onTick(engine), onEnd(logger), api.RecordHit)

	if err := engine.StartEventLog(appConfig.Engine.EventLogPath); err != nil {
		logger.Warn().Err(err).Msg("event log file disabled")
	} else if appConfig.Engine.EventLogPath != "" {
		logger.Info().Str("path", appConfig.Engine.EventLogPath).Msg("event log started")
	}

	api.StartDebugServer(api.ObservabilityConfig{
		Enabled:       appConfig.Debug.Enabled,
		ListenAddr:    appConfig.Debug.Addr,
		BasicAuthUser: appConfig.Debug.User,
		BasicAuthPass: appConfig.Debug.Password,
	}, logger.With().Str("component", "debug").Logger())

	server := api.NewServer(engine, api.ServerConfig{
		Addr: ":" + strconv.Itoa(appConfig.Server.Port),
		RateLimit: api.RateLimitConfig{
			Client:  api.Limit{PerSecond: appConfig.Limits.RequestsPerSecond, Burst: appConfig.Limits.Burst},
			Control: api.Limit{PerSecond: appConfig.Limits.ControlPerSecond, Burst: appConfig.Limits.ControlBurst},
			Attack:  api.Limit{PerSecond: appConfig.Limits.AttackPerSecond, Burst: appConfig.Limits.AttackBurst},
		},
		CORSOrigins:       appConfig.Server.AllowedOrigins,
		AdminToken:        appConfig.Server.AdminToken,
		BroadcastInterval: appConfig.Engine.BroadcastEvery,
		Logger:            logger.With().Str("component", "api").Logger(),
	})
	if appConfig.Server.AdminToken == "" {
		logger.Warn().Msg("ADMIN_TOKEN not set, match control routes are open")
	}

	engine.Start()

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger.Info().Int("port", appConfig.Server.Port).Msg("server ready")
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("API shutdown")
	}
	engine.Stop()
	engine.StopEventLog()
	logger.Info().Msg("goodbye")
}

// onTick feeds per-tick metrics. Status gauges refresh every tenth tick.
func onTick(engine *game.Engine) func(game.TickStats) {
	return func(stats game.TickStats) {
		api.RecordTick(stats)
		if stats.Tick%10 != 0 {
			return
		}
		api.UpdateMatchGauges(engine.Snapshot())
		api.UpdateEventLogStats(engine.EventLogCounts())
	}
}

func onEnd(logger zerolog.Logger) func(game.Outcome) {
	return func(o game.Outcome) {
		api.RecordOutcome(o)
		ev := logger.Info().
			Bool("tie", o.Tie).
			Bool("timeUp", o.TimeUp).
			Int64("elapsedMs", o.ElapsedMs)
		if !o.Tie {
			ev = ev.Str("winner", string(o.Winner))
		}
		if o.Reason != "" {
			ev = ev.Str("reason", string(o.Reason))
		}
		ev.Msg("match over")
	}
}
