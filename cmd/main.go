package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/okian/beatcore/internal/adapters/http/api"
	"github.com/okian/beatcore/internal/adapters/http/swagger"
	app "github.com/okian/beatcore/internal/app"
	"github.com/okian/beatcore/internal/autoplay"
	"github.com/okian/beatcore/internal/config"
	"github.com/okian/beatcore/internal/domain/beatmap"
	"github.com/okian/beatcore/internal/domain/results"
	"github.com/okian/beatcore/internal/domain/types"
	"github.com/okian/beatcore/pkg/logger"
	"github.com/okian/beatcore/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second

	// song time simulated after the last object ends
	levelTail = 2.0
)

// options are the command line flags.
type options struct {
	beatmapPath string
	levelID     string
	bpm         float64
	lanes       int
	accuracy    float64
	seed        int64
	dodge       bool
	realtime    bool
	serve       bool
	njs         float64
}

func parseArgs(args []string) (*options, error) {
	o := &options{}
	a := kingpin.New("beatcore", "Plays a beatmap with an autoplay player and persists the result.")
	a.Version("0.1.0")
	a.Arg("beatmap", "Beatmap file in the JSON save format").Required().ExistingFileVar(&o.beatmapPath)
	a.Flag("level", "Level id for the result record; defaults to the file name").Short('l').StringVar(&o.levelID)
	a.Flag("bpm", "Tempo override").Float64Var(&o.bpm)
	a.Flag("lanes", "Number of lanes").Default("4").IntVar(&o.lanes)
	a.Flag("accuracy", "Share of cuts the autoplay player gets right").Default("1.0").Short('a').Float64Var(&o.accuracy)
	a.Flag("seed", "Autoplay random seed").Default("42").Int64Var(&o.seed)
	a.Flag("dodge", "Autoplay player dodges every obstacle").BoolVar(&o.dodge)
	a.Flag("realtime", "Pace ticks to the wall clock").BoolVar(&o.realtime)
	a.Flag("serve", "Keep the HTTP API up after the level until interrupted").BoolVar(&o.serve)
	a.Flag("njs", "Note jump speed override").Float64Var(&o.njs)
	if _, err := a.Parse(args); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if o.levelID == "" {
		o.levelID = strings.TrimSuffix(filepath.Base(o.beatmapPath), filepath.Ext(o.beatmapPath))
	}
	if o.accuracy < 0 || o.accuracy > 1 {
		return nil, fmt.Errorf("parse args: accuracy %v outside [0, 1]", o.accuracy)
	}
	return o, nil
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if opts.njs > 0 {
		cfg.NoteJumpSpeed = opts.njs
	}

	metrics.GetRegistry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := newService(cfg, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop(context.Background())

	var srv *http.Server
	if cfg.Addr != "" {
		srv = startHTTP(ctx, cfg, svc)
		go startServiceMetricsUpdater(ctx, svc)
	}

	res, err := run(ctx, cfg, opts, svc)
	if err != nil {
		loggerInstance.Error(ctx, "level run failed", logger.Error(err))
	} else {
		loggerInstance.Info(ctx, "level result",
			logger.String("level_id", opts.levelID),
			logger.Int("score", res.Score),
			logger.Int("max_score", res.MaxScore),
			logger.String("rank", res.Rank.String()),
			logger.Bool("full_combo", res.FullCombo),
			logger.Int("good", res.GoodCuts),
			logger.Int("bad", res.BadCuts),
			logger.Int("missed", res.MissedNotes),
		)
	}

	if srv == nil {
		return
	}
	if opts.serve {
		loggerInstance.Info(ctx, "serving results until interrupted", logger.String("addr", cfg.Addr))
		<-ctx.Done()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	loggerInstance.Info(ctx, "server stopped")
}

func newService(cfg *config.Config, l logger.Logger) *app.Service {
	return app.NewService(
		app.WithServiceLogger(l.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDBPath(cfg.DBPath),
	)
}

func startHTTP(ctx context.Context, cfg *config.Config, svc *app.Service) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxResultsLimit).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		logger.Get().Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}()
	return srv
}

// run loads the beatmap, plays it with the autoplay player and finishes the
// session. A cancelled ctx ends the level as quit.
func run(ctx context.Context, cfg *config.Config, opts *options, svc *app.Service) (*results.LevelCompletionResult, error) {
	raw, err := os.ReadFile(opts.beatmapPath)
	if err != nil {
		return nil, fmt.Errorf("read beatmap: %w", err)
	}
	data, err := beatmap.Load(raw, beatmap.WithBeatsPerMinute(opts.bpm), beatmap.WithLaneCount(opts.lanes))
	if err != nil {
		return nil, fmt.Errorf("load beatmap %s: %w", opts.beatmapPath, err)
	}
	gameplay, err := cfg.GameplayOptions()
	if err != nil {
		return nil, err
	}
	data = beatmap.ApplyOptions(data, gameplay)

	player := autoplay.New(
		autoplay.WithAccuracy(opts.accuracy),
		autoplay.WithSeed(opts.seed),
		autoplay.WithDodge(opts.dodge),
	)
	sess := app.New(data,
		app.WithLogger(logger.NamedOrNop("session")),
		app.WithLevelID(opts.levelID),
		app.WithGeometry(player),
		app.WithSink(svc),
		app.WithSpawnConfig(cfg.SpawnConfig()),
		app.WithScoringOptions(cfg.ScoringOptions()...),
		app.WithNoteJumpSpeed(cfg.NoteJumpSpeed),
	)
	svc.Attach(sess)
	if err := sess.Start(ctx); err != nil {
		return nil, err
	}

	endState := types.EndCleared
	if err := play(ctx, sess, player, data, cfg.TickRate, opts.realtime); err != nil {
		if !errors.Is(err, context.Canceled) {
			return nil, err
		}
		endState = types.EndQuit
	}

	left, right := player.Activity()
	finishCtx := context.WithoutCancel(ctx)
	res, err := sess.Finish(finishCtx, app.FinishInput{
		EndState:          endState,
		LeftHandActivity:  left,
		RightHandActivity: right,
	})
	if res != nil {
		dc := cfg.SpawnConfig()
		settle(finishCtx, sess, dc.DissolveDuration+dc.DissolveTail, cfg.TickRate)
	}
	return res, err
}

// settle ticks a finished session through the dissolve window so every live
// instance goes back to the pool.
func settle(ctx context.Context, sess *app.Session, window float64, tickRate int) {
	step := 1 / float64(tickRate)
	from := sess.SongTime()
	for i := 1; ; i++ {
		t := from + float64(i)*step
		_ = sess.Tick(ctx, t)
		if t >= from+window {
			return
		}
	}
}

// play ticks sess from before the first spawn to after the last object
// ends, stepping the player after every tick.
func play(ctx context.Context, sess *app.Session, player *autoplay.Player, data *beatmap.Data, tickRate int, realtime bool) error {
	step := 1 / float64(tickRate)
	start := -sess.Spawner().Kinematics().SpawnAheadTime
	end := levelEnd(data) + levelTail

	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(time.Duration(float64(time.Second) * step))
		defer ticker.Stop()
	}
	for i := 0; ; i++ {
		t := start + float64(i)*step
		if t > end {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sess.Tick(ctx, t); err != nil {
			return err
		}
		player.Step(t, sess.Spawner().ActiveNotes(), sess)
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
}

// levelEnd returns when the last object leaves the level, in seconds.
func levelEnd(data *beatmap.Data) float64 {
	end := 0.0
	for _, o := range data.Objects() {
		t := o.Time()
		if obs, ok := o.(*beatmap.ObstacleData); ok {
			t += obs.Duration
		}
		end = max(end, t)
	}
	return end
}

// startServiceMetricsUpdater refreshes the pipeline gauges that only change
// when the service is polled.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
