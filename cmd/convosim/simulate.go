package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/BaSui01/convosim/config"
	"github.com/BaSui01/convosim/content"
	"github.com/BaSui01/convosim/dialog"
	"github.com/BaSui01/convosim/internal/metrics"
	"github.com/BaSui01/convosim/internal/server"
	"github.com/BaSui01/convosim/internal/telemetry"
	"github.com/BaSui01/convosim/transcript"
	"github.com/BaSui01/convosim/types"
)

const dialogTracerName = "github.com/BaSui01/convosim/dialog"

type simulateOptions struct {
	configPath  string
	packPath    string
	count       int
	seed        uint64
	initiator   string
	lullChance  float64
	maxSteps    int
	concurrency int
	rate        float64
	driver      string
	dsn         string
	metricsAddr string
	quiet       bool
}

// =============================================================================
// 🎭 simulate 命令
// =============================================================================

func newSimulateCommand() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run simulated conversations and print their transcripts",
		Example: `  convosim simulate
  convosim simulate -n 10 --seed 42 --quiet --store sqlite --dsn convosim.db
  convosim simulate --pack mypack.yaml --initiator random --lull-chance 0.8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := initLogger(cfg.Log)
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			_, err = runSimulation(ctx, cfg, cmd.OutOrStdout(), opts.quiet, logger)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (YAML)")
	f.StringVarP(&opts.packPath, "pack", "p", "", "Content pack file (YAML or JSON); built-in demo when empty")
	f.IntVarP(&opts.count, "conversations", "n", 0, "Number of conversations to simulate")
	f.Uint64Var(&opts.seed, "seed", 0, "Random seed; conversation i uses seed+i (0 draws from entropy)")
	f.StringVar(&opts.initiator, "initiator", "", "Who speaks first: person0, person1 or random")
	f.Float64Var(&opts.lullChance, "lull-chance", 0, "Probability that a lull is filled with small talk")
	f.IntVar(&opts.maxSteps, "max-steps", 0, "Step limit per conversation (0 means no limit)")
	f.IntVar(&opts.concurrency, "concurrency", 0, "Conversations simulated in parallel")
	f.Float64Var(&opts.rate, "rate", 0, "Maximum conversations started per second (0 means unlimited)")
	f.StringVar(&opts.driver, "store", "", "Transcript store: memory, sqlite, postgres, mysql or redis")
	f.StringVar(&opts.dsn, "dsn", "", "SQL DSN, or redis address for the redis store")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while simulating")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print transcripts")

	return cmd
}

// apply 用显式指定的命令行参数覆盖配置
func (o *simulateOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("pack") {
		cfg.Content.Path = o.packPath
	}
	if f.Changed("conversations") {
		cfg.Simulation.Conversations = o.count
	}
	if f.Changed("seed") {
		cfg.Simulation.Seed = o.seed
	}
	if f.Changed("initiator") {
		cfg.Simulation.Initiator = o.initiator
	}
	if f.Changed("lull-chance") {
		cfg.Simulation.LullContinueChance = o.lullChance
	}
	if f.Changed("max-steps") {
		cfg.Simulation.MaxSteps = o.maxSteps
	}
	if f.Changed("concurrency") {
		cfg.Simulation.Concurrency = o.concurrency
	}
	if f.Changed("rate") {
		cfg.Simulation.RatePerSecond = o.rate
	}
	if f.Changed("store") {
		cfg.Store.Driver = o.driver
	}
	if f.Changed("dsn") {
		if cfg.Store.Driver == "redis" {
			cfg.Store.RedisAddr = o.dsn
		} else {
			cfg.Store.DSN = o.dsn
		}
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Enabled = o.metricsAddr != ""
		cfg.Metrics.Addr = o.metricsAddr
	}
}

// =============================================================================
// 🏃 模拟流程
// =============================================================================

type simulator struct {
	cfg       config.SimulationConfig
	pack      *content.Compiled
	manager   *dialog.Manager
	store     transcript.Store
	driver    string
	collector *metrics.Collector
	logger    *zap.Logger
}

// runSimulation 加载内容包，并发模拟 cfg.Simulation.Conversations 段对话，
// 保存并按序输出对话记录
func runSimulation(ctx context.Context, cfg *config.Config, out io.Writer, quiet bool, logger *zap.Logger) ([]*transcript.Transcript, error) {
	pack, err := loadPack(cfg.Content.Path)
	if err != nil {
		return nil, err
	}
	compiled, err := pack.CompileWithLogger(logger)
	if err != nil {
		return nil, err
	}

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg, cfg.Metrics.Namespace, logger)

	store, err := transcript.Open(cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close transcript store failed", zap.Error(err))
		}
	}()

	if cfg.Metrics.Enabled {
		srvCfg := server.DefaultConfig()
		srvCfg.Addr = cfg.Metrics.Addr
		srv := server.NewManager(server.NewMetricsHandler(reg, store.Ping), srvCfg, logger)
		if err := srv.Start(); err != nil {
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	if cfg.Simulation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Simulation.Timeout)
		defer cancel()
	}
	runID := uuid.NewString()
	ctx = types.WithContentPack(types.WithRunID(ctx, runID), compiled.Name)

	s := &simulator{
		cfg:  cfg.Simulation,
		pack: compiled,
		manager: compiled.NewManager(
			dialog.WithLogger(logger),
			dialog.WithRecorder(collector),
			dialog.WithTracer(providers.Tracer(dialogTracerName)),
		),
		store:     store,
		driver:    cfg.Store.Driver,
		collector: collector,
		logger:    logger.With(zap.String("run_id", runID)),
	}

	transcripts, err := s.runAll(ctx)
	if err != nil {
		return nil, err
	}

	if !quiet {
		for i, tr := range transcripts {
			fmt.Fprintf(out, "=== conversation %d (%s) ===\n%s\n", i+1, tr.ID, tr.Format())
		}
	}
	s.logger.Info("simulation finished",
		zap.String("pack", compiled.Name),
		zap.Int("conversations", len(transcripts)),
		zap.String("store", cfg.Store.Driver))
	return transcripts, nil
}

func loadPack(path string) (*content.Pack, error) {
	if path == "" {
		return content.Demo(), nil
	}
	return content.LoadFile(path)
}

func (s *simulator) runAll(ctx context.Context) ([]*transcript.Transcript, error) {
	results := make([]*transcript.Transcript, s.cfg.Conversations)

	var limiter *rate.Limiter
	if s.cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RatePerSecond), 1)
	}

	var waitErr error
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range results {
		if limiter != nil {
			if waitErr = limiter.Wait(gctx); waitErr != nil {
				break
			}
		}
		g.Go(func() error {
			tr, err := s.runOne(gctx, i)
			if err != nil {
				return fmt.Errorf("conversation %d: %w", i+1, err)
			}
			results[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, fmt.Errorf("rate limit: %w", waitErr)
	}
	return results, nil
}

func (s *simulator) runOne(ctx context.Context, index int) (*transcript.Transcript, error) {
	rng := s.newRand(index)

	initiator := dialog.Person0
	switch s.cfg.Initiator {
	case "person1":
		initiator = dialog.Person1
	case "random":
		if rng.IntN(2) == 1 {
			initiator = dialog.Person1
		}
	}

	p0 := content.RandomPersona(rng)
	p1 := content.RandomPersona(rng)
	for p1.Name == p0.Name {
		p1 = content.RandomPersona(rng)
	}

	conv, err := s.manager.NewConversation(initiator, s.cfg.LullContinueChance, p0, p1)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctx = types.WithConversationID(ctx, id)
	steps, err := s.manager.Run(ctx, conv, s.pack.LullMove, rng, s.cfg.MaxSteps)
	if err != nil {
		return nil, err
	}
	if !conv.Done {
		s.logger.Warn("step limit reached",
			zap.String("conversation_id", id),
			zap.Int("steps", steps))
	}

	tr := transcript.FromConversation(conv, s.pack.Name, p0.Name, p1.Name)
	tr.ID = id
	err = s.store.Save(ctx, tr)
	s.collector.RecordTranscriptSaved(s.driver, err)
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// newRand 为第 index 段对话创建随机源；种子为 0 时使用系统熵
func (s *simulator) newRand(index int) *rand.Rand {
	if s.cfg.Seed == 0 {
		return dialog.NewEntropyRand()
	}
	return dialog.NewRand(s.cfg.Seed + uint64(index))
}
