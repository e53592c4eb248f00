package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/config"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/creative_collection/client"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/creative_collection/journal"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/creative_collection/list"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/database/kafka"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/database/redis"
	xhttp "github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/http"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/logger"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/ratelimiter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	baseURL    string
	logLevel   string
}

// app holds the dependencies built from the configuration for one command run.
type app struct {
	cfg     *config.AppConfig
	log     *logger.Logger
	api     *client.Client
	journal *journal.Store
	closers []func() error
}

// NewRootCommand builds the collect-cli command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "collect-cli",
		Short:         "A CLI client for the creative collection service",
		Long:          `Submit short-video links for collection, watch the tasks and browse, inspect or delete the collected items.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: built-in defaults plus environment)")
	flags.StringVar(&opts.baseURL, "base-url", "", "API root, overrides collection.baseURL")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, overrides logger.level")

	rootCmd.AddCommand(
		newCollectCommand(opts),
		newStatusCommand(opts),
		newListCommand(opts),
		newShowCommand(opts),
		newDeleteCommand(opts),
		newExtractCommand(),
		newHistoryCommand(opts),
	)
	return rootCmd
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// closingHook is a logrus hook holding a connection that must be released.
type closingHook interface {
	logrus.Hook
	Close() error
}

// newLogHook creates the Kafka log hook. Tests replace it.
var newLogHook = func(cfg config.KafkaLogConfig) (closingHook, error) {
	hook, err := kafka.NewLogHook(cfg)
	if err != nil {
		return nil, err
	}
	return hook, nil
}

// newApp loads the configuration and wires the client, the caches and the journal. Resources
// acquired before a failure are released.
func newApp(ctx context.Context, cmd *cobra.Command, opts *globalOptions) (_ *app, err error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.Collection.BaseURL = opts.baseURL
	}
	if opts.logLevel != "" {
		cfg.Logger.Level = opts.logLevel
	}

	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	if err := a.initLogger(cmd); err != nil {
		return nil, err
	}

	timeout, err := cfg.Collection.Timeout()
	if err != nil {
		return nil, err
	}
	transport, err := xhttp.NewClient(cfg.Collection.BaseURL, timeout, cfg.Middleware.CircuitBreaker)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	if rl := cfg.Middleware.RateLimiter; rl.Enabled {
		transport.Throttle(ratelimiter.NewTokenBucket(rl.Rate, rl.Capacity))
	}

	cache, err := a.detailCache(ctx)
	if err != nil {
		return nil, err
	}
	a.api = client.New(transport, a.log.Component("client"), client.WithDetailCache(cache))

	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path, a.log.Component("journal"))
		if err != nil {
			// The journal is a convenience; the CLI still works without it.
			a.log.WithError(err).Warn("Task journal unavailable")
		} else {
			a.journal = store
			a.closers = append(a.closers, store.Close)
		}
	}
	return a, nil
}

func (a *app) initLogger(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(a.cfg.Logger.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.cfg.Logger.Level, err)
	}
	opts := logger.Options{
		Level:  level,
		Format: a.cfg.Logger.Format,
		Output: cmd.ErrOrStderr(),
	}
	if a.cfg.Logger.Kafka.Enabled {
		hook, err := newLogHook(a.cfg.Logger.Kafka)
		if err != nil {
			return fmt.Errorf("create kafka log hook: %w", err)
		}
		opts.Hooks = append(opts.Hooks, hook)
		a.closers = append(a.closers, hook.Close)
	}
	logger.Init(opts)
	a.log = logger.New(a.cfg.App.Name, "cli")
	return nil
}

// detailCache returns the in-process LRU, backed by Redis when it is enabled and reachable.
func (a *app) detailCache(ctx context.Context) (client.DetailCache, error) {
	ttl, err := a.cfg.Cache.Expiry()
	if err != nil {
		return nil, err
	}
	local, err := client.NewMemoryCache(a.cfg.Cache.Capacity, ttl)
	if err != nil {
		return nil, fmt.Errorf("create detail cache: %w", err)
	}
	if !a.cfg.Cache.Redis.Enabled {
		return local, nil
	}
	rdb, err := redis.GetClient(ctx, &a.cfg.Cache.Redis)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, using the local detail cache only")
		return local, nil
	}
	a.closers = append(a.closers, redis.Close)
	return client.NewTieredCache(local, client.NewRedisCache(rdb, ttl, a.log.Component("cache"))), nil
}

// newList creates a list controller configured from the app config.
func (a *app) newList(opts ...list.Option) *list.Controller {
	base := []list.Option{
		list.WithPageSize(a.cfg.Collection.PageSize),
		list.WithEmptyPagePolicy(a.cfg.Collection.EmptyPagePolicy),
		list.WithLogger(a.log.Component("list")),
	}
	return list.New(a.api, append(base, opts...)...)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.WithError(err).Warn("Failed to release resource")
		}
	}
	a.closers = nil
}

// withApp builds the app for a command run and releases it afterwards.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}
