package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/Manuloff/customer-retention/internal/api/http"
	"github.com/Manuloff/customer-retention/internal/api/http/handlers"
	"github.com/Manuloff/customer-retention/internal/auth"
	"github.com/Manuloff/customer-retention/internal/channel"
	"github.com/Manuloff/customer-retention/internal/conversation"
	"github.com/Manuloff/customer-retention/internal/events"
	"github.com/Manuloff/customer-retention/internal/kafka"
	"github.com/Manuloff/customer-retention/internal/observability"
	"github.com/Manuloff/customer-retention/internal/persistence"
	"github.com/Manuloff/customer-retention/internal/service"
	"github.com/Manuloff/customer-retention/internal/worker"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Deliver bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Run the retention HTTP service: the chat channel webhook, the staff
case console and the admin API.

Example:
  STORE_DRIVER=sqlite SQLITE_PATH=./retention.db retention serve
  retention serve --deliver`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Deliver, "deliver", false, "also push conversation replies through the channel sender")
	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := loadEnvironment(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.cfg, rt.logger

	redisClient := persistence.NewRedis(ctx, cfg.Redis, logger)
	var sessions conversation.SessionStore = conversation.NewMemorySessionStore()
	if redisClient != nil {
		defer redisClient.Close()
		sessions = conversation.NewRedisSessionStore(redisClient, cfg.Workflow.SessionTTL())
	}

	var sender channel.Sender = channel.NewLogSender(logger)
	if cfg.Channel.WebhookURL != "" {
		sender = channel.NewWebhookSender(cfg.Channel.WebhookURL, cfg.Channel.Timeout())
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(sender, metrics, logger, cfg.Channel.Timeout())
	notifications.RegisterHandlers(dispatcher)

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.CasesTopic, logger)
		defer producer.Close()
		worker.StartCaseEventForwarder(dispatcher, producer, cfg.Channel.Timeout(), logger)
		logger.Info("forwarding case events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	store := rt.store
	authService := service.NewAuthService(cfg.Auth, store.Users())
	caseService := service.NewCaseService(service.CaseDependencies{
		Store:      store,
		Notifier:   notifications,
		Selector:   service.NewSelector(cfg.Workflow.Selection),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		ContractRepo: store.Contracts(),
		OfferRepo:    store.Offers(),
	})
	statsService := service.NewStatsService(store.Cases())
	machine := conversation.NewMachine(conversation.Dependencies{
		Contracts: store.Contracts(),
		Cases:     caseService,
		Users:     authService,
		Sessions:  sessions,
		Logger:    logger,
	})

	var replySender channel.Sender
	if opts.Deliver {
		replySender = sender
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redisClient, metrics),
		Channel:        handlers.NewChannelHandler(machine, replySender, logger),
		Staff:          handlers.NewStaffHandler(authService),
		Cases:          handlers.NewCasesHandler(caseService),
		Admin:          handlers.NewAdminHandler(adminService, statsService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()),
		ChannelSecret:  cfg.Channel.InboundSecret,
	})
	if cfg.Channel.InboundSecret == "" {
		logger.Warn("CHANNEL_INBOUND_SECRET is empty; inbound chat events will be rejected")
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Error("fiber listen", zap.Error(err))
			cancel()
		}
	}()

	waitForShutdown(ctx, logger)

	return app.Shutdown()
}

func waitForShutdown(ctx context.Context, logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(ctx.Err()))
	}
}
