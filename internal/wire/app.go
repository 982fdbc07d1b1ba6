package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/prodline/internal/adapter/memory"
	"github.com/alanyang/prodline/internal/adapter/messaging"
	pgdb "github.com/alanyang/prodline/internal/adapter/postgres"
	pgcontact "github.com/alanyang/prodline/internal/adapter/postgres/contact"
	pgeventbus "github.com/alanyang/prodline/internal/adapter/postgres/eventbus"
	pgidem "github.com/alanyang/prodline/internal/adapter/postgres/idempotency"
	pglocker "github.com/alanyang/prodline/internal/adapter/postgres/locker"
	pgpipeline "github.com/alanyang/prodline/internal/adapter/postgres/pipeline"
	pgproject "github.com/alanyang/prodline/internal/adapter/postgres/project"
	pgtask "github.com/alanyang/prodline/internal/adapter/postgres/task"

	"github.com/alanyang/prodline/internal/config"
	"github.com/alanyang/prodline/internal/domain/stage"
	portcontact "github.com/alanyang/prodline/internal/port/contact"
	porteventbus "github.com/alanyang/prodline/internal/port/eventbus"
	portidem "github.com/alanyang/prodline/internal/port/idempotency"
	portlocker "github.com/alanyang/prodline/internal/port/locker"
	portnotifier "github.com/alanyang/prodline/internal/port/notifier"
	portpipeline "github.com/alanyang/prodline/internal/port/pipeline"
	portproject "github.com/alanyang/prodline/internal/port/project"
	porttask "github.com/alanyang/prodline/internal/port/task"

	contactsvc "github.com/alanyang/prodline/internal/service/contact"
	pipelinesvc "github.com/alanyang/prodline/internal/service/pipeline"
	projectsvc "github.com/alanyang/prodline/internal/service/project"
	reportsvc "github.com/alanyang/prodline/internal/service/report"
	tasksvc "github.com/alanyang/prodline/internal/service/task"

	"github.com/alanyang/prodline/internal/transport"
	mcptransport "github.com/alanyang/prodline/internal/transport/mcp"
)

// Core is the service graph without any transport. The CLI uses it directly.
type Core struct {
	// Pool is nil for the memory driver.
	Pool        *pgxpool.Pool
	Services    transport.Services
	Bus         porteventbus.EventBus
	Idempotency portidem.Store

	sweep sweepFunc
}

func (c *Core) Close() {
	if closer, ok := c.Bus.(interface{ Close() }); ok {
		closer.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	*Core
	Server    *http.Server
	MCPServer *mcptransport.Server
}

type backend struct {
	pool     *pgxpool.Pool
	projects portproject.Repository
	tasks    porttask.Repository
	uow      portpipeline.UnitOfWork
	locker   portlocker.AdvisoryLocker
	bus      porteventbus.EventBus
	contacts portcontact.Directory
	idem     portidem.Store
	sweep    sweepFunc
}

func newBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		idem := memory.NewIdempotencyStore(memory.DefaultIdempotencyTTL)
		return &backend{
			projects: store.Projects(),
			tasks:    store.Tasks(),
			uow:      store,
			locker:   memory.NewLocker(),
			bus:      memory.NewEventBus(),
			contacts: memory.NewDirectory(),
			idem:     idem,
			sweep: func(context.Context) (int, error) {
				return idem.Sweep(), nil
			},
		}, nil

	case config.DriverPostgres:
		pool, err := pgdb.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pgdb.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		idem := pgidem.New(pool)
		return &backend{
			pool:     pool,
			projects: pgproject.New(pool),
			tasks:    pgtask.New(pool),
			uow:      pgpipeline.New(pool),
			locker:   pglocker.New(pool),
			bus:      pgeventbus.New(pool),
			contacts: pgcontact.New(pool),
			idem:     idem,
			sweep: func(ctx context.Context) (int, error) {
				return idem.Sweep(ctx, memory.DefaultIdempotencyTTL)
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// NewNotifier picks the messaging gateway configured for outbound notifications.
func NewNotifier(cfg *config.Config) portnotifier.Notifier {
	if cfg.Notifier.Provider != config.ProviderTwilio {
		return messaging.Noop{FallbackGateway: cfg.Notifier.FallbackGateway}
	}
	return messaging.NewNotifier(messaging.Config{
		AccountSID:      cfg.Notifier.AccountSID,
		AuthToken:       cfg.Notifier.AuthToken,
		From:            cfg.Notifier.From,
		APIBase:         cfg.Notifier.APIBase,
		FallbackGateway: cfg.Notifier.FallbackGateway,
		ChannelPrefix:   cfg.Notifier.ChannelPrefix,
		Timeout:         cfg.NotifierTimeout(),
	})
}

// NewCore wires adapters and services for the configured driver.
func NewCore(ctx context.Context, cfg *config.Config) (*Core, error) {
	b, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pipelineSvc := pipelinesvc.NewService(
		b.uow,
		b.tasks,
		b.bus,
		NewNotifier(cfg),
		b.contacts,
		stage.Default,
		b.locker,
		pipelinesvc.WithRetry(cfg.Pipeline.MaxAttempts, cfg.RetryBackoff()),
	)

	return &Core{
		Pool: b.pool,
		Services: transport.Services{
			Projects: projectsvc.NewService(b.projects, pipelineSvc, b.bus),
			Pipeline: pipelineSvc,
			Tasks:    tasksvc.NewService(b.tasks),
			Reports:  reportsvc.NewService(b.projects, b.tasks),
			Contacts: contactsvc.NewService(b.contacts),
		},
		Bus:         b.bus,
		Idempotency: b.idem,
		sweep:       b.sweep,
	}, nil
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	core, err := NewCore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mcpServer := mcptransport.New(mcptransport.NewSessionRegistry(), mcptransport.Services{
		Projects: core.Services.Projects,
		Pipeline: core.Services.Pipeline,
		Tasks:    core.Services.Tasks,
		Reports:  core.Services.Reports,
	})

	router := transport.NewRouter(ctx, core.Services, mcpServer, core.Bus, core.Idempotency)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	slog.Info("application wired",
		"addr", cfg.Addr(),
		"driver", cfg.Database.Driver,
		"notifier", cfg.Notifier.Provider,
		"stages", stage.Default.Len(),
	)

	startSweeper(ctx, core.sweep, sweepInterval)

	return &App{Core: core, Server: server, MCPServer: mcpServer}, nil
}
