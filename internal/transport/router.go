package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/prodline/internal/domain/event"
	porteventbus "github.com/alanyang/prodline/internal/port/eventbus"
	portidem "github.com/alanyang/prodline/internal/port/idempotency"
	contactsvc "github.com/alanyang/prodline/internal/service/contact"
	pipelinesvc "github.com/alanyang/prodline/internal/service/pipeline"
	projectsvc "github.com/alanyang/prodline/internal/service/project"
	reportsvc "github.com/alanyang/prodline/internal/service/report"
	tasksvc "github.com/alanyang/prodline/internal/service/task"

	contacthandler "github.com/alanyang/prodline/internal/transport/contact"
	mcptransport "github.com/alanyang/prodline/internal/transport/mcp"
	projecthandler "github.com/alanyang/prodline/internal/transport/project"
	reporthandler "github.com/alanyang/prodline/internal/transport/report"
	taskhandler "github.com/alanyang/prodline/internal/transport/task"
	wshandler "github.com/alanyang/prodline/internal/transport/ws"
)

// Services bundles the application services the HTTP API exposes.
type Services struct {
	Projects *projectsvc.Service
	Pipeline *pipelinesvc.Service
	Tasks    *tasksvc.Service
	Reports  *reportsvc.Service
	Contacts *contactsvc.Service
}

// NewRouter mounts the REST API under /api, the websocket stream under
// /api/ws and, when mcpServer is non-nil, the MCP endpoint under /mcp.
func NewRouter(
	ctx context.Context,
	svcs Services,
	mcpServer *mcptransport.Server,
	eventBus porteventbus.EventBus,
	idem portidem.Store,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware())
	r.Use(IdempotencyMiddleware(idem))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	projecthandler.Register(api.Group("/projects"), svcs.Projects, svcs.Pipeline)
	taskhandler.Register(api.Group("/tasks"), svcs.Tasks, svcs.Pipeline)
	reporthandler.Register(api.Group("/reports"), svcs.Reports)
	contacthandler.Register(api.Group("/contacts"), svcs.Contacts)

	hub := wshandler.NewHub()
	hub.Register(api.Group("/ws"))

	// One subscription per domain channel; event.Type in the payload lets
	// the client filter.
	for _, ch := range event.Channels {
		c := ch
		if _, err := eventBus.Subscribe(ctx, c, func(_ context.Context, e event.Event) {
			hub.Broadcast(e)
		}); err != nil {
			slog.Error("failed to subscribe channel to WS hub", "channel", c, "error", err)
		}
	}

	if mcpServer != nil {
		if _, err := eventBus.Subscribe(ctx, event.ChannelTask, mcpServer.Registry().Forward(svcs.Tasks)); err != nil {
			slog.Error("failed to subscribe MCP forwarder", "error", err)
		}
		r.Any("/mcp", gin.WrapH(mcpServer.Handler()))
	}

	return r
}
