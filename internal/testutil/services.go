package testutil

import (
	"github.com/alanyang/prodline/internal/adapter/memory"
	"github.com/alanyang/prodline/internal/domain/stage"
	contactsvc "github.com/alanyang/prodline/internal/service/contact"
	pipelinesvc "github.com/alanyang/prodline/internal/service/pipeline"
	projectsvc "github.com/alanyang/prodline/internal/service/project"
	reportsvc "github.com/alanyang/prodline/internal/service/report"
	tasksvc "github.com/alanyang/prodline/internal/service/task"
)

// Services is a fully wired service graph over the in-memory adapters.
type Services struct {
	Store       *memory.Store
	Bus         *memory.EventBus
	Contacts    *memory.Directory
	Idempotency *memory.IdempotencyStore
	Notifier    *CaptureNotifier

	Pipeline *pipelinesvc.Service
	Projects *projectsvc.Service
	Tasks    *tasksvc.Service
	Reports  *reportsvc.Service
	Contact  *contactsvc.Service
}

// NewMemoryServices wires every service against fresh in-memory adapters and
// the default stage catalog.
func NewMemoryServices(opts ...pipelinesvc.Option) *Services {
	store := memory.NewStore()
	bus := memory.NewEventBus()
	dir := memory.NewDirectory()
	notifier := &CaptureNotifier{}

	opts = append([]pipelinesvc.Option{pipelinesvc.WithRetry(pipelinesvc.DefaultMaxAttempts, 0)}, opts...)
	pipeline := pipelinesvc.NewService(store, store.Tasks(), bus, notifier, dir, stage.Default, memory.NewLocker(), opts...)

	return &Services{
		Store:       store,
		Bus:         bus,
		Contacts:    dir,
		Idempotency: memory.NewIdempotencyStore(0),
		Notifier:    notifier,
		Pipeline:    pipeline,
		Projects:    projectsvc.NewService(store.Projects(), pipeline, bus),
		Tasks:       tasksvc.NewService(store.Tasks()),
		Reports:     reportsvc.NewService(store.Projects(), store.Tasks()),
		Contact:     contactsvc.NewService(dir),
	}
}
