package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-calendar-agent/internal/application"
	"github.com/example/campus-calendar-agent/internal/config"
	"github.com/example/campus-calendar-agent/internal/engine"
	httptransport "github.com/example/campus-calendar-agent/internal/http"
	"github.com/example/campus-calendar-agent/internal/logging"
	"github.com/example/campus-calendar-agent/internal/notify"
	"github.com/example/campus-calendar-agent/internal/orchestrator"
	"github.com/example/campus-calendar-agent/internal/persistence"
	"github.com/example/campus-calendar-agent/internal/persistence/sqlite"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	now := time.Now
	idGenerator := uuid.NewString

	if cfg.SeedDemoData {
		if err := storage.Seed(context.Background(), now().UTC()); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	engineClient := engine.NewHTTPClient(cfg.EngineEndpoint, nil)

	eventRepo := newEventRepositoryAdapter(storage)
	resourceCatalog := newResourceCatalogAdapter(storage)
	orgDirectory := newOrgDirectoryAdapter(storage)

	directoryService := application.NewDirectoryServiceWithLogger(resourceCatalog, logger)
	authzService := application.NewAuthzServiceWithLogger(orgDirectory, logger)

	publisher := buildPublisher(ctx, engineClient, logger)
	ledgerService := application.NewLedgerServiceWithLogger(eventRepo, resourceCatalog, authzService, publisher, idGenerator, now, logger)

	if err := directoryService.Reload(context.Background()); err != nil {
		logger.Warn("failed to preload resource catalog", "error", err)
	}

	registry := orchestrator.NewRegistry(logger)
	orchestrator.RegisterBookingTools(registry, orchestrator.BookingTools{
		Directory: directoryService,
		Ledger:    ledgerService,
		Authz:     authzService,
	})

	var chatHandler *httptransport.ChatHandler
	conversation, err := orchestrator.StartConversation(ctx, engineClient, registry, orchestrator.Config{
		Model:         cfg.EngineModel,
		PollInterval:  cfg.PollInterval,
		PollTimeout:   cfg.PollTimeout,
		MaxToolRounds: cfg.MaxToolRounds,
	}, logger)
	if err != nil {
		logger.Warn("failed to start conversation, chat endpoint disabled", "error", err)
	} else {
		chatHandler = httptransport.NewChatHandler(conversation, logger)
	}

	calendarHandler := httptransport.NewCalendarHandler(directoryService, ledgerService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Calendars: calendarHandler,
		Chat:      chatHandler,
		Health:    healthHandler(storage),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("calendar agent API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func healthHandler(storage *sqlite.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := storage.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

// buildPublisher posts booking notifications to a dedicated engine thread
// that satellite agents poll. When the thread cannot be created the service
// falls back to logging the payloads.
func buildPublisher(ctx context.Context, client engine.Client, logger *slog.Logger) notify.Publisher {
	thread, err := client.CreateThread(ctx)
	if err != nil {
		logger.Warn("failed to create notification thread, logging notifications instead", "error", err)
		return notify.NewLogPublisher(logger)
	}
	logger.Info("notification thread ready", "thread_id", thread.ID)
	return notify.NewChannelPublisher(&threadChannel{client: client, threadID: thread.ID})
}

type threadChannel struct {
	client   engine.Client
	threadID string
}

func (c *threadChannel) PostMessage(ctx context.Context, content string) error {
	_, err := c.client.CreateMessage(ctx, c.threadID, engine.RoleUser, content)
	return err
}

type eventRepositoryAdapter struct {
	repo persistence.EventRepository
}

func newEventRepositoryAdapter(repo persistence.EventRepository) *eventRepositoryAdapter {
	return &eventRepositoryAdapter{repo: repo}
}

func (a *eventRepositoryAdapter) CreateEvent(ctx context.Context, event application.Event) error {
	return a.repo.CreateEvent(ctx, toPersistenceEvent(event))
}

func (a *eventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.Event) error {
	return a.repo.UpdateEvent(ctx, toPersistenceEvent(event))
}

func (a *eventRepositoryAdapter) GetEvent(ctx context.Context, id string) (application.Event, error) {
	stored, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) ListConfirmedEvents(ctx context.Context, resourceID string) ([]application.Event, error) {
	models, err := a.repo.ListEvents(ctx, persistence.EventFilter{
		ResourceID: resourceID,
		Status:     persistence.EventStatusConfirmed,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	events := make([]application.Event, 0, len(models))
	for _, model := range models {
		events = append(events, toApplicationEvent(model))
	}
	return events, nil
}

type resourceCatalogAdapter struct {
	repo persistence.ResourceRepository
}

func newResourceCatalogAdapter(repo persistence.ResourceRepository) *resourceCatalogAdapter {
	return &resourceCatalogAdapter{repo: repo}
}

func (a *resourceCatalogAdapter) GetResource(ctx context.Context, id string) (application.Resource, error) {
	stored, err := a.repo.GetResource(ctx, id)
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *resourceCatalogAdapter) ListResources(ctx context.Context) ([]application.Resource, error) {
	models, err := a.repo.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	resources := make([]application.Resource, 0, len(models))
	for _, model := range models {
		resources = append(resources, toApplicationResource(model))
	}
	return resources, nil
}

type orgDirectoryAdapter struct {
	repo persistence.OrgRepository
}

func newOrgDirectoryAdapter(repo persistence.OrgRepository) *orgDirectoryAdapter {
	return &orgDirectoryAdapter{repo: repo}
}

func (a *orgDirectoryAdapter) FindUser(ctx context.Context, key string) (application.User, error) {
	stored, err := a.repo.FindUser(ctx, key)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *orgDirectoryAdapter) GetEntity(ctx context.Context, entityType application.EntityType, id int64) (application.OrgEntity, error) {
	stored, err := a.repo.GetEntity(ctx, persistence.EntityType(entityType), id)
	if err != nil {
		return application.OrgEntity{}, err
	}
	return toApplicationEntity(stored), nil
}

func (a *orgDirectoryAdapter) ListEntities(ctx context.Context, entityType application.EntityType) ([]application.OrgEntity, error) {
	models, err := a.repo.ListEntities(ctx, persistence.EntityType(entityType))
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	entities := make([]application.OrgEntity, 0, len(models))
	for _, model := range models {
		entities = append(entities, toApplicationEntity(model))
	}
	return entities, nil
}

func (a *orgDirectoryAdapter) FindEntityByName(ctx context.Context, name string) (application.OrgEntity, error) {
	stored, err := a.repo.FindEntityByName(ctx, name)
	if err != nil {
		return application.OrgEntity{}, err
	}
	return toApplicationEntity(stored), nil
}

func toApplicationEvent(model persistence.Event) application.Event {
	return application.Event{
		ID:          model.ID,
		ResourceID:  model.ResourceID,
		Title:       model.Title,
		Start:       model.Start,
		End:         model.End,
		Organizer:   model.Organizer,
		Attendees:   append([]string(nil), model.Attendees...),
		Description: model.Description,
		Status:      application.EventStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceEvent(event application.Event) persistence.Event {
	return persistence.Event{
		ID:          event.ID,
		ResourceID:  event.ResourceID,
		Title:       event.Title,
		Start:       event.Start,
		End:         event.End,
		Organizer:   event.Organizer,
		Attendees:   append([]string(nil), event.Attendees...),
		Description: event.Description,
		Status:      persistence.EventStatus(event.Status),
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}

func toApplicationResource(model persistence.Resource) application.Resource {
	return application.Resource{
		ID:        model.ID,
		Name:      model.Name,
		Location:  model.Location,
		Capacity:  model.Capacity,
		Equipment: append([]string(nil), model.Equipment...),
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:           model.ID,
		Name:         model.Name,
		Email:        model.Email,
		RoleScope:    model.RoleScope,
		DepartmentID: model.DepartmentID,
		ScopeID:      model.ScopeID,
	}
}

func toApplicationEntity(model persistence.OrgEntity) application.OrgEntity {
	return application.OrgEntity{
		Type:         application.EntityType(model.Type),
		ID:           model.ID,
		Name:         model.Name,
		Email:        model.Email,
		DepartmentID: model.DepartmentID,
	}
}
