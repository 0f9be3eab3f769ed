package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/example/campus-calendar-agent/internal/persistence"
)

// ResourceRepository exposes the persistence interactions needed by the directory.
type ResourceRepository interface {
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
}

// DirectoryService serves the read-only catalog of bookable resources from an
// in-memory snapshot. The snapshot refreshes only through Reload; there is no
// implicit global state touched from call sites.
type DirectoryService struct {
	repository ResourceRepository
	logger     *slog.Logger

	mu       sync.RWMutex
	snapshot map[string]Resource
	loaded   bool
}

// NewDirectoryService wires dependencies for resource catalog reads.
func NewDirectoryService(repository ResourceRepository) *DirectoryService {
	return NewDirectoryServiceWithLogger(repository, nil)
}

// NewDirectoryServiceWithLogger constructs a DirectoryService with a specified logger.
func NewDirectoryServiceWithLogger(repository ResourceRepository, logger *slog.Logger) *DirectoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryService{
		repository: repository,
		logger:     logger,
		snapshot:   make(map[string]Resource),
	}
}

// Reload replaces the snapshot with the repository's current contents. It is
// the only mutation point of the directory.
func (s *DirectoryService) Reload(ctx context.Context) error {
	if s == nil || s.repository == nil {
		return fmt.Errorf("directory service not configured")
	}

	resources, err := s.repository.ListResources(ctx)
	if err != nil {
		return mapDirectoryRepoError(err)
	}

	snapshot := make(map[string]Resource, len(resources))
	for _, resource := range resources {
		snapshot[resource.ID] = resource
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.loaded = true
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "resource directory reloaded", "resources", len(snapshot))
	return nil
}

// ListResources returns every resource ordered by name then id.
func (s *DirectoryService) ListResources(ctx context.Context) ([]Resource, error) {
	if s == nil || s.repository == nil {
		return nil, fmt.Errorf("directory service not configured")
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	resources := make([]Resource, 0, len(s.snapshot))
	for _, resource := range s.snapshot {
		resources = append(resources, resource)
	}
	s.mu.RUnlock()

	sort.Slice(resources, func(i, j int) bool {
		if resources[i].Name == resources[j].Name {
			return resources[i].ID < resources[j].ID
		}
		return resources[i].Name < resources[j].Name
	})

	return resources, nil
}

// GetResource returns a single resource by id.
func (s *DirectoryService) GetResource(ctx context.Context, id string) (Resource, error) {
	if s == nil || s.repository == nil {
		return Resource{}, fmt.Errorf("directory service not configured")
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return Resource{}, err
	}

	s.mu.RLock()
	resource, ok := s.snapshot[id]
	s.mu.RUnlock()

	if !ok {
		return Resource{}, ErrNotFound
	}
	return resource, nil
}

func (s *DirectoryService) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Reload(ctx)
}

func mapDirectoryRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if IsTransport(err) {
		return err
	}
	return &TransportError{Op: "resource store", Err: err}
}
