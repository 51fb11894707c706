package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/metrics"
)

// FileStorage keeps every container in a single JSON document. A per-container
// mutex serializes read-modify-write cycles on the same identifier; mu guards
// the map and the file itself.
type FileStorage struct {
	operations

	filePath string
	engine   *clearance.Engine
	logger   *zap.Logger

	mu    sync.RWMutex
	data  map[string]*clearance.Container
	locks sync.Map
}

type storageData struct {
	Containers []*clearance.Container `json:"containers"`
}

func NewFileStorage(filePath string, engine *clearance.Engine, logger *zap.Logger) (*FileStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fs := &FileStorage{
		filePath: filePath,
		engine:   engine,
		logger:   logger,
		data:     make(map[string]*clearance.Container),
	}
	fs.operations = operations{engine: engine, m: fs}
	return fs, fs.load()
}

func (fs *FileStorage) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, err := os.Open(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var stored storageData
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("failed to decode %s: %w", fs.filePath, err)
	}
	for _, c := range stored.Containers {
		c.MarkCommitted()
		fs.data[c.ContainerID] = c
	}
	fs.logger.Info("file storage loaded", zap.String("path", fs.filePath), zap.Int("containers", len(fs.data)))
	return nil
}

// save must be called with mu held for writing. The document is written to a
// temporary file and renamed over the old one.
func (fs *FileStorage) save() error {
	stored := storageData{Containers: make([]*clearance.Container, 0, len(fs.data))}
	for _, c := range fs.data {
		stored.Containers = append(stored.Containers, c)
	}
	sort.Slice(stored.Containers, func(i, j int) bool {
		return stored.Containers[i].CreatedAt.Before(stored.Containers[j].CreatedAt)
	})

	tmp, err := os.CreateTemp(filepath.Dir(fs.filePath), filepath.Base(fs.filePath)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(stored); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fs.filePath)
}

func (fs *FileStorage) lockFor(id string) *sync.Mutex {
	l, _ := fs.locks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// commit stores c under id and writes the file, restoring the previous value
// when the write fails.
func (fs *FileStorage) commit(id string, c *clearance.Container) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, existed := fs.data[id]
	fs.data[id] = c
	if err := fs.save(); err != nil {
		if existed {
			fs.data[id] = prev
		} else {
			delete(fs.data, id)
		}
		return fmt.Errorf("failed to save %s: %w", fs.filePath, err)
	}
	return nil
}

func (fs *FileStorage) CreateContainer(_ context.Context, data clearance.ExtractedData, filename string) (c *clearance.Container, err error) {
	defer func() {
		recordResult(OpCreate, err == nil, err)
		if err == nil {
			metrics.ContainersCreatedTotal.Inc()
		}
	}()

	c, err = fs.engine.NewContainer(data, filename)
	if err != nil {
		return nil, err
	}

	lock := fs.lockFor(c.ContainerID)
	lock.Lock()
	defer lock.Unlock()

	fs.mu.RLock()
	_, exists := fs.data[c.ContainerID]
	fs.mu.RUnlock()
	if exists {
		return nil, clearance.ErrDuplicateContainer
	}

	c.MarkCommitted()
	if err := fs.commit(c.ContainerID, c.Clone()); err != nil {
		return nil, err
	}
	return c, nil
}

func (fs *FileStorage) GetContainer(_ context.Context, id string) (*clearance.Container, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	c, ok := fs.data[id]
	if !ok {
		return nil, clearance.ErrContainerNotFound
	}
	return c.Clone(), nil
}

func (fs *FileStorage) ListContainers(_ context.Context, filter ListFilter) ([]*clearance.Container, error) {
	filter, err := filter.normalize()
	if err != nil {
		return nil, err
	}

	fs.mu.RLock()
	containers := make([]*clearance.Container, 0, len(fs.data))
	for _, c := range fs.data {
		if filter.Status == "" || string(c.OverallStatus) == filter.Status {
			containers = append(containers, c.Clone())
		}
	}
	fs.mu.RUnlock()

	sort.Slice(containers, func(i, j int) bool {
		return containers[i].CreatedAt.After(containers[j].CreatedAt)
	})
	if len(containers) > filter.Limit {
		containers = containers[:filter.Limit]
	}
	return containers, nil
}

func (fs *FileStorage) mutate(_ context.Context, op, id string, fn func(c *clearance.Container) error) (err error) {
	var changed bool
	defer func() { recordResult(op, changed, err) }()

	lock := fs.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	fs.mu.RLock()
	stored, ok := fs.data[id]
	fs.mu.RUnlock()
	if !ok {
		return clearance.ErrContainerNotFound
	}

	c := stored.Clone()
	if err := fn(c); err != nil {
		return err
	}
	if !c.Dirty() {
		return nil
	}

	c.MarkCommitted()
	if err := fs.commit(id, c); err != nil {
		if errors.Is(err, os.ErrPermission) {
			fs.logger.Error("file storage is read-only", zap.String("path", fs.filePath))
		}
		return err
	}
	changed = true
	return nil
}
