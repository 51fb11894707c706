package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/metrics"
)

const directWorker = -1

// AuditManager groups audit entries into batches and hands them to a pool
// of workers that write them to the logger. A batch that finds the queue
// full is written directly by the aggregator.
type AuditManager struct {
	logger      *zap.Logger
	workerCount int
	batchSize   int
	timeout     time.Duration

	inputChan  chan AuditLogEntry
	batchChan  chan []AuditLogEntry
	shutdownCh chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once

	// intake guards sends on inputChan: once closed is set no send can
	// start, and every send already under way has finished, so the
	// aggregator's final drain sees all accepted entries.
	intakeMu sync.RWMutex
	closed   bool
	stopping chan struct{}

	wg           sync.WaitGroup
	pendingMu    sync.Mutex
	pendingCount int
}

func NewAuditManager(logger *zap.Logger, workerCount, batchSize int, timeout time.Duration) *AuditManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &AuditManager{
		logger:      logger,
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		inputChan:   make(chan AuditLogEntry, workerCount*batchSize*2),
		batchChan:   make(chan []AuditLogEntry, workerCount*2),
		shutdownCh:  make(chan struct{}),
		stopping:    make(chan struct{}),
	}
}

// Start launches the aggregator and the workers. They run until Shutdown.
func (m *AuditManager) Start() {
	m.startOnce.Do(func() {
		m.logger.Debug("starting audit manager", zap.Int("workers", m.workerCount), zap.Int("batch_size", m.batchSize))
		m.wg.Add(1)
		go m.runAggregator()

		for i := 0; i < m.workerCount; i++ {
			m.wg.Add(1)
			go m.runWorker(i)
		}
	})
}

// Shutdown flushes queued entries and waits for the workers, at most until
// ctx is done.
func (m *AuditManager) Shutdown(ctx context.Context) {
	m.stopOnce.Do(func() {
		close(m.stopping)
		m.intakeMu.Lock()
		m.closed = true
		m.intakeMu.Unlock()
		close(m.shutdownCh)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Debug("audit manager stopped")
		case <-ctx.Done():
			m.logger.Warn("audit manager shutdown interrupted", zap.Int("pending", m.Pending()))
		}
	})
}

func (m *AuditManager) LogEntry(ctx context.Context, entry AuditLogEntry) {
	m.updatePendingCount(1)

	m.intakeMu.RLock()
	defer m.intakeMu.RUnlock()
	if m.closed {
		m.emergencyLog(entry)
		return
	}

	select {
	case m.inputChan <- entry:
	case <-m.stopping:
		m.emergencyLog(entry)
	case <-ctx.Done():
		m.emergencyLog(entry)
	}
}

// Pending reports entries accepted but not yet written.
func (m *AuditManager) Pending() int {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	return m.pendingCount
}

func (m *AuditManager) runAggregator() {
	defer m.wg.Done()

	var (
		batch    []AuditLogEntry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry := <-m.inputChan:
			batch = append(batch, entry)
			if len(batch) >= m.batchSize {
				m.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(m.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-m.shutdownCh:
			for {
				select {
				case entry := <-m.inputChan:
					batch = append(batch, entry)
				default:
					return
				}
			}
		}
	}
}

func (m *AuditManager) dispatchBatch(batch []AuditLogEntry) {
	batchCopy := make([]AuditLogEntry, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		metrics.AuditEntriesDirectTotal.Add(float64(len(batchCopy)))
		m.printBatch(directWorker, batchCopy)
	}
}

func (m *AuditManager) runWorker(id int) {
	defer m.wg.Done()

	for batch := range m.batchChan {
		m.printBatch(id, batch)
	}
}

func (m *AuditManager) emergencyLog(entry AuditLogEntry) {
	m.logger.Warn("audit entry written outside batch", entry.field())
	m.updatePendingCount(-1)
}

func (m *AuditManager) printBatch(workerID int, batch []AuditLogEntry) {
	worker := "direct"
	if workerID != directWorker {
		worker = fmt.Sprintf("worker-%d", workerID)
	}

	for _, entry := range batch {
		m.logger.Info("audit", zap.String("worker", worker), zap.Int("batch", len(batch)), entry.field())
	}
	m.updatePendingCount(-len(batch))
}

func (m *AuditManager) updatePendingCount(delta int) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	m.pendingCount += delta
}
