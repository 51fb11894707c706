package server

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditManager_FlushesOnShutdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(zap.New(core), 2, 3, time.Hour)
	m.Start()

	ctx := context.Background()
	for i := 0; i < 7; i++ {
		m.LogEntry(ctx, AuditLogEntry{Handler: "get_container", ContainerID: fmt.Sprintf("MAEU%07d", i)})
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	m.Shutdown(shutdownCtx)

	assert.Equal(t, 7, logs.FilterMessage("audit").Len())
	assert.Zero(t, m.Pending())
}

func TestAuditManager_FlushesPartialBatchOnTimeout(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(zap.New(core), 1, 100, 10*time.Millisecond)
	m.Start()
	defer m.Shutdown(context.Background())

	m.LogEntry(context.Background(), AuditLogEntry{Handler: "release"})

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("audit").Len() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestAuditManager_LogAfterShutdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(zap.New(core), 1, 1, time.Millisecond)
	m.Start()
	m.Shutdown(context.Background())

	m.LogEntry(context.Background(), AuditLogEntry{Handler: "validate"})

	assert.Equal(t, 1, logs.FilterMessage("audit entry written outside batch").Len())
	assert.Zero(t, m.Pending())
}

func TestAuditManager_EntriesRacingShutdownAreAllWritten(t *testing.T) {
	for round := 0; round < 50; round++ {
		core, logs := observer.New(zapcore.InfoLevel)
		m := NewAuditManager(zap.New(core), 2, 4, time.Hour)
		m.Start()

		const writers = 16
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				m.LogEntry(context.Background(), AuditLogEntry{Handler: "get_container", ContainerID: fmt.Sprintf("MAEU%07d", i)})
			}(i)
		}

		close(start)
		m.Shutdown(context.Background())
		wg.Wait()

		written := logs.FilterMessage("audit").Len() + logs.FilterMessage("audit entry written outside batch").Len()
		assert.Equal(t, writers, written, "round %d", round)
		assert.Zero(t, m.Pending(), "round %d", round)
	}
}
