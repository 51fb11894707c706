package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
)

func newTestFileStorage(t *testing.T) (*FileStorage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "containers.json")
	fs, err := NewFileStorage(path, testEngine(), nil)
	require.NoError(t, err)
	return fs, path
}

func TestFileStorage_CreateContainer(t *testing.T) {
	ctx := context.Background()
	fs, path := newTestFileStorage(t)

	c, err := fs.CreateContainer(ctx, sampleData(), "bol.pdf")
	require.NoError(t, err)
	assert.Equal(t, clearance.OverallPendingValidation, c.OverallStatus)
	assert.FileExists(t, path)

	_, err = fs.CreateContainer(ctx, sampleData(), "again.pdf")
	assert.ErrorIs(t, err, clearance.ErrDuplicateContainer)

	got, err := fs.GetContainer(ctx, c.ContainerID)
	require.NoError(t, err)
	require.NotNil(t, got.OriginalFilename)
	assert.Equal(t, "bol.pdf", *got.OriginalFilename)
	assert.Len(t, got.Logs, 1)
}

func TestFileStorage_GetContainer_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	fs, _ := newTestFileStorage(t)

	_, err := fs.CreateContainer(ctx, sampleData(), "bol.pdf")
	require.NoError(t, err)

	got, err := fs.GetContainer(ctx, "MAEU4567890")
	require.NoError(t, err)
	got.OverallStatus = clearance.OverallReleased
	got.Logs = append(got.Logs, clearance.LogEntry{Action: "tampered"})

	again, err := fs.GetContainer(ctx, "MAEU4567890")
	require.NoError(t, err)
	assert.Equal(t, clearance.OverallPendingValidation, again.OverallStatus)
	assert.Len(t, again.Logs, 1)

	_, err = fs.GetContainer(ctx, "NOPE")
	assert.ErrorIs(t, err, clearance.ErrContainerNotFound)
}

func TestFileStorage_Reload(t *testing.T) {
	ctx := context.Background()
	fs, path := newTestFileStorage(t)

	_, err := fs.CreateContainer(ctx, sampleData(), "bol.pdf")
	require.NoError(t, err)
	_, err = fs.CheckCustomsStatus(ctx, "MAEU4567890")
	require.NoError(t, err)
	_, err = fs.PayCustomsDuty(ctx, "MAEU4567890", decimal.NewFromInt(185000), "PAY-1")
	require.NoError(t, err)

	reopened, err := NewFileStorage(path, testEngine(), nil)
	require.NoError(t, err)

	c, err := reopened.GetContainer(ctx, "MAEU4567890")
	require.NoError(t, err)
	assert.Equal(t, clearance.CustomsPaid, c.CustomsStatus)
	assert.Equal(t, clearance.OverallCustomsCleared, c.OverallStatus)
	assert.True(t, c.CustomsDutyAmount.Decimal.Equal(decimal.NewFromInt(185000)))
	require.Len(t, c.Logs, 3)
	assert.Equal(t, clearance.ActionCustomsPayment, c.Logs[2].Action)
	assert.False(t, c.Dirty())

	_, err = reopened.PayCustomsDuty(ctx, "MAEU4567890", decimal.NewFromInt(185000), "")
	assert.ErrorIs(t, err, clearance.ErrAlreadyPaid)
}

func TestFileStorage_ReadOnlyOpsDoNotWrite(t *testing.T) {
	ctx := context.Background()
	fs, path := newTestFileStorage(t)

	_, err := fs.CreateContainer(ctx, sampleData(), "bol.pdf")
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	res, err := fs.ValidateContainer(ctx, "MAEU4567890", false)
	require.NoError(t, err)
	assert.False(t, res.Ran)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStorage_ListContainers(t *testing.T) {
	ctx := context.Background()
	fs, _ := newTestFileStorage(t)

	for _, id := range []string{"MAEU4567890", "MSCU1234567", "CMAU7654321"} {
		data := sampleData()
		data.ContainerID = id
		_, err := fs.CreateContainer(ctx, data, id+".pdf")
		require.NoError(t, err)
	}
	_, err := fs.ValidateContainer(ctx, "MSCU1234567", true)
	require.NoError(t, err)

	all, err := fs.ListContainers(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	validated, err := fs.ListContainers(ctx, ListFilter{Status: string(clearance.OverallValidated)})
	require.NoError(t, err)
	require.Len(t, validated, 1)
	assert.Equal(t, "MSCU1234567", validated[0].ContainerID)

	limited, err := fs.ListContainers(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = fs.ListContainers(ctx, ListFilter{Status: "LOST"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestFileStorage_ConcurrentPayments(t *testing.T) {
	ctx := context.Background()
	fs, _ := newTestFileStorage(t)

	_, err := fs.CreateContainer(ctx, sampleData(), "bol.pdf")
	require.NoError(t, err)
	_, err = fs.CheckCustomsStatus(ctx, "MAEU4567890")
	require.NoError(t, err)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fs.PayCustomsDuty(ctx, "MAEU4567890", decimal.NewFromInt(185000), "")
		}(i)
	}
	wg.Wait()

	var succeeded, alreadyPaid int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, clearance.ErrAlreadyPaid):
			alreadyPaid++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, alreadyPaid)

	c, err := fs.GetContainer(ctx, "MAEU4567890")
	require.NoError(t, err)
	payments := 0
	for _, l := range c.Logs {
		if l.Action == clearance.ActionCustomsPayment {
			payments++
		}
	}
	assert.Equal(t, 1, payments)
}

func TestFileStorage_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	fs, _ := newTestFileStorage(t)
	id := "MAEU4567890"

	_, err := fs.CreateContainer(ctx, sampleData(), "bol.pdf")
	require.NoError(t, err)

	_, err = fs.ValidateContainer(ctx, id, true)
	require.NoError(t, err)
	customs, err := fs.CheckCustomsStatus(ctx, id)
	require.NoError(t, err)
	require.True(t, customs.AmountDue.Valid)

	_, err = fs.PayCustomsDuty(ctx, id, customs.AmountDue.Decimal, "")
	require.NoError(t, err)
	_, err = fs.CheckShippingStatus(ctx, id)
	require.NoError(t, err)
	_, err = fs.ScheduleInspection(ctx, id)
	require.NoError(t, err)
	_, err = fs.CompleteInspection(ctx, id, true)
	require.NoError(t, err)

	res, err := fs.ReleaseContainer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, clearance.OverallReleased, res.OverallStatus)
	assert.Equal(t, clearance.ShippingReadyForPickup, res.ShippingStatus)

	_, err = fs.CompleteInspection(ctx, id, false)
	assert.ErrorIs(t, err, clearance.ErrTerminalState)

	c, err := fs.GetContainer(ctx, id)
	require.NoError(t, err)
	assert.Len(t, c.Logs, 8)
}
