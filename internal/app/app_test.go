package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/config"
)

func fileConfig(t *testing.T) config.Config {
	return config.Config{
		Backend:  config.BackendFile,
		DataFile: filepath.Join(t.TempDir(), "containers.json"),
		Admin:    config.Admin{Username: "admin", Password: "s3cret"},
		Duty: config.Duty{
			ValuePerKg: decimal.NewFromInt(100),
			Rate:       decimal.RequireFromString("0.10"),
			FlatAmount: decimal.RequireFromString("150000.00"),
		},
		Validation: config.Validation{AdvisoryBlocks: true},
	}
}

func TestBuild_FileBackend(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, fileConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Publisher)
	assert.Empty(t, a.Checks)

	ok, err := a.Users.ValidateUser(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = a.Storage.CreateContainer(ctx, clearance.ExtractedData{ContainerID: "MAEU4567890"}, "bol.pdf")
	require.NoError(t, err)

	res, err := a.Storage.CheckCustomsStatus(ctx, "MAEU4567890")
	require.NoError(t, err)
	assert.True(t, res.AmountDue.Decimal.Equal(decimal.RequireFromString("150000")), "containers without weight pay the flat duty")
}

func TestBuild_FileBackendWithoutAdmin(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t)
	cfg.Admin.Password = ""

	a, err := Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	ok, err := a.Users.ValidateUser(ctx, "admin", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewEngine_UsesConfiguredDuty(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Duty.Rate = decimal.RequireFromString("0.20")
	engine := NewEngine(cfg)

	c, err := engine.NewContainer(clearance.ExtractedData{
		ContainerID: "MAEU4567890",
		CargoWeight: decimal.NewNullDecimal(decimal.NewFromInt(1000)),
	}, "bol.pdf")
	require.NoError(t, err)

	res := engine.CheckCustoms(c)
	assert.True(t, res.AmountDue.Decimal.Equal(decimal.NewFromInt(20000)))
}

func TestBuild_FileBackendCorruptFile(t *testing.T) {
	cfg := fileConfig(t)
	require.NoError(t, os.WriteFile(cfg.DataFile, []byte("not json"), 0o600))

	_, err := Build(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
