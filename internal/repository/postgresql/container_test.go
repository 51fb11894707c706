package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "gitlab.ozon.dev/pupkingeorgij/portflow/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository/postgresql"
)

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = gomock.Any()
	}
	return args
}

func testContainer() *repository.Container {
	now := time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC)
	vessel := "MSC AURORA"
	return &repository.Container{
		ID:               "MAEU4567890",
		OverallStatus:    "PENDING_VALIDATION",
		VesselName:       &vessel,
		CargoWeight:      decimal.NewNullDecimal(decimal.NewFromInt(18500)),
		CustomsStatus:    "PENDING",
		ShippingStatus:   "DISCHARGED",
		InspectionStatus: "NOT_SCHEDULED",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestContainerRepo_CreateTx(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewContainerRepo(mockDB)
		c := testContainer()

		args := anyArgs(22)
		args[0] = gomock.Eq(c.ID)
		args[1] = gomock.Eq(c.OverallStatus)
		args[19] = gomock.Eq([]string{})
		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), args...).Return(pgconn.CommandTag("INSERT 0 1"), nil)

		assert.NoError(t, repo.CreateTx(ctx, mockTx, c))
	})

	t.Run("duplicate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewContainerRepo(mockDB)

		pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), anyArgs(22)...).Return(nil, pgErr)

		err := repo.CreateTx(ctx, mockTx, testContainer())
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})
}

func TestContainerRepo_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewContainerRepo(mockDB)
		want := testContainer()

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq(want.ID)).
			DoAndReturn(func(_ context.Context, dest *repository.Container, _ string, _ string) error {
				*dest = *want
				return nil
			})

		got, err := repo.GetByID(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewContainerRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("NOPE")).Return(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, "NOPE")
		assert.Nil(t, got)
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestContainerRepo_GetByIDTx(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockDB := mock_database.NewMockDB(ctrl)
	mockTx := mock_database.NewMockTx(ctrl)
	repo := postgresql.NewContainerRepo(mockDB)
	want := testContainer()

	mockTx.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq(want.ID)).
		DoAndReturn(func(_ context.Context, dest *repository.Container, query string, _ string) error {
			assert.Contains(t, query, "FOR UPDATE")
			*dest = *want
			return nil
		})

	got, err := repo.GetByIDTx(ctx, mockTx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
}

func TestContainerRepo_UpdateTx(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		tag     pgconn.CommandTag
		execErr error
		wantErr error
	}{
		{name: "success", tag: pgconn.CommandTag("UPDATE 1")},
		{name: "no rows", tag: pgconn.CommandTag("UPDATE 0"), wantErr: repository.ErrObjectNotFound},
		{name: "database error", execErr: errors.New("database error"), wantErr: errors.New("database error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDB := mock_database.NewMockDB(ctrl)
			mockTx := mock_database.NewMockTx(ctrl)
			repo := postgresql.NewContainerRepo(mockDB)

			mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), anyArgs(12)...).Return(tt.tag, tt.execErr)

			err := repo.UpdateTx(ctx, mockTx, testContainer())
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr.Error())
		})
	}
}

func TestContainerRepo_List(t *testing.T) {
	ctx := context.Background()

	t.Run("with status and limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewContainerRepo(mockDB)
		status := "VALIDATED"

		mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq(status), gomock.Eq(10)).
			DoAndReturn(func(_ context.Context, dest *[]*repository.Container, query string, _ ...any) error {
				assert.Contains(t, query, "WHERE overall_status = $1")
				assert.Contains(t, query, "ORDER BY created_at DESC")
				assert.Contains(t, query, "LIMIT $2")
				*dest = []*repository.Container{testContainer()}
				return nil
			})

		got, err := repo.List(ctx, repository.ContainerFilter{Status: &status, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("limit only", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewContainerRepo(mockDB)

		mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq(5)).
			DoAndReturn(func(_ context.Context, _ *[]*repository.Container, query string, _ ...any) error {
				assert.NotContains(t, query, "WHERE")
				assert.Contains(t, query, "LIMIT $1")
				return nil
			})

		got, err := repo.List(ctx, repository.ContainerFilter{Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
