package postgresql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	mock_database "gitlab.ozon.dev/pupkingeorgij/portflow/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/repository/postgresql"
)

type countRow struct {
	count int
	err   error
}

func (r countRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int) = r.count
	return nil
}

func TestUserRepo_Exists(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		row     pgx.Row
		want    bool
		wantErr bool
	}{
		{name: "exists", row: countRow{count: 1}, want: true},
		{name: "missing", row: countRow{count: 0}, want: false},
		{name: "scan error", row: countRow{err: errors.New("conn closed")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDB := mock_database.NewMockDB(ctrl)
			repo := postgresql.NewUserRepo(mockDB)

			mockDB.EXPECT().ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).Return(tt.row)

			got, err := repo.Exists(ctx, "admin")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserRepo_ValidateUser(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := func(_ context.Context, dest *repository.User, _ string, _ string) error {
		*dest = repository.User{ID: 1, Username: "admin", Password: string(hash)}
		return nil
	}

	t.Run("valid password", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("admin")).DoAndReturn(stored)

		ok, err := repo.ValidateUser(ctx, "admin", "s3cret")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("admin")).DoAndReturn(stored)

		ok, err := repo.ValidateUser(ctx, "admin", "guess")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("root")).Return(pgx.ErrNoRows)

		ok, err := repo.ValidateUser(ctx, "root", "s3cret")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
