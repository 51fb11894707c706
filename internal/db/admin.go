package db

import (
	"context"
	"errors"
	"fmt"
)

type AdminSeeder interface {
	Exists(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, username, password string) error
}

// InitAdmin creates the admin account unless it already exists. It reports
// whether a user was created.
func InitAdmin(ctx context.Context, users AdminSeeder, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, errors.New("admin username and password must be set")
	}

	exists, err := users.Exists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to look up admin user: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := users.CreateUser(ctx, username, password); err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}
	return true, nil
}
