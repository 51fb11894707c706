package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrUserExists = errors.New("user already exists")

// StaticUserRepo keeps bcrypt hashes in memory. It backs basic auth when the
// file backend runs without a database.
type StaticUserRepo struct {
	mu     sync.RWMutex
	hashes map[string][]byte
	cost   int
}

func NewStaticUserRepo() *StaticUserRepo {
	return &StaticUserRepo{
		hashes: make(map[string][]byte),
		cost:   bcrypt.DefaultCost,
	}
}

func (r *StaticUserRepo) CreateUser(_ context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hashes[username]; ok {
		return fmt.Errorf("%w: %s", ErrUserExists, username)
	}
	r.hashes[username] = hash
	return nil
}

func (r *StaticUserRepo) Exists(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.hashes[username]
	return ok, nil
}

func (r *StaticUserRepo) ValidateUser(_ context.Context, username, password string) (bool, error) {
	r.mu.RLock()
	hash, ok := r.hashes[username]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return err == nil, err
}
