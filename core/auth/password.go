package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/jdelaire/goalbot/internal/store"
)

const minPasswordLen = 8

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLen)
)

// AccountLookup finds accounts by username.
type AccountLookup interface {
	GetAccount(ctx context.Context, find *store.FindAccount) (*store.Account, error)
}

// Authenticator checks account passwords against stored bcrypt hashes.
type Authenticator struct {
	accounts AccountLookup
}

// New creates an Authenticator.
func New(accounts AccountLookup) *Authenticator {
	return &Authenticator{accounts: accounts}
}

// Verify returns the account when password matches. Unknown usernames
// still pay for a bcrypt comparison so both failures take similar time.
func (a *Authenticator) Verify(ctx context.Context, username, password string) (*store.Account, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := a.accounts.GetAccount(ctx, &store.FindAccount{Username: &username})
	if errors.Is(err, store.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// HashPassword returns the bcrypt hash stored for an account.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return hash
})
