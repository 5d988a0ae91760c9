package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserNotFound signals that the user does not exist.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
)

// Repository handles credential lookups.
type Repository interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID string) (User, error)
}

// StaticRepository implements Repository over a fixed credential set whose
// passwords are bcrypt-hashed at construction.
type StaticRepository struct {
	byEmail map[string]User
	byID    map[string]User
}

// NewStaticRepository hashes creds with the given bcrypt cost.
func NewStaticRepository(cost int, creds []Credential) (*StaticRepository, error) {
	r := &StaticRepository{
		byEmail: make(map[string]User, len(creds)),
		byID:    make(map[string]User, len(creds)),
	}
	for _, c := range creds {
		if _, exists := r.byEmail[c.Email]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, c.Email)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("auth: hash password: %w", err)
		}

		user := c.User
		user.Email = c.Email
		user.PasswordHash = string(hash)
		r.byEmail[c.Email] = user
		r.byID[user.ID] = user
	}
	return r, nil
}

// NewDemoRepository seeds the store with DemoCredentials.
func NewDemoRepository() (*StaticRepository, error) {
	return NewStaticRepository(bcrypt.DefaultCost, DemoCredentials())
}

// GetUserByEmail retrieves a user by email address. The match is exact.
func (r *StaticRepository) GetUserByEmail(_ context.Context, email string) (User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *StaticRepository) GetUserByID(_ context.Context, userID string) (User, error) {
	user, ok := r.byID[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}
