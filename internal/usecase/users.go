package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
)

type Users struct {
	repo   UserRepo
	hasher PasswordHasher
	tokens TokenService
	now    func() time.Time
}

func NewUsers(repo UserRepo, hasher PasswordHasher, tokens TokenService) *Users {
	return &Users{repo: repo, hasher: hasher, tokens: tokens, now: time.Now}
}

type Credentials struct {
	Username string
	Password string
}

func (s *Users) CreateUser(ctx context.Context, in Credentials) (*domain.User, error) {
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, InvalidArgument(err.Error(), "password")
	}
	username := strings.TrimSpace(in.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, InvalidArgument(err.Error(), in.Username)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, Internal("hash password", err)
	}
	u := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Roles:        []string{},
		Created:      s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, userStoreError(err, in.Username)
	}
	return u, nil
}

// Login returns a signed token for valid credentials.
func (s *Users) Login(ctx context.Context, in Credentials) (string, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", Internal("find user", err)
	}
	if u == nil || !s.hasher.Verify(in.Password, u.PasswordHash) {
		return "", InvalidArgument("invalid username or password", nil)
	}
	tok, err := s.tokens.Issue(u)
	if err != nil {
		return "", Internal("issue token", err)
	}
	return tok, nil
}

// Me returns the current user or nil.
func (s *Users) Me(ctx context.Context) *domain.User {
	u, _ := CurrentUser(ctx)
	return u
}

func (s *Users) UpdateUsername(ctx context.Context, newUsername string) (*domain.User, error) {
	cur, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(newUsername)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, InvalidArgument(err.Error(), newUsername)
	}

	u := *cur
	u.Username = username
	if err := s.repo.Update(ctx, &u); err != nil {
		return nil, userStoreError(err, newUsername)
	}
	return &u, nil
}

func (s *Users) UpdatePassword(ctx context.Context, oldPassword, newPassword string) (*domain.User, error) {
	cur, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return nil, InvalidArgument(err.Error(), "newPassword")
	}
	if !s.hasher.Verify(oldPassword, cur.PasswordHash) {
		return nil, InvalidArgument("Old password incorrect", "oldPassword")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, Internal("hash password", err)
	}
	u := *cur
	u.PasswordHash = hash
	if err := s.repo.Update(ctx, &u); err != nil {
		return nil, userStoreError(err, nil)
	}
	return &u, nil
}

// GrantRole adds role to the named user. Used by operators, not exposed over the API.
func (s *Users) GrantRole(ctx context.Context, username, role string) (*domain.User, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, InvalidArgument("role is required", role)
	}
	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, InvalidArgument("user not found", username)
	}
	if err != nil {
		return nil, Internal("find user", err)
	}
	if !u.Grant(role) {
		return u, nil
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, userStoreError(err, username)
	}
	return u, nil
}

func userStoreError(err error, args any) error {
	switch {
	case errors.Is(err, ErrUsernameTaken):
		return InvalidArgument(ErrUsernameTaken.Error(), args)
	case errors.Is(err, ErrNotFound):
		return InvalidArgument("user not found", args)
	default:
		return Internal("save user", err)
	}
}
