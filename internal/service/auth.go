// Package service holds the business logic of the review engine: account
// sign-up and sign-in, the review ingestion workflow and the aggregation
// queries. Persistence is delegated to repository interfaces declared here.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/atinyakov/ParkPassport/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// RegisterUser stores a new account. A taken username is a conflict.
	RegisterUser(ctx context.Context, username string, passwordHash []byte) (*models.Account, error)
	// FindByUsername loads an account by its login name.
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
}

// TokenIssuer mints access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(acc models.Account) (string, error)
}

// Service implements authentication operations by delegating
// to an AuthRepository.
type Service struct {
	repo   AuthRepository
	tokens TokenIssuer
	cost   int
}

// NewAuthService constructs a new Service using the provided repository and token issuer.
func NewAuthService(repo AuthRepository, tokens TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens, cost: bcrypt.DefaultCost}
}

var errInvalidLogin = apperrors.Unauthorized("invalid login")

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, username, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	fields := map[string]string{}
	if username == "" {
		fields["username"] = "username is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	// bcrypt rejects passwords longer than 72 bytes.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperrors.Invalid("password", "password cannot be hashed")
	}

	return s.repo.RegisterUser(ctx, username, hash)
}

// SignIn checks the credentials and returns the account with a fresh access token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, username, password string) (*models.Account, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", errInvalidLogin
	}

	acc, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", errInvalidLogin
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return nil, "", errInvalidLogin
	}

	token, err := s.tokens.Issue(*acc)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return acc, token, nil
}
