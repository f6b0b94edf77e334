package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger/internal/auth"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// RegistrationService creates users with their starter data and manages sessions.
type RegistrationService struct {
	storage         *storage.SQLiteRepository
	hasher          auth.Hasher
	sessionTTL      time.Duration
	defaultCurrency string
	logger          *applog.Logger
	now             func() time.Time
}

func NewRegistrationService(storage *storage.SQLiteRepository, hasher auth.Hasher, sessionTTL time.Duration, defaultCurrency string, logger *applog.Logger) *RegistrationService {
	if defaultCurrency == "" {
		defaultCurrency = core.DefaultCurrency
	}
	return &RegistrationService{
		storage:         storage,
		hasher:          hasher,
		sessionTTL:      sessionTTL,
		defaultCurrency: defaultCurrency,
		logger:          logger.WithComponent(applog.ComponentAuth),
		now:             time.Now,
	}
}

// Register creates the user and seeds the default accounts, categories and
// currency setting in one transaction. An empty currency uses the default.
func (s *RegistrationService) Register(ctx context.Context, username, email, password, currency string) (core.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return core.User{}, core.ErrMissingCredentials
	}
	if currency == "" {
		currency = s.defaultCurrency
	}
	currency, err := NormalizeCurrency(currency)
	if err != nil {
		return core.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return core.User{}, err
	}

	var user core.User
	err = s.storage.InTx(ctx, func(q *storage.Queries) error {
		exists, err := q.UserExists(ctx, username, email)
		if err != nil {
			return err
		}
		if exists {
			return core.ErrUserExists
		}
		user, err = q.CreateUser(ctx, username, email, hash)
		if err != nil {
			return err
		}
		return seedDefaults(ctx, q, user.ID, currency)
	})
	if err != nil {
		return core.User{}, fmt.Errorf("register %s: %w", username, err)
	}

	s.logger.InfoContext(ctx, "User registered", applog.FieldUserID, user.ID, "username", user.Username)
	return user, nil
}

func seedDefaults(ctx context.Context, q *storage.Queries, userID int64, currency string) error {
	for _, t := range core.DefaultAccountTypes {
		if _, err := q.CreateAccount(ctx, userID, t, 0); err != nil {
			return err
		}
	}
	if _, err := q.CreateSetting(ctx, userID, currency); err != nil {
		return err
	}
	for _, name := range core.DefaultIncomeCategories {
		if _, err := q.CreateCategory(ctx, userID, name, core.Income); err != nil {
			return err
		}
	}
	for _, name := range core.DefaultExpenseCategories {
		if _, err := q.CreateCategory(ctx, userID, name, core.Expense); err != nil {
			return err
		}
	}
	return nil
}

// Login checks the credentials and opens a session.
func (s *RegistrationService) Login(ctx context.Context, username, password string) (core.Session, error) {
	user, err := s.storage.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		return core.Session{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return core.Session{}, err
	}
	if err := s.hasher.Check(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			return core.Session{}, core.ErrInvalidCredentials
		}
		return core.Session{}, err
	}

	session := core.Session{
		Token:     auth.NewSessionToken(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}
	if err := s.storage.CreateSession(ctx, session); err != nil {
		return core.Session{}, err
	}

	s.logger.InfoContext(ctx, "User logged in", applog.FieldUserID, user.ID)
	return session, nil
}

// Authenticate resolves a session token to its user. Expired sessions are
// removed and reported as not found.
func (s *RegistrationService) Authenticate(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, fmt.Errorf("%w: session", core.ErrNotFound)
	}
	session, err := s.storage.GetSession(ctx, token)
	if err != nil {
		return core.User{}, err
	}
	if !s.now().Before(session.ExpiresAt) {
		if err := s.storage.DeleteSession(ctx, token); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete expired session", applog.FieldError, err)
		}
		return core.User{}, fmt.Errorf("%w: session expired", core.ErrNotFound)
	}
	return s.storage.GetUser(ctx, session.UserID)
}

func (s *RegistrationService) Logout(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}

// PurgeSessions drops expired sessions.
func (s *RegistrationService) PurgeSessions(ctx context.Context) (int64, error) {
	return s.storage.DeleteExpiredSessions(ctx, s.now())
}
