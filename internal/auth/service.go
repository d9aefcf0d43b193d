package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inventario/inventario/internal/shared"
)

// Service verifies credentials against the Repository.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	timeout time.Duration

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService constructs a new Service. storeTimeout bounds every repository call.
func NewService(repo Repository, logger *slog.Logger, storeTimeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, timeout: storeTimeout}
}

// Verify checks username and secret. Store failures are returned as errors;
// every other answer is a Result.
func (s *Service) Verify(ctx context.Context, username, secret string) (Result, error) {
	var account *Account
	err := shared.WithStoreTimeout(ctx, s.timeout, func(ctx context.Context) error {
		var err error
		account, err = s.repo.FindByUsername(ctx, username)
		return err
	})
	if errors.Is(err, shared.ErrNotFound) {
		// Burn the same bcrypt cost so response time does not reveal which
		// usernames exist.
		_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(secret))
		return Result{Outcome: OutcomeAccountNotFound}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("auth: find account: %w", err)
	}
	if !account.Active {
		return Result{Outcome: OutcomeAccountInactive}, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(secret)); err != nil {
		return Result{Outcome: OutcomeInvalidCredentials}, nil
	}
	role, err := shared.ParseRole(account.Role)
	if err != nil {
		s.logger.Error("account has unknown role", slog.String("username", account.Username), slog.String("role", account.Role))
		return Result{Outcome: OutcomeInvalidCredentials}, nil
	}
	return Result{Outcome: OutcomeAuthenticated, Account: account, Role: role}, nil
}

// Bootstrap creates the seed accounts whose username and email are both free.
func (s *Service) Bootstrap(ctx context.Context, seeds []SeedAccount) error {
	for _, seed := range seeds {
		taken, err := s.repo.ExistsByUsername(ctx, seed.Username)
		if err != nil {
			return fmt.Errorf("auth: bootstrap %s: %w", seed.Username, err)
		}
		if !taken {
			taken, err = s.repo.ExistsByEmail(ctx, seed.Email)
			if err != nil {
				return fmt.Errorf("auth: bootstrap %s: %w", seed.Username, err)
			}
		}
		if taken {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("auth: hash %s: %w", seed.Username, err)
		}
		id, err := s.repo.Create(ctx, Account{
			Username:     seed.Username,
			Email:        seed.Email,
			PasswordHash: string(hash),
			FullName:     seed.FullName,
			Active:       true,
			Role:         seed.Role.String(),
		})
		if err != nil {
			return err
		}
		s.logger.Info("bootstrap account created", slog.String("username", seed.Username), slog.Int64("id", id))
	}
	return nil
}

func (s *Service) placeholderHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("inventario-placeholder"), bcrypt.DefaultCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
