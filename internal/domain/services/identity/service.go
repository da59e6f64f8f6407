package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/domain/repositories"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	"github.com/stack-service/backoffice/pkg/auth"
	"github.com/stack-service/backoffice/pkg/crypto"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
	"github.com/stack-service/backoffice/pkg/metrics"
	"github.com/stack-service/backoffice/pkg/sanitize"
)

// Config controls sign-up
type Config struct {
	AdminEmails       []string
	PasswordMinLength int
	AllowSignup       bool
}

// Service handles sign-up, sign-in and role lookups
type Service struct {
	tx        repositories.Transactor
	users     repositories.UserRepository
	investors repositories.InvestorRepository
	tokens    *auth.TokenManager
	admins    map[string]struct{}
	config    Config
	logger    *logger.Logger
	now       func() time.Time
}

// NewService creates a new identity service
func NewService(
	tx repositories.Transactor,
	users repositories.UserRepository,
	investors repositories.InvestorRepository,
	tokens *auth.TokenManager,
	config Config,
	logger *logger.Logger,
) *Service {
	admins := make(map[string]struct{}, len(config.AdminEmails))
	for _, email := range config.AdminEmails {
		admins[sanitize.Email(email)] = struct{}{}
	}
	return &Service{
		tx:        tx,
		users:     users,
		investors: investors,
		tokens:    tokens,
		admins:    admins,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// SignUp registers an email/password identity. Bootstrap admin emails get
// the admin role, everyone else starts as an investor.
func (s *Service) SignUp(ctx context.Context, req *entities.SignUpRequest) (*entities.SessionResponse, error) {
	if !s.config.AllowSignup {
		return nil, apperrors.Forbidden("Sign-up is disabled")
	}

	email := sanitize.Email(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.Validation("email", "A valid email is required")
	}
	if err := crypto.CheckPasswordStrength(req.Password, s.config.PasswordMinLength); err != nil {
		return nil, apperrors.Validation("password", err.Error())
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to create account", err)
	}

	role := entities.RoleInvestor
	if _, ok := s.admins[email]; ok {
		role = entities.RoleAdmin
	}

	var user *entities.User
	err = s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			return apperrors.Conflict("An account with this email already exists").AddDetail("field", "email")
		case !apperrors.IsCode(err, apperrors.ErrCodeNotFound):
			return err
		}

		user, err = s.users.Create(ctx, &entities.User{
			Email:        email,
			Name:         sanitize.Name(req.Name),
			PasswordHash: hash,
			Role:         role,
		})
		return err
	})
	if err != nil {
		metrics.RecordAuthenticationAttempt("signup_failed")
		return nil, err
	}

	metrics.RecordAuthenticationAttempt("signup")
	s.logger.CtxInfo(ctx, "User signed up", "user_id", user.ID, "role", user.Role)
	return s.session(user)
}

// SignIn checks credentials and issues an access token
func (s *Service) SignIn(ctx context.Context, req *entities.SignInRequest) (*entities.SessionResponse, error) {
	invalid := apperrors.Unauthorized("Invalid email or password")

	user, err := s.users.GetByEmail(ctx, sanitize.Email(req.Email))
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			metrics.RecordAuthenticationAttempt("failure")
			return nil, invalid
		}
		return nil, err
	}
	if !crypto.ValidatePassword(req.Password, user.PasswordHash) {
		metrics.RecordAuthenticationAttempt("failure")
		s.logger.CtxWarn(ctx, "Sign-in with wrong password", "user_id", user.ID)
		return nil, invalid
	}

	if err := s.users.Update(ctx, user.ID, docstore.Fields{"lastSignInAt": s.now().UTC()}); err != nil {
		s.logger.CtxWarn(ctx, "Failed to record sign-in time", "user_id", user.ID, "error", err)
	}

	metrics.RecordAuthenticationAttempt("success")
	s.logger.CtxInfo(ctx, "User signed in", "user_id", user.ID)
	return s.session(user)
}

func (s *Service) session(user *entities.User) (*entities.SessionResponse, error) {
	token, expires, err := s.tokens.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal("Failed to issue session", err)
	}
	return &entities.SessionResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
		User:        user.ToResponse(),
	}, nil
}

// Authenticate resolves a bearer token to the stored user. The stored role
// wins over whatever the token claims.
func (s *Service) Authenticate(ctx context.Context, token string) (*entities.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.New(apperrors.ErrCodeInvalidToken, "Session has expired")
		}
		return nil, apperrors.New(apperrors.ErrCodeInvalidToken, "Invalid session token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeInvalidToken, "Invalid session token")
		}
		return nil, err
	}
	return user, nil
}

// CurrentUser returns the stored user for an id
func (s *Service) CurrentUser(ctx context.Context, userID string) (*entities.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ListUsers returns every identity, oldest first
func (s *Service) ListUsers(ctx context.Context) ([]*entities.User, error) {
	return s.users.List(ctx)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *Service) SetRole(ctx context.Context, userID string, role entities.Role, adminID string) (*entities.User, error) {
	if !role.IsValid() {
		return nil, apperrors.Validation("role", "Role must be admin or investor")
	}
	if userID == adminID && role != entities.RoleAdmin {
		return nil, apperrors.Conflict("You cannot remove your own admin role")
	}
	if err := s.users.Update(ctx, userID, docstore.Fields{"role": string(role)}); err != nil {
		return nil, err
	}
	s.logger.CtxInfo(ctx, "User role changed", "user_id", userID, "role", role, "changed_by", adminID)
	return s.users.GetByID(ctx, userID)
}

// LinkInvestor ties a user to an investor record and copies the link onto
// the investor. Each investor has at most one user.
func (s *Service) LinkInvestor(ctx context.Context, userID, investorID string) (*entities.User, error) {
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return err
		}
		inv, err := s.investors.GetByID(ctx, investorID)
		if err != nil {
			return err
		}
		if inv.UserID != "" && inv.UserID != userID {
			return apperrors.Conflict("This investor is already linked to another user")
		}
		if err := s.users.Update(ctx, userID, docstore.Fields{"investorId": investorID}); err != nil {
			return err
		}
		return s.investors.Update(ctx, investorID, docstore.Fields{"userId": userID})
	})
	if err != nil {
		return nil, err
	}
	s.logger.CtxInfo(ctx, "User linked to investor", "user_id", userID, "investor_id", investorID)
	return s.users.GetByID(ctx, userID)
}
