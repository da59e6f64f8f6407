package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stack-service/backoffice/internal/domain/entities"
	"github.com/stack-service/backoffice/internal/infrastructure/docstore"
	"github.com/stack-service/backoffice/internal/infrastructure/repositories"
	"github.com/stack-service/backoffice/pkg/auth"
	apperrors "github.com/stack-service/backoffice/pkg/errors"
	"github.com/stack-service/backoffice/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *repositories.InvestorRepository) {
	t.Helper()
	zl := zaptest.NewLogger(t)
	store := docstore.NewStore(docstore.NewMemoryBackend(), nil, zl)
	investors := repositories.NewInvestorRepository(store, zl)

	svc := NewService(store, repositories.NewUserRepository(store, zl), investors,
		auth.NewTokenManager("test-secret", "backoffice", time.Hour),
		Config{AdminEmails: []string{"Boss@Example.com"}, PasswordMinLength: 8, AllowSignup: true},
		logger.NewLogger(zl))
	return svc, investors
}

func signUp(t *testing.T, svc *Service, email string) *entities.SessionResponse {
	t.Helper()
	session, err := svc.SignUp(context.Background(), &entities.SignUpRequest{
		Email:    email,
		Password: "passw0rd!",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return session
}

func TestSignUp_AssignsRoles(t *testing.T) {
	svc, _ := newTestService(t)

	admin := signUp(t, svc, "boss@example.com")
	investor := signUp(t, svc, "Ada@Example.com")

	assert.Equal(t, entities.RoleAdmin, admin.User.Role)
	assert.Equal(t, entities.RoleInvestor, investor.User.Role)
	assert.Equal(t, "ada@example.com", investor.User.Email)
	assert.Equal(t, "Bearer", investor.TokenType)
	assert.NotEmpty(t, investor.AccessToken)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	signUp(t, svc, "ada@example.com")

	_, err := svc.SignUp(context.Background(), &entities.SignUpRequest{Email: "ADA@example.com", Password: "passw0rd!"})

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func TestSignUp_WeakPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp(context.Background(), &entities.SignUpRequest{Email: "ada@example.com", Password: "short"})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	assert.Equal(t, "password", appErr.Details["field"])
}

func TestSignUp_Disabled(t *testing.T) {
	svc, _ := newTestService(t)
	svc.config.AllowSignup = false

	_, err := svc.SignUp(context.Background(), &entities.SignUpRequest{Email: "ada@example.com", Password: "passw0rd!"})

	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbidden))
}

func TestSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	signUp(t, svc, "ada@example.com")

	session, err := svc.SignIn(ctx, &entities.SignInRequest{Email: "ada@example.com", Password: "passw0rd!"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotNil(t, user.LastSignInAt)

	_, err = svc.SignIn(ctx, &entities.SignInRequest{Email: "ada@example.com", Password: "wrong-pass1"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))

	_, err = svc.SignIn(ctx, &entities.SignInRequest{Email: "nobody@example.com", Password: "passw0rd!"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestAuthenticate_UsesStoredRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := signUp(t, svc, "boss@example.com")
	investor := signUp(t, svc, "ada@example.com")

	_, err := svc.SetRole(ctx, investor.User.ID, entities.RoleAdmin, admin.User.ID)
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, investor.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAdmin, user.Role)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidToken))
}

func TestSetRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := signUp(t, svc, "boss@example.com")

	_, err := svc.SetRole(ctx, admin.User.ID, entities.RoleInvestor, admin.User.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))

	_, err = svc.SetRole(ctx, admin.User.ID, "owner", "other-admin")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))

	_, err = svc.SetRole(ctx, "missing", entities.RoleAdmin, admin.User.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestLinkInvestor(t *testing.T) {
	svc, investors := newTestService(t)
	ctx := context.Background()
	first := signUp(t, svc, "ada@example.com")
	second := signUp(t, svc, "grace@example.com")

	_, err := investors.Create(ctx, &entities.Investor{ID: "inv-1", Name: "Ada", Country: "UK", AccountStatus: entities.ActiveStatus()})
	require.NoError(t, err)

	user, err := svc.LinkInvestor(ctx, first.User.ID, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", user.InvestorID)

	inv, err := investors.GetByUserID(ctx, first.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "inv-1", inv.ID)

	_, err = svc.LinkInvestor(ctx, second.User.ID, "inv-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))

	_, err = svc.LinkInvestor(ctx, second.User.ID, "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}
