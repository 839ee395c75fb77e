package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"poscore/internal/core/apperror"
	"poscore/internal/core/business"
	"poscore/internal/core/id"
	"poscore/internal/core/security"
)

// --- Mocks ---

type mockUserRepo struct {
	users  map[string]*User // keyed by email
	byID   map[id.ID]*User
	active int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*User{}, byID: map[id.ID]*User{}}
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	m.users[user.Email] = user
	m.byID[user.ID] = user
	m.active++
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	if u, ok := m.byID[userID]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("user", userID.String())
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("user", email)
}

func (m *mockUserRepo) Update(ctx context.Context, user *User) error { return nil }

func (m *mockUserRepo) Delete(ctx context.Context, userID id.ID) error { return nil }

func (m *mockUserRepo) List(ctx context.Context, filter UserFilter) ([]User, int, error) {
	return nil, 0, nil
}

func (m *mockUserRepo) CountActive(ctx context.Context) (int64, error) { return m.active, nil }

func (m *mockUserRepo) LoadAreaIDs(ctx context.Context, userID id.ID) ([]string, error) {
	if u, ok := m.byID[userID]; ok {
		return u.AreaIDs, nil
	}
	return nil, nil
}

func (m *mockUserRepo) SetAreaIDs(ctx context.Context, userID id.ID, areaIDs []string) error {
	if u, ok := m.byID[userID]; ok {
		u.AreaIDs = areaIDs
	}
	return nil
}

func (m *mockUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	_, ok := m.users[email]
	return ok, nil
}

type mockTokenRepo struct {
	tokens map[string]*RefreshToken // keyed by hash
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: map[string]*RefreshToken{}}
}

func (m *mockTokenRepo) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *mockTokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	if t, ok := m.tokens[tokenHash]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("refresh token", tokenHash)
}

func (m *mockTokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	for _, t := range m.tokens {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (m *mockTokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			now := time.Now()
			t.RevokedAt = &now
			t.RevokedReason = reason
		}
	}
	return nil
}

func (m *mockTokenRepo) CleanupExpiredTokens(ctx context.Context) (int, error) { return 0, nil }

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Fixtures ---

func businessCtx() context.Context {
	return business.WithBusiness(context.Background(), &business.Business{
		ID:   "biz-1",
		Plan: business.PlanFull,
	})
}

func newTestService(userRepo *mockUserRepo, tokenRepo *mockTokenRepo) *Service {
	return NewService(
		userRepo,
		tokenRepo,
		fakeTxManager{},
		NewJWTService(DefaultJWTConfig("test-secret")),
		nil,
		DefaultServiceConfig(),
	)
}

// --- Tests ---

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, expiresAt, err := svc.GenerateAccessToken(
		"user-1", "biz-1", "owner@example.com",
		[]string{"owner"}, []string{"read", "admin"}, []string{"area-1"},
		true,
	)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
	assert.Equal(t, "biz-1", user.BusinessID)
	assert.Equal(t, []string{"owner"}, user.Roles)
	assert.Equal(t, []string{"area-1"}, user.AreaIDs)
	assert.True(t, user.IsOwner)
}

func TestJWT_RejectsWrongSecret(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))
	token, _, err := svc.GenerateAccessToken("u", "b", "e", nil, nil, nil, false)
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("different-secret"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	userRepo := newMockUserRepo()
	tokenRepo := newMockTokenRepo()
	svc := newTestService(userRepo, tokenRepo)
	ctx := businessCtx()

	user, err := svc.Register(ctx, RegisterRequest{
		Email:    "cashier@example.com",
		Password: "secret-pass",
		Role:     security.RoleCashier,
		AreaIDs:  []string{"area-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, security.RoleCashier, user.Role)

	tokens, logged, err := svc.Login(ctx, Credentials{
		Email:    "cashier@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newTestService(userRepo, newMockTokenRepo())
	ctx := businessCtx()

	hash, _ := bcrypt.GenerateFromPassword([]byte("right-pass"), bcrypt.MinCost)
	user := NewUser("user@example.com", string(hash), security.RoleViewer)
	require.NoError(t, userRepo.Create(ctx, user))

	_, _, err := svc.Login(ctx, Credentials{Email: "user@example.com", Password: "wrong"})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	assert.Equal(t, 1, user.FailedLoginAttempts)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService(newMockUserRepo(), newMockTokenRepo())
	ctx := businessCtx()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "secret-pass"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestRefreshToken_Rotation(t *testing.T) {
	userRepo := newMockUserRepo()
	tokenRepo := newMockTokenRepo()
	svc := newTestService(userRepo, tokenRepo)
	ctx := businessCtx()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "secret-pass"})
	require.NoError(t, err)
	tokens, _, err := svc.Login(ctx, Credentials{Email: "a@b.com", Password: "secret-pass"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	// The old token is single-use
	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestRegister_PlanLimit(t *testing.T) {
	gate, err := security.NewPlanGate(security.DefaultPlanRules())
	require.NoError(t, err)

	userRepo := newMockUserRepo()
	svc := NewService(userRepo, newMockTokenRepo(), fakeTxManager{},
		NewJWTService(DefaultJWTConfig("test-secret")), gate, DefaultServiceConfig())

	ctx := business.WithBusiness(context.Background(), &business.Business{
		ID:   "biz-1",
		Plan: business.PlanFree,
	})

	userRepo.active = 3 // free plan cap

	_, err = svc.Register(ctx, RegisterRequest{Email: "x@y.com", Password: "secret-pass"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePlanLimit, appErr.Code)
}
