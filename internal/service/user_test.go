package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atikur-web-dev/shopeasy/internal/auth"
	"github.com/atikur-web-dev/shopeasy/internal/domain"
	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
)

// --- Mock Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestUserService(repo *mockUserRepository) *UserService {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	return NewUserService(repo, jwtManager, newTestEventProducer(), newTestLogger())
}

func activeUser(email, password string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &domain.User{
		ID:           "user-1",
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		IsActive:     true,
	}
}

// --- Tests ---

func TestRegister_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	payload, err := svc.Register(ctx, RegisterInput{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, payload.Token)
	require.NotNil(t, payload.User)
	assert.Equal(t, "test@example.com", payload.User.Email)
	assert.Equal(t, domain.RoleCustomer, payload.User.Role)
	assert.True(t, payload.User.IsActive)
	// The hash must never equal the raw password.
	assert.NotEqual(t, "secret123", payload.User.PasswordHash)

	repo.AssertExpectations(t)
}

func TestRegister_WeakPassword(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	cases := []struct {
		name     string
		password string
	}{
		{"too short", "abc1"},
		{"no digit", "abcdefgh"},
		{"no letter", "12345678"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, RegisterInput{
				Name:     "Test User",
				Email:    "test@example.com",
				Password: tc.password,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	repo.AssertNotCalled(t, "Create")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "test@example.com"))

	_, err := svc.Register(ctx, RegisterInput{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "secret123",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestLogin_Success(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	user := activeUser("test@example.com", "secret123")
	repo.On("GetByEmail", ctx, "test@example.com").Return(user, nil)

	payload, err := svc.Login(ctx, LoginInput{
		Email:    "test@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, payload.Token)
	assert.Equal(t, user.ID, payload.User.ID)

	// The issued token must round-trip through the JWT manager.
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	claims, err := jwtManager.ValidateToken(payload.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	user := activeUser("test@example.com", "secret123")
	repo.On("GetByEmail", ctx, "test@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{
		Email:    "test@example.com",
		Password: "wrong-password",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "nobody@example.com").
		Return(nil, apperrors.NotFound("user", "nobody@example.com"))

	_, err := svc.Login(ctx, LoginInput{
		Email:    "nobody@example.com",
		Password: "secret123",
	})

	// Unknown email and wrong password are indistinguishable to the caller.
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	user := activeUser("test@example.com", "secret123")
	user.IsActive = false
	repo.On("GetByEmail", ctx, "test@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{
		Email:    "test@example.com",
		Password: "secret123",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUpdateProfile_Partial(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	user := activeUser("test@example.com", "secret123")
	repo.On("GetByID", ctx, "user-1").Return(user, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	name := "New Name"
	updated, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	// Untouched fields survive a partial update.
	assert.Equal(t, "test@example.com", updated.Email)

	repo.AssertExpectations(t)
}

func TestUpdateProfile_EmptyNameRejected(t *testing.T) {
	repo := new(mockUserRepository)
	svc := newTestUserService(repo)
	ctx := context.Background()

	user := activeUser("test@example.com", "secret123")
	repo.On("GetByID", ctx, "user-1").Return(user, nil)

	empty := ""
	_, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{Name: &empty})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Update")
}
