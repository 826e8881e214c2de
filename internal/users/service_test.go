package users

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefhamdan/tijara-backend/pkg/auth"
	"github.com/youssefhamdan/tijara-backend/pkg/config"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
)

type stubUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	s.users[user.ID] = user
	return nil
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == strings.ToLower(strings.TrimSpace(email)) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubUserRepo) List(ctx context.Context, params pagination.Params) ([]models.User, error) {
	var rows []models.User
	for _, user := range s.users {
		rows = append(rows, *user)
	}
	return rows, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "tijara-test", ExpirationMinutes: 60}
}

func testPasswordConfig() config.PasswordConfig {
	// Low-cost parameters keep the argon2 hashing fast under test.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T) (Service, *stubUserRepo) {
	t.Helper()
	repo := newStubUserRepo()
	svc, err := NewService(repo, testJWTConfig(), testPasswordConfig())
	require.NoError(t, err)
	return svc, repo
}

func TestCreateAndLogin(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Create(context.Background(), CreateInput{
		Name:     "Admin",
		Email:    "Admin@Example.com",
		Password: "supersecret",
		Role:     enums.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.True(t, user.IsActive)

	session, err := svc.Login(context.Background(), "admin@example.com", "supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)

	claims, err := auth.ParseAccessToken(testJWTConfig(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.SubjectID)
	assert.Equal(t, enums.RoleAdmin, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		Name: "Staff", Email: "staff@example.com", Password: "supersecret", Role: enums.RoleUser,
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "staff@example.com", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Create(context.Background(), CreateInput{
		Name: "Staff", Email: "staff@example.com", Password: "supersecret", Role: enums.RoleUser,
	})
	require.NoError(t, err)

	_, err = svc.SetActive(context.Background(), user.ID, false)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "staff@example.com", "supersecret")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{
		Name: "A", Email: "dup@example.com", Password: "supersecret", Role: enums.RoleUser,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{
		Name: "B", Email: "DUP@example.com", Password: "supersecret", Role: enums.RoleUser,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing name", CreateInput{Email: "a@b.com", Password: "supersecret", Role: enums.RoleUser}},
		{"missing email", CreateInput{Name: "A", Password: "supersecret", Role: enums.RoleUser}},
		{"short password", CreateInput{Name: "A", Email: "a@b.com", Password: "short", Role: enums.RoleUser}},
		{"customer role", CreateInput{Name: "A", Email: "a@b.com", Password: "supersecret", Role: enums.RoleCustomer}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}
