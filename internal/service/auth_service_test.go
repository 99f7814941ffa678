package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/auth"
	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
)

type userRepoStub struct {
	users map[uint]models.User
}

func newUserRepoStub(users ...models.User) *userRepoStub {
	repo := &userRepoStub{users: map[uint]models.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *userRepoStub) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = uint(len(r.users) + 1)
	r.users[user.ID] = *user
	return nil
}

func (r *userRepoStub) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *userRepoStub) GetByEmail(ctx context.Context, email string) (models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *userRepoStub) UpdateStatus(ctx context.Context, id uint, status string) error {
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Status = status
	r.users[id] = user
	return nil
}

func newTestAuthService(users *userRepoStub) (AuthService, *auth.Signer) {
	access := auth.NewSigner("access-secret", time.Hour, auth.TokenTypeAccess)
	refresh := auth.NewSigner("refresh-secret", 7*24*time.Hour, auth.TokenTypeRefresh)
	svc := NewAuthService(users, access, refresh, testValidator(), testLogger())
	svc.(*authService).bcryptCost = bcrypt.MinCost
	return svc, access
}

func TestAuthServiceRegisterLoginRefresh(t *testing.T) {
	users := newUserRepoStub()
	svc, access := newTestAuthService(users)
	ctx := context.Background()

	registered, err := svc.Register(ctx, dto.RegisterRequest{Email: "Mona@Example.com ", Password: "s3cretpass"})
	require.NoError(t, err)
	require.Equal(t, "mona@example.com", registered.User.Email)
	require.Equal(t, models.UserRoleUser, registered.User.Role)
	require.Equal(t, models.UserStatusUser, registered.User.Status)
	require.Equal(t, "Bearer", registered.TokenType)

	identity, err := access.Parse(registered.AccessToken)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, identity.UserID)

	_, err = svc.Register(ctx, dto.RegisterRequest{Email: "mona@example.com", Password: "another-pass"})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "mona@example.com", Password: "wrong-pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	loggedIn, err := svc.Login(ctx, dto.LoginRequest{Email: " MONA@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: loggedIn.RefreshToken})
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(ctx, dto.RefreshRequest{RefreshToken: loggedIn.AccessToken})
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(newUserRepoStub())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceEnsureAdminIsIdempotent(t *testing.T) {
	users := newUserRepoStub()
	svc, _ := newTestAuthService(users)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "adminpass"))
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "adminpass"))
	require.Len(t, users.users, 1)
	require.Equal(t, models.UserRoleAdmin, users.users[1].Role)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "", ""))
	require.Len(t, users.users, 1)
}
