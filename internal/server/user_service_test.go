package server

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(store UserStore) *UserService {
	return NewUserService(store, &config.PasswordConfig{BcryptCost: 4})
}

func TestToAPIUser(t *testing.T) {
	t.Run("valid user", func(t *testing.T) {
		now := time.Now()
		stored := &db.User{
			ID:           uuid.New(),
			Name:         "John Doe",
			Email:        "john@example.com",
			Phone:        "555-0100",
			PasswordHash: "hashed-password",
			PasswordSet:  true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		user := toAPIUser(stored)
		require.NotNil(t, user)
		assert.Equal(t, stored.ID, user.ID)
		assert.Equal(t, stored.Name, user.Name)
		assert.Equal(t, stored.Email, user.Email)
		assert.Equal(t, stored.Phone, user.Phone)
		assert.Equal(t, stored.CreatedAt, user.CreatedAt)
	})

	t.Run("nil user", func(t *testing.T) {
		assert.Nil(t, toAPIUser(nil))
	})
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	store := newMemoryUsers()
	svc := newTestUserService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, &types.CreateUserRequest{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.Name)

	stored, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.PasswordSet)
	assert.NotEqual(t, "password123", stored.PasswordHash)

	_, err = svc.Register(ctx, &types.CreateUserRequest{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	var exists *ErrEmailAlreadyExists
	assert.ErrorAs(t, err, &exists)

	loggedIn, err := svc.Login(ctx, &types.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	var invalid *ErrInvalidCredentials
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "jane@example.com", Password: "wrong-password"})
	assert.ErrorAs(t, err, &invalid)
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorAs(t, err, &invalid)
}

func TestUserService_LoginWithoutPassword(t *testing.T) {
	store := newMemoryUsers()
	svc := newTestUserService(store)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, "Imported", "imported@example.com", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, &types.LoginRequest{Email: "imported@example.com", Password: ""})
	var invalid *ErrInvalidCredentials
	assert.ErrorAs(t, err, &invalid)
}

func TestUserService_RegisterCleansUpOnPasswordFailure(t *testing.T) {
	store := newMemoryUsers()
	store.failPassword = true
	svc := newTestUserService(store)

	_, err := svc.Register(context.Background(), &types.CreateUserRequest{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.Error(t, err)
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.users)
}

func TestUserService_UpdatePassword(t *testing.T) {
	store := newMemoryUsers()
	svc := newTestUserService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, &types.CreateUserRequest{Name: "Jane", Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)

	var mismatch *ErrPasswordMismatch
	assert.ErrorAs(t, svc.UpdatePassword(ctx, user.ID, "wrong-password", "newpassword1"), &mismatch)

	require.NoError(t, svc.UpdatePassword(ctx, user.ID, "password123", "newpassword1"))
	_, err = svc.Login(ctx, &types.LoginRequest{Email: "jane@example.com", Password: "newpassword1"})
	assert.NoError(t, err)

	var notFound *ErrUserNotFound
	assert.ErrorAs(t, svc.UpdatePassword(ctx, uuid.New(), "a", "b"), &notFound)
}

func TestUserService_GetUser(t *testing.T) {
	svc := newTestUserService(newMemoryUsers())
	var notFound *ErrUserNotFound
	_, err := svc.GetUser(context.Background(), uuid.New())
	assert.ErrorAs(t, err, &notFound)
}
