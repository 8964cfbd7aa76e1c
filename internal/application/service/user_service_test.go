package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/pkg/apperror"
	"github.com/dafteam/facturation-api/pkg/utils"
)

func userFixture() (*UserService, *fakeUserRepo) {
	invoices := newFakeInvoiceRepo()
	users := newFakeUserRepo(invoices)
	return NewUserService(users, invoices), users
}

func validUserInput() *CreateUserInput {
	return &CreateUserInput{
		FirstName: "Sophie",
		LastName:  "Martin",
		Email:     "sophie.martin@facturation.local",
		Password:  "s3cret-pass",
		Role:      enum.RoleU1,
	}
}

func TestCreateUser(t *testing.T) {
	t.Run("creates an active user with a hashed password", func(t *testing.T) {
		svc, _ := userFixture()

		user, err := svc.CreateUser(context.Background(), validUserInput())

		require.NoError(t, err)
		assert.True(t, user.Active)
		assert.NotEqual(t, "s3cret-pass", user.Password)
		assert.True(t, utils.CheckPasswordHash("s3cret-pass", user.Password))
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		svc, _ := userFixture()
		_, err := svc.CreateUser(context.Background(), validUserInput())
		require.NoError(t, err)

		_, err = svc.CreateUser(context.Background(), validUserInput())

		appErr := apperror.GetAppError(err)
		assert.Equal(t, 409, appErr.Code)
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		svc, _ := userFixture()
		input := validUserInput()
		input.Role = enum.Role("SUPERVISOR")

		_, err := svc.CreateUser(context.Background(), input)

		assert.Equal(t, 422, apperror.GetAppError(err).Code)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		svc, _ := userFixture()
		input := validUserInput()
		input.Password = "short"

		_, err := svc.CreateUser(context.Background(), input)

		assert.Equal(t, 422, apperror.GetAppError(err).Code)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("identity fields change, the role does not", func(t *testing.T) {
		svc, repo := userFixture()
		user, err := svc.CreateUser(context.Background(), validUserInput())
		require.NoError(t, err)

		updated, err := svc.UpdateUser(context.Background(), user.ID, &UpdateUserInput{
			FirstName: "Sofia",
			Email:     "sofia.martin@facturation.local",
		})

		require.NoError(t, err)
		assert.Equal(t, "Sofia", updated.FirstName)
		assert.Equal(t, "sofia.martin@facturation.local", updated.Email)
		assert.Equal(t, enum.RoleU1, updated.Role)

		stored, _ := repo.GetByID(context.Background(), user.ID)
		assert.Equal(t, "Sofia", stored.FirstName)
	})

	t.Run("cannot take an email already in use", func(t *testing.T) {
		svc, _ := userFixture()
		_, err := svc.CreateUser(context.Background(), validUserInput())
		require.NoError(t, err)
		second := validUserInput()
		second.Email = "pierre.dubois@facturation.local"
		user, err := svc.CreateUser(context.Background(), second)
		require.NoError(t, err)

		_, err = svc.UpdateUser(context.Background(), user.ID, &UpdateUserInput{
			Email: "sophie.martin@facturation.local",
		})

		assert.Equal(t, 409, apperror.GetAppError(err).Code)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		svc, _ := userFixture()

		_, err := svc.UpdateUser(context.Background(), 99, &UpdateUserInput{FirstName: "X"})

		assert.Equal(t, 404, apperror.GetAppError(err).Code)
	})
}

func TestDeactivateUser(t *testing.T) {
	svc, repo := userFixture()
	user, err := svc.CreateUser(context.Background(), validUserInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateUser(context.Background(), user.ID))

	stored, _ := repo.GetByID(context.Background(), user.ID)
	assert.False(t, stored.Active)
	assert.False(t, stored.IsCreator())
}

func TestListByRole(t *testing.T) {
	svc, _ := userFixture()
	_, err := svc.CreateUser(context.Background(), validUserInput())
	require.NoError(t, err)
	treasurer := validUserInput()
	treasurer.Email = "jean.moreau@facturation.local"
	treasurer.Role = enum.RoleT1
	created, err := svc.CreateUser(context.Background(), treasurer)
	require.NoError(t, err)

	t1s, err := svc.ListByRole(context.Background(), enum.RoleT1, true)
	require.NoError(t, err)
	require.Len(t, t1s, 1)
	assert.Equal(t, created.ID, t1s[0].ID)

	require.NoError(t, svc.DeactivateUser(context.Background(), created.ID))
	t1s, err = svc.ListByRole(context.Background(), enum.RoleT1, true)
	require.NoError(t, err)
	assert.Empty(t, t1s)

	_, err = svc.ListByRole(context.Background(), enum.Role("SUPERVISOR"), true)
	assert.Equal(t, 422, apperror.GetAppError(err).Code)
}
