package service

import (
	"context"
	"testing"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBaseUsername(t *testing.T) {
	assert.Equal(t, "joão.silva", BaseUsername("João", "Silva"))
	assert.Equal(t, "anamaria.silvacosta", BaseUsername("Ana Maria", " Silva\tCosta "))
	assert.Equal(t, "rui.sá", BaseUsername("RUI", "Sá"))
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		p := GeneratePassword()
		require.Len(t, p, 8)
		for _, r := range p {
			assert.Contains(t, passwordAlphabet, string(r))
		}
		seen[p] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestUserService_CreateAllocatesUniqueUsernames(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	svc := NewUserService(store, testConfig())
	req := dto.CreateUserRequest{FirstName: "Joao", LastName: "Silva", Email: "joao@obras.local", TipoUser: model.RoleTrabalhador}

	first, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "joao.silva", first.User.Username)
	assert.Equal(t, first.User.Username, first.Credentials.Username)
	assert.Regexp(t, `^user_\d+_[0-9a-z]{9}$`, first.User.ID)

	stored, err := store.GetUser(ctx, first.User.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(first.Credentials.Password)))

	second, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "joao.silva.2", second.User.Username)

	third, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "joao.silva.3", third.User.Username)
}

func TestUserService_CredentialsAndReset(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	svc := NewUserService(store, testConfig())
	created, err := svc.Create(ctx, dto.CreateUserRequest{FirstName: "Ana", LastName: "Costa", Email: "ana@obras.local", TipoUser: model.RoleEncarregado})
	require.NoError(t, err)

	creds, err := svc.Credentials(ctx, created.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana.costa", creds.Username)
	assert.NotEmpty(t, creds.Message)

	reset, err := svc.ResetPassword(ctx, created.User.ID)
	require.NoError(t, err)
	assert.Len(t, reset.NewPassword, 8)
	stored, err := store.GetUser(ctx, created.User.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(reset.NewPassword)))
	if reset.NewPassword != created.Credentials.Password {
		assert.Error(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(created.Credentials.Password)))
	}

	_, err = svc.Credentials(ctx, "ghost")
	assertKind(t, apierror.KindNotFound, err)
	_, err = svc.ResetPassword(ctx, "ghost")
	assertKind(t, apierror.KindNotFound, err)
}

func TestUserService_SetRole(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	svc := NewUserService(store, testConfig())
	created, err := svc.Create(ctx, dto.CreateUserRequest{FirstName: "Rui", LastName: "Sousa", Email: "rui@obras.local", TipoUser: model.RoleTrabalhador})
	require.NoError(t, err)

	u, err := svc.SetRole(ctx, created.User.ID, model.RoleEncarregado)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEncarregado, u.TipoUser)

	_, err = svc.SetRole(ctx, created.User.ID, "Admin")
	assertKind(t, apierror.KindValidation, err)
	_, err = svc.SetRole(ctx, "ghost", model.RoleDiretor)
	assertKind(t, apierror.KindNotFound, err)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
