package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/storemax-api/internal/application/auth"
	"github.com/jhoicas/storemax-api/internal/application/dto"
	"github.com/jhoicas/storemax-api/internal/domain"
	"github.com/jhoicas/storemax-api/internal/domain/entity"
	"github.com/jhoicas/storemax-api/internal/testutil/memstore"
	"github.com/jhoicas/storemax-api/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

func newUseCase(t *testing.T) (*auth.AuthUseCase, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	uc := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testSecret, ExpMinutes: 60, Issuer: "storemax-test"}).
		WithHashCost(bcrypt.MinCost)
	return uc, store
}

func TestRegister_RolPorDefectoYToken(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	out, err := uc.Register(ctx, dto.RegisterRequest{Name: "Ana Pérez", Email: " Ana@Tienda.test ", Password: "secreto1"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, out.User.Role)
	assert.Equal(t, "ana@tienda.test", out.User.Email)
	require.NotEmpty(t, out.Token)

	claims, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, claims.UserID)
	assert.Equal(t, entity.RoleUser, claims.Role)

	stored, err := store.Users().GetByEmail(ctx, "ana@tienda.test")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secreto1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secreto1")))
}

func TestRegister_EmailDuplicado(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Register(ctx, dto.RegisterRequest{Name: "Ana", Email: "ana@tienda.test", Password: "secreto1"})
	require.NoError(t, err)

	_, err = uc.Register(ctx, dto.RegisterRequest{Name: "Otra Ana", Email: "ANA@tienda.test", Password: "secreto2"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegister_RolAdmin(t *testing.T) {
	uc, _ := newUseCase(t)
	out, err := uc.Register(context.Background(), dto.RegisterRequest{Name: "Jefe", Email: "jefe@tienda.test", Password: "secreto1", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, out.User.Role)
}

func TestLogin_CredencialesUniformes(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, dto.RegisterRequest{Name: "Ana", Email: "ana@tienda.test", Password: "secreto1"})
	require.NoError(t, err)

	_, errPassword := uc.Login(ctx, dto.LoginRequest{Email: "ana@tienda.test", Password: "incorrecto"})
	_, errEmail := uc.Login(ctx, dto.LoginRequest{Email: "nadie@tienda.test", Password: "secreto1"})

	assert.ErrorIs(t, errPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errEmail, domain.ErrInvalidCredentials)
	assert.Equal(t, errPassword.Error(), errEmail.Error())

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "ANA@tienda.test", Password: "secreto1"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "ana@tienda.test", out.User.Email)
}

func TestUpdateProfile_Parcial(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()
	reg, err := uc.Register(ctx, dto.RegisterRequest{Name: "Ana", Email: "ana@tienda.test", Password: "secreto1"})
	require.NoError(t, err)
	_, err = uc.Register(ctx, dto.RegisterRequest{Name: "Beto", Email: "beto@tienda.test", Password: "secreto1"})
	require.NoError(t, err)

	name := "Ana María"
	out, err := uc.UpdateProfile(ctx, reg.User.ID, dto.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", out.Name)
	assert.Equal(t, "ana@tienda.test", out.Email)

	taken := "beto@tienda.test"
	_, err = uc.UpdateProfile(ctx, reg.User.ID, dto.UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.Profile(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnsureAdmin_SoloConTablaVacia(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()

	created, err := uc.EnsureAdmin(ctx, "Admin", "admin@tienda.test", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = uc.EnsureAdmin(ctx, "Admin", "otro@tienda.test", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	n, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "admin@tienda.test", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, out.User.Role)
}
