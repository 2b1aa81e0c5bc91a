package userservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/token"
)

// MockUserRepository simula a camada de persistência de usuários.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx domain.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx domain.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

// MockTokenService simula a emissão de JWTs.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID string, userRole string) (string, error) {
	args := m.Called(userID, userRole)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ValidateToken(tokenString string) (*token.CustomClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(*token.CustomClaims)
	return claims, args.Error(1)
}

func TestRegister_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewService(mockRepo, new(MockTokenService))

	registration := domain.UserRegistration{
		Name:     "João da Silva",
		Email:    "joao@fazenda.com",
		Password: "senha-forte",
	}

	// O hash é gerado dentro do serviço; validamos que não é a senha em texto puro
	// e que o papel padrão foi aplicado.
	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		if u.Email != "joao@fazenda.com" || u.Role != domain.RoleFarmer {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("senha-forte")) == nil
	})).Return(domain.User{ID: "abc", Email: "joao@fazenda.com", Role: domain.RoleFarmer}, nil)

	user, err := svc.Register(context.Background(), registration)

	require.NoError(t, err)
	assert.Equal(t, "abc", user.ID)
	mockRepo.AssertExpectations(t)
}

func TestRegister_MissingCredentials(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewService(mockRepo, new(MockTokenService))

	_, err := svc.Register(context.Background(), domain.UserRegistration{Email: "a@b.com"})

	require.Error(t, err)
	var valErr *apperror.ValidationError
	assert.ErrorAs(t, err, &valErr)
	mockRepo.AssertNotCalled(t, "Save")
}

func TestRegister_InvalidRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewService(mockRepo, new(MockTokenService))

	_, err := svc.Register(context.Background(), domain.UserRegistration{
		Email:    "a@b.com",
		Password: "x",
		Role:     domain.UserRole("superuser"),
	})

	require.Error(t, err)
	var valErr *apperror.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewService(mockRepo, new(MockTokenService))

	conflict := apperror.NewConflictError("Email já cadastrado.")
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.User{}, conflict)

	_, err := svc.Register(context.Background(), domain.UserRegistration{
		Email:    "a@b.com",
		Password: "x",
	})

	require.Error(t, err)
	var conflictErr *apperror.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	svc := NewService(mockRepo, mockToken)

	hash, err := bcrypt.GenerateFromPassword([]byte("senha-forte"), bcrypt.DefaultCost)
	require.NoError(t, err)

	mockRepo.On("FindByEmail", mock.Anything, "joao@fazenda.com").Return(domain.User{
		ID:           "abc",
		Email:        "joao@fazenda.com",
		PasswordHash: string(hash),
		Role:         domain.RoleFarmer,
	}, nil)
	mockToken.On("GenerateToken", "abc", "farmer").Return("jwt-assinado", nil)

	tokenString, err := svc.Login(context.Background(), "joao@fazenda.com", "senha-forte")

	require.NoError(t, err)
	assert.Equal(t, "jwt-assinado", tokenString)
	mockToken.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	svc := NewService(mockRepo, mockToken)

	hash, err := bcrypt.GenerateFromPassword([]byte("senha-certa"), bcrypt.DefaultCost)
	require.NoError(t, err)

	mockRepo.On("FindByEmail", mock.Anything, "joao@fazenda.com").Return(domain.User{
		ID:           "abc",
		PasswordHash: string(hash),
	}, nil)

	_, err = svc.Login(context.Background(), "joao@fazenda.com", "senha-errada")

	require.Error(t, err)
	var unauthorized *apperror.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
	mockToken.AssertNotCalled(t, "GenerateToken")
}

func TestLogin_UnknownUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewService(mockRepo, new(MockTokenService))

	// NotFound do repositório não pode vazar: vira 401 genérico.
	mockRepo.On("FindByEmail", mock.Anything, "ninguem@fazenda.com").
		Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado."))

	_, err := svc.Login(context.Background(), "ninguem@fazenda.com", "qualquer")

	require.Error(t, err)
	var unauthorized *apperror.UnauthorizedError
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, "Credenciais inválidas.", unauthorized.Msg)
}
