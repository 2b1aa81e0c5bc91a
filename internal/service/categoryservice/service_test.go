package categoryservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
	"agrostock/internal/service/categoryservice"
)

// MockCategoryRepository é uma implementação mock da interface CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Save(ctx context.Context, category domain.Category) (domain.Category, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id string) (domain.Category, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindActive(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TestCreateCategory_Success testa a criação com status padrão ACTIVE.
func TestCreateCategory_Success(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	mockLogger := logger.NewLogger("debug")

	svc := categoryservice.NewService(mockRepo, mockLogger)

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(c domain.Category) bool {
		// O serviço deve gerar ID e aplicar o status padrão antes de persistir.
		return c.Name == "Fertilizantes" && c.Status == domain.StatusActive && c.ID != ""
	})).Return(domain.Category{ID: uuid.NewString(), Name: "Fertilizantes", Status: domain.StatusActive}, nil)

	ctx := context.Background()
	created, err := svc.CreateCategory(ctx, domain.Category{Name: "Fertilizantes"})

	assert.NoError(t, err)
	assert.Equal(t, "Fertilizantes", created.Name)
	assert.Equal(t, domain.StatusActive, created.Status)
	mockRepo.AssertExpectations(t)
}

// TestCreateCategory_Fail_EmptyName testa a rejeição de nome vazio.
func TestCreateCategory_Fail_EmptyName(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	mockLogger := logger.NewLogger("debug")

	svc := categoryservice.NewService(mockRepo, mockLogger)

	ctx := context.Background()
	_, err := svc.CreateCategory(ctx, domain.Category{Name: "   "})

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateCategory_Fail_InvalidStatus testa a rejeição de status desconhecido.
func TestCreateCategory_Fail_InvalidStatus(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	mockLogger := logger.NewLogger("debug")

	svc := categoryservice.NewService(mockRepo, mockLogger)

	ctx := context.Background()
	_, err := svc.CreateCategory(ctx, domain.Category{Name: "Sementes", Status: "ARCHIVED"})

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateCategory_Fail_DuplicateName testa que o erro de nome duplicado do
// repositório sobe intacto, com a mensagem original.
func TestCreateCategory_Fail_DuplicateName(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	mockLogger := logger.NewLogger("debug")

	svc := categoryservice.NewService(mockRepo, mockLogger)

	repoErr := apperror.NewValidationError("Já existe uma categoria com o nome 'Sementes'.")
	mockRepo.On("Save", mock.Anything, mock.Anything).Return(domain.Category{}, repoErr)

	ctx := context.Background()
	_, err := svc.CreateCategory(ctx, domain.Category{Name: "Sementes"})

	assert.Error(t, err)
	assert.Equal(t, "Já existe uma categoria com o nome 'Sementes'.", err.Error())
	mockRepo.AssertExpectations(t)
}

// TestUpdateCategory_Success testa a atualização parcial de uma categoria.
func TestUpdateCategory_Success(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	mockLogger := logger.NewLogger("debug")

	svc := categoryservice.NewService(mockRepo, mockLogger)

	id := uuid.NewString()
	existing := domain.Category{ID: id, Name: "Sementes", Status: domain.StatusActive}
	newStatus := domain.StatusInactive

	mockRepo.On("FindByID", mock.Anything, id).Return(existing, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(c domain.Category) bool {
		return c.ID == id && c.Status == domain.StatusInactive && c.Name == "Sementes"
	})).Return(domain.Category{ID: id, Name: "Sementes", Status: domain.StatusInactive}, nil)

	ctx := context.Background()
	updated, err := svc.UpdateCategory(ctx, id, domain.CategoryUpdate{Status: &newStatus})

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, updated.Status)
	mockRepo.AssertExpectations(t)
}

// TestUpdateCategory_Fail_InvalidID testa a rejeição de ID malformado.
func TestUpdateCategory_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	mockLogger := logger.NewLogger("debug")

	svc := categoryservice.NewService(mockRepo, mockLogger)

	ctx := context.Background()
	_, err := svc.UpdateCategory(ctx, "not-a-uuid", domain.CategoryUpdate{})

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestDeleteCategory_Fail_InUse testa que a exclusão de categoria referenciada
// por itens é bloqueada com Conflito.
func TestDeleteCategory_Fail_InUse(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	mockLogger := logger.NewLogger("debug")

	svc := categoryservice.NewService(mockRepo, mockLogger)

	id := uuid.NewString()
	repoErr := apperror.NewConflictError("Categoria em uso por itens de inventário e não pode ser removida.")
	mockRepo.On("Delete", mock.Anything, id).Return(repoErr)

	ctx := context.Background()
	err := svc.DeleteCategory(ctx, id)

	assert.Error(t, err)
	var conflictErr *apperror.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "Categoria em uso por itens de inventário e não pode ser removida.", err.Error())
	mockRepo.AssertExpectations(t)
}

// TestGetActiveCategories_Success testa que apenas o caminho de ativas é consultado.
func TestGetActiveCategories_Success(t *testing.T) {
	mockRepo := new(MockCategoryRepository)
	mockLogger := logger.NewLogger("debug")

	svc := categoryservice.NewService(mockRepo, mockLogger)

	expected := []domain.Category{
		{ID: uuid.NewString(), Name: "Sementes", Status: domain.StatusActive},
	}
	mockRepo.On("FindActive", mock.Anything).Return(expected, nil)

	ctx := context.Background()
	categories, err := svc.GetActiveCategories(ctx)

	assert.NoError(t, err)
	assert.Len(t, categories, 1)
	assert.Equal(t, expected, categories)
	mockRepo.AssertNotCalled(t, "FindAll", mock.Anything)
	mockRepo.AssertExpectations(t)
}
