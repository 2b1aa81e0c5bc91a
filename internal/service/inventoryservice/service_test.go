package inventoryservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
	"agrostock/internal/service/inventoryservice"
)

// MockItemRepository é uma implementação mock da interface ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Save(ctx context.Context, item domain.Item) (domain.Item, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockItemRepository) FindByID(ctx context.Context, id string) (domain.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Item), args.Error(1)
}

func (m *MockItemRepository) FindAll(ctx context.Context) ([]domain.Item, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Item), args.Error(1)
}

func (m *MockItemRepository) Update(ctx context.Context, item domain.Item) (domain.Item, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(domain.Item), args.Error(1)
}

// MockCategoryReader é uma implementação mock da interface CategoryReader
type MockCategoryReader struct {
	mock.Mock
}

func (m *MockCategoryReader) FindByID(ctx context.Context, id string) (domain.Category, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Category), args.Error(1)
}

func validItem(categoryID string) domain.Item {
	return domain.Item{
		Name:                   "Ração Bovina",
		CategoryID:             categoryID,
		Unit:                   domain.UnitKG,
		CostPerUnit:            decimal.NewFromFloat(12.50),
		MinimumStockLevelAlert: 20,
		SupplierName:           "AgroNutri Ltda",
	}
}

// TestCreateItem_Success_ForcesActiveStatus testa que o status enviado pelo
// cliente é ignorado na criação: todo item nasce ACTIVE.
func TestCreateItem_Success_ForcesActiveStatus(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockCategories := new(MockCategoryReader)
	mockLogger := logger.NewLogger("debug")

	svc := inventoryservice.NewService(mockRepo, mockCategories, mockLogger)

	categoryID := uuid.NewString()
	item := validItem(categoryID)
	item.Status = domain.StatusInactive // Tentativa do cliente, deve ser ignorada

	mockCategories.On("FindByID", mock.Anything, categoryID).
		Return(domain.Category{ID: categoryID, Name: "Rações", Status: domain.StatusActive}, nil)
	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(i domain.Item) bool {
		return i.Status == domain.StatusActive && i.ID != ""
	})).Return(domain.Item{ID: uuid.NewString(), Name: item.Name, Status: domain.StatusActive, MinimumStockLevelAlert: 20}, nil)

	ctx := context.Background()
	created, err := svc.CreateItem(ctx, item)

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusActive, created.Status)
	// Item recém-criado não tem transações: estoque zero e, com limiar 20, alerta ligado.
	assert.True(t, created.LowStock)
	mockRepo.AssertExpectations(t)
	mockCategories.AssertExpectations(t)
}

// TestCreateItem_Fail_InvalidUnit testa a rejeição de unidade fora do conjunto permitido.
func TestCreateItem_Fail_InvalidUnit(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockCategories := new(MockCategoryReader)
	mockLogger := logger.NewLogger("debug")

	svc := inventoryservice.NewService(mockRepo, mockCategories, mockLogger)

	item := validItem(uuid.NewString())
	item.Unit = "Gallons"

	ctx := context.Background()
	_, err := svc.CreateItem(ctx, item)

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateItem_Fail_NegativeCost testa a rejeição de custo negativo.
func TestCreateItem_Fail_NegativeCost(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockCategories := new(MockCategoryReader)
	mockLogger := logger.NewLogger("debug")

	svc := inventoryservice.NewService(mockRepo, mockCategories, mockLogger)

	item := validItem(uuid.NewString())
	item.CostPerUnit = decimal.NewFromFloat(-1.00)

	ctx := context.Background()
	_, err := svc.CreateItem(ctx, item)

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

// TestCreateItem_Fail_CategoryNotFound testa que referência a categoria
// inexistente vira erro de validação, não 404.
func TestCreateItem_Fail_CategoryNotFound(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockCategories := new(MockCategoryReader)
	mockLogger := logger.NewLogger("debug")

	svc := inventoryservice.NewService(mockRepo, mockCategories, mockLogger)

	categoryID := uuid.NewString()
	mockCategories.On("FindByID", mock.Anything, categoryID).
		Return(domain.Category{}, apperror.NewNotFoundError("Categoria não encontrada."))

	ctx := context.Background()
	_, err := svc.CreateItem(ctx, validItem(categoryID))

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateItem_Fail_InactiveCategory testa que categoria inativa não recebe itens novos.
func TestCreateItem_Fail_InactiveCategory(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockCategories := new(MockCategoryReader)
	mockLogger := logger.NewLogger("debug")

	svc := inventoryservice.NewService(mockRepo, mockCategories, mockLogger)

	categoryID := uuid.NewString()
	mockCategories.On("FindByID", mock.Anything, categoryID).
		Return(domain.Category{ID: categoryID, Name: "Defensivos", Status: domain.StatusInactive}, nil)

	ctx := context.Background()
	_, err := svc.CreateItem(ctx, validItem(categoryID))

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestGetAllItems_DerivesLowStockFlag testa a derivação da flag de estoque
// baixo a partir do saldo da última transação: saldo <= limiar liga o alerta.
func TestGetAllItems_DerivesLowStockFlag(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockCategories := new(MockCategoryReader)
	mockLogger := logger.NewLogger("debug")

	svc := inventoryservice.NewService(mockRepo, mockCategories, mockLogger)

	now := time.Now()
	items := []domain.Item{
		{ // saldo 10 <= limiar 20: alerta
			ID: uuid.NewString(), Name: "Ração", MinimumStockLevelAlert: 20,
			Transactions: []domain.InventoryTransaction{{Stock: 10, CreatedAt: now}},
		},
		{ // saldo 20 == limiar 20: alerta (limiar é inclusivo)
			ID: uuid.NewString(), Name: "Milho", MinimumStockLevelAlert: 20,
			Transactions: []domain.InventoryTransaction{{Stock: 20, CreatedAt: now}},
		},
		{ // saldo 21 > limiar 20: sem alerta
			ID: uuid.NewString(), Name: "Adubo", MinimumStockLevelAlert: 20,
			Transactions: []domain.InventoryTransaction{{Stock: 21, CreatedAt: now}},
		},
		{ // sem transações: saldo zero, limiar 0 ainda dispara alerta (0 <= 0)
			ID: uuid.NewString(), Name: "Semente", MinimumStockLevelAlert: 0,
		},
	}

	mockRepo.On("FindAll", mock.Anything).Return(items, nil)

	ctx := context.Background()
	result, err := svc.GetAllItems(ctx)

	assert.NoError(t, err)
	assert.True(t, result[0].LowStock)
	assert.True(t, result[1].LowStock)
	assert.False(t, result[2].LowStock)
	assert.True(t, result[3].LowStock)
	mockRepo.AssertExpectations(t)
}

// TestLowStockCount testa a contagem de itens em alerta para o dashboard.
func TestLowStockCount(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockCategories := new(MockCategoryReader)
	mockLogger := logger.NewLogger("debug")

	svc := inventoryservice.NewService(mockRepo, mockCategories, mockLogger)

	items := []domain.Item{
		{ID: uuid.NewString(), MinimumStockLevelAlert: 5,
			Transactions: []domain.InventoryTransaction{{Stock: 3}}},
		{ID: uuid.NewString(), MinimumStockLevelAlert: 5,
			Transactions: []domain.InventoryTransaction{{Stock: 100}}},
	}
	mockRepo.On("FindAll", mock.Anything).Return(items, nil)

	ctx := context.Background()
	count, err := svc.LowStockCount(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

// TestUpdateItem_Success_StatusChange testa que o status é configurável na atualização.
func TestUpdateItem_Success_StatusChange(t *testing.T) {
	mockRepo := new(MockItemRepository)
	mockCategories := new(MockCategoryReader)
	mockLogger := logger.NewLogger("debug")

	svc := inventoryservice.NewService(mockRepo, mockCategories, mockLogger)

	id := uuid.NewString()
	existing := validItem(uuid.NewString())
	existing.ID = id
	existing.Status = domain.StatusActive

	newStatus := domain.StatusInactive

	mockRepo.On("FindByID", mock.Anything, id).Return(existing, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(i domain.Item) bool {
		return i.ID == id && i.Status == domain.StatusInactive
	})).Return(domain.Item{ID: id, Name: existing.Name, Status: domain.StatusInactive, Unit: existing.Unit}, nil)

	ctx := context.Background()
	updated, err := svc.UpdateItem(ctx, id, domain.ItemUpdate{Status: &newStatus})

	assert.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, updated.Status)
	mockRepo.AssertExpectations(t)
}
