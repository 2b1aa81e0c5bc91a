package stockservice_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
	"agrostock/internal/service/stockservice"
)

// MockStockRepository é uma implementação mock da interface StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) CreateTransaction(ctx context.Context, movement domain.StockMovementRequest) (domain.InventoryTransaction, error) {
	args := m.Called(ctx, movement)
	return args.Get(0).(domain.InventoryTransaction), args.Error(1)
}

func (m *MockStockRepository) FindAll(ctx context.Context, itemID string) ([]domain.InventoryTransaction, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).([]domain.InventoryTransaction), args.Error(1)
}

// fakeStockRepo é um ledger em memória deliberadamente ingênuo: lê o último
// saldo e insere sem nenhum lock próprio. A serialização por item é
// responsabilidade do serviço.
type fakeStockRepo struct {
	ledger []domain.InventoryTransaction
	seq    int64
}

func (f *fakeStockRepo) CreateTransaction(ctx context.Context, movement domain.StockMovementRequest) (domain.InventoryTransaction, error) {
	previous := 0
	for i := len(f.ledger) - 1; i >= 0; i-- {
		if f.ledger[i].ItemID == movement.InventoryID {
			previous = f.ledger[i].Stock
			break
		}
	}

	var balance int
	switch movement.StockType {
	case domain.StockIn:
		balance = previous + movement.TransactionQuantity
	case domain.StockOut:
		if previous < movement.TransactionQuantity {
			return domain.InventoryTransaction{}, apperror.NewInsufficientStockError(
				fmt.Sprintf("Saldo insuficiente: disponível %d, solicitado %d.", previous, movement.TransactionQuantity))
		}
		balance = previous - movement.TransactionQuantity
	}

	f.seq++
	entry := domain.InventoryTransaction{
		ID:        uuid.NewString(),
		ItemID:    movement.InventoryID,
		Seq:       f.seq,
		StockType: movement.StockType,
		Purpose:   movement.Purpose,
		Quantity:  movement.TransactionQuantity,
		Stock:     balance,
		Notes:     movement.Notes,
		CreatedAt: time.Now(),
	}
	f.ledger = append(f.ledger, entry)
	return entry, nil
}

func (f *fakeStockRepo) FindAll(ctx context.Context, itemID string) ([]domain.InventoryTransaction, error) {
	if itemID == "" {
		return f.ledger, nil
	}
	var out []domain.InventoryTransaction
	for _, entry := range f.ledger {
		if entry.ItemID == itemID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// TestStockIn_Fail_NonPositiveQuantity testa a rejeição de quantidade <= 0.
func TestStockIn_Fail_NonPositiveQuantity(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	ctx := context.Background()
	for _, quantity := range []int{0, -5} {
		_, err := svc.StockIn(ctx, domain.StockMovementRequest{
			InventoryID:         uuid.NewString(),
			Purpose:             domain.PurposePurchase,
			TransactionQuantity: quantity,
		})

		assert.Error(t, err)
		var validationErr *apperror.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	}
	mockRepo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

// TestStockIn_Fail_InvalidPurpose testa que finalidades de saída não valem para entrada.
func TestStockIn_Fail_InvalidPurpose(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	ctx := context.Background()
	_, err := svc.StockIn(ctx, domain.StockMovementRequest{
		InventoryID:         uuid.NewString(),
		Purpose:             domain.PurposeSale, // Finalidade de saída
		TransactionQuantity: 10,
	})

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

// TestStockOut_Fail_InvalidID testa a rejeição de ID de item malformado.
func TestStockOut_Fail_InvalidID(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	ctx := context.Background()
	_, err := svc.StockOut(ctx, domain.StockMovementRequest{
		InventoryID:         "abc",
		Purpose:             domain.PurposeSale,
		TransactionQuantity: 10,
	})

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

// TestStockOut_ForcesDirection testa que a direção vem da rota, nunca do payload.
func TestStockOut_ForcesDirection(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	itemID := uuid.NewString()
	mockRepo.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(m domain.StockMovementRequest) bool {
		return m.StockType == domain.StockOut
	})).Return(domain.InventoryTransaction{ItemID: itemID, StockType: domain.StockOut, Stock: 5}, nil)

	ctx := context.Background()
	entry, err := svc.StockOut(ctx, domain.StockMovementRequest{
		InventoryID:         itemID,
		StockType:           domain.StockIn, // Payload adulterado, deve ser sobrescrito
		Purpose:             domain.PurposeSale,
		TransactionQuantity: 10,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.StockOut, entry.StockType)
	mockRepo.AssertExpectations(t)
}

// TestStockOut_Fail_InactiveItem testa que o Conflito do repositório para item
// inativo sobe intacto.
func TestStockOut_Fail_InactiveItem(t *testing.T) {
	mockRepo := new(MockStockRepository)
	mockLogger := logger.NewLogger("debug")

	svc := stockservice.NewService(mockRepo, mockLogger)

	repoErr := apperror.NewConflictError("O item 'Ração Bovina' está inativo e não aceita movimentações de estoque.")
	mockRepo.On("CreateTransaction", mock.Anything, mock.Anything).Return(domain.InventoryTransaction{}, repoErr)

	ctx := context.Background()
	_, err := svc.StockOut(ctx, domain.StockMovementRequest{
		InventoryID:         uuid.NewString(),
		Purpose:             domain.PurposeSale,
		TransactionQuantity: 1,
	})

	assert.Error(t, err)
	var conflictErr *apperror.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
	mockRepo.AssertExpectations(t)
}

// TestLedger_SequentialScenario percorre o cenário clássico do ledger:
// entrada 200, saída 180 (saldo 20), saída 50 rejeitada sem tocar no ledger.
func TestLedger_SequentialScenario(t *testing.T) {
	repo := &fakeStockRepo{}
	svc := stockservice.NewService(repo, logger.NewLogger("error"))

	ctx := context.Background()
	itemID := uuid.NewString()

	in, err := svc.StockIn(ctx, domain.StockMovementRequest{
		InventoryID: itemID, Purpose: domain.PurposePurchase, TransactionQuantity: 200,
	})
	assert.NoError(t, err)
	assert.Equal(t, 200, in.Stock)

	out, err := svc.StockOut(ctx, domain.StockMovementRequest{
		InventoryID: itemID, Purpose: domain.PurposeSale, TransactionQuantity: 180,
	})
	assert.NoError(t, err)
	assert.Equal(t, 20, out.Stock)

	_, err = svc.StockOut(ctx, domain.StockMovementRequest{
		InventoryID: itemID, Purpose: domain.PurposeSale, TransactionQuantity: 50,
	})
	assert.Error(t, err)
	var insufficientErr *apperror.InsufficientStockError
	assert.ErrorAs(t, err, &insufficientErr)

	// A saída rejeitada não pode deixar rastro no ledger.
	ledger, err := svc.GetTransactions(ctx, itemID)
	assert.NoError(t, err)
	assert.Len(t, ledger, 2)
	assert.Equal(t, 20, ledger[len(ledger)-1].Stock)
}

// TestStockOut_ConcurrentWithdrawals testa a serialização por item: duas
// saídas de 100 contra saldo 150 disputam, exatamente uma vence.
func TestStockOut_ConcurrentWithdrawals(t *testing.T) {
	repo := &fakeStockRepo{}
	svc := stockservice.NewService(repo, logger.NewLogger("error"))

	ctx := context.Background()
	itemID := uuid.NewString()

	_, err := svc.StockIn(ctx, domain.StockMovementRequest{
		InventoryID: itemID, Purpose: domain.PurposeInitiateStock, TransactionQuantity: 150,
	})
	assert.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.StockOut(ctx, domain.StockMovementRequest{
				InventoryID: itemID, Purpose: domain.PurposeSale, TransactionQuantity: 100,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, insufficiencies := 0, 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var insufficientErr *apperror.InsufficientStockError
		if assert.ErrorAs(t, err, &insufficientErr) {
			insufficiencies++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, insufficiencies)

	// Saldo final determinístico: 150 - 100, nunca negativo.
	ledger, err := svc.GetTransactions(ctx, itemID)
	assert.NoError(t, err)
	assert.Len(t, ledger, 2)
	assert.Equal(t, 50, ledger[len(ledger)-1].Stock)
}

// TestGetTransactions_Fail_InvalidFilter testa a rejeição de filtro de item malformado.
func TestGetTransactions_Fail_InvalidFilter(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewLogger("debug"))

	ctx := context.Background()
	_, err := svc.GetTransactions(ctx, "not-a-uuid")

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}
