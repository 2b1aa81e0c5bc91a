package stockservice

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
)

// StockRepository define o contrato que o Serviço de Estoque espera da camada
// de Persistência. CreateTransaction é atômico: leitura do saldo anterior,
// verificação de suficiência e append acontecem na mesma transação de banco.
type StockRepository interface {
	CreateTransaction(ctx context.Context, movement domain.StockMovementRequest) (domain.InventoryTransaction, error)
	FindAll(ctx context.Context, itemID string) ([]domain.InventoryTransaction, error)
}

// Service é a estrutura que implementa a lógica de negócio do ledger de estoque.
// Movimentações do mesmo item são serializadas por um mutex por item, além do
// lock de linha no repositório: duas saídas concorrentes nunca leem o mesmo
// saldo anterior.
type Service struct {
	repo   StockRepository
	logger logger.Logger

	mu        sync.Mutex
	itemLocks map[string]*sync.Mutex
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo StockRepository, logger logger.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger,
		itemLocks: make(map[string]*sync.Mutex),
	}
}

// lockFor retorna o mutex do item, criando-o na primeira movimentação.
// Itens diferentes seguem em paralelo.
func (s *Service) lockFor(itemID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.itemLocks[itemID]
	if !ok {
		lock = &sync.Mutex{}
		s.itemLocks[itemID] = lock
	}
	return lock
}

// StockIn registra uma entrada de estoque. Entradas não têm limite superior:
// com o item existente e ACTIVE, a operação sempre sucede.
func (s *Service) StockIn(ctx domain.Context, movement domain.StockMovementRequest) (domain.InventoryTransaction, error) {
	movement.StockType = domain.StockIn
	return s.apply(ctx, movement)
}

// StockOut registra uma saída de estoque. A saída é rejeitada com
// InsufficientStockError quando o saldo anterior é menor que a quantidade;
// nenhuma transação parcial é registrada nesse caso.
func (s *Service) StockOut(ctx domain.Context, movement domain.StockMovementRequest) (domain.InventoryTransaction, error) {
	movement.StockType = domain.StockOut
	return s.apply(ctx, movement)
}

func (s *Service) apply(ctx domain.Context, movement domain.StockMovementRequest) (domain.InventoryTransaction, error) {
	s.logger.Debug("Iniciando movimentação de estoque no serviço.", map[string]interface{}{
		"inventory_id": movement.InventoryID,
		"stock_type":   movement.StockType,
		"purpose":      movement.Purpose,
		"quantity":     movement.TransactionQuantity,
	})

	if _, err := uuid.Parse(movement.InventoryID); err != nil {
		return domain.InventoryTransaction{}, apperror.NewValidationError("O ID do item deve ser um UUID válido.")
	}
	if movement.TransactionQuantity <= 0 {
		return domain.InventoryTransaction{}, apperror.NewValidationError("A quantidade da movimentação deve ser maior que zero.")
	}
	if !domain.ValidPurpose(movement.StockType, movement.Purpose) {
		return domain.InventoryTransaction{}, apperror.NewValidationError(
			"Finalidade inválida para a direção " + string(movement.StockType) + ".")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para movimentação de estoque", nil)
	}

	lock := s.lockFor(movement.InventoryID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := s.repo.CreateTransaction(ctxGo, movement)
	if err != nil {
		s.logger.Error("Falha ao registrar movimentação no repositório.", err)
		return domain.InventoryTransaction{}, err // InsufficientStock, Conflict, NotFound ou DBError
	}

	s.logger.Info("Movimentação de estoque registrada com sucesso.", map[string]interface{}{
		"inventory_id": entry.ItemID,
		"stock_type":   entry.StockType,
		"new_balance":  entry.Stock,
	})
	return entry, nil
}

// GetTransactions retorna o ledger em ordem cronológica, opcionalmente
// filtrado para um item. Cada entrada carrega seu saldo resultante: o painel
// reconstrói o histórico sem recomputar nada.
func (s *Service) GetTransactions(ctx domain.Context, itemID string) ([]domain.InventoryTransaction, error) {
	if itemID != "" {
		if _, err := uuid.Parse(itemID); err != nil {
			return nil, apperror.NewValidationError("O ID do item deve ser um UUID válido.")
		}
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetTransactions", nil)
	}

	transactions, err := s.repo.FindAll(ctxGo, itemID)
	if err != nil {
		s.logger.Error("Falha ao listar transações no repositório.", err)
		return nil, err
	}

	return transactions, nil
}
