package stockrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
)

// StockRepository implementa o ledger de movimentações de estoque.
// O ledger é append-only: este repositório só insere e lê transações.
type StockRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// CreateTransaction aplica uma movimentação de estoque como uma única transação
// de banco: lê o item com FOR UPDATE (serializa por item), lê o saldo da última
// transação do ledger, verifica as precondições e insere a nova entrada com o
// saldo resultante. Duas saídas concorrentes para o mesmo item nunca leem o
// mesmo saldo anterior: a segunda espera o commit da primeira.
func (r *StockRepository) CreateTransaction(ctx context.Context, movement domain.StockMovementRequest) (domain.InventoryTransaction, error) {
	r.logger.Debug("Iniciando movimentação de estoque no repositório.", map[string]interface{}{
		"inventory_id": movement.InventoryID,
		"stock_type":   movement.StockType,
		"quantity":     movement.TransactionQuantity,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para movimentação de estoque.", err)
		return domain.InventoryTransaction{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Bloquear a linha do item (serialização por item) e ler o status.
	var itemName string
	var itemStatus domain.Status
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT name, status FROM inventory_items WHERE id = $1 FOR UPDATE`,
		movement.InventoryID,
	).Scan(&itemName, &itemStatus)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.InventoryTransaction{}, apperror.NewNotFoundError(fmt.Sprintf("Item com ID %s não encontrado.", movement.InventoryID))
	}
	if err != nil {
		r.logger.Error("Falha ao bloquear item para movimentação.", err)
		return domain.InventoryTransaction{}, apperror.NewDBError("Falha ao buscar item para movimentação", err)
	}

	if itemStatus != domain.StatusActive {
		r.logger.Warn("Movimentação rejeitada: item inativo.", map[string]interface{}{"inventory_id": movement.InventoryID})
		return domain.InventoryTransaction{}, apperror.NewConflictError(fmt.Sprintf("O item '%s' está inativo e não aceita movimentações de estoque.", itemName))
	}

	// 2. Ler o saldo da última transação do ledger (0 se não houver nenhuma).
	var previousBalance int
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT stock FROM inventory_transactions WHERE item_id = $1 ORDER BY seq DESC LIMIT 1`,
		movement.InventoryID,
	).Scan(&previousBalance)
	if errors.Is(err, sql.ErrNoRows) {
		previousBalance = 0
	} else if err != nil {
		r.logger.Error("Falha ao ler saldo anterior do ledger.", err)
		return domain.InventoryTransaction{}, apperror.NewDBError("Falha ao ler saldo anterior", err)
	}

	// 3. Calcular o saldo resultante e verificar a suficiência na saída.
	var newBalance int
	switch movement.StockType {
	case domain.StockIn:
		newBalance = previousBalance + movement.TransactionQuantity
	case domain.StockOut:
		if previousBalance < movement.TransactionQuantity {
			r.logger.Warn("Saída de estoque rejeitada por saldo insuficiente.", map[string]interface{}{
				"inventory_id": movement.InventoryID,
				"balance":      previousBalance,
				"requested":    movement.TransactionQuantity,
			})
			return domain.InventoryTransaction{}, apperror.NewInsufficientStockError(
				fmt.Sprintf("Saldo insuficiente para '%s': disponível %d, solicitado %d.",
					itemName, previousBalance, movement.TransactionQuantity))
		}
		newBalance = previousBalance - movement.TransactionQuantity
	default:
		return domain.InventoryTransaction{}, apperror.NewValidationError("Direção de movimentação inválida. Use IN ou OUT.")
	}

	// 4. Inserir a nova entrada do ledger com o saldo resultante.
	entry := domain.InventoryTransaction{
		ID:        uuid.NewString(),
		ItemID:    movement.InventoryID,
		StockType: movement.StockType,
		Purpose:   movement.Purpose,
		Quantity:  movement.TransactionQuantity,
		Stock:     newBalance,
		Notes:     movement.Notes,
		CreatedAt: time.Now().UTC(),
	}

	err = tx.QueryRowContext(ctxTimeout, `
        INSERT INTO inventory_transactions (id, item_id, stock_type, purpose, quantity, stock, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING seq`,
		entry.ID, entry.ItemID, entry.StockType, entry.Purpose,
		entry.Quantity, entry.Stock, entry.Notes, entry.CreatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		r.logger.Error("Falha ao inserir transação no ledger.", err)
		return domain.InventoryTransaction{}, apperror.NewDBError("Falha ao inserir transação", err)
	}

	// 5. Commitar: o lock do item só é liberado aqui.
	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar movimentação de estoque.", err)
		return domain.InventoryTransaction{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Movimentação de estoque registrada.", map[string]interface{}{
		"inventory_id": entry.ItemID,
		"stock_type":   entry.StockType,
		"purpose":      entry.Purpose,
		"quantity":     entry.Quantity,
		"new_balance":  entry.Stock,
	})
	return entry, nil
}

// FindAll retorna o ledger em ordem cronológica. Com itemID vazio retorna o
// ledger inteiro; caso contrário, apenas as transações do item.
func (r *StockRepository) FindAll(ctx context.Context, itemID string) ([]domain.InventoryTransaction, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, item_id, seq, stock_type, purpose, quantity, stock, notes, created_at
        FROM inventory_transactions`
	args := []interface{}{}
	if itemID != "" {
		query += ` WHERE item_id = $1`
		args = append(args, itemID)
	}
	query += ` ORDER BY seq`

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar transações no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar transações", err)
	}
	defer rows.Close()

	transactions := []domain.InventoryTransaction{}
	for rows.Next() {
		var t domain.InventoryTransaction
		err := rows.Scan(&t.ID, &t.ItemID, &t.Seq, &t.StockType, &t.Purpose,
			&t.Quantity, &t.Stock, &t.Notes, &t.CreatedAt)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear transação", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar transações", err)
	}

	return transactions, nil
}
