package itemrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
)

// foreignKeyViolation é o código de erro do PostgreSQL para violação de FK.
const foreignKeyViolation = "23503"

// ItemRepository implementa a persistência de itens de inventário.
type ItemRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewItemRepository cria e retorna uma nova instância do Repositório de Itens.
func NewItemRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ItemRepository {
	return &ItemRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// itemSelect junta o item com sua categoria e com a transação mais recente do
// ledger. O estoque atual de um item É o saldo resultante dessa transação;
// nenhuma coluna de estoque existe na tabela de itens.
const itemSelect = `
    SELECT i.id, i.name, i.category_id, i.unit, i.cost_per_unit,
           i.minimum_stock_level_alert, i.supplier_name, i.supplier_contact,
           i.status, i.created_at, i.updated_at,
           c.id, c.name, c.description, c.status, c.created_at, c.updated_at,
           t.id, t.seq, t.stock_type, t.purpose, t.quantity, t.stock, t.notes, t.created_at
    FROM inventory_items i
    JOIN inventory_categories c ON c.id = i.category_id
    LEFT JOIN LATERAL (
        SELECT id, seq, stock_type, purpose, quantity, stock, notes, created_at
        FROM inventory_transactions
        WHERE item_id = i.id
        ORDER BY seq DESC
        LIMIT 1
    ) t ON true`

func scanItem(row interface{ Scan(...interface{}) error }) (domain.Item, error) {
	var (
		item     domain.Item
		category domain.Category

		txID, txType, txPurpose, txNotes sql.NullString
		txSeq, txQuantity, txStock       sql.NullInt64
		txCreatedAt                      sql.NullTime
	)

	err := row.Scan(
		&item.ID, &item.Name, &item.CategoryID, &item.Unit, &item.CostPerUnit,
		&item.MinimumStockLevelAlert, &item.SupplierName, &item.SupplierContact,
		&item.Status, &item.CreatedAt, &item.UpdatedAt,
		&category.ID, &category.Name, &category.Description, &category.Status,
		&category.CreatedAt, &category.UpdatedAt,
		&txID, &txSeq, &txType, &txPurpose, &txQuantity, &txStock, &txNotes, &txCreatedAt,
	)
	if err != nil {
		return domain.Item{}, err
	}

	item.Category = &category
	item.Transactions = []domain.InventoryTransaction{}

	if txID.Valid {
		item.Transactions = append(item.Transactions, domain.InventoryTransaction{
			ID:        txID.String,
			ItemID:    item.ID,
			Seq:       txSeq.Int64,
			StockType: domain.StockType(txType.String),
			Purpose:   domain.StockPurpose(txPurpose.String),
			Quantity:  int(txQuantity.Int64),
			Stock:     int(txStock.Int64),
			Notes:     txNotes.String,
			CreatedAt: txCreatedAt.Time,
		})
	}

	return item, nil
}

// Save insere um novo item de inventário.
func (r *ItemRepository) Save(ctx context.Context, item domain.Item) (domain.Item, error) {
	r.logger.Debug("Iniciando Save de item no repositório.", map[string]interface{}{"name": item.Name, "category_id": item.CategoryID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO inventory_items
            (id, name, category_id, unit, cost_per_unit, minimum_stock_level_alert,
             supplier_name, supplier_contact, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		item.ID, item.Name, item.CategoryID, item.Unit, item.CostPerUnit,
		item.MinimumStockLevelAlert, item.SupplierName, item.SupplierContact,
		item.Status, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == foreignKeyViolation {
			// A categoria foi removida entre a validação do serviço e o INSERT.
			return domain.Item{}, apperror.NewValidationError(fmt.Sprintf("Categoria %s não existe.", item.CategoryID))
		}
		r.logger.Error("Falha ao inserir item no DB.", err)
		return domain.Item{}, apperror.NewDBError("Falha ao inserir item", err)
	}

	return r.FindByID(ctx, item.ID)
}

// FindByID busca um item pelo ID, com categoria e última transação embutidas.
func (r *ItemRepository) FindByID(ctx context.Context, id string) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	item, err := scanItem(r.DB.QueryRowContext(ctxTimeout, itemSelect+` WHERE i.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, apperror.NewNotFoundError(fmt.Sprintf("Item com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar item no DB.", err)
		return domain.Item{}, apperror.NewDBError("Falha ao buscar item", err)
	}

	return item, nil
}

// FindAll retorna todos os itens com categoria e última transação embutidas.
func (r *ItemRepository) FindAll(ctx context.Context) ([]domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, itemSelect+` ORDER BY i.created_at`)
	if err != nil {
		r.logger.Error("Falha ao listar itens no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar itens", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar itens", err)
	}

	return items, nil
}

// Update persiste o item completo (o serviço já aplicou os campos parciais).
func (r *ItemRepository) Update(ctx context.Context, item domain.Item) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE inventory_items
        SET name = $1, category_id = $2, unit = $3, cost_per_unit = $4,
            minimum_stock_level_alert = $5, supplier_name = $6, supplier_contact = $7,
            status = $8, updated_at = $9
        WHERE id = $10`

	result, err := r.DB.ExecContext(ctxTimeout, query,
		item.Name, item.CategoryID, item.Unit, item.CostPerUnit,
		item.MinimumStockLevelAlert, item.SupplierName, item.SupplierContact,
		item.Status, time.Now().UTC(), item.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == foreignKeyViolation {
			return domain.Item{}, apperror.NewValidationError(fmt.Sprintf("Categoria %s não existe.", item.CategoryID))
		}
		r.logger.Error("Falha ao atualizar item no DB.", err)
		return domain.Item{}, apperror.NewDBError("Falha ao atualizar item", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Item{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Item{}, apperror.NewNotFoundError(fmt.Sprintf("Item com ID %s não encontrado.", item.ID))
	}

	return r.FindByID(ctx, item.ID)
}
