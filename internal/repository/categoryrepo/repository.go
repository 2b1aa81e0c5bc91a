package categoryrepo

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

// uniqueViolation é o código de erro do PostgreSQL para violação de chave única.
const uniqueViolation = "23505"

// CategoryRepository implementa a persistência de categorias de inventário.
type CategoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCategoryRepository cria e retorna uma nova instância do Repositório de Categorias.
func NewCategoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CategoryRepository {
	return &CategoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const categoryColumns = `id, name, description, status, created_at, updated_at`

func scanCategory(row interface{ Scan(...interface{}) error }) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Save insere uma nova categoria. Nome duplicado vira ValidationError
// (o painel trata duplicidade como erro de formulário, não de estado).
func (r *CategoryRepository) Save(ctx context.Context, category domain.Category) (domain.Category, error) {
	r.logger.Debug("Iniciando Save de categoria no repositório.", map[string]interface{}{"name": category.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO inventory_categories (id, name, description, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + categoryColumns

	row := r.DB.QueryRowContext(ctxTimeout, query,
		category.ID, category.Name, category.Description, category.Status,
		category.CreatedAt, category.UpdatedAt,
	)

	saved, err := scanCategory(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			r.logger.Warn("Tentativa de criar categoria com nome duplicado.", map[string]interface{}{"name": category.Name})
			return domain.Category{}, apperror.NewValidationError(fmt.Sprintf("Já existe uma categoria com o nome '%s'.", category.Name))
		}
		r.logger.Error("Falha ao inserir categoria no DB.", err)
		return domain.Category{}, apperror.NewDBError("Falha ao inserir categoria", err)
	}

	return saved, nil
}

// FindByID busca uma categoria pelo ID.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + categoryColumns + ` FROM inventory_categories WHERE id = $1`

	category, err := scanCategory(r.DB.QueryRowContext(ctxTimeout, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar categoria no DB.", err)
		return domain.Category{}, apperror.NewDBError("Falha ao buscar categoria", err)
	}

	return category, nil
}

// FindAll retorna todas as categorias.
func (r *CategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	return r.find(ctx, `SELECT `+categoryColumns+` FROM inventory_categories ORDER BY created_at`)
}

// FindActive retorna apenas as categorias ACTIVE. É a lista usada para popular
// o seletor de categoria na criação de itens.
func (r *CategoryRepository) FindActive(ctx context.Context) ([]domain.Category, error) {
	return r.find(ctx, `SELECT `+categoryColumns+` FROM inventory_categories WHERE status = 'ACTIVE' ORDER BY created_at`)
}

func (r *CategoryRepository) find(ctx context.Context, query string) ([]domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar categorias no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar categorias", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear categoria", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar categorias", err)
	}

	return categories, nil
}

// Update persiste a categoria completa (o serviço já aplicou os campos parciais).
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE inventory_categories
        SET name = $1, description = $2, status = $3, updated_at = $4
        WHERE id = $5
        RETURNING ` + categoryColumns

	row := r.DB.QueryRowContext(ctxTimeout, query,
		category.Name, category.Description, category.Status, time.Now().UTC(), category.ID,
	)

	updated, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não encontrada.", category.ID))
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.Category{}, apperror.NewValidationError(fmt.Sprintf("Já existe uma categoria com o nome '%s'.", category.Name))
		}
		r.logger.Error("Falha ao atualizar categoria no DB.", err)
		return domain.Category{}, apperror.NewDBError("Falha ao atualizar categoria", err)
	}

	return updated, nil
}

// Delete remove uma categoria. A remoção é bloqueada com ConflictError enquanto
// houver itens de inventário referenciando a categoria; a verificação e o DELETE
// acontecem na mesma transação para não haver janela entre o check e a remoção.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	var inUse bool
	err = tx.QueryRowContext(ctxTimeout,
		`SELECT EXISTS(SELECT 1 FROM inventory_items WHERE category_id = $1)`, id,
	).Scan(&inUse)
	if err != nil {
		r.logger.Error("Falha ao verificar uso da categoria.", err)
		return apperror.NewDBError("Falha ao verificar uso da categoria", err)
	}

	if inUse {
		r.logger.Warn("Tentativa de deletar categoria em uso.", map[string]interface{}{"category_id": id})
		return apperror.NewConflictError("Categoria em uso por itens de inventário e não pode ser removida.")
	}

	result, err := tx.ExecContext(ctxTimeout, `DELETE FROM inventory_categories WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar categoria no DB.", err)
		return apperror.NewDBError("Falha ao deletar categoria", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não encontrada.", id))
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}

	return nil
}
