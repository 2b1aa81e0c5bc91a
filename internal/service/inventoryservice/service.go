package inventoryservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
)

// ItemRepository define o contrato que o Serviço de Inventário espera da
// camada de Persistência.
type ItemRepository interface {
	Save(ctx context.Context, item domain.Item) (domain.Item, error)
	FindByID(ctx context.Context, id string) (domain.Item, error)
	FindAll(ctx context.Context) ([]domain.Item, error)
	Update(ctx context.Context, item domain.Item) (domain.Item, error)
}

// CategoryReader é o recorte do repositório de categorias que este serviço
// precisa para validar a referência de categoria na criação de itens.
type CategoryReader interface {
	FindByID(ctx context.Context, id string) (domain.Category, error)
}

// Service é a estrutura que implementa a lógica de negócio de itens de inventário.
type Service struct {
	repo       ItemRepository
	categories CategoryReader
	logger     logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Inventário.
func NewService(repo ItemRepository, categories CategoryReader, logger logger.Logger) *Service {
	return &Service{repo: repo, categories: categories, logger: logger}
}

// CreateItem cria um novo item de inventário. O status é SEMPRE forçado para
// ACTIVE na criação, independente do que o cliente enviar, e o item nasce com
// estoque zero (nenhuma transação no ledger).
func (s *Service) CreateItem(ctx domain.Context, item domain.Item) (domain.Item, error) {
	s.logger.Debug("Iniciando criação de item no serviço.", map[string]interface{}{"name": item.Name, "category_id": item.CategoryID})

	if err := validateItem(item.Name, item.Unit, item); err != nil {
		s.logger.Warn("Falha na validação do item.", map[string]interface{}{"name": item.Name, "error": err.Error()})
		return domain.Item{}, err
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para CreateItem", nil)
	}

	// A categoria precisa existir e estar ACTIVE: o seletor do painel só lista
	// ativas, então uma categoria inativa aqui é um payload forjado ou obsoleto.
	category, err := s.categories.FindByID(ctxGo, item.CategoryID)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.Item{}, apperror.NewValidationError(fmt.Sprintf("Categoria %s não existe.", item.CategoryID))
		}
		return domain.Item{}, err
	}
	if category.Status != domain.StatusActive {
		return domain.Item{}, apperror.NewValidationError(fmt.Sprintf("A categoria '%s' está inativa e não pode receber novos itens.", category.Name))
	}

	item.ID = uuid.NewString()
	item.Status = domain.StatusActive // Forçado, independente do payload
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	created, err := s.repo.Save(ctxGo, item)
	if err != nil {
		s.logger.Error("Falha ao criar item no repositório.", err)
		return domain.Item{}, err
	}
	created.LowStock = domain.IsLowStock(created.MinimumStockLevelAlert, created.CurrentStock())

	s.logger.Info("Item criado com sucesso.", map[string]interface{}{"id": created.ID, "name": created.Name})
	return created, nil
}

// UpdateItem aplica uma atualização parcial ao item. Diferente da criação,
// o status É configurável aqui (é assim que itens são desativados).
func (s *Service) UpdateItem(ctx domain.Context, id string, update domain.ItemUpdate) (domain.Item, error) {
	s.logger.Debug("Iniciando atualização de item no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		return domain.Item{}, apperror.NewValidationError("O ID do item deve ser um UUID válido.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para UpdateItem", nil)
	}

	item, err := s.repo.FindByID(ctxGo, id)
	if err != nil {
		return domain.Item{}, err // NotFoundError ou DBError
	}

	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.CategoryID != nil {
		category, err := s.categories.FindByID(ctxGo, *update.CategoryID)
		if err != nil {
			var notFoundErr *apperror.NotFoundError
			if errors.As(err, &notFoundErr) {
				return domain.Item{}, apperror.NewValidationError(fmt.Sprintf("Categoria %s não existe.", *update.CategoryID))
			}
			return domain.Item{}, err
		}
		if category.Status != domain.StatusActive {
			return domain.Item{}, apperror.NewValidationError(fmt.Sprintf("A categoria '%s' está inativa.", category.Name))
		}
		item.CategoryID = *update.CategoryID
	}
	if update.Unit != nil {
		item.Unit = *update.Unit
	}
	if update.CostPerUnit != nil {
		item.CostPerUnit = *update.CostPerUnit
	}
	if update.MinimumStockLevelAlert != nil {
		item.MinimumStockLevelAlert = *update.MinimumStockLevelAlert
	}
	if update.SupplierName != nil {
		item.SupplierName = *update.SupplierName
	}
	if update.SupplierContact != nil {
		item.SupplierContact = *update.SupplierContact
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return domain.Item{}, apperror.NewValidationError("Status inválido. Use ACTIVE ou INACTIVE.")
		}
		item.Status = *update.Status
	}

	if err := validateItem(item.Name, item.Unit, item); err != nil {
		return domain.Item{}, err
	}

	updated, err := s.repo.Update(ctxGo, item)
	if err != nil {
		s.logger.Error("Falha ao atualizar item no repositório.", err)
		return domain.Item{}, err
	}
	updated.LowStock = domain.IsLowStock(updated.MinimumStockLevelAlert, updated.CurrentStock())

	s.logger.Info("Item atualizado com sucesso.", map[string]interface{}{"id": updated.ID, "name": updated.Name})
	return updated, nil
}

// GetAllItems retorna todos os itens com a flag de estoque baixo derivada a
// cada leitura (nunca cacheada: o saldo muda a cada transação do ledger).
func (s *Service) GetAllItems(ctx domain.Context) ([]domain.Item, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetAllItems", nil)
	}

	items, err := s.repo.FindAll(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao buscar itens no repositório.", err)
		return nil, err
	}

	for i := range items {
		items[i].LowStock = domain.IsLowStock(items[i].MinimumStockLevelAlert, items[i].CurrentStock())
	}

	return items, nil
}

// LowStockCount retorna o total de itens em alerta, exibido no dashboard.
func (s *Service) LowStockCount(ctx domain.Context) (int, error) {
	items, err := s.GetAllItems(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, item := range items {
		if item.LowStock {
			count++
		}
	}
	return count, nil
}

// validateItem concentra as validações de campos do item.
func validateItem(name string, unit domain.ItemUnit, item domain.Item) error {
	if strings.TrimSpace(name) == "" {
		return apperror.NewValidationError("O nome do item não pode ser vazio.")
	}
	if !unit.Valid() {
		return apperror.NewValidationError("Unidade inválida. Use KG, Liters, Bags, Pieces ou Tons.")
	}
	if item.CostPerUnit.IsNegative() {
		return apperror.NewValidationError("O custo por unidade não pode ser negativo.")
	}
	if item.MinimumStockLevelAlert < 0 {
		return apperror.NewValidationError("O limiar de alerta de estoque não pode ser negativo.")
	}
	if _, err := uuid.Parse(item.CategoryID); err != nil {
		return apperror.NewValidationError("O ID da categoria deve ser um UUID válido.")
	}
	return nil
}
