package categoryservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
)

// CategoryRepository define o contrato que o Serviço de Categorias espera da
// camada de Persistência.
type CategoryRepository interface {
	Save(ctx context.Context, category domain.Category) (domain.Category, error)
	FindByID(ctx context.Context, id string) (domain.Category, error)
	FindAll(ctx context.Context) ([]domain.Category, error)
	FindActive(ctx context.Context) ([]domain.Category, error)
	Update(ctx context.Context, category domain.Category) (domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// Service é a estrutura que implementa a lógica de negócio de categorias.
type Service struct {
	repo   CategoryRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Categorias.
func NewService(repo CategoryRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateCategory cria uma nova categoria após validações de negócio.
// O status padrão é ACTIVE quando o cliente não envia um.
func (s *Service) CreateCategory(ctx domain.Context, category domain.Category) (domain.Category, error) {
	s.logger.Debug("Iniciando criação de categoria no serviço.", map[string]interface{}{"name": category.Name})

	if err := validateCategoryName(category.Name); err != nil {
		s.logger.Warn("Falha na validação do nome da categoria.", map[string]interface{}{"name": category.Name, "error": err.Error()})
		return domain.Category{}, err
	}

	if category.Status == "" {
		category.Status = domain.StatusActive
	}
	if !category.Status.Valid() {
		return domain.Category{}, apperror.NewValidationError("Status inválido. Use ACTIVE ou INACTIVE.")
	}

	category.ID = uuid.NewString()
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para CreateCategory", nil)
	}

	created, err := s.repo.Save(ctxGo, category)
	if err != nil {
		s.logger.Error("Falha ao criar categoria no repositório.", err)
		return domain.Category{}, err // Erros do repositório já são ValidationError ou DBError
	}

	s.logger.Info("Categoria criada com sucesso.", map[string]interface{}{"id": created.ID, "name": created.Name})
	return created, nil
}

// UpdateCategory aplica uma atualização parcial (nome/descrição/status) à categoria.
func (s *Service) UpdateCategory(ctx domain.Context, id string, update domain.CategoryUpdate) (domain.Category, error) {
	s.logger.Debug("Iniciando atualização de categoria no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		return domain.Category{}, apperror.NewValidationError("O ID da categoria deve ser um UUID válido.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para UpdateCategory", nil)
	}

	category, err := s.repo.FindByID(ctxGo, id)
	if err != nil {
		return domain.Category{}, err // NotFoundError ou DBError
	}

	if update.Name != nil {
		if err := validateCategoryName(*update.Name); err != nil {
			return domain.Category{}, err
		}
		category.Name = *update.Name
	}
	if update.Description != nil {
		category.Description = *update.Description
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return domain.Category{}, apperror.NewValidationError("Status inválido. Use ACTIVE ou INACTIVE.")
		}
		category.Status = *update.Status
	}

	updated, err := s.repo.Update(ctxGo, category)
	if err != nil {
		s.logger.Error("Falha ao atualizar categoria no repositório.", err)
		return domain.Category{}, err
	}

	s.logger.Info("Categoria atualizada com sucesso.", map[string]interface{}{"id": updated.ID, "name": updated.Name})
	return updated, nil
}

// DeleteCategory remove uma categoria. O repositório rejeita com ConflictError
// quando há itens referenciando a categoria; a mensagem sobe intacta até o
// painel.
func (s *Service) DeleteCategory(ctx domain.Context, id string) error {
	s.logger.Debug("Iniciando exclusão de categoria no serviço.", map[string]interface{}{"id": id})

	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID da categoria deve ser um UUID válido.")
	}

	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para DeleteCategory", nil)
	}

	if err := s.repo.Delete(ctxGo, id); err != nil {
		s.logger.Error("Falha ao deletar categoria no repositório.", err)
		return err // ConflictError, NotFoundError ou DBError
	}

	s.logger.Info("Categoria deletada com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// GetAllCategories busca todas as categorias (com status, para filtragem no painel).
func (s *Service) GetAllCategories(ctx domain.Context) ([]domain.Category, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetAllCategories", nil)
	}

	categories, err := s.repo.FindAll(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao buscar categorias no repositório.", err)
		return nil, err
	}

	return categories, nil
}

// GetActiveCategories busca apenas categorias ACTIVE, usadas para popular o
// seletor de categoria na criação de itens.
func (s *Service) GetActiveCategories(ctx domain.Context) ([]domain.Category, error) {
	ctxGo, ok := ctx.(context.Context)
	if !ok {
		ctxGo = context.Background()
		s.logger.Warn("Contexto de domínio inválido, usando context.Background() para GetActiveCategories", nil)
	}

	categories, err := s.repo.FindActive(ctxGo)
	if err != nil {
		s.logger.Error("Falha ao buscar categorias ativas no repositório.", err)
		return nil, err
	}

	return categories, nil
}

// validateCategoryName é uma função auxiliar para validar o nome da categoria.
func validateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.NewValidationError("O nome da categoria não pode ser vazio.")
	}
	if len(name) > 100 {
		return apperror.NewValidationError("O nome da categoria deve ter no máximo 100 caracteres.")
	}
	return nil
}
