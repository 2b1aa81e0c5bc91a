package financeservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
)

// FinanceRepository define o contrato que o Serviço Financeiro espera
// da camada de Persistência.
type FinanceRepository interface {
	Save(ctx context.Context, transaction domain.FinanceTransaction) (domain.FinanceTransaction, error)
	FindAll(ctx context.Context, category domain.FinanceCategory) ([]domain.FinanceTransaction, error)
	NetBalance(ctx context.Context, dateRange domain.DateRange) (domain.NetBalance, error)
	KPIs(ctx context.Context, dateRange domain.DateRange) (domain.FinanceKPIs, error)
}

// Service é a estrutura que implementa a lógica de negócio financeira.
type Service struct {
	repo   FinanceRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço Financeiro.
func NewService(repo FinanceRepository, logger logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// RecordTransaction valida e persiste um lançamento financeiro. O valor deve
// ser estritamente positivo: o sinal vem do tipo (INCOME/EXPENSE), nunca do
// valor.
func (s *Service) RecordTransaction(ctx context.Context, transaction domain.FinanceTransaction) (domain.FinanceTransaction, error) {
	s.logger.Debug("Iniciando registro de lançamento financeiro no serviço.", map[string]interface{}{
		"type":     transaction.Type,
		"category": transaction.Category,
	})

	if !transaction.Type.Valid() {
		return domain.FinanceTransaction{}, apperror.NewValidationError("O tipo do lançamento deve ser INCOME ou EXPENSE.")
	}
	if !transaction.Category.Valid() {
		return domain.FinanceTransaction{}, apperror.NewValidationError("Categoria financeira inválida: '" + string(transaction.Category) + "'.")
	}
	if !transaction.Amount.IsPositive() {
		return domain.FinanceTransaction{}, apperror.NewValidationError("O valor do lançamento deve ser maior que zero.")
	}
	if transaction.ItemID != nil {
		if _, err := uuid.Parse(*transaction.ItemID); err != nil {
			return domain.FinanceTransaction{}, apperror.NewValidationError("O ID do item vinculado deve ser um UUID válido.")
		}
	}

	transaction.ID = uuid.New().String()
	transaction.CreatedAt = time.Now()

	created, err := s.repo.Save(ctx, transaction)
	if err != nil {
		s.logger.Error("Falha ao salvar lançamento financeiro no repositório.", err)
		return domain.FinanceTransaction{}, err
	}

	s.logger.Info("Lançamento financeiro registrado com sucesso.", map[string]interface{}{
		"id":       created.ID,
		"type":     created.Type,
		"category": created.Category,
	})
	return created, nil
}

// GetTransactions lista os lançamentos, mais recentes primeiro, opcionalmente
// filtrados por categoria.
func (s *Service) GetTransactions(ctx context.Context, category string) ([]domain.FinanceTransaction, error) {
	if category != "" && !domain.FinanceCategory(category).Valid() {
		return nil, apperror.NewValidationError("Categoria financeira inválida: '" + category + "'.")
	}

	transactions, err := s.repo.FindAll(ctx, domain.FinanceCategory(category))
	if err != nil {
		s.logger.Error("Falha ao listar lançamentos financeiros no repositório.", err)
		return nil, err
	}
	return transactions, nil
}

// GetNetBalance agrega receitas e despesas do período em uma única passada.
func (s *Service) GetNetBalance(ctx context.Context, dateRange domain.DateRange) (domain.NetBalance, error) {
	if err := validateDateRange(dateRange); err != nil {
		return domain.NetBalance{}, err
	}

	balance, err := s.repo.NetBalance(ctx, dateRange)
	if err != nil {
		s.logger.Error("Falha ao calcular o balanço financeiro.", err)
		return domain.NetBalance{}, err
	}
	return balance, nil
}

// GetKPIs calcula os indicadores do painel para o período informado.
func (s *Service) GetKPIs(ctx context.Context, dateRange domain.DateRange) (domain.FinanceKPIs, error) {
	if err := validateDateRange(dateRange); err != nil {
		return domain.FinanceKPIs{}, err
	}

	kpis, err := s.repo.KPIs(ctx, dateRange)
	if err != nil {
		s.logger.Error("Falha ao calcular os KPIs financeiros.", err)
		return domain.FinanceKPIs{}, err
	}
	return kpis, nil
}

func validateDateRange(dateRange domain.DateRange) error {
	if dateRange.From != nil && dateRange.To != nil && dateRange.To.Before(*dateRange.From) {
		return apperror.NewValidationError("A data final do período não pode ser anterior à data inicial.")
	}
	return nil
}
