package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
)

// FinanceService define o contrato que o Handler espera da camada de Serviço.
type FinanceService interface {
	RecordTransaction(ctx context.Context, transaction domain.FinanceTransaction) (domain.FinanceTransaction, error)
	GetTransactions(ctx context.Context, category string) ([]domain.FinanceTransaction, error)
	GetNetBalance(ctx context.Context, dateRange domain.DateRange) (domain.NetBalance, error)
	GetKPIs(ctx context.Context, dateRange domain.DateRange) (domain.FinanceKPIs, error)
}

// Handler agrupa todos os métodos de Handler do ledger financeiro.
type Handler struct {
	Service FinanceService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc FinanceService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)

		h.Logger.Info("Requisição concluída com sucesso", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": successStatus,
		})

		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Status:   status,
		Category: category,
		Message:  message,
	})
}

// parseDateRange extrai os parâmetros opcionais from/to da query string.
// Aceita RFC3339 completo ou apenas a data (YYYY-MM-DD).
func parseDateRange(r *http.Request) (domain.DateRange, error) {
	var dateRange domain.DateRange

	for _, param := range []struct {
		name   string
		target **time.Time
	}{
		{"from", &dateRange.From},
		{"to", &dateRange.To},
	} {
		raw := r.URL.Query().Get(param.name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
		}
		if err != nil {
			return domain.DateRange{}, apperror.NewValidationError(
				fmt.Sprintf("Parâmetro '%s' inválido: use RFC3339 ou YYYY-MM-DD.", param.name))
		}
		*param.target = &parsed
	}

	return dateRange, nil
}

// FinanceHandler lida com GET e POST em /finance.
// GET lista os lançamentos (mais recentes primeiro); POST registra um novo.
func (h *Handler) FinanceHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		transactions, err := h.Service.GetTransactions(r.Context(), "")
		if err != nil {
			h.handleServiceResponse(w, r, nil, err, http.StatusOK)
			return
		}
		h.handleServiceResponse(w, r, map[string]interface{}{"data": transactions}, nil, http.StatusOK)

	case http.MethodPost:
		var transaction domain.FinanceTransaction
		if err := json.NewDecoder(r.Body).Decode(&transaction); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
			return
		}

		created, err := h.Service.RecordTransaction(r.Context(), transaction)
		h.handleServiceResponse(w, r, created, err, http.StatusCreated)

	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ByCategoryHandler lida com GET /finance/category/{category}.
func (h *Handler) ByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	category := strings.TrimPrefix(r.URL.Path, "/finance/category/")
	if category == "" || strings.Contains(category, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("A categoria é obrigatória na URL."), http.StatusOK)
		return
	}

	transactions, err := h.Service.GetTransactions(r.Context(), category)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]interface{}{"data": transactions}, nil, http.StatusOK)
}

// NetBalanceHandler lida com GET /finance/net-balance?from=&to=.
func (h *Handler) NetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	dateRange, err := parseDateRange(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	balance, err := h.Service.GetNetBalance(r.Context(), dateRange)
	h.handleServiceResponse(w, r, balance, err, http.StatusOK)
}

// DashboardKPIHandler lida com GET /finance/dashboard-kpi?from=&to=.
func (h *Handler) DashboardKPIHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	dateRange, err := parseDateRange(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	kpis, err := h.Service.GetKPIs(r.Context(), dateRange)
	h.handleServiceResponse(w, r, kpis, err, http.StatusOK)
}
