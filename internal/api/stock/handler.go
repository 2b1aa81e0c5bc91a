package stock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	StockIn(ctx domain.Context, movement domain.StockMovementRequest) (domain.InventoryTransaction, error)
	StockOut(ctx domain.Context, movement domain.StockMovementRequest) (domain.InventoryTransaction, error)
	GetTransactions(ctx domain.Context, itemID string) ([]domain.InventoryTransaction, error)
}

// Handler agrupa todos os métodos de Handler do ledger de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
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

// StockInHandler lida com POST /inventory-transaction/stock-in.
// A direção vem da rota: o campo stockType do payload é ignorado.
func (h *Handler) StockInHandler(w http.ResponseWriter, r *http.Request) {
	h.applyMovement(w, r, h.Service.StockIn)
}

// StockOutHandler lida com POST /inventory-transaction/stock-out.
// Saídas maiores que o saldo retornam 400 INSUFFICIENT_STOCK sem tocar no ledger.
func (h *Handler) StockOutHandler(w http.ResponseWriter, r *http.Request) {
	h.applyMovement(w, r, h.Service.StockOut)
}

func (h *Handler) applyMovement(w http.ResponseWriter, r *http.Request, apply func(domain.Context, domain.StockMovementRequest) (domain.InventoryTransaction, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var movement domain.StockMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&movement); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	_, err := apply(r.Context(), movement)
	// O painel só consome o status: a transação completa sai no GET do ledger.
	h.handleServiceResponse(w, r, map[string]interface{}{"status": http.StatusCreated}, err, http.StatusCreated)
}

// TransactionsHandler lida com GET /inventory-transaction e
// GET /inventory-transaction/{itemId}. Retorna o ledger em ordem cronológica.
func (h *Handler) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	// Sem segmento extra a listagem é global; com segmento, filtrada por item.
	itemID := strings.TrimPrefix(r.URL.Path, "/inventory-transaction")
	itemID = strings.Trim(itemID, "/")
	if strings.Contains(itemID, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("URL inválida para consulta de transações."), http.StatusOK)
		return
	}

	transactions, err := h.Service.GetTransactions(r.Context(), itemID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]interface{}{"data": transactions}, nil, http.StatusOK)
}
