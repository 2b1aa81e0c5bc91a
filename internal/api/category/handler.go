package category

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/logger"
)

// CategoryService define o contrato que o Handler espera da camada de Serviço.
// Usamos a assinatura com o tipo abstrato domain.Context para manter a pureza do domínio.
type CategoryService interface {
	CreateCategory(ctx domain.Context, category domain.Category) (domain.Category, error)
	UpdateCategory(ctx domain.Context, id string, update domain.CategoryUpdate) (domain.Category, error)
	DeleteCategory(ctx domain.Context, id string) error
	GetAllCategories(ctx domain.Context) ([]domain.Category, error)
	GetActiveCategories(ctx domain.Context) ([]domain.Category, error)
}

// Handler agrupa todos os métodos de Handler de categorias.
type Handler struct {
	Service CategoryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CategoryService, log logger.Logger) *Handler {
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

// GetAllCategoriesHandler lida com GET /inventory-category/get-all.
// Retorna todas as categorias, inclusive inativas, no envelope {data}.
func (h *Handler) GetAllCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	categories, err := h.Service.GetAllCategories(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]interface{}{"data": categories}, nil, http.StatusOK)
}

// GetActiveCategoriesHandler lida com GET /inventory-category/get-active-categories.
// Popula o seletor de categoria do formulário de itens.
func (h *Handler) GetActiveCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	categories, err := h.Service.GetActiveCategories(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]interface{}{"data": categories}, nil, http.StatusOK)
}

// CreateCategoryHandler lida com POST /inventory-category/create.
func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var category domain.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateCategory(r.Context(), category)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// UpdateCategoryHandler lida com PATCH /inventory-category/update/{id}.
func (h *Handler) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/inventory-category/update/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O ID da categoria é obrigatório na URL."), http.StatusOK)
		return
	}

	var update domain.CategoryUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, err := h.Service.UpdateCategory(r.Context(), id, update)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// DeleteCategoryHandler lida com DELETE /inventory-category/delete/{id}.
// Categorias referenciadas por itens retornam 409 com a mensagem de conflito.
func (h *Handler) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/inventory-category/delete/")
	if id == "" || strings.Contains(id, "/") {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O ID da categoria é obrigatório na URL."), http.StatusOK)
		return
	}

	err := h.Service.DeleteCategory(r.Context(), id)
	h.handleServiceResponse(w, r, map[string]interface{}{"status": http.StatusOK}, err, http.StatusOK)
}
