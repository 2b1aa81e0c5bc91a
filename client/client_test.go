package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"agrostock/client"
	"agrostock/internal/domain"
)

// TestGetItems_UnwrapsDataEnvelope testa que o adaptador desembrulha o
// envelope {data} das listagens em um slice tipado.
func TestGetItems_UnwrapsDataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory-management", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "a1", "name": "Ração Bovina", "minimum_stock_level_alert": 20},
			},
		})
	}))
	defer server.Close()

	c := client.New(server.URL)
	items, err := c.GetItems(context.Background())

	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "Ração Bovina", items[0].Name)
	assert.Equal(t, 20, items[0].MinimumStockLevelAlert)
}

// TestGetLowStockCount testa a leitura do total de itens em alerta
// usado pelo dashboard.
func TestGetLowStockCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory-management/low-stock-count", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"data": 3})
	}))
	defer server.Close()

	c := client.New(server.URL)
	count, err := c.GetLowStockCount(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

// TestDeleteCategory_NormalizesConflict testa que um 409 vira *APIError com a
// mensagem do servidor preservada verbatim.
func TestDeleteCategory_NormalizesConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(domain.ErrorResponse{
			Status:   http.StatusConflict,
			Category: "CONFLICT",
			Message:  "Categoria em uso por itens de inventário e não pode ser removida.",
		})
	}))
	defer server.Close()

	c := client.New(server.URL)
	err := c.DeleteCategory(context.Background(), "some-id")

	assert.Error(t, err)
	var apiErr *client.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "CONFLICT", apiErr.Category)
	assert.Equal(t, "Categoria em uso por itens de inventário e não pode ser removida.", apiErr.Message)
}

// TestStockOut_NormalizesInsufficientStock testa a detecção tipada de saldo insuficiente.
func TestStockOut_NormalizesInsufficientStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory-transaction/stock-out", r.URL.Path)

		var movement domain.StockMovementRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&movement))
		assert.Equal(t, 50, movement.TransactionQuantity)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(domain.ErrorResponse{
			Status:   http.StatusBadRequest,
			Category: "INSUFFICIENT_STOCK",
			Message:  "Saldo insuficiente para 'Ração Bovina': disponível 20, solicitado 50.",
		})
	}))
	defer server.Close()

	c := client.New(server.URL)
	err := c.StockOut(context.Background(), domain.StockMovementRequest{
		InventoryID:         "a1",
		Purpose:             domain.PurposeSale,
		TransactionQuantity: 50,
	})

	var apiErr *client.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsInsufficientStock())
}

// TestWithToken_SendsBearerHeader testa o anexo do token JWT às requisições.
func TestWithToken_SendsBearerHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer meu-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]int{"status": http.StatusCreated})
	}))
	defer server.Close()

	c := client.New(server.URL, client.WithToken("meu-token"))
	err := c.StockIn(context.Background(), domain.StockMovementRequest{
		InventoryID:         "a1",
		Purpose:             domain.PurposePurchase,
		TransactionQuantity: 10,
	})

	assert.NoError(t, err)
}

// TestAPIError_NonJSONBody testa a preservação de corpos fora do contrato
// (proxies, HTML de erro) no campo Message.
func TestAPIError_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("Bad Gateway"))
	}))
	defer server.Close()

	c := client.New(server.URL)
	_, err := c.GetAllCategories(context.Background())

	var apiErr *client.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}
