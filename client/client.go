// Package client é o adaptador HTTP tipado do AgroStock: ele normaliza os
// envelopes {data} e os corpos de erro {status, category, message} da API em
// retornos tipados e *APIError, para que o chamador nunca inspecione JSON cru.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"agrostock/internal/domain"
)

// APIError é a forma normalizada de qualquer resposta de erro da API.
// Message chega verbatim do servidor: é o texto exibido ao usuário.
type APIError struct {
	Status   int    `json:"status"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agrostock: %s (%d %s)", e.Message, e.Status, e.Category)
}

// IsInsufficientStock reporta se o erro é uma saída rejeitada por saldo.
func (e *APIError) IsInsufficientStock() bool {
	return e.Category == "INSUFFICIENT_STOCK"
}

// Client é o cliente HTTP da API AgroStock.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configura o Client na construção.
type Option func(*Client)

// WithHTTPClient substitui o http.Client padrão (timeout de 10s).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithToken anexa um bearer token JWT a todas as requisições.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New cria um Client apontando para baseURL (ex: "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// dataEnvelope é o envelope {data} usado pelas listagens da API.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// do executa a requisição e decodifica o corpo em out (quando não-nil).
// Qualquer status fora de 2xx vira *APIError.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("codificando payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("montando requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executando requisição: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("lendo resposta: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Message == "" {
			// Corpo fora do contrato (proxy, panic, etc.): preserva o texto cru.
			apiErr.Message = string(raw)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decodificando resposta: %w", err)
	}
	return nil
}

// doList é o caminho comum das listagens: desembrulha {data} antes de decodificar.
func (c *Client) doList(ctx context.Context, path string, out interface{}) error {
	var envelope dataEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return err
	}
	if envelope.Data == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decodificando lista: %w", err)
	}
	return nil
}

// --- Autenticação ---

// Register cria um novo usuário.
func (c *Client) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPost, "/register", registration, &user)
	return user, err
}

// Login autentica e retorna o token JWT emitido.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", payload, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// --- Categorias de Inventário ---

// GetAllCategories retorna todas as categorias, inclusive inativas.
func (c *Client) GetAllCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := c.doList(ctx, "/inventory-category/get-all", &categories)
	return categories, err
}

// GetActiveCategories retorna apenas categorias ACTIVE.
func (c *Client) GetActiveCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := c.doList(ctx, "/inventory-category/get-active-categories", &categories)
	return categories, err
}

// CreateCategory cria uma categoria.
func (c *Client) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	var created domain.Category
	err := c.do(ctx, http.MethodPost, "/inventory-category/create", category, &created)
	return created, err
}

// UpdateCategory aplica uma atualização parcial à categoria.
func (c *Client) UpdateCategory(ctx context.Context, id string, update domain.CategoryUpdate) (domain.Category, error) {
	var updated domain.Category
	err := c.do(ctx, http.MethodPatch, "/inventory-category/update/"+url.PathEscape(id), update, &updated)
	return updated, err
}

// DeleteCategory remove uma categoria. Categorias referenciadas por itens
// retornam *APIError com status 409.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/inventory-category/delete/"+url.PathEscape(id), nil, nil)
}

// --- Itens de Inventário ---

// GetItems retorna os itens com categoria, última transação e flag de alerta.
func (c *Client) GetItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	err := c.doList(ctx, "/inventory-management", &items)
	return items, err
}

// GetLowStockCount retorna o total de itens em alerta de estoque baixo.
func (c *Client) GetLowStockCount(ctx context.Context) (int, error) {
	var envelope struct {
		Data int `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/inventory-management/low-stock-count", nil, &envelope)
	return envelope.Data, err
}

// CreateItem cria um item de inventário (sempre ACTIVE, estoque zero).
func (c *Client) CreateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	var envelope struct {
		Data domain.Item `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/inventory-management", item, &envelope)
	return envelope.Data, err
}

// UpdateItem aplica uma atualização parcial ao item.
func (c *Client) UpdateItem(ctx context.Context, id string, update domain.ItemUpdate) (domain.Item, error) {
	var envelope struct {
		Data domain.Item `json:"data"`
	}
	err := c.do(ctx, http.MethodPatch, "/inventory-management/update/"+url.PathEscape(id), update, &envelope)
	return envelope.Data, err
}

// --- Ledger de Estoque ---

// StockIn registra uma entrada de estoque.
func (c *Client) StockIn(ctx context.Context, movement domain.StockMovementRequest) error {
	return c.do(ctx, http.MethodPost, "/inventory-transaction/stock-in", movement, nil)
}

// StockOut registra uma saída de estoque. Saldo insuficiente vira *APIError
// com IsInsufficientStock() verdadeiro.
func (c *Client) StockOut(ctx context.Context, movement domain.StockMovementRequest) error {
	return c.do(ctx, http.MethodPost, "/inventory-transaction/stock-out", movement, nil)
}

// GetTransactions retorna o ledger completo em ordem cronológica.
func (c *Client) GetTransactions(ctx context.Context) ([]domain.InventoryTransaction, error) {
	var transactions []domain.InventoryTransaction
	err := c.doList(ctx, "/inventory-transaction", &transactions)
	return transactions, err
}

// GetItemTransactions retorna o ledger de um único item.
func (c *Client) GetItemTransactions(ctx context.Context, itemID string) ([]domain.InventoryTransaction, error) {
	var transactions []domain.InventoryTransaction
	err := c.doList(ctx, "/inventory-transaction/"+url.PathEscape(itemID), &transactions)
	return transactions, err
}

// --- Ledger Financeiro ---

// RecordFinanceTransaction registra um lançamento financeiro.
func (c *Client) RecordFinanceTransaction(ctx context.Context, transaction domain.FinanceTransaction) (domain.FinanceTransaction, error) {
	var created domain.FinanceTransaction
	err := c.do(ctx, http.MethodPost, "/finance", transaction, &created)
	return created, err
}

// GetFinanceTransactions lista os lançamentos, mais recentes primeiro.
func (c *Client) GetFinanceTransactions(ctx context.Context) ([]domain.FinanceTransaction, error) {
	var transactions []domain.FinanceTransaction
	err := c.doList(ctx, "/finance", &transactions)
	return transactions, err
}

// GetFinanceTransactionsByCategory lista os lançamentos de uma categoria.
func (c *Client) GetFinanceTransactionsByCategory(ctx context.Context, category domain.FinanceCategory) ([]domain.FinanceTransaction, error) {
	var transactions []domain.FinanceTransaction
	err := c.doList(ctx, "/finance/category/"+url.PathEscape(string(category)), &transactions)
	return transactions, err
}

// GetNetBalance retorna receitas, despesas e saldo do período.
func (c *Client) GetNetBalance(ctx context.Context, dateRange domain.DateRange) (domain.NetBalance, error) {
	var balance domain.NetBalance
	err := c.do(ctx, http.MethodGet, "/finance/net-balance"+rangeQuery(dateRange), nil, &balance)
	return balance, err
}

// GetDashboardKPIs retorna os indicadores do dashboard para o período.
func (c *Client) GetDashboardKPIs(ctx context.Context, dateRange domain.DateRange) (domain.FinanceKPIs, error) {
	var kpis domain.FinanceKPIs
	err := c.do(ctx, http.MethodGet, "/finance/dashboard-kpi"+rangeQuery(dateRange), nil, &kpis)
	return kpis, err
}

func rangeQuery(dateRange domain.DateRange) string {
	values := url.Values{}
	if dateRange.From != nil {
		values.Set("from", dateRange.From.Format(time.RFC3339))
	}
	if dateRange.To != nil {
		values.Set("to", dateRange.To.Format(time.RFC3339))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
