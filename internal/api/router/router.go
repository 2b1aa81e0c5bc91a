package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"agrostock/internal/api/category"
	"agrostock/internal/api/finance"
	"agrostock/internal/api/inventory"
	"agrostock/internal/api/stock"
	"agrostock/internal/api/user"
	"agrostock/internal/pkg/cache"
	"agrostock/internal/pkg/middleware"
)

// Deps agrupa tudo que o roteador precisa: handlers já inicializados,
// o serviço de token para o middleware de autenticação e o cache para o
// rate limiter global.
type Deps struct {
	CategoryHandler  *category.Handler
	InventoryHandler *inventory.Handler
	StockHandler     *stock.Handler
	FinanceHandler   *finance.Handler
	UserHandler      *user.Handler

	TokenSvc  middleware.TokenService
	Cache     cache.Client
	RateLimit int
	RatePer   time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(deps Deps) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	// Em projetos maiores, pode-se usar um mux de terceiros (e.g., gorilla/mux, chi)
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(deps.TokenSvc)

	// --- 1. Rotas de Health Check e Documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- 2. Autenticação ---
	mux.HandleFunc("/register", deps.UserHandler.RegisterUserHandler)
	mux.HandleFunc("/login", deps.UserHandler.LoginUserHandler)

	// --- 3. Categorias de Inventário ---
	// Leituras são públicas; escritas exigem token.
	mux.HandleFunc("/inventory-category/get-all", deps.CategoryHandler.GetAllCategoriesHandler)
	mux.HandleFunc("/inventory-category/get-active-categories", deps.CategoryHandler.GetActiveCategoriesHandler)
	mux.HandleFunc("/inventory-category/create", auth(deps.CategoryHandler.CreateCategoryHandler))
	mux.HandleFunc("/inventory-category/update/", auth(deps.CategoryHandler.UpdateCategoryHandler))
	mux.HandleFunc("/inventory-category/delete/", auth(deps.CategoryHandler.DeleteCategoryHandler))

	// --- 4. Itens de Inventário ---
	// GET lista; POST cria. A atualização tem rota própria com o ID no caminho.
	mux.HandleFunc("/inventory-management", itemsDispatch(deps.InventoryHandler, auth))
	mux.HandleFunc("/inventory-management/low-stock-count", deps.InventoryHandler.LowStockCountHandler)
	mux.HandleFunc("/inventory-management/update/", auth(deps.InventoryHandler.UpdateItemHandler))

	// --- 5. Ledger de Estoque ---
	mux.HandleFunc("/inventory-transaction/stock-in", auth(deps.StockHandler.StockInHandler))
	mux.HandleFunc("/inventory-transaction/stock-out", auth(deps.StockHandler.StockOutHandler))
	mux.HandleFunc("/inventory-transaction", deps.StockHandler.TransactionsHandler)
	mux.HandleFunc("/inventory-transaction/", deps.StockHandler.TransactionsHandler)

	// --- 6. Ledger Financeiro (tudo autenticado) ---
	mux.HandleFunc("/finance", auth(deps.FinanceHandler.FinanceHandler))
	mux.HandleFunc("/finance/category/", auth(deps.FinanceHandler.ByCategoryHandler))
	mux.HandleFunc("/finance/net-balance", auth(deps.FinanceHandler.NetBalanceHandler))
	mux.HandleFunc("/finance/dashboard-kpi", auth(deps.FinanceHandler.DashboardKPIHandler))

	// --- 7. Middlewares Globais ---
	return middleware.RateLimiter(deps.Cache, deps.RateLimit, deps.RatePer)(mux)
}

// itemsDispatch protege apenas o POST de /inventory-management: a listagem é
// pública para o painel, a criação exige token.
func itemsDispatch(h *inventory.Handler, auth func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	protected := auth(h.ItemsHandler)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.ItemsHandler(w, r)
			return
		}
		protected(w, r)
	}
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
