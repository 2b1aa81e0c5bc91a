package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"agrostock/config"
	"agrostock/internal/pkg/cache"
	"agrostock/internal/pkg/database"
	"agrostock/internal/pkg/logger"
	"agrostock/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"agrostock/internal/api/category"
	"agrostock/internal/api/finance"
	"agrostock/internal/api/inventory"
	"agrostock/internal/api/router"
	"agrostock/internal/api/stock"
	"agrostock/internal/api/user"
	"agrostock/internal/repository/categoryrepo"
	"agrostock/internal/repository/financerepo"
	"agrostock/internal/repository/itemrepo"
	"agrostock/internal/repository/stockrepo"
	"agrostock/internal/repository/userrepo"
	"agrostock/internal/service/categoryservice"
	"agrostock/internal/service/financeservice"
	"agrostock/internal/service/inventoryservice"
	"agrostock/internal/service/stockservice"
	"agrostock/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço AgroStock...")

	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Sem .env seguimos em frente: as variáveis essenciais podem estar
		// no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Categorias de Inventário
	categoryRepo := categoryrepo.NewCategoryRepository(db, cfg.DBTimeout, log)
	categorySvc := categoryservice.NewService(categoryRepo, log)
	categoryHandler := category.NewHandler(categorySvc, log)
	log.Debug("Módulo de Categorias inicializado.", nil)

	// B. Itens de Inventário (usa o repositório de categorias para validar referências)
	itemRepo := itemrepo.NewItemRepository(db, cfg.DBTimeout, log)
	inventorySvc := inventoryservice.NewService(itemRepo, categoryRepo, log)
	inventoryHandler := inventory.NewHandler(inventorySvc, log)
	log.Debug("Módulo de Inventário inicializado.", nil)

	// C. Ledger de Estoque
	stockRepo := stockrepo.NewStockRepository(db, cfg.DBTimeout, log)
	stockSvc := stockservice.NewService(stockRepo, log)
	stockHandler := stock.NewHandler(stockSvc, log)
	log.Debug("Módulo do Ledger de Estoque inicializado.", nil)

	// D. Ledger Financeiro (com cache do balanço no Redis)
	financeRepo := financerepo.NewFinanceRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
	financeSvc := financeservice.NewService(financeRepo, log)
	financeHandler := finance.NewHandler(financeSvc, log)
	log.Debug("Módulo Financeiro inicializado.", nil)

	// E. Usuários e Autenticação
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	userSvc := userservice.NewService(userRepo, tokenSvc)
	userHandler := user.NewHandler(userSvc, log)
	log.Debug("Módulo de Usuários inicializado.", nil)

	// 4. Configuração e Início do Roteador/Servidor

	r := router.NewRouter(router.Deps{
		CategoryHandler:  categoryHandler,
		InventoryHandler: inventoryHandler,
		StockHandler:     stockHandler,
		FinanceHandler:   financeHandler,
		UserHandler:      userHandler,
		TokenSvc:         tokenSvc,
		Cache:            cacheClient,
		RateLimit:        cfg.RateLimitMaxRequests,
		RatePer:          cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor AgroStock ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
