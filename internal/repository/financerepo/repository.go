package financerepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"agrostock/internal/domain"
	apperror "agrostock/internal/errors"
	"agrostock/internal/pkg/cache"
	"agrostock/internal/pkg/logger"
)

// netBalanceCacheKey é a chave do agregado de saldo líquido sem janela de datas.
// Invalidada a cada lançamento: o agregado cacheado nunca sobrevive a um write.
const netBalanceCacheKey = "finance:net-balance"

// FinanceRepository implementa o ledger financeiro (append-only) e seus agregados.
type FinanceRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewFinanceRepository cria e retorna uma nova instância do Repositório Financeiro.
func NewFinanceRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *FinanceRepository {
	return &FinanceRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Save insere um lançamento financeiro e invalida o agregado cacheado.
func (r *FinanceRepository) Save(ctx context.Context, transaction domain.FinanceTransaction) (domain.FinanceTransaction, error) {
	r.logger.Debug("Iniciando Save de lançamento financeiro.", map[string]interface{}{
		"type": transaction.Type, "category": transaction.Category,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO finance_transactions (id, type, category, amount, payment_method, item_id, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		transaction.ID, transaction.Type, transaction.Category, transaction.Amount,
		transaction.PaymentMethod, transaction.ItemID, transaction.Notes, transaction.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir lançamento financeiro no DB.", err)
		return domain.FinanceTransaction{}, apperror.NewDBError("Falha ao inserir lançamento financeiro", err)
	}

	// O saldo líquido cacheado ficou obsoleto.
	if cacheErr := r.Cache.Delete(ctxTimeout, netBalanceCacheKey); cacheErr != nil {
		r.logger.Warn("Falha ao invalidar cache de saldo líquido.", map[string]interface{}{"error": cacheErr.Error()})
	}

	return transaction, nil
}

// FindAll retorna o ledger financeiro em ordem cronológica inversa (mais
// recentes primeiro, como o painel exibe). Com category vazia retorna tudo.
func (r *FinanceRepository) FindAll(ctx context.Context, category domain.FinanceCategory) ([]domain.FinanceTransaction, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, type, category, amount, payment_method, item_id, notes, created_at
        FROM finance_transactions`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar lançamentos financeiros no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar lançamentos financeiros", err)
	}
	defer rows.Close()

	transactions := []domain.FinanceTransaction{}
	for rows.Next() {
		var t domain.FinanceTransaction
		err := rows.Scan(&t.ID, &t.Type, &t.Category, &t.Amount,
			&t.PaymentMethod, &t.ItemID, &t.Notes, &t.CreatedAt)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear lançamento financeiro", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar lançamentos financeiros", err)
	}

	return transactions, nil
}

// dateFilter anexa a janela de datas à query. Retorna a cláusula e os args.
func dateFilter(query string, args []interface{}, dateRange domain.DateRange) (string, []interface{}) {
	clause := " WHERE 1=1"
	if dateRange.From != nil {
		args = append(args, *dateRange.From)
		clause += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if dateRange.To != nil {
		args = append(args, *dateRange.To)
		clause += ` AND created_at <= $` + strconv.Itoa(len(args))
	}
	return query + clause, args
}

// NetBalance computa {totalIncome, totalExpense, netBalance} somando o ledger,
// opcionalmente limitado à janela de datas. O agregado sem janela usa a
// estratégia Cache-Aside (mesma do catálogo do GoStock): leitura do Redis,
// fallback para o DB, repovoamento com TTL.
func (r *FinanceRepository) NetBalance(ctx context.Context, dateRange domain.DateRange) (domain.NetBalance, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	unbounded := dateRange.From == nil && dateRange.To == nil

	if unbounded {
		if cached, err := r.Cache.Get(ctxTimeout, netBalanceCacheKey); err == nil {
			var balance domain.NetBalance
			if json.Unmarshal([]byte(cached), &balance) == nil {
				return balance, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn("Falha ao ler saldo líquido do cache.", map[string]interface{}{"error": err.Error()})
		}
	}

	query, args := dateFilter(`
        SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'INCOME'), 0),
               COALESCE(SUM(amount) FILTER (WHERE type = 'EXPENSE'), 0)
        FROM finance_transactions`, []interface{}{}, dateRange)

	var balance domain.NetBalance
	err := r.DB.QueryRowContext(ctxTimeout, query, args...).Scan(&balance.TotalIncome, &balance.TotalExpense)
	if err != nil {
		r.logger.Error("Falha ao computar saldo líquido no DB.", err)
		return domain.NetBalance{}, apperror.NewDBError("Falha ao computar saldo líquido", err)
	}
	balance.NetBalance = balance.TotalIncome.Sub(balance.TotalExpense)

	if unbounded {
		if encoded, err := json.Marshal(balance); err == nil {
			r.Cache.Set(ctxTimeout, netBalanceCacheKey, encoded, r.CacheTTL)
		}
	}

	return balance, nil
}

// KPIs agrega os indicadores do dashboard financeiro sobre a janela informada.
// Sempre recomputado por consulta; nada é mantido incrementalmente.
func (r *FinanceRepository) KPIs(ctx context.Context, dateRange domain.DateRange) (domain.FinanceKPIs, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query, args := dateFilter(`
        SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'INCOME'), 0),
               COALESCE(SUM(amount) FILTER (WHERE type = 'EXPENSE'), 0),
               COUNT(*)
        FROM finance_transactions`, []interface{}{}, dateRange)

	var kpis domain.FinanceKPIs
	err := r.DB.QueryRowContext(ctxTimeout, query, args...).
		Scan(&kpis.TotalIncome, &kpis.TotalExpense, &kpis.TotalTransactions)
	if err != nil {
		r.logger.Error("Falha ao computar KPIs no DB.", err)
		return domain.FinanceKPIs{}, apperror.NewDBError("Falha ao computar KPIs", err)
	}
	kpis.NetProfit = kpis.TotalIncome.Sub(kpis.TotalExpense)

	// Maior categoria de despesa dentro da janela (max sobre somas agrupadas).
	query, args = dateFilter(`
        SELECT category, SUM(amount)
        FROM finance_transactions`, []interface{}{}, dateRange)
	query += ` AND type = 'EXPENSE' GROUP BY category ORDER BY SUM(amount) DESC LIMIT 1`

	var highest domain.ExpenseByCategory
	err = r.DB.QueryRowContext(ctxTimeout, query, args...).Scan(&highest.Category, &highest.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		// Sem despesas na janela: o painel exibe "No data".
		return kpis, nil
	}
	if err != nil {
		r.logger.Error("Falha ao computar maior categoria de despesa.", err)
		return domain.FinanceKPIs{}, apperror.NewDBError("Falha ao computar maior categoria de despesa", err)
	}
	kpis.HighestExpenseCategory = &highest

	return kpis, nil
}
