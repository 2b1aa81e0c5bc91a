package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinanceType é a direção de um lançamento financeiro.
type FinanceType string

const (
	FinanceIncome  FinanceType = "INCOME"
	FinanceExpense FinanceType = "EXPENSE"
)

// Valid verifica se o tipo é INCOME ou EXPENSE.
func (t FinanceType) Valid() bool {
	return t == FinanceIncome || t == FinanceExpense
}

// FinanceCategory é a categoria de negócio de um lançamento financeiro.
type FinanceCategory string

const (
	FinanceSale        FinanceCategory = "SALE"
	FinancePurchase    FinanceCategory = "PURCHASE"
	FinanceSalary      FinanceCategory = "SALARY"
	FinanceRent        FinanceCategory = "RENT"
	FinanceUtilities   FinanceCategory = "UTILITIES"
	FinanceMaintenance FinanceCategory = "MAINTENANCE"
	FinanceLogistics   FinanceCategory = "LOGISTICS"
	FinanceReturn      FinanceCategory = "RETURN"
	FinanceDamage      FinanceCategory = "DAMAGE"
	FinanceAdjustment  FinanceCategory = "ADJUSTMENT"
	FinanceOther       FinanceCategory = "OTHER"
)

// Valid verifica se a categoria é uma das categorias de negócio suportadas.
func (c FinanceCategory) Valid() bool {
	switch c {
	case FinanceSale, FinancePurchase, FinanceSalary, FinanceRent, FinanceUtilities,
		FinanceMaintenance, FinanceLogistics, FinanceReturn, FinanceDamage,
		FinanceAdjustment, FinanceOther:
		return true
	}
	return false
}

// FinanceTransaction é uma entrada imutável do ledger financeiro.
// Diferente do ledger de estoque, não há verificação de suficiência:
// o saldo líquido pode ser negativo.
type FinanceTransaction struct {
	ID            string          `json:"id"`
	Type          FinanceType     `json:"type"`
	Category      FinanceCategory `json:"category"`
	Amount        decimal.Decimal `json:"amount"` // Sempre > 0; a direção vem de Type
	PaymentMethod string          `json:"payment_method"`
	ItemID        *string         `json:"item_id,omitempty"` // Vínculo opcional com um item de inventário
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DateRange delimita consultas de agregação financeira. Ponteiros nulos
// significam "sem limite" naquela extremidade.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// NetBalance é o resultado da agregação de saldo líquido.
type NetBalance struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	NetBalance   decimal.Decimal `json:"netBalance"`
}

// ExpenseByCategory é uma soma de despesas agrupada por categoria.
type ExpenseByCategory struct {
	Category FinanceCategory `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// FinanceKPIs agrega os indicadores exibidos no dashboard financeiro.
// Recalculado a cada consulta, nunca mantido incrementalmente.
type FinanceKPIs struct {
	TotalIncome            decimal.Decimal    `json:"totalIncome"`
	TotalExpense           decimal.Decimal    `json:"totalExpense"`
	NetProfit              decimal.Decimal    `json:"netProfit"`
	TotalTransactions      int                `json:"totalTransactions"`
	HighestExpenseCategory *ExpenseByCategory `json:"highestExpenseCategory"`
}
