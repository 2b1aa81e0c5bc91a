package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemUnit é a unidade de medida de um item de inventário.
type ItemUnit string

const (
	UnitKG     ItemUnit = "KG"
	UnitLiters ItemUnit = "Liters"
	UnitBags   ItemUnit = "Bags"
	UnitPieces ItemUnit = "Pieces"
	UnitTons   ItemUnit = "Tons"
)

// Valid verifica se a unidade é uma das unidades suportadas.
func (u ItemUnit) Valid() bool {
	switch u {
	case UnitKG, UnitLiters, UnitBags, UnitPieces, UnitTons:
		return true
	}
	return false
}

// Item representa um item de inventário (a Entidade principal do ledger).
// O estoque atual NUNCA é armazenado no item: ele é derivado da última
// transação do ledger (Transactions[0].Stock quando presente, 0 caso contrário).
type Item struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	CategoryID             string          `json:"category_id"`
	Unit                   ItemUnit        `json:"unit"`
	CostPerUnit            decimal.Decimal `json:"cost_per_unit"`
	MinimumStockLevelAlert int             `json:"minimum_stock_level_alert"`
	SupplierName           string          `json:"supplier_name"`
	SupplierContact        string          `json:"supplier_contact"`
	Status                 Status          `json:"status"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`

	// Relações (preenchidas em listagens)
	Category     *Category              `json:"category,omitempty"`
	Transactions []InventoryTransaction `json:"transactions"` // Apenas a transação mais recente em listagens
	LowStock     bool                   `json:"low_stock"`
}

// CurrentStock retorna o saldo derivado da transação mais recente (0 sem transações).
func (i Item) CurrentStock() int {
	if len(i.Transactions) == 0 {
		return 0
	}
	return i.Transactions[0].Stock
}

// ItemUpdate é o payload de atualização parcial de um item.
// Diferente da criação, o status É configurável aqui.
type ItemUpdate struct {
	Name                   *string          `json:"name"`
	CategoryID             *string          `json:"category_id"`
	Unit                   *ItemUnit        `json:"unit"`
	CostPerUnit            *decimal.Decimal `json:"cost_per_unit"`
	MinimumStockLevelAlert *int             `json:"minimum_stock_level_alert"`
	SupplierName           *string          `json:"supplier_name"`
	SupplierContact        *string          `json:"supplier_contact"`
	Status                 *Status          `json:"status"`
}

// IsLowStock é a derivação pura do alerta de estoque baixo: saldo atual menor
// ou igual ao limiar configurado. Recalculada a cada leitura, nunca cacheada.
func IsLowStock(minimumAlert, balance int) bool {
	return balance <= minimumAlert
}
