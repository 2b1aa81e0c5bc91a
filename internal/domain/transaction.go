package domain

import "time"

// StockType é a direção de uma movimentação de estoque.
type StockType string

const (
	StockIn  StockType = "IN"
	StockOut StockType = "OUT"
)

// StockPurpose é a finalidade de negócio de uma movimentação, dependente da direção.
type StockPurpose string

const (
	// Finalidades de entrada (IN)
	PurposePurchase      StockPurpose = "PURCHASE"
	PurposeInitiateStock StockPurpose = "INITIATE_STOCK"

	// Finalidades de saída (OUT)
	PurposeSale   StockPurpose = "SALE"
	PurposeDamage StockPurpose = "DAMAGE"

	// Finalidades válidas em ambas as direções
	PurposeReturn     StockPurpose = "RETURN"
	PurposeAdjustment StockPurpose = "ADJUSTMENT"
)

// ValidPurpose verifica se a finalidade é permitida para a direção informada.
func ValidPurpose(st StockType, p StockPurpose) bool {
	switch st {
	case StockIn:
		return p == PurposePurchase || p == PurposeReturn || p == PurposeAdjustment || p == PurposeInitiateStock
	case StockOut:
		return p == PurposeSale || p == PurposeDamage || p == PurposeAdjustment || p == PurposeReturn
	}
	return false
}

// InventoryTransaction é uma entrada imutável do ledger de estoque.
// O ledger é append-only: transações nunca são alteradas ou removidas,
// e a coluna Seq define a ordem total por item.
type InventoryTransaction struct {
	ID        string       `json:"id"`
	ItemID    string       `json:"inventory_id"`
	Seq       int64        `json:"-"`
	StockType StockType    `json:"stock_type"`
	Purpose   StockPurpose `json:"purpose"`
	Quantity  int          `json:"quantity"` // Sempre > 0; a direção vem de StockType
	Stock     int          `json:"stock"`    // Saldo resultante APÓS aplicar esta transação
	Notes     string       `json:"notes"`
	CreatedAt time.Time    `json:"created_at"`
}

// StockMovementRequest é o payload esperado nas requisições de stock-in/stock-out.
// Os nomes de campo seguem o contrato consumido pelo painel do fazendeiro.
type StockMovementRequest struct {
	InventoryID         string       `json:"inventoryId"`
	StockType           StockType    `json:"stockType"`
	Purpose             StockPurpose `json:"purpose"`
	TransactionQuantity int          `json:"transactionQuantity"`
	Notes               string       `json:"notes"`
}
