package domain

import (
	"time"
)

// Status representa o estado de ativação de Categorias e Itens de inventário.
// Categorias INACTIVE não podem ser atribuídas a novos itens; Itens INACTIVE
// não aceitam movimentações de estoque.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid verifica se o status é um dos valores aceitos.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Category representa uma categoria de inventário da fazenda (e.g., "Seeds",
// "Fertilizers"). Itens referenciam a categoria; a categoria não pode ser
// removida enquanto houver itens apontando para ela.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"` // Único e não-vazio
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryUpdate é o payload de atualização parcial de uma categoria.
// Ponteiros nulos indicam "campo não enviado".
type CategoryUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *Status `json:"status"`
}

// --- Estruturas Auxiliares (Contexto) ---

// Context é uma interface que encapsula o Go context.Context.
// É usado para propagar o timeout e sinais de cancelamento pelas camadas.
// Isso evita a dependência direta do pacote "context".
type Context interface{}
