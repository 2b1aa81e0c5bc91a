package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// O campo Status replica o código HTTP no corpo porque o painel consome
// o valor de `status` do JSON, não apenas o código de transporte.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Status   int    `json:"status" example:"400"`
	Category string `json:"category" example:"VALIDATION_ERROR"`
	Message  string `json:"message" example:"O nome da categoria não pode ser vazio."`
}
