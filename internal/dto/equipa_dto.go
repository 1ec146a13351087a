package dto

type CreateEquipaRequest struct {
	Nome          string `json:"nome"          validate:"required,min=1,max=255"`
	ObraID        int    `json:"obraId"        validate:"required,gt=0"`
	EncarregadoID string `json:"encarregadoId" validate:"omitempty,max=64"`
}

type AddMembroRequest struct {
	UserID string `json:"userId" validate:"required,max=64"`
}
