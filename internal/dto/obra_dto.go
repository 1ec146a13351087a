package dto

type CreateObraRequest struct {
	Codigo      string `json:"codigo"      validate:"required,min=1,max=50"`
	Nome        string `json:"nome"        validate:"required,min=1,max=255"`
	Localizacao string `json:"localizacao" validate:"omitempty,max=255"`
	Estado      string `json:"estado"      validate:"omitempty,oneof=Ativa Pausada Concluida"`
}

// UpdateObraRequest is a partial update; absent fields are left unchanged.
type UpdateObraRequest struct {
	Nome        *string `json:"nome"        validate:"omitempty,min=1,max=255"`
	Estado      *string `json:"estado"      validate:"omitempty,oneof=Ativa Pausada Concluida"`
	Localizacao *string `json:"localizacao" validate:"omitempty,max=255"`
}
