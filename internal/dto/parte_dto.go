package dto

import "github.com/shopspring/decimal"

type CreateParteDiariaRequest struct {
	Categoria     string           `json:"categoria"     validate:"required,oneof=MaoObra Materiais Equipamentos"`
	Designacao    string           `json:"designacao"    validate:"omitempty,max=255"`
	Quantidade    *decimal.Decimal `json:"quantidade"    validate:"omitempty,gte=0,lte=99999999.99"`
	Unidade       string           `json:"unidade"       validate:"omitempty,max=50"`
	Horas         *decimal.Decimal `json:"horas"         validate:"omitempty,gte=0,lte=24"`
	Nome          string           `json:"nome"          validate:"omitempty,max=255"`
	Especialidade string           `json:"especialidade" validate:"omitempty,max=100"`
	Data          string           `json:"data"          validate:"omitempty,datetime=2006-01-02"`
	ObraID        int              `json:"obraId"        validate:"required,gt=0"`
}
