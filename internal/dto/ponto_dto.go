package dto

import "github.com/shopspring/decimal"

// ClockInRequest accepts the obra under either name; obraId wins when both are sent.
type ClockInRequest struct {
	ObraID    *int             `json:"obraId"`
	ProjectID *int             `json:"projectId"`
	Latitude  *decimal.Decimal `json:"latitude"  validate:"omitempty,gte=-90,lte=90"`
	Longitude *decimal.Decimal `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// Obra returns the obra id from whichever field was supplied.
func (r ClockInRequest) Obra() *int {
	if r.ObraID != nil {
		return r.ObraID
	}
	return r.ProjectID
}

type ClockOutRequest struct {
	Latitude            *decimal.Decimal `json:"latitude"            validate:"omitempty,gte=-90,lte=90"`
	Longitude           *decimal.Decimal `json:"longitude"           validate:"omitempty,gte=-180,lte=180"`
	TotalTempoIntervalo *decimal.Decimal `json:"totalTempoIntervalo" validate:"omitempty,gte=0,lte=24"`
}
