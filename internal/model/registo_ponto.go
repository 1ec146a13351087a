package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegistoPonto is one user's time record for one calendar day.
// At most one row exists per (UserID, Data).
type RegistoPonto struct {
	ID                    int              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_registo_user_data" json:"userId"`
	Data                  string           `gorm:"type:varchar(10);not null;uniqueIndex:idx_registo_user_data" json:"data"` // YYYY-MM-DD
	HoraEntrada           *time.Time       `json:"horaEntrada"`
	HoraSaida             *time.Time       `json:"horaSaida"`
	TotalHorasTrabalhadas *decimal.Decimal `gorm:"type:decimal(5,2)" json:"totalHorasTrabalhadas"`
	TotalTempoIntervalo   *decimal.Decimal `gorm:"type:decimal(5,2)" json:"totalTempoIntervalo"`
	LatitudeEntrada       *decimal.Decimal `gorm:"type:decimal(10,8)" json:"latitudeEntrada"`
	LongitudeEntrada      *decimal.Decimal `gorm:"type:decimal(11,8)" json:"longitudeEntrada"`
	LatitudeSaida         *decimal.Decimal `gorm:"type:decimal(10,8)" json:"latitudeSaida"`
	LongitudeSaida        *decimal.Decimal `gorm:"type:decimal(11,8)" json:"longitudeSaida"`
	ObraID                *int             `gorm:"index" json:"obraId"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

func (RegistoPonto) TableName() string { return "registo_ponto" }

// Working reports whether the record has a clock-in but no clock-out yet.
func (r *RegistoPonto) Working() bool {
	return r != nil && r.HoraEntrada != nil && r.HoraSaida == nil
}
