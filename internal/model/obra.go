package model

import "time"

// Obra estado values.
const (
	EstadoAtiva     = "Ativa"
	EstadoPausada   = "Pausada"
	EstadoConcluida = "Concluida"
)

// Obra is a construction project. QRCode is the opaque token printed on site
// and used to look the project up at clock-in.
type Obra struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Codigo      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"codigo"`
	Nome        string    `gorm:"type:varchar(255);not null" json:"nome"`
	Estado      string    `gorm:"type:varchar(20);not null;default:'Ativa'" json:"estado"`
	Localizacao string    `gorm:"type:varchar(255)" json:"localizacao"`
	QRCode      string    `gorm:"column:qr_code;type:varchar(255);uniqueIndex;not null" json:"qrCode"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Obra) TableName() string { return "obras" }
