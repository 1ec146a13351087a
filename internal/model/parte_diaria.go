package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParteDiaria categorias.
const (
	CategoriaMaoObra      = "MaoObra"
	CategoriaMateriais    = "Materiais"
	CategoriaEquipamentos = "Equipamentos"
)

// ParteDiaria is a daily activity line. Which optional fields are meaningful
// depends on Categoria: Quantidade+Unidade for materials, Horas+Nome for labor,
// Horas for equipment.
type ParteDiaria struct {
	ID            int              `gorm:"primaryKey;autoIncrement" json:"id"`
	Categoria     string           `gorm:"type:varchar(20);not null" json:"categoria"`
	Designacao    string           `gorm:"type:varchar(255)" json:"designacao"`
	Quantidade    *decimal.Decimal `gorm:"type:decimal(10,2)" json:"quantidade"`
	Unidade       string           `gorm:"type:varchar(50)" json:"unidade"`
	Horas         *decimal.Decimal `gorm:"type:decimal(5,2)" json:"horas"`
	Nome          string           `gorm:"type:varchar(255)" json:"nome"`
	Especialidade string           `gorm:"type:varchar(100)" json:"especialidade"`
	Data          string           `gorm:"type:varchar(10);not null;index" json:"data"`
	UserID        string           `gorm:"type:varchar(64);not null;index" json:"userId"`
	ObraID        int              `gorm:"not null;index" json:"obraId"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`

	Obra *Obra `gorm:"foreignKey:ObraID" json:"obra,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ParteDiaria) TableName() string { return "partes_diarias" }

// ValidCategoria reports whether c is a known categoria.
func ValidCategoria(c string) bool {
	return c == CategoriaMaoObra || c == CategoriaMateriais || c == CategoriaEquipamentos
}
