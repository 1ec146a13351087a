package model

import "time"

// Equipa is a team assigned to one obra under one encarregado.
type Equipa struct {
	ID            int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Nome          string    `gorm:"type:varchar(255);not null" json:"nome"`
	ObraID        int       `gorm:"not null;index" json:"obraId"`
	EncarregadoID string    `gorm:"type:varchar(64);not null;index" json:"encarregadoId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Obra        *Obra          `gorm:"foreignKey:ObraID" json:"obra,omitempty"`
	Encarregado *User          `gorm:"foreignKey:EncarregadoID" json:"encarregado,omitempty"`
	Membros     []EquipaMembro `gorm:"foreignKey:EquipaID" json:"membros"`
}

func (Equipa) TableName() string { return "equipa_obra" }

// EquipaMembro is the team/user join row.
type EquipaMembro struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	EquipaID  int       `gorm:"not null;uniqueIndex:idx_equipa_membro" json:"equipaId"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_equipa_membro" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (EquipaMembro) TableName() string { return "equipa_membros" }
