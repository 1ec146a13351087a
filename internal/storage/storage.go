// Package storage defines the persistence contract shared by every backend.
//
// Callers depend only on Storage. Backends live in sub-packages (memory,
// gormstore, sqlserver) and are chosen once at startup by storage/factory.
//
// Conventions every implementation follows:
//   - collection reads return an empty, non-nil slice when nothing matches;
//   - single-item reads return (nil, nil) when the row is absent;
//   - writes against a missing id or parent id return ErrNotFound;
//   - unique-key violations return ErrDuplicate;
//   - patch preconditions that no longer hold return ErrConflict and change nothing;
//   - a backend without a live connection returns ErrNotConnected immediately.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrDuplicate    = errors.New("storage: duplicate key")
	ErrConflict     = errors.New("storage: precondition failed")
	ErrNotConnected = errors.New("storage: backend not connected")
)

// DateLayout is the on-disk format of every calendar-date column.
const DateLayout = "2006-01-02"

// AdminID is the fixed id of the bootstrap director account.
const AdminID = "admin"

type Storage interface {
	// Users
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpsertUser(ctx context.Context, u *model.User) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
	UpdateUserRole(ctx context.Context, id, role string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, hash string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	// Obras
	ListObras(ctx context.Context) ([]model.Obra, error)
	GetObra(ctx context.Context, id int) (*model.Obra, error)
	GetObraByQRCode(ctx context.Context, qrCode string) (*model.Obra, error)
	CreateObra(ctx context.Context, o *model.Obra) (*model.Obra, error)
	UpdateObra(ctx context.Context, id int, patch ObraPatch) (*model.Obra, error)

	// Registo de ponto
	ListRegistosPonto(ctx context.Context, userID string) ([]model.RegistoPonto, error)
	GetRegistoPontoForDate(ctx context.Context, userID, data string) (*model.RegistoPonto, error)
	CreateRegistoPonto(ctx context.Context, r *model.RegistoPonto) (*model.RegistoPonto, error)
	UpdateRegistoPonto(ctx context.Context, id int, patch RegistoPontoPatch) (*model.RegistoPonto, error)

	// Equipas
	ListEquipas(ctx context.Context) ([]model.Equipa, error)
	ListEquipasByEncarregado(ctx context.Context, userID string) ([]model.Equipa, error)
	ListEquipasByMembro(ctx context.Context, userID string) ([]model.Equipa, error)
	GetEquipa(ctx context.Context, id int) (*model.Equipa, error)
	CreateEquipa(ctx context.Context, e *model.Equipa) (*model.Equipa, error)
	AddEquipaMembro(ctx context.Context, equipaID int, userID string) (*model.EquipaMembro, error)
	RemoveEquipaMembro(ctx context.Context, equipaID int, userID string) error

	// Partes diarias
	ListPartesDiarias(ctx context.Context, userID string) ([]model.ParteDiaria, error)
	ListPartesDiariasByObra(ctx context.Context, obraID int) ([]model.ParteDiaria, error)
	CreateParteDiaria(ctx context.Context, p *model.ParteDiaria) (*model.ParteDiaria, error)

	// Stats
	GetUserStats(ctx context.Context, userID string, w StatsWindow) (*UserStats, error)

	Ping(ctx context.Context) error
	Close() error
}

// ObraPatch carries the editable obra fields; nil means unchanged.
type ObraPatch struct {
	Nome        *string
	Estado      *string
	Localizacao *string
}

// RegistoPontoPatch carries a partial time-record update; nil means unchanged.
// OnlyIfNotClockedIn / OnlyIfNotClockedOut make the write conditional on the
// current row so a concurrent punch cannot be overwritten.
type RegistoPontoPatch struct {
	HoraEntrada           *time.Time
	HoraSaida             *time.Time
	TotalHorasTrabalhadas *decimal.Decimal
	TotalTempoIntervalo   *decimal.Decimal
	LatitudeEntrada       *decimal.Decimal
	LongitudeEntrada      *decimal.Decimal
	LatitudeSaida         *decimal.Decimal
	LongitudeSaida        *decimal.Decimal
	ObraID                *int

	OnlyIfNotClockedIn  bool
	OnlyIfNotClockedOut bool
}

// Apply copies the non-nil patch fields onto r.
func (p RegistoPontoPatch) Apply(r *model.RegistoPonto) {
	if p.HoraEntrada != nil {
		r.HoraEntrada = p.HoraEntrada
	}
	if p.HoraSaida != nil {
		r.HoraSaida = p.HoraSaida
	}
	if p.TotalHorasTrabalhadas != nil {
		r.TotalHorasTrabalhadas = p.TotalHorasTrabalhadas
	}
	if p.TotalTempoIntervalo != nil {
		r.TotalTempoIntervalo = p.TotalTempoIntervalo
	}
	if p.LatitudeEntrada != nil {
		r.LatitudeEntrada = p.LatitudeEntrada
	}
	if p.LongitudeEntrada != nil {
		r.LongitudeEntrada = p.LongitudeEntrada
	}
	if p.LatitudeSaida != nil {
		r.LatitudeSaida = p.LatitudeSaida
	}
	if p.LongitudeSaida != nil {
		r.LongitudeSaida = p.LongitudeSaida
	}
	if p.ObraID != nil {
		r.ObraID = p.ObraID
	}
}

// Satisfied reports whether r still meets the patch preconditions.
func (p RegistoPontoPatch) Satisfied(r *model.RegistoPonto) bool {
	if p.OnlyIfNotClockedIn && r.HoraEntrada != nil {
		return false
	}
	if p.OnlyIfNotClockedOut && r.HoraSaida != nil {
		return false
	}
	return true
}

// StatsWindow bounds the aggregation: Today is the current business date,
// WeekStart the first date (inclusive) of the hours-this-week window.
type StatsWindow struct {
	Today     string
	WeekStart string
}

// RollingWeek returns the window [today-6, today] for the calendar date of now in loc.
func RollingWeek(now time.Time, loc *time.Location) StatsWindow {
	local := now.In(loc)
	return StatsWindow{
		Today:     local.Format(DateLayout),
		WeekStart: local.AddDate(0, 0, -6).Format(DateLayout),
	}
}

// UserStats is the per-user dashboard aggregate.
type UserStats struct {
	HoursToday     decimal.Decimal
	HoursWeek      decimal.Decimal
	ActiveProjects int
	TeamMembers    int
}

// SeedAdmin creates the bootstrap director if no user with AdminID exists.
// An existing admin is left untouched so a changed password survives restarts.
func SeedAdmin(ctx context.Context, s Storage, passwordHash string) (bool, error) {
	existing, err := s.GetUser(ctx, AdminID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	_, err = s.CreateUser(ctx, &model.User{
		ID:        AdminID,
		Username:  "admin",
		Password:  passwordHash,
		Email:     "admin@obras.local",
		FirstName: "Administrador",
		LastName:  "Sistema",
		TipoUser:  model.RoleDiretor,
	})
	if errors.Is(err, ErrDuplicate) {
		return false, nil
	}
	return err == nil, err
}
