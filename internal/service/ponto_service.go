package service

import (
	"context"
	"errors"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/metrics"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	msgAlreadyClockedIn  = "Already clocked in today"
	msgNotClockedIn      = "Not clocked in today"
	msgAlreadyClockedOut = "Already clocked out today"
)

// PontoService runs the per-day state machine NotStarted -> Working -> Completed.
type PontoService interface {
	List(ctx context.Context, userID string) ([]model.RegistoPonto, error)
	Today(ctx context.Context, userID string) (*model.RegistoPonto, error)
	ClockIn(ctx context.Context, userID string, req dto.ClockInRequest) (*model.RegistoPonto, error)
	ClockOut(ctx context.Context, userID string, req dto.ClockOutRequest) (*model.RegistoPonto, error)
}

type pontoService struct {
	store   storage.Storage
	loc     *time.Location
	now     Clock
	metrics *metrics.Metrics
}

func NewPontoService(store storage.Storage, loc *time.Location, now Clock, m *metrics.Metrics) PontoService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &pontoService{store: store, loc: loc, now: now, metrics: m}
}

func (s *pontoService) List(ctx context.Context, userID string) ([]model.RegistoPonto, error) {
	registos, err := s.store.ListRegistosPonto(ctx, userID)
	return registos, storageErr("list registos", err)
}

func (s *pontoService) Today(ctx context.Context, userID string) (*model.RegistoPonto, error) {
	r, err := s.store.GetRegistoPontoForDate(ctx, userID, businessDate(s.now(), s.loc))
	return r, storageErr("today registo", err)
}

func (s *pontoService) ClockIn(ctx context.Context, userID string, req dto.ClockInRequest) (*model.RegistoPonto, error) {
	r, err := s.clockIn(ctx, userID, req)
	s.metrics.ClockEvent("clock_in", outcome(err))
	return r, err
}

func (s *pontoService) clockIn(ctx context.Context, userID string, req dto.ClockInRequest) (*model.RegistoPonto, error) {
	obraID := req.Obra()
	if obraID == nil {
		return nil, apierror.Validation("obraId is required")
	}
	obra, err := s.store.GetObra(ctx, *obraID)
	if err != nil {
		return nil, storageErr("clock-in obra", err)
	}
	if obra == nil {
		return nil, apierror.NotFound("Obra not found")
	}

	now := s.now()
	today := businessDate(now, s.loc)
	entrada := now.UTC().Truncate(time.Second)

	existing, err := s.store.GetRegistoPontoForDate(ctx, userID, today)
	if err != nil {
		return nil, storageErr("clock-in lookup", err)
	}
	if existing != nil && existing.HoraEntrada != nil {
		return nil, apierror.Conflict(msgAlreadyClockedIn)
	}

	var r *model.RegistoPonto
	if existing != nil {
		// A stub row for today exists without a punch; fill it in.
		r, err = s.store.UpdateRegistoPonto(ctx, existing.ID, storage.RegistoPontoPatch{
			HoraEntrada:        &entrada,
			LatitudeEntrada:    req.Latitude,
			LongitudeEntrada:   req.Longitude,
			ObraID:             &obra.ID,
			OnlyIfNotClockedIn: true,
		})
	} else {
		r, err = s.store.CreateRegistoPonto(ctx, &model.RegistoPonto{
			UserID:           userID,
			Data:             today,
			HoraEntrada:      &entrada,
			LatitudeEntrada:  req.Latitude,
			LongitudeEntrada: req.Longitude,
			ObraID:           &obra.ID,
		})
	}
	if errors.Is(err, storage.ErrDuplicate) || errors.Is(err, storage.ErrConflict) {
		return nil, apierror.Conflict(msgAlreadyClockedIn)
	}
	if err != nil {
		return nil, storageErr("clock-in", err)
	}
	log.Info().Str("user_id", userID).Int("obra_id", obra.ID).Str("data", today).Msg("clock-in")
	return r, nil
}

func (s *pontoService) ClockOut(ctx context.Context, userID string, req dto.ClockOutRequest) (*model.RegistoPonto, error) {
	r, err := s.clockOut(ctx, userID, req)
	s.metrics.ClockEvent("clock_out", outcome(err))
	return r, err
}

func (s *pontoService) clockOut(ctx context.Context, userID string, req dto.ClockOutRequest) (*model.RegistoPonto, error) {
	now := s.now()
	today := businessDate(now, s.loc)

	existing, err := s.store.GetRegistoPontoForDate(ctx, userID, today)
	if err != nil {
		return nil, storageErr("clock-out lookup", err)
	}
	if existing == nil || existing.HoraEntrada == nil {
		return nil, apierror.Conflict(msgNotClockedIn)
	}
	if existing.HoraSaida != nil {
		return nil, apierror.Conflict(msgAlreadyClockedOut)
	}

	saida := now.UTC().Truncate(time.Second)
	total := WorkedHours(*existing.HoraEntrada, saida)
	intervalo := decimal.Zero
	if req.TotalTempoIntervalo != nil {
		intervalo = *req.TotalTempoIntervalo
	}

	r, err := s.store.UpdateRegistoPonto(ctx, existing.ID, storage.RegistoPontoPatch{
		HoraSaida:             &saida,
		TotalHorasTrabalhadas: &total,
		TotalTempoIntervalo:   &intervalo,
		LatitudeSaida:         req.Latitude,
		LongitudeSaida:        req.Longitude,
		OnlyIfNotClockedOut:   true,
	})
	if errors.Is(err, storage.ErrConflict) {
		return nil, apierror.Conflict(msgAlreadyClockedOut)
	}
	if err != nil {
		return nil, storageErr("clock-out", err)
	}
	log.Info().Str("user_id", userID).Str("data", today).Str("hours", total.String()).Msg("clock-out")
	return r, nil
}

// WorkedHours is (saida - entrada) in hours, rounded to two decimals.
// A clock skew that puts saida before entrada yields zero.
func WorkedHours(entrada, saida time.Time) decimal.Decimal {
	secs := int64(saida.Sub(entrada) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return decimal.NewFromInt(secs).Div(decimal.NewFromInt(3600)).Round(2)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apierror.KindOf(err) == apierror.KindConflict:
		return "conflict"
	default:
		return "error"
	}
}
