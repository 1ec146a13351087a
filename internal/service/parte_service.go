package service

import (
	"context"
	"errors"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
)

type ParteDiariaService interface {
	List(ctx context.Context, userID string) ([]model.ParteDiaria, error)
	ListByObra(ctx context.Context, obraID int) ([]model.ParteDiaria, error)
	Create(ctx context.Context, userID string, req dto.CreateParteDiariaRequest) (*model.ParteDiaria, error)
}

type parteDiariaService struct {
	store storage.Storage
	loc   *time.Location
	now   Clock
}

func NewParteDiariaService(store storage.Storage, loc *time.Location, now Clock) ParteDiariaService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &parteDiariaService{store: store, loc: loc, now: now}
}

func (s *parteDiariaService) List(ctx context.Context, userID string) ([]model.ParteDiaria, error) {
	partes, err := s.store.ListPartesDiarias(ctx, userID)
	return partes, storageErr("list partes", err)
}

func (s *parteDiariaService) ListByObra(ctx context.Context, obraID int) ([]model.ParteDiaria, error) {
	obra, err := s.store.GetObra(ctx, obraID)
	if err != nil {
		return nil, storageErr("get obra", err)
	}
	if obra == nil {
		return nil, apierror.NotFound("Obra not found")
	}
	partes, err := s.store.ListPartesDiariasByObra(ctx, obraID)
	return partes, storageErr("list partes by obra", err)
}

func (s *parteDiariaService) Create(ctx context.Context, userID string, req dto.CreateParteDiariaRequest) (*model.ParteDiaria, error) {
	data := req.Data
	if data == "" {
		data = businessDate(s.now(), s.loc)
	}
	p, err := s.store.CreateParteDiaria(ctx, &model.ParteDiaria{
		Categoria:     req.Categoria,
		Designacao:    req.Designacao,
		Quantidade:    req.Quantidade,
		Unidade:       req.Unidade,
		Horas:         req.Horas,
		Nome:          req.Nome,
		Especialidade: req.Especialidade,
		Data:          data,
		UserID:        userID,
		ObraID:        req.ObraID,
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierror.NotFound("Obra not found")
	}
	if err != nil {
		return nil, storageErr("create parte", err)
	}
	return p, nil
}
