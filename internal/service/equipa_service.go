package service

import (
	"context"
	"errors"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/rs/zerolog/log"
)

type EquipaService interface {
	List(ctx context.Context, caller *model.User) ([]model.Equipa, error)
	Create(ctx context.Context, caller *model.User, req dto.CreateEquipaRequest) (*model.Equipa, error)
	AddMembro(ctx context.Context, equipaID int, req dto.AddMembroRequest) (*model.EquipaMembro, error)
	RemoveMembro(ctx context.Context, equipaID int, userID string) error
}

type equipaService struct{ store storage.Storage }

func NewEquipaService(store storage.Storage) EquipaService {
	return &equipaService{store: store}
}

// List scopes by role: directors see every team, encarregados the teams
// they lead, workers the teams they belong to.
func (s *equipaService) List(ctx context.Context, caller *model.User) ([]model.Equipa, error) {
	var (
		equipas []model.Equipa
		err     error
	)
	switch caller.TipoUser {
	case model.RoleDiretor:
		equipas, err = s.store.ListEquipas(ctx)
	case model.RoleEncarregado:
		equipas, err = s.store.ListEquipasByEncarregado(ctx, caller.ID)
	default:
		equipas, err = s.store.ListEquipasByMembro(ctx, caller.ID)
	}
	return equipas, storageErr("list equipas", err)
}

func (s *equipaService) Create(ctx context.Context, caller *model.User, req dto.CreateEquipaRequest) (*model.Equipa, error) {
	encarregadoID := req.EncarregadoID
	if encarregadoID == "" {
		encarregadoID = caller.ID
	}
	equipa, err := s.store.CreateEquipa(ctx, &model.Equipa{
		Nome:          req.Nome,
		ObraID:        req.ObraID,
		EncarregadoID: encarregadoID,
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierror.NotFound("Obra or encarregado not found")
	}
	if err != nil {
		return nil, storageErr("create equipa", err)
	}
	log.Info().Int("equipa_id", equipa.ID).Int("obra_id", equipa.ObraID).Msg("equipa created")
	return equipa, nil
}

func (s *equipaService) AddMembro(ctx context.Context, equipaID int, req dto.AddMembroRequest) (*model.EquipaMembro, error) {
	m, err := s.store.AddEquipaMembro(ctx, equipaID, req.UserID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, apierror.NotFound("Equipa or user not found")
	case errors.Is(err, storage.ErrDuplicate):
		return nil, apierror.Conflict("User is already a member of this equipa")
	case err != nil:
		return nil, storageErr("add membro", err)
	}
	return m, nil
}

func (s *equipaService) RemoveMembro(ctx context.Context, equipaID int, userID string) error {
	err := s.store.RemoveEquipaMembro(ctx, equipaID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return apierror.NotFound("Membership not found")
	}
	return storageErr("remove membro", err)
}
