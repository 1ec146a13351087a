package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/metrics"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const qrCacheTTL = 10 * time.Minute

func qrCacheKey(token string) string { return "obra:qr:" + token }

type ObraService interface {
	List(ctx context.Context) ([]model.Obra, error)
	Get(ctx context.Context, id int) (*model.Obra, error)
	GetByQRCode(ctx context.Context, token string) (*model.Obra, error)
	Create(ctx context.Context, req dto.CreateObraRequest) (*model.Obra, error)
	Update(ctx context.Context, id int, req dto.UpdateObraRequest) (*model.Obra, error)
}

type obraService struct {
	store   storage.Storage
	rdb     *redis.Client // nil disables the QR cache
	metrics *metrics.Metrics
}

func NewObraService(store storage.Storage, rdb *redis.Client, m *metrics.Metrics) ObraService {
	return &obraService{store: store, rdb: rdb, metrics: m}
}

func (s *obraService) List(ctx context.Context) ([]model.Obra, error) {
	obras, err := s.store.ListObras(ctx)
	return obras, storageErr("list obras", err)
}

func (s *obraService) Get(ctx context.Context, id int) (*model.Obra, error) {
	obra, err := s.store.GetObra(ctx, id)
	if err != nil {
		return nil, storageErr("get obra", err)
	}
	if obra == nil {
		return nil, apierror.NotFound("Obra not found")
	}
	return obra, nil
}

// GetByQRCode is cache-aside over Redis. Cache failures only cost a storage read.
func (s *obraService) GetByQRCode(ctx context.Context, token string) (*model.Obra, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, qrCacheKey(token)).Bytes()
		switch {
		case err == nil:
			var obra model.Obra
			if jsonErr := json.Unmarshal(cached, &obra); jsonErr == nil {
				s.metrics.QRCacheLookup("hit")
				return &obra, nil
			}
			s.metrics.QRCacheLookup("error")
		case errors.Is(err, redis.Nil):
			s.metrics.QRCacheLookup("miss")
		default:
			s.metrics.QRCacheLookup("error")
			log.Warn().Err(err).Msg("qr cache read failed")
		}
	}

	obra, err := s.store.GetObraByQRCode(ctx, token)
	if err != nil {
		return nil, storageErr("get obra by qr", err)
	}
	if obra == nil {
		return nil, apierror.NotFound("Obra not found")
	}

	if s.rdb != nil {
		if b, jsonErr := json.Marshal(obra); jsonErr == nil {
			_ = s.rdb.Set(ctx, qrCacheKey(token), b, qrCacheTTL).Err()
		}
	}
	return obra, nil
}

func (s *obraService) Create(ctx context.Context, req dto.CreateObraRequest) (*model.Obra, error) {
	estado := req.Estado
	if estado == "" {
		estado = model.EstadoAtiva
	}
	obra, err := s.store.CreateObra(ctx, &model.Obra{
		Codigo:      req.Codigo,
		Nome:        req.Nome,
		Estado:      estado,
		Localizacao: req.Localizacao,
		QRCode:      uuid.NewString(),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, apierror.Conflict("An obra with this codigo already exists")
	}
	if err != nil {
		return nil, storageErr("create obra", err)
	}
	log.Info().Int("obra_id", obra.ID).Str("codigo", obra.Codigo).Msg("obra created")
	return obra, nil
}

func (s *obraService) Update(ctx context.Context, id int, req dto.UpdateObraRequest) (*model.Obra, error) {
	obra, err := s.store.UpdateObra(ctx, id, storage.ObraPatch{
		Nome:        req.Nome,
		Estado:      req.Estado,
		Localizacao: req.Localizacao,
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apierror.NotFound("Obra not found")
	}
	if err != nil {
		return nil, storageErr("update obra", err)
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, qrCacheKey(obra.QRCode)).Err(); err != nil {
			log.Warn().Err(err).Int("obra_id", id).Msg("qr cache invalidation failed")
		}
	}
	return obra, nil
}
