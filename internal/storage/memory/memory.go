// Package memory is the volatile Storage backend. Data lives in process
// memory and is lost on restart; one director account is seeded on creation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu sync.RWMutex

	users    []model.User
	obras    []model.Obra
	registos []model.RegistoPonto
	equipas  []model.Equipa
	membros  []model.EquipaMembro
	partes   []model.ParteDiaria

	nextObraID    int
	nextRegistoID int
	nextEquipaID  int
	nextMembroID  int
	nextParteID   int

	now func() time.Time
}

var _ storage.Storage = (*Store)(nil)

// New returns an empty store holding only the seeded admin director,
// whose password is adminPasswordHash (bcrypt).
func New(adminPasswordHash string) *Store {
	s := &Store{
		nextObraID:    1,
		nextRegistoID: 1,
		nextEquipaID:  1,
		nextMembroID:  1,
		nextParteID:   1,
		now:           time.Now,
	}
	ts := s.now()
	s.users = append(s.users, model.User{
		ID:        storage.AdminID,
		Username:  "admin",
		Password:  adminPasswordHash,
		Email:     "admin@obras.local",
		FirstName: "Administrador",
		LastName:  "Sistema",
		TipoUser:  model.RoleDiretor,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// ── Users ────────────────────────────────────────────────────────────────────

func (s *Store) userIndex(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.userIndex(id); i >= 0 {
		u := s.users[i]
		return &u, nil
	}
	return nil, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *Store) usernameTaken(username, exceptID string) bool {
	for _, u := range s.users {
		if u.Username == username && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) UpsertUser(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = storage.NewUserID(s.now())
	}
	if s.usernameTaken(u.Username, u.ID) {
		return nil, storage.ErrDuplicate
	}
	ts := s.now()
	row := *u
	if row.TipoUser == "" {
		row.TipoUser = model.RoleTrabalhador
	}
	row.UpdatedAt = ts
	if i := s.userIndex(u.ID); i >= 0 {
		row.CreatedAt = s.users[i].CreatedAt
		s.users[i] = row
	} else {
		row.CreatedAt = ts
		s.users = append(s.users, row)
	}
	out := row
	return &out, nil
}

func (s *Store) CreateUser(_ context.Context, u *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = storage.NewUserID(s.now())
	}
	if s.userIndex(u.ID) >= 0 || s.usernameTaken(u.Username, "") {
		return nil, storage.ErrDuplicate
	}
	ts := s.now()
	row := *u
	if row.TipoUser == "" {
		row.TipoUser = model.RoleTrabalhador
	}
	row.CreatedAt, row.UpdatedAt = ts, ts
	s.users = append(s.users, row)
	out := row
	return &out, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id, role string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	s.users[i].TipoUser = role
	s.users[i].UpdatedAt = s.now()
	u := s.users[i]
	return &u, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id, hash string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	s.users[i].Password = hash
	s.users[i].UpdatedAt = s.now()
	u := s.users[i]
	return &u, nil
}

func (s *Store) ListUsers(context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// ── Obras ────────────────────────────────────────────────────────────────────

func (s *Store) obraIndex(id int) int {
	for i := range s.obras {
		if s.obras[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListObras(context.Context) ([]model.Obra, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Obra, 0, len(s.obras))
	for i := len(s.obras) - 1; i >= 0; i-- {
		out = append(out, s.obras[i])
	}
	return out, nil
}

func (s *Store) GetObra(_ context.Context, id int) (*model.Obra, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.obraIndex(id); i >= 0 {
		o := s.obras[i]
		return &o, nil
	}
	return nil, nil
}

func (s *Store) GetObraByQRCode(_ context.Context, qrCode string) (*model.Obra, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.obras {
		if o.QRCode == qrCode {
			return &o, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateObra(_ context.Context, o *model.Obra) (*model.Obra, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.obras {
		if existing.Codigo == o.Codigo || existing.QRCode == o.QRCode {
			return nil, storage.ErrDuplicate
		}
	}
	ts := s.now()
	row := *o
	row.ID = s.nextObraID
	s.nextObraID++
	if row.Estado == "" {
		row.Estado = model.EstadoAtiva
	}
	row.CreatedAt, row.UpdatedAt = ts, ts
	s.obras = append(s.obras, row)
	out := row
	return &out, nil
}

func (s *Store) UpdateObra(_ context.Context, id int, patch storage.ObraPatch) (*model.Obra, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.obraIndex(id)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	if patch.Nome != nil {
		s.obras[i].Nome = *patch.Nome
	}
	if patch.Estado != nil {
		s.obras[i].Estado = *patch.Estado
	}
	if patch.Localizacao != nil {
		s.obras[i].Localizacao = *patch.Localizacao
	}
	s.obras[i].UpdatedAt = s.now()
	o := s.obras[i]
	return &o, nil
}

// ── Registo de ponto ─────────────────────────────────────────────────────────

func (s *Store) ListRegistosPonto(_ context.Context, userID string) ([]model.RegistoPonto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RegistoPonto, 0)
	for _, r := range s.registos {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Data > out[j].Data })
	return out, nil
}

func (s *Store) GetRegistoPontoForDate(_ context.Context, userID, data string) (*model.RegistoPonto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.registos {
		if r.UserID == userID && r.Data == data {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateRegistoPonto(_ context.Context, r *model.RegistoPonto) (*model.RegistoPonto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userIndex(r.UserID) < 0 {
		return nil, storage.ErrNotFound
	}
	if r.ObraID != nil && s.obraIndex(*r.ObraID) < 0 {
		return nil, storage.ErrNotFound
	}
	for _, existing := range s.registos {
		if existing.UserID == r.UserID && existing.Data == r.Data {
			return nil, storage.ErrDuplicate
		}
	}
	ts := s.now()
	row := *r
	row.ID = s.nextRegistoID
	s.nextRegistoID++
	row.CreatedAt, row.UpdatedAt = ts, ts
	s.registos = append(s.registos, row)
	out := row
	return &out, nil
}

func (s *Store) UpdateRegistoPonto(_ context.Context, id int, patch storage.RegistoPontoPatch) (*model.RegistoPonto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.registos {
		if s.registos[i].ID != id {
			continue
		}
		if patch.ObraID != nil && s.obraIndex(*patch.ObraID) < 0 {
			return nil, storage.ErrNotFound
		}
		if !patch.Satisfied(&s.registos[i]) {
			return nil, storage.ErrConflict
		}
		patch.Apply(&s.registos[i])
		s.registos[i].UpdatedAt = s.now()
		out := s.registos[i]
		return &out, nil
	}
	return nil, storage.ErrNotFound
}

// ── Equipas ──────────────────────────────────────────────────────────────────

// hydrate builds the nested read shape: obra, encarregado, membros with user.
func (s *Store) hydrate(e model.Equipa) model.Equipa {
	if i := s.obraIndex(e.ObraID); i >= 0 {
		o := s.obras[i]
		e.Obra = &o
	}
	if i := s.userIndex(e.EncarregadoID); i >= 0 {
		u := s.users[i]
		e.Encarregado = &u
	}
	e.Membros = make([]model.EquipaMembro, 0)
	for _, m := range s.membros {
		if m.EquipaID != e.ID {
			continue
		}
		if i := s.userIndex(m.UserID); i >= 0 {
			u := s.users[i]
			m.User = &u
		}
		e.Membros = append(e.Membros, m)
	}
	return e
}

func (s *Store) filterEquipas(keep func(model.Equipa) bool) []model.Equipa {
	out := make([]model.Equipa, 0)
	for _, e := range s.equipas {
		if keep(e) {
			out = append(out, s.hydrate(e))
		}
	}
	return out
}

func (s *Store) isMembro(equipaID int, userID string) bool {
	for _, m := range s.membros {
		if m.EquipaID == equipaID && m.UserID == userID {
			return true
		}
	}
	return false
}

func (s *Store) ListEquipas(context.Context) ([]model.Equipa, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterEquipas(func(model.Equipa) bool { return true }), nil
}

func (s *Store) ListEquipasByEncarregado(_ context.Context, userID string) ([]model.Equipa, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterEquipas(func(e model.Equipa) bool { return e.EncarregadoID == userID }), nil
}

func (s *Store) ListEquipasByMembro(_ context.Context, userID string) ([]model.Equipa, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterEquipas(func(e model.Equipa) bool { return s.isMembro(e.ID, userID) }), nil
}

func (s *Store) GetEquipa(_ context.Context, id int) (*model.Equipa, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.equipas {
		if e.ID == id {
			out := s.hydrate(e)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateEquipa(_ context.Context, e *model.Equipa) (*model.Equipa, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.obraIndex(e.ObraID) < 0 || s.userIndex(e.EncarregadoID) < 0 {
		return nil, storage.ErrNotFound
	}
	ts := s.now()
	row := model.Equipa{
		ID:            s.nextEquipaID,
		Nome:          e.Nome,
		ObraID:        e.ObraID,
		EncarregadoID: e.EncarregadoID,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	s.nextEquipaID++
	s.equipas = append(s.equipas, row)
	out := s.hydrate(row)
	return &out, nil
}

func (s *Store) AddEquipaMembro(_ context.Context, equipaID int, userID string) (*model.EquipaMembro, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, e := range s.equipas {
		if e.ID == equipaID {
			found = true
			break
		}
	}
	if !found || s.userIndex(userID) < 0 {
		return nil, storage.ErrNotFound
	}
	if s.isMembro(equipaID, userID) {
		return nil, storage.ErrDuplicate
	}
	m := model.EquipaMembro{
		ID:        s.nextMembroID,
		EquipaID:  equipaID,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	s.nextMembroID++
	s.membros = append(s.membros, m)
	return &m, nil
}

func (s *Store) RemoveEquipaMembro(_ context.Context, equipaID int, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.membros {
		if m.EquipaID == equipaID && m.UserID == userID {
			s.membros = append(s.membros[:i], s.membros[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// ── Partes diarias ───────────────────────────────────────────────────────────

func (s *Store) withRefs(p model.ParteDiaria) model.ParteDiaria {
	if i := s.obraIndex(p.ObraID); i >= 0 {
		o := s.obras[i]
		p.Obra = &o
	}
	if i := s.userIndex(p.UserID); i >= 0 {
		u := s.users[i]
		p.User = &u
	}
	return p
}

func (s *Store) listPartes(keep func(model.ParteDiaria) bool) []model.ParteDiaria {
	out := make([]model.ParteDiaria, 0)
	for _, p := range s.partes {
		if keep(p) {
			out = append(out, s.withRefs(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Data != out[j].Data {
			return out[i].Data > out[j].Data
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) ListPartesDiarias(_ context.Context, userID string) ([]model.ParteDiaria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPartes(func(p model.ParteDiaria) bool { return p.UserID == userID }), nil
}

func (s *Store) ListPartesDiariasByObra(_ context.Context, obraID int) ([]model.ParteDiaria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPartes(func(p model.ParteDiaria) bool { return p.ObraID == obraID }), nil
}

func (s *Store) CreateParteDiaria(_ context.Context, p *model.ParteDiaria) (*model.ParteDiaria, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.obraIndex(p.ObraID) < 0 || s.userIndex(p.UserID) < 0 {
		return nil, storage.ErrNotFound
	}
	ts := s.now()
	row := *p
	row.Obra, row.User = nil, nil
	row.ID = s.nextParteID
	s.nextParteID++
	row.CreatedAt, row.UpdatedAt = ts, ts
	s.partes = append(s.partes, row)
	out := s.withRefs(row)
	return &out, nil
}

// ── Stats ────────────────────────────────────────────────────────────────────

func (s *Store) GetUserStats(_ context.Context, userID string, w storage.StatsWindow) (*storage.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &storage.UserStats{HoursToday: decimal.Zero, HoursWeek: decimal.Zero}
	projects := make(map[int]struct{})
	for _, r := range s.registos {
		if r.UserID != userID {
			continue
		}
		if r.Data == w.Today && r.TotalHorasTrabalhadas != nil {
			stats.HoursToday = *r.TotalHorasTrabalhadas
		}
		if r.Data >= w.WeekStart && r.Data <= w.Today {
			if r.TotalHorasTrabalhadas != nil {
				stats.HoursWeek = stats.HoursWeek.Add(*r.TotalHorasTrabalhadas)
			}
			if r.ObraID != nil {
				projects[*r.ObraID] = struct{}{}
			}
		}
	}

	supervised := make(map[int]bool)
	for _, e := range s.equipas {
		if e.EncarregadoID == userID {
			supervised[e.ID] = true
		}
		if s.isMembro(e.ID, userID) {
			projects[e.ObraID] = struct{}{}
		}
	}
	members := make(map[string]struct{})
	for _, m := range s.membros {
		if supervised[m.EquipaID] {
			members[m.UserID] = struct{}{}
		}
	}

	stats.ActiveProjects = len(projects)
	stats.TeamMembers = len(members)
	return stats, nil
}
