package services_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-signup/models"
	"github.com/Dosada05/tournament-signup/repositories"
)

// fakeStore — общее in-memory состояние фейковых репозиториев.
type fakeStore struct {
	mu sync.Mutex

	nextTournamentID int
	nextSignupID     int
	nextUserID       int

	tournaments map[int]models.Tournament
	signups     map[int]models.Signup
	users       map[int]models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tournaments: make(map[int]models.Tournament),
		signups:     make(map[int]models.Signup),
		users:       make(map[int]models.User),
	}
}

func (s *fakeStore) addTournament(t models.Tournament) models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTournamentID++
	t.ID = s.nextTournamentID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.tournaments[t.ID] = t
	return t
}

func (s *fakeStore) addSignup(sg models.Signup) models.Signup {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSignupID++
	sg.ID = s.nextSignupID
	if sg.SignedUpAt.IsZero() {
		sg.SignedUpAt = time.Now()
	}
	s.signups[sg.ID] = sg
	return sg
}

func (s *fakeStore) addUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	u.ID = s.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) countSignups(tournamentID int) int {
	count := 0
	for _, sg := range s.signups {
		if sg.TournamentID == tournamentID {
			count++
		}
	}
	return count
}

type fakeTournamentRepo struct {
	store *fakeStore
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	*t = r.store.addTournament(*t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	t.SignupCount = r.store.countSignups(id)
	return &t, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context) ([]models.Tournament, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Tournament, 0, len(r.store.tournaments))
	for _, t := range r.store.tournaments {
		t.SignupCount = r.store.countSignups(t.ID)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.store.tournaments[t.ID] = *t
	return nil
}

func (r *fakeTournamentRepo) UpdatePosterKey(ctx context.Context, id int, posterKey *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.PosterKey = posterKey
	r.store.tournaments[id] = t
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.store.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) CountByStatus(ctx context.Context, status *models.TournamentStatus) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, t := range r.store.tournaments {
		if status == nil || t.Status == *status {
			count++
		}
	}
	return count, nil
}

type fakeSignupRepo struct {
	store *fakeStore
}

func (r *fakeSignupRepo) Create(ctx context.Context, exec repositories.SQLExecutor, sg *models.Signup) error {
	r.store.mu.Lock()
	for _, existing := range r.store.signups {
		if existing.TournamentID == sg.TournamentID && existing.PlayerName == sg.PlayerName {
			r.store.mu.Unlock()
			return repositories.ErrSignupNameConflict
		}
	}
	r.store.mu.Unlock()
	*sg = r.store.addSignup(*sg)
	return nil
}

func (r *fakeSignupRepo) GetByID(ctx context.Context, id int) (*models.Signup, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sg, ok := r.store.signups[id]
	if !ok {
		return nil, repositories.ErrSignupNotFound
	}
	return &sg, nil
}

func (r *fakeSignupRepo) FindByTournamentAndName(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, playerName string) (*models.Signup, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, sg := range r.store.signups {
		if sg.TournamentID == tournamentID && sg.PlayerName == playerName {
			found := sg
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeSignupRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.countSignups(tournamentID), nil
}

func (r *fakeSignupRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Signup, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Signup, 0)
	for _, sg := range r.store.signups {
		if sg.TournamentID == tournamentID {
			out = append(out, sg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SignedUpAt.Equal(out[j].SignedUpAt) {
			return out[i].SignedUpAt.Before(out[j].SignedUpAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeSignupRepo) UpdatePaid(ctx context.Context, id int, paid bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sg, ok := r.store.signups[id]
	if !ok {
		return repositories.ErrSignupNotFound
	}
	sg.Paid = paid
	r.store.signups[id] = sg
	return nil
}

func (r *fakeSignupRepo) Delete(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.signups[id]; !ok {
		return repositories.ErrSignupNotFound
	}
	delete(r.store.signups, id)
	return nil
}

func (r *fakeSignupRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, sg := range r.store.signups {
		if sg.TournamentID == tournamentID {
			delete(r.store.signups, id)
		}
	}
	return nil
}

func (r *fakeSignupRepo) CountAll(ctx context.Context, paidOnly bool) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, sg := range r.store.signups {
		if !paidOnly || sg.Paid {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.store.mu.Lock()
	for _, existing := range r.store.users {
		if existing.Email == u.Email {
			r.store.mu.Unlock()
			return repositories.ErrUserEmailConflict
		}
	}
	r.store.mu.Unlock()
	*u = r.store.addUser(*u)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Count(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.users), nil
}

// recorderNotifier запоминает отправленные в хаб сообщения.
type recorderNotifier struct {
	mu     sync.Mutex
	rooms  []string
	events []map[string]interface{}
}

func (n *recorderNotifier) BroadcastToRoom(roomID string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms = append(n.rooms, roomID)
	if event, ok := message.(map[string]interface{}); ok {
		n.events = append(n.events, event)
	}
}
