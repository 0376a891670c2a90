package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-signup/auth"
	"github.com/Dosada05/tournament-signup/handlers"
	"github.com/Dosada05/tournament-signup/live"
	"github.com/Dosada05/tournament-signup/middleware"
	"github.com/Dosada05/tournament-signup/models"
	"github.com/Dosada05/tournament-signup/routes"
	"github.com/Dosada05/tournament-signup/services"
)

const (
	adminUserID   = 1
	regularUserID = 2
)

// stubUserRepo отдаёт двух фиксированных пользователей для Identify.
type stubUserRepo struct{}

func (stubUserRepo) Create(ctx context.Context, user *models.User) error {
	return nil
}

func (stubUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	switch id {
	case adminUserID:
		return &models.User{ID: adminUserID, Email: "admin@example.com", DisplayName: "Admin"}, nil
	case regularUserID:
		return &models.User{ID: regularUserID, Email: "user@example.com", DisplayName: "User"}, nil
	}
	return nil, services.ErrUserNotFound
}

func (stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, services.ErrUserNotFound
}

func (stubUserRepo) Count(ctx context.Context) (int, error) {
	return 2, nil
}

type stubSignupService struct {
	admit   func(ctx context.Context, tournamentID int, input services.SignupInput, caller auth.Identity) (*models.Signup, error)
	list    func(ctx context.Context, tournamentID int) ([]models.Signup, error)
	setPaid func(ctx context.Context, signupID int, paid bool, caller auth.Identity) (*models.Signup, error)
	cancel  func(ctx context.Context, signupID int, caller auth.Identity) error
}

func (s *stubSignupService) Admit(ctx context.Context, tournamentID int, input services.SignupInput, caller auth.Identity) (*models.Signup, error) {
	return s.admit(ctx, tournamentID, input, caller)
}

func (s *stubSignupService) ListByTournament(ctx context.Context, tournamentID int) ([]models.Signup, error) {
	return s.list(ctx, tournamentID)
}

func (s *stubSignupService) SetPaid(ctx context.Context, signupID int, paid bool, caller auth.Identity) (*models.Signup, error) {
	return s.setPaid(ctx, signupID, paid, caller)
}

func (s *stubSignupService) Cancel(ctx context.Context, signupID int, caller auth.Identity) error {
	return s.cancel(ctx, signupID, caller)
}

type stubTournamentService struct {
	list    func(ctx context.Context) ([]models.Tournament, error)
	getByID func(ctx context.Context, id int) (*models.Tournament, error)
	create  func(ctx context.Context, input services.CreateTournamentInput, caller auth.Identity) (*models.Tournament, error)
	update  func(ctx context.Context, id int, input services.UpdateTournamentInput, caller auth.Identity) (*models.Tournament, error)
	delete  func(ctx context.Context, id int, caller auth.Identity) error
}

func (s *stubTournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	return s.list(ctx)
}

func (s *stubTournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	return s.getByID(ctx, id)
}

func (s *stubTournamentService) Create(ctx context.Context, input services.CreateTournamentInput, caller auth.Identity) (*models.Tournament, error) {
	return s.create(ctx, input, caller)
}

func (s *stubTournamentService) Update(ctx context.Context, id int, input services.UpdateTournamentInput, caller auth.Identity) (*models.Tournament, error) {
	return s.update(ctx, id, input, caller)
}

func (s *stubTournamentService) Delete(ctx context.Context, id int, caller auth.Identity) error {
	return s.delete(ctx, id, caller)
}

func (s *stubTournamentService) UploadPoster(ctx context.Context, id int, contentType string, file io.Reader, caller auth.Identity) (*models.Tournament, error) {
	return nil, services.ErrStorageUnavailable
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	return &models.User{ID: regularUserID, Email: input.Email, DisplayName: input.DisplayName}, nil
}

func (stubAuthService) Login(ctx context.Context, input services.LoginInput) (*models.User, error) {
	return nil, services.ErrAuthInvalidCredentials
}

func (stubAuthService) LoginWithGoogle(ctx context.Context, email, displayName string) (*models.User, error) {
	return nil, services.ErrValidationFailed
}

func (stubAuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return stubUserRepo{}.GetByID(ctx, id)
}

type stubStatsService struct{}

func (stubStatsService) GetStats(ctx context.Context, caller auth.Identity) (*services.Stats, error) {
	if !caller.IsAdmin() {
		return nil, services.ErrForbiddenOperation
	}
	return &services.Stats{TournamentsTotal: 3}, nil
}

type apiFixture struct {
	router     *chi.Mux
	tokens     *auth.TokenManager
	signup     *stubSignupService
	tournament *stubTournamentService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	tokens := auth.NewTokenManager("test-secret")
	classifier := auth.NewClassifier([]string{"admin@example.com"})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	signup := &stubSignupService{}
	tournament := &stubTournamentService{}

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Options{
		AuthHandler:       handlers.NewAuthHandler(stubAuthService{}, tokens, nil, "http://localhost:5173/", false),
		TournamentHandler: handlers.NewTournamentHandler(tournament),
		SignupHandler:     handlers.NewSignupHandler(signup),
		StatsHandler:      handlers.NewStatsHandler(stubStatsService{}),
		WebSocketHandler:  handlers.NewWebSocketHandler(live.NewHub(logger)),
		Identify:          middleware.Identify(tokens, stubUserRepo{}, classifier),
		AllowedOrigins:    []string{"http://localhost:5173"},
	})

	return &apiFixture{router: router, tokens: tokens, signup: signup, tournament: tournament}
}

func (f *apiFixture) do(t *testing.T, method, target, body string, userID int) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		token, err := f.tokens.Issue(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestCreateSignupReturns201(t *testing.T) {
	f := newAPIFixture(t)
	f.signup.admit = func(ctx context.Context, tournamentID int, input services.SignupInput, caller auth.Identity) (*models.Signup, error) {
		assert.Equal(t, 5, tournamentID)
		assert.Equal(t, "Alice", input.PlayerName)
		assert.Equal(t, auth.RoleAnonymous, caller.Role)
		return &models.Signup{ID: 1, TournamentID: tournamentID, PlayerName: input.PlayerName, SignedUpAt: time.Now()}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/tournaments/5/signups", `{"player_name":"Alice"}`, 0)

	assert.Equal(t, http.StatusCreated, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "Alice", payload["player_name"])
}

func TestCreateSignupErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"missing name", services.ErrPlayerNameRequired, http.StatusBadRequest},
		{"unknown tournament", services.ErrTournamentNotFound, http.StatusNotFound},
		{"registration closed", services.ErrRegistrationNotOpen, http.StatusBadRequest},
		{"duplicate name", services.ErrPlayerNameConflict, http.StatusBadRequest},
		{"tournament full", services.ErrTournamentFull, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAPIFixture(t)
			f.signup.admit = func(ctx context.Context, tournamentID int, input services.SignupInput, caller auth.Identity) (*models.Signup, error) {
				return nil, tc.serviceErr
			}

			rec := f.do(t, http.MethodPost, "/api/tournaments/5/signups", `{"player_name":"Alice"}`, 0)

			assert.Equal(t, tc.wantStatus, rec.Code)
			payload := decodeBody(t, rec)
			assert.Equal(t, tc.serviceErr.Error(), payload["error"])
		})
	}
}

func TestCreateSignupRejectsMalformedBody(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/tournaments/5/signups", `{"player_name":`, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "error")

	rec = f.do(t, http.MethodPost, "/api/tournaments/5/signups", `{"player_name":"Alice","surprise":true}`, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "unknown key")
}

func TestCreateSignupPassesAuthenticatedIdentity(t *testing.T) {
	f := newAPIFixture(t)
	f.signup.admit = func(ctx context.Context, tournamentID int, input services.SignupInput, caller auth.Identity) (*models.Signup, error) {
		assert.Equal(t, auth.RoleUser, caller.Role)
		assert.Equal(t, regularUserID, caller.UserID)
		return &models.Signup{ID: 1, TournamentID: tournamentID, PlayerName: input.PlayerName}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/tournaments/5/signups", `{"player_name":"Alice"}`, regularUserID)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestListSignupsReturnsArray(t *testing.T) {
	f := newAPIFixture(t)
	f.signup.list = func(ctx context.Context, tournamentID int) ([]models.Signup, error) {
		return []models.Signup{
			{ID: 1, TournamentID: tournamentID, PlayerName: "Alice"},
			{ID: 2, TournamentID: tournamentID, PlayerName: "Bob"},
		}, nil
	}

	rec := f.do(t, http.MethodGet, "/api/tournaments/5/signups", "", 0)

	assert.Equal(t, http.StatusOK, rec.Code)
	var signups []models.Signup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signups))
	require.Len(t, signups, 2)
	assert.Equal(t, "Alice", signups[0].PlayerName)
}

func TestCancelSignupReturns204(t *testing.T) {
	f := newAPIFixture(t)
	f.signup.cancel = func(ctx context.Context, signupID int, caller auth.Identity) error {
		assert.Equal(t, 7, signupID)
		assert.Equal(t, auth.RoleAdmin, caller.Role)
		return nil
	}

	rec := f.do(t, http.MethodDelete, "/api/signups/7", "", adminUserID)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCancelSignupAuthErrors(t *testing.T) {
	f := newAPIFixture(t)

	f.signup.cancel = func(ctx context.Context, signupID int, caller auth.Identity) error {
		return services.ErrAuthenticationRequired
	}
	rec := f.do(t, http.MethodDelete, "/api/signups/7", "", 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	f.signup.cancel = func(ctx context.Context, signupID int, caller auth.Identity) error {
		return services.ErrForbiddenOperation
	}
	rec = f.do(t, http.MethodDelete, "/api/signups/7", "", regularUserID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSetPaidReturnsUpdatedSignup(t *testing.T) {
	f := newAPIFixture(t)
	f.signup.setPaid = func(ctx context.Context, signupID int, paid bool, caller auth.Identity) (*models.Signup, error) {
		assert.True(t, paid)
		return &models.Signup{ID: signupID, PlayerName: "Alice", Paid: paid}, nil
	}

	rec := f.do(t, http.MethodPatch, "/api/signups/7", `{"paid":true}`, adminUserID)

	assert.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, true, payload["paid"])
}

func TestTournamentInvalidIDIs404(t *testing.T) {
	f := newAPIFixture(t)
	f.tournament.getByID = func(ctx context.Context, id int) (*models.Tournament, error) {
		t.Fatal("service must not be called for an invalid id")
		return nil, nil
	}

	for _, target := range []string{"/api/tournaments/abc", "/api/tournaments/0", "/api/tournaments/-1"} {
		rec := f.do(t, http.MethodGet, target, "", 0)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestMeAnonymous(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/me", "", 0)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, false, payload["ok"])
}

func TestMeAuthenticated(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/me", "", adminUserID)

	assert.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, true, payload["ok"])
	user := payload["user"].(map[string]interface{})
	assert.Equal(t, "admin@example.com", user["email"])
	assert.Equal(t, true, user["is_admin"])
}

func TestMeWithInvalidTokenIsAnonymous(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/register", `{"email":"a@b.c","password":"correct horse","display_name":"Alice"}`, 0)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)
	assert.NotEmpty(t, sessionCookie.Value)
}

func TestAdminStats(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/stats", "", regularUserID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/stats", "", adminUserID)
	assert.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, float64(3), payload["tournaments_total"])
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", 0)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
