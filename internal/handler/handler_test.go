package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/freeeve/holdfast/internal/auth"
	"github.com/freeeve/holdfast/internal/config"
	"github.com/freeeve/holdfast/internal/model"
	"github.com/freeeve/holdfast/internal/service"
	"github.com/freeeve/holdfast/pkg/conquest"
)

type testEnv struct {
	users  *mockUserRepo
	games  *mockGameRepo
	turns  *mockTurnRepo
	cache  *mockCache
	jwtMgr *auth.JWTManager

	user   *UserHandler
	game   *GameHandler
	intent *IntentHandler
	turn   *TurnHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		users:  newMockUserRepo(),
		games:  newMockGameRepo(),
		turns:  newMockTurnRepo(),
		cache:  newMockCache(),
		jwtMgr: auth.NewJWTManager("test-secret"),
	}
	e.turns.games = e.games
	hub := NewHub()
	locks := &service.GameLocks{}
	defaults := config.GameDefaults{TurnDuration: time.Hour, MaxTurns: 50, VictoryPoints: 100}

	gameSvc := service.NewGameService(e.games, e.turns, e.cache, defaults)
	turnSvc := service.NewTurnService(e.games, e.turns, e.cache, hub, locks)
	intentSvc := service.NewIntentService(e.games, e.turns, e.cache, locks)

	e.user = NewUserHandler(e.users)
	e.game = NewGameHandler(gameSvc, turnSvc, hub)
	e.intent = NewIntentHandler(intentSvc, turnSvc, hub)
	e.turn = NewTurnHandler(turnSvc)
	return e
}

func (e *testEnv) newUser(t *testing.T, name string) string {
	t.Helper()
	u, err := e.users.Upsert(context.Background(), "dev", "dev-"+name, name, "")
	if err != nil {
		t.Fatal(err)
	}
	return u.ID
}

// reqWithUserID builds a request carrying an authenticated user and path
// values given as name/value pairs.
func reqWithUserID(method, target, body, userID string, pathValues ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// startedGame creates a game as alice, seats bob and starts it.
func (e *testEnv) startedGame(t *testing.T) (gameID, alice, bob string) {
	t.Helper()
	alice = e.newUser(t, "alice")
	bob = e.newUser(t, "bob")

	w := serve(e.game.CreateGame, reqWithUserID("POST", "/api/v1/games", `{"name":"border war"}`, alice))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	gameID = decodeBody[model.Game](t, w).ID

	w = serve(e.game.JoinGame, reqWithUserID("POST", "/api/v1/games/"+gameID+"/join", "", bob, "id", gameID))
	if w.Code != http.StatusOK {
		t.Fatalf("join: %d %s", w.Code, w.Body.String())
	}
	w = serve(e.game.StartGame, reqWithUserID("POST", "/api/v1/games/"+gameID+"/start", "", alice, "id", gameID))
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	return gameID, alice, bob
}

// --- users ---

func TestGetMe(t *testing.T) {
	e := newTestEnv(t)
	id := e.newUser(t, "alice")

	w := serve(e.user.GetMe, reqWithUserID("GET", "/api/v1/users/me", "", id))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeBody[model.User](t, w); got.DisplayName != "alice" {
		t.Errorf("expected alice, got %q", got.DisplayName)
	}
}

func TestGetMeNotFound(t *testing.T) {
	e := newTestEnv(t)
	w := serve(e.user.GetMe, reqWithUserID("GET", "/api/v1/users/me", "", "b3c1a2f0-0000-4000-8000-000000000000"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestUpdateMe(t *testing.T) {
	e := newTestEnv(t)
	id := e.newUser(t, "alice")

	w := serve(e.user.UpdateMe, reqWithUserID("PATCH", "/api/v1/users/me", `{"display_name":"  Queen Alice  "}`, id))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decodeBody[model.User](t, w); got.DisplayName != "Queen Alice" {
		t.Errorf("expected trimmed name, got %q", got.DisplayName)
	}
}

func TestUpdateMeRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)
	id := e.newUser(t, "alice")

	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"display_name":"   "}`},
		{"too long", `{"display_name":"` + strings.Repeat("x", maxDisplayName+1) + `"}`},
		{"invalid json", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(e.user.UpdateMe, reqWithUserID("PATCH", "/api/v1/users/me", tt.body, id))
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	e := newTestEnv(t)
	id := e.newUser(t, "bob")

	w := serve(e.user.GetUser, reqWithUserID("GET", "/api/v1/users/"+id, "", id, "id", id))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = serve(e.user.GetUser, reqWithUserID("GET", "/api/v1/users/nope", "", id, "id", "nope"))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a malformed id, got %d", w.Code)
	}
}

// --- games ---

func TestCreateGame(t *testing.T) {
	e := newTestEnv(t)
	alice := e.newUser(t, "alice")

	w := serve(e.game.CreateGame, reqWithUserID("POST", "/api/v1/games", `{"name":"skirmish","turn_duration":"30m","max_turns":10}`, alice))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	g := decodeBody[model.Game](t, w)
	if g.Status != model.StatusWaiting || g.MaxTurns != 10 || g.VictoryPoints != 100 {
		t.Errorf("unexpected game %+v", g)
	}
	if len(g.Players) != 1 || g.Players[0].UserID != alice {
		t.Errorf("creator should be seated, got %+v", g.Players)
	}
}

func TestCreateGameBadRequest(t *testing.T) {
	e := newTestEnv(t)
	alice := e.newUser(t, "alice")

	for _, body := range []string{`{"name":""}`, `{"name":"x","max_turns":-1}`, `nope`} {
		w := serve(e.game.CreateGame, reqWithUserID("POST", "/api/v1/games", body, alice))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestListGamesEmpty(t *testing.T) {
	e := newTestEnv(t)
	w := serve(e.game.ListGames, reqWithUserID("GET", "/api/v1/games?filter=open", "", e.newUser(t, "alice")))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

func TestGameNotFound(t *testing.T) {
	e := newTestEnv(t)
	alice := e.newUser(t, "alice")

	w := serve(e.game.GetGame, reqWithUserID("GET", "/api/v1/games/missing", "", alice, "id", "missing"))
	if w.Code != http.StatusNotFound {
		t.Errorf("get: expected 404, got %d", w.Code)
	}
	w = serve(e.game.JoinGame, reqWithUserID("POST", "/api/v1/games/missing/join", "", alice, "id", "missing"))
	if w.Code != http.StatusNotFound {
		t.Errorf("join: expected 404, got %d", w.Code)
	}
}

func TestGameLifecycle(t *testing.T) {
	e := newTestEnv(t)
	gameID, alice, bob := e.startedGame(t)

	w := serve(e.game.GetGame, reqWithUserID("GET", "/api/v1/games/"+gameID, "", alice, "id", gameID))
	g := decodeBody[model.Game](t, w)
	if g.Status != model.StatusActive || len(g.Players) != 2 {
		t.Fatalf("unexpected game %+v", g)
	}
	for _, p := range g.Players {
		if p.Color == "" {
			t.Errorf("player %s has no color", p.UserID)
		}
	}

	// Joining or starting again is a state conflict.
	w = serve(e.game.JoinGame, reqWithUserID("POST", "/", "", e.newUser(t, "carol"), "id", gameID))
	if w.Code != http.StatusConflict {
		t.Errorf("late join: expected 409, got %d", w.Code)
	}
	w = serve(e.game.StartGame, reqWithUserID("POST", "/", "", bob, "id", gameID))
	if w.Code != http.StatusConflict {
		t.Errorf("second start: expected 409, got %d", w.Code)
	}

	w = serve(e.game.DeleteGame, reqWithUserID("DELETE", "/", "", alice, "id", gameID))
	if w.Code != http.StatusConflict {
		t.Errorf("delete of a running game: expected 409, got %d", w.Code)
	}
}

func TestDeleteGame(t *testing.T) {
	e := newTestEnv(t)
	alice := e.newUser(t, "alice")
	w := serve(e.game.CreateGame, reqWithUserID("POST", "/", `{"name":"lobby"}`, alice))
	gameID := decodeBody[model.Game](t, w).ID

	w = serve(e.game.DeleteGame, reqWithUserID("DELETE", "/", "", e.newUser(t, "bob"), "id", gameID))
	if w.Code != http.StatusForbidden {
		t.Errorf("delete by non-creator: expected 403, got %d", w.Code)
	}
	w = serve(e.game.DeleteGame, reqWithUserID("DELETE", "/", "", alice, "id", gameID))
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = serve(e.game.GetGame, reqWithUserID("GET", "/", "", alice, "id", gameID))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

// --- intents and turns ---

func TestSubmitIntentValidation(t *testing.T) {
	e := newTestEnv(t)
	gameID, alice, _ := e.startedGame(t)
	stranger := e.newUser(t, "mallory")

	tests := []struct {
		name   string
		userID string
		body   string
		want   int
	}{
		{"bad json", alice, `{`, http.StatusBadRequest},
		{"unknown type", alice, `{"type":"teleport"}`, http.StatusBadRequest},
		{"unknown unit", alice, `{"type":"move","units":["unit-99"],"destination":"heartland"}`, http.StatusNotFound},
		{"not seated", stranger, `{"type":"ready"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(e.intent.SubmitIntent, reqWithUserID("POST", "/", tt.body, tt.userID, "id", gameID))
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestSubmitIntentMove(t *testing.T) {
	e := newTestEnv(t)
	gameID, alice, _ := e.startedGame(t)

	w := serve(e.turn.Snapshot, reqWithUserID("GET", "/", "", alice, "id", gameID))
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot: %d %s", w.Code, w.Body.String())
	}
	var gm conquest.GameMap
	if err := json.Unmarshal(w.Body.Bytes(), &gm); err != nil {
		t.Fatal(err)
	}
	p := gm.Player(conquest.ID(alice))
	if p == nil || len(p.Units) == 0 {
		t.Fatalf("alice has no units on the map")
	}
	unit := gm.Unit(p.Units[0])
	dest := gm.Neighbors(unit.Location)[0]

	body := `{"type":"move","units":["` + string(unit.ID) + `"],"destination":"` + string(dest) + `"}`
	w = serve(e.intent.SubmitIntent, reqWithUserID("POST", "/", body, alice, "id", gameID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	res := decodeBody[service.IntentResult](t, w)
	if res.AllReady || res.TotalPlayers != 2 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAllReadyResolvesEarly(t *testing.T) {
	e := newTestEnv(t)
	gameID, alice, bob := e.startedGame(t)

	w := serve(e.intent.SubmitIntent, reqWithUserID("POST", "/", `{"type":"ready"}`, alice, "id", gameID))
	if res := decodeBody[service.IntentResult](t, w); res.ReadyCount != 1 || res.AllReady {
		t.Fatalf("after first ready: %+v", res)
	}

	w = serve(e.game.GetGame, reqWithUserID("GET", "/", "", alice, "id", gameID))
	if g := decodeBody[model.Game](t, w); g.ReadyCount != 1 {
		t.Errorf("expected ready_count 1, got %d", g.ReadyCount)
	}

	w = serve(e.intent.SubmitIntent, reqWithUserID("POST", "/", `{"type":"ready"}`, bob, "id", gameID))
	if res := decodeBody[service.IntentResult](t, w); !res.AllReady {
		t.Fatalf("expected all ready, got %+v", res)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if turn, _ := e.turns.FindTurn(context.Background(), gameID, 1); turn != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("turn 1 was not created after everyone was ready")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTurnEndpoints(t *testing.T) {
	e := newTestEnv(t)
	gameID, alice, _ := e.startedGame(t)

	w := serve(e.turn.ListTurns, reqWithUserID("GET", "/", "", alice, "id", gameID))
	turns := decodeBody[[]service.TurnView](t, w)
	if len(turns) != 1 || turns[0].Number != 0 {
		t.Fatalf("expected the opening turn, got %+v", turns)
	}

	w = serve(e.turn.GetTurn, reqWithUserID("GET", "/", "", alice, "id", gameID, "number", "0"))
	if w.Code != http.StatusOK {
		t.Errorf("turn 0: expected 200, got %d", w.Code)
	}
	w = serve(e.turn.GetTurn, reqWithUserID("GET", "/", "", alice, "id", gameID, "number", "7"))
	if w.Code != http.StatusNotFound {
		t.Errorf("turn 7: expected 404, got %d", w.Code)
	}
	for _, bad := range []string{"abc", "-1"} {
		w = serve(e.turn.GetTurn, reqWithUserID("GET", "/", "", alice, "id", gameID, "number", bad))
		if w.Code != http.StatusBadRequest {
			t.Errorf("turn %q: expected 400, got %d", bad, w.Code)
		}
	}

	w = serve(e.turn.Leaders, reqWithUserID("GET", "/", "", alice, "id", gameID))
	standings := decodeBody[[]conquest.PlayerStats](t, w)
	if len(standings) != 2 {
		t.Errorf("expected 2 standings, got %d", len(standings))
	}
}

func TestTurnEndpointsBeforeStart(t *testing.T) {
	e := newTestEnv(t)
	alice := e.newUser(t, "alice")
	w := serve(e.game.CreateGame, reqWithUserID("POST", "/", `{"name":"lobby"}`, alice))
	gameID := decodeBody[model.Game](t, w).ID

	w = serve(e.turn.Snapshot, reqWithUserID("GET", "/", "", alice, "id", gameID))
	if w.Code != http.StatusConflict {
		t.Errorf("snapshot of a waiting game: expected 409, got %d", w.Code)
	}
	w = serve(e.turn.ListTurns, reqWithUserID("GET", "/", "", alice, "id", gameID))
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected no turns, got %s", w.Body.String())
	}
}

// --- auth ---

func TestRefreshToken(t *testing.T) {
	e := newTestEnv(t)
	id := e.newUser(t, "alice")
	h := NewAuthHandler(nil, e.jwtMgr, e.users, false)

	pair, err := e.jwtMgr.GenerateTokenPair(id)
	if err != nil {
		t.Fatal(err)
	}

	w := serve(h.RefreshToken, reqWithUserID("POST", "/auth/refresh", `{"refresh_token":"`+pair.RefreshToken+`"}`, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	fresh := decodeBody[auth.TokenPair](t, w)
	claims, err := e.jwtMgr.ValidateAccessToken(fresh.AccessToken)
	if err != nil || claims.UserID != id {
		t.Errorf("refreshed access token invalid: %v", err)
	}
}

func TestRefreshTokenRejected(t *testing.T) {
	e := newTestEnv(t)
	id := e.newUser(t, "alice")
	h := NewAuthHandler(nil, e.jwtMgr, e.users, false)

	access, _ := e.jwtMgr.GenerateAccessToken(id)
	orphan, _ := e.jwtMgr.GenerateRefreshToken("4f5e0c1d-0000-4000-8000-000000000000")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"garbage token", `{"refresh_token":"invalid"}`, http.StatusUnauthorized},
		{"access token", `{"refresh_token":"` + access + `"}`, http.StatusUnauthorized},
		{"unknown user", `{"refresh_token":"` + orphan + `"}`, http.StatusUnauthorized},
		{"bad body", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h.RefreshToken, reqWithUserID("POST", "/auth/refresh", tt.body, ""))
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestDevLogin(t *testing.T) {
	e := newTestEnv(t)

	off := NewAuthHandler(nil, e.jwtMgr, e.users, false)
	if w := serve(off.DevLogin, reqWithUserID("GET", "/auth/dev?name=alice", "", "")); w.Code != http.StatusNotFound {
		t.Errorf("dev login outside dev mode: expected 404, got %d", w.Code)
	}

	on := NewAuthHandler(nil, e.jwtMgr, e.users, true)
	if w := serve(on.DevLogin, reqWithUserID("GET", "/auth/dev", "", "")); w.Code != http.StatusBadRequest {
		t.Errorf("missing name: expected 400, got %d", w.Code)
	}

	w := serve(on.DevLogin, reqWithUserID("GET", "/auth/dev?name=alice", "", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	first := decodeBody[auth.TokenPair](t, w)
	w = serve(on.DevLogin, reqWithUserID("GET", "/auth/dev?name=alice", "", ""))
	second := decodeBody[auth.TokenPair](t, w)

	c1, err1 := e.jwtMgr.ValidateAccessToken(first.AccessToken)
	c2, err2 := e.jwtMgr.ValidateAccessToken(second.AccessToken)
	if err1 != nil || err2 != nil || c1.UserID != c2.UserID {
		t.Error("repeated dev logins should map to the same user")
	}
}

func TestDevLoginKeepsChosenName(t *testing.T) {
	e := newTestEnv(t)
	h := NewAuthHandler(nil, e.jwtMgr, e.users, true)

	w := serve(h.DevLogin, reqWithUserID("GET", "/auth/dev?name=alice", "", ""))
	claims, err := e.jwtMgr.ValidateAccessToken(decodeBody[auth.TokenPair](t, w).AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	w = serve(e.user.UpdateMe, reqWithUserID("PATCH", "/api/v1/users/me", `{"display_name":"Queen Alice"}`, claims.UserID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	serve(h.DevLogin, reqWithUserID("GET", "/auth/dev?name=alice", "", ""))
	u, _ := e.users.FindByID(context.Background(), claims.UserID)
	if u == nil || u.DisplayName != "Queen Alice" {
		t.Errorf("login should keep the chosen name, got %+v", u)
	}
}

func TestGoogleLogin(t *testing.T) {
	e := newTestEnv(t)

	unconfigured := NewAuthHandler(auth.NewGoogleOAuth(config.GoogleConfig{}), e.jwtMgr, e.users, false)
	if w := serve(unconfigured.GoogleLogin, reqWithUserID("GET", "/auth/google", "", "")); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a client id, got %d", w.Code)
	}

	google := auth.NewGoogleOAuth(config.GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/google/callback",
	})
	h := NewAuthHandler(google, e.jwtMgr, e.users, false)

	w := serve(h.GoogleLogin, reqWithUserID("GET", "/auth/google", "", ""))
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", w.Code)
	}
	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == stateCookie {
			state = c.Value
		}
	}
	if state == "" || !strings.Contains(w.Header().Get("Location"), "state="+state) {
		t.Errorf("redirect should carry the cookie state, got %s", w.Header().Get("Location"))
	}

	req := reqWithUserID("GET", "/auth/google/callback?state=forged&code=abc", "", "")
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
	if w := serve(h.GoogleCallback, req); w.Code != http.StatusBadRequest {
		t.Errorf("state mismatch: expected 400, got %d", w.Code)
	}

	req = reqWithUserID("GET", "/auth/google/callback?state="+state, "", "")
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
	if w := serve(h.GoogleCallback, req); w.Code != http.StatusBadRequest {
		t.Errorf("missing code: expected 400, got %d", w.Code)
	}
}
