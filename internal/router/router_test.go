package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iliyamo/bordrail/internal/config"
	"github.com/iliyamo/bordrail/internal/handler"
	"github.com/iliyamo/bordrail/internal/model"
	"github.com/iliyamo/bordrail/internal/service"
	"github.com/iliyamo/bordrail/internal/utils"
)

const secret = "test-secret"

type fakeTickets struct {
	shutdowns int
}

func (f *fakeTickets) Authenticate(id int, pw string) (model.User, service.LoginOutcome) {
	switch {
	case id == 1 && pw == "pw1":
		return model.User{ID: 1, Name: "Ann"}, service.LoginOK
	case id == 2 && pw == "pw2":
		return model.User{ID: 2, Name: "Bob"}, service.LoginOK
	case id == 1 || id == 2:
		return model.User{}, service.LoginWrongPassword
	}
	return model.User{}, service.LoginUnknownUser
}

func (f *fakeTickets) AllRoutes() []model.Route {
	return []model.Route{{ID: 4, Description: "York to Hull", Cost: 4, Type: model.SaverType, TypeDescription: "Off peak"}}
}

func (f *fakeTickets) TravelDays(id int) []string {
	if id == 4 {
		return []string{"Friday"}
	}
	return nil
}

func (f *fakeTickets) RunTimes(id int, day string) []string {
	if id == 4 && day == "Friday" {
		return []string{"18:00"}
	}
	return nil
}

func (f *fakeTickets) Costs(id int) []float64 {
	if id == 4 {
		return []float64{4}
	}
	return nil
}

func (f *fakeTickets) RequestShutdown() error {
	f.shutdowns++
	if f.shutdowns > 1 {
		return service.ErrShuttingDown
	}
	return nil
}

func (f *fakeTickets) ShuttingDown() bool { return f.shutdowns > 0 }

type fakeSessions int

func (n fakeSessions) SessionCount() int { return int(n) }

func newAPI(t *testing.T) (http.Handler, *fakeTickets) {
	t.Helper()
	tickets := &fakeTickets{}
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 5, OperatorIDs: []int{1}}
	e := New(Deps{
		Cfg:     cfg,
		Auth:    handler.NewAuthHandler(cfg, tickets),
		Catalog: &handler.CatalogHandler{Tickets: tickets},
		Status:  &handler.StatusHandler{Sessions: fakeSessions(3), State: tickets},
		Admin:   &handler.AdminHandler{Shutdown: tickets},
	})
	return e, tickets
}

func call(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, id int, pw string) string {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/v1/auth/login", `{"user_id":`+strconv.Itoa(id)+`,"password":"`+pw+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login %d: status %d body %s", id, rec.Code, rec.Body)
	}
	var resp struct {
		User   struct{ Role string }
		Access struct{ Token string }
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Access.Token
}

func TestHealthz(t *testing.T) {
	h, _ := newAPI(t)
	rec := call(t, h, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body)
	}
}

func TestStatusReportsSessions(t *testing.T) {
	h, _ := newAPI(t)
	rec := call(t, h, http.MethodGet, "/v1/status", "", "")
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"sessions": float64(3), "shutting_down": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogViews(t *testing.T) {
	h, _ := newAPI(t)
	tests := []struct {
		path string
		code int
	}{
		{"/v1/routes", http.StatusOK},
		{"/v1/routes/4/days", http.StatusOK},
		{"/v1/routes/9/days", http.StatusNotFound},
		{"/v1/routes/4/times?day=Friday", http.StatusOK},
		{"/v1/routes/4/times", http.StatusBadRequest},
		{"/v1/routes/4/cost", http.StatusOK},
		{"/v1/routes/x/cost", http.StatusBadRequest},
		{"/v1/routes/7/cost", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := call(t, h, http.MethodGet, tt.path, "", ""); rec.Code != tt.code {
			t.Errorf("GET %s = %d, want %d (%s)", tt.path, rec.Code, tt.code, rec.Body)
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, _ := newAPI(t)
	for _, body := range []string{`{"user_id":1,"password":"nope"}`, `{"user_id":9,"password":"x"}`} {
		if rec := call(t, h, http.MethodPost, "/v1/auth/login", body, ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status %d", body, rec.Code)
		}
	}
	if rec := call(t, h, http.MethodPost, "/v1/auth/login", `{"password":"x"}`, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: status %d", rec.Code)
	}
}

func TestShutdownRequiresOperator(t *testing.T) {
	h, tickets := newAPI(t)

	if rec := call(t, h, http.MethodPost, "/v1/admin/shutdown", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d", rec.Code)
	}
	if rec := call(t, h, http.MethodPost, "/v1/admin/shutdown", "", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d", rec.Code)
	}
	customer := login(t, h, 2, "pw2")
	if rec := call(t, h, http.MethodPost, "/v1/admin/shutdown", "", customer); rec.Code != http.StatusForbidden {
		t.Errorf("customer token: status %d", rec.Code)
	}
	if tickets.ShuttingDown() {
		t.Fatal("shutdown requested without operator role")
	}

	operator := login(t, h, 1, "pw1")
	if rec := call(t, h, http.MethodPost, "/v1/admin/shutdown", "", operator); rec.Code != http.StatusAccepted {
		t.Errorf("operator token: status %d", rec.Code)
	}
	if rec := call(t, h, http.MethodPost, "/v1/admin/shutdown", "", operator); rec.Code != http.StatusConflict {
		t.Errorf("repeat shutdown: status %d", rec.Code)
	}
}

func TestMeEchoesClaims(t *testing.T) {
	h, _ := newAPI(t)
	tok := login(t, h, 1, "pw1")
	rec := call(t, h, http.MethodGet, "/v1/me", "", tok)
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"user_id": float64(1), "role": utils.RoleOperator}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("me mismatch (-want +got):\n%s", diff)
	}
}
