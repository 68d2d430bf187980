package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	"github.com/thesavant42/wafconsole/internal/db"
	"github.com/thesavant42/wafconsole/internal/listing"
	"github.com/thesavant42/wafconsole/internal/models"
	"github.com/thesavant42/wafconsole/internal/resources"
	"github.com/thesavant42/wafconsole/internal/server"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("client-test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer serves the seeded fixture API: 3 certificates, 4 sites, 25 attack logs
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := database.SeedDemo(context.Background(), db.DemoCounts{Certificates: 3, Sites: 4, AttackLogs: 25}, base); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error = %v", err)
	}
	srv := httptest.NewServer(server.NewRouter(server.Options{
		DB:                database,
		JWTSecret:         testSecret,
		AdminUser:         "admin",
		AdminPasswordHash: hash,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAuthedClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	token, err := server.IssueToken(testSecret, "admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return NewClient(srv.URL+"/", token, nil)
}

// TestLogin stores the token for later requests
func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, "", nil)
	ctx := context.Background()

	if _, _, err := client.ListSites(ctx, nil, 1, 10); !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("ListSites() before login error = %v, want 401", err)
	}

	if _, err := client.Login(ctx, "admin", "nope"); !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("Login() with bad password error = %v, want 401", err)
	}

	token, err := client.Login(ctx, "admin", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Fatal("Login() returned an empty token")
	}

	sites, total, err := client.ListSites(ctx, nil, 1, 10)
	if err != nil {
		t.Fatalf("ListSites() error = %v", err)
	}
	assert.Equal(t, total, 4)
	assert.Equal(t, len(sites), 4)
}

// TestAPIErrorFields carries status, envelope code and message
func TestAPIErrorFields(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)

	_, err := client.GetAttackLog(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetAttackLog() error = %v, want *APIError", err)
	}
	assert.Equal(t, apiErr.StatusCode, http.StatusNotFound)
	assert.Equal(t, apiErr.Code, http.StatusNotFound)
	assert.Equal(t, apiErr.Method, http.MethodGet)
	assert.Equal(t, apiErr.Path, "/logs/missing")
	if apiErr.Message == "" {
		t.Error("APIError without message")
	}
}

// TestEnvelopeCodeIsError treats a non-zero code on a 200 response as a failure
func TestEnvelopeCodeIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":1001,"message":"quota exceeded"}`))
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL, "", nil).ListCertificates(context.Background(), nil, 1, 20)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ListCertificates() error = %v, want *APIError", err)
	}
	assert.Equal(t, apiErr.Code, 1001)
	assert.Equal(t, apiErr.Message, "quota exceeded")
}

// TestListQuery sends only set fields plus paging
func TestListQuery(t *testing.T) {
	criteria := models.FilterCriteria{
		resources.FieldSrcIP:   models.StringValue("203.0.113.1"),
		resources.FieldDstPort: models.IntValue(443),
		resources.FieldDomain:  models.StringValue(""),
	}
	q := ListQuery(criteria, 2, 10)

	assert.Equal(t, q.Get("srcIp"), "203.0.113.1")
	assert.Equal(t, q.Get("dstPort"), "443")
	assert.Equal(t, q.Has("domain"), false)
	assert.Equal(t, q.Get("page"), "2")
	assert.Equal(t, q.Get("pageSize"), "10")
}

// TestCertificateCRUD creates, updates and deletes a certificate
func TestCertificateCRUD(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)
	ctx := context.Background()

	created, err := client.CreateCertificate(ctx, models.Certificate{Name: "edge", Domains: []string{"edge.example.com"}})
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}

	created.Name = "edge-renewed"
	if err := client.UpdateCertificate(ctx, *created); err != nil {
		t.Fatalf("UpdateCertificate() error = %v", err)
	}

	criteria := models.FilterCriteria{resources.FieldName: models.StringValue("renewed")}
	certs, total, err := client.ListCertificates(ctx, criteria, 1, 20)
	if err != nil {
		t.Fatalf("ListCertificates() error = %v", err)
	}
	assert.Equal(t, total, 1)
	assert.Equal(t, certs[0].ID, created.ID)

	if err := client.DeleteCertificate(ctx, created.ID); err != nil {
		t.Fatalf("DeleteCertificate() error = %v", err)
	}
	if err := client.DeleteCertificate(ctx, created.ID); !IsStatus(err, http.StatusNotFound) {
		t.Errorf("second DeleteCertificate() error = %v, want 404", err)
	}
	if err := client.UpdateCertificate(ctx, models.Certificate{Name: "x"}); err == nil {
		t.Error("UpdateCertificate() without id succeeded")
	}
}

// TestFetcherRejectsOtherResources guards against wiring a fetcher to the wrong list
func TestFetcherRejectsOtherResources(t *testing.T) {
	f := SiteFetcher{Client: NewClient("http://127.0.0.1:1", "", nil)}
	if _, _, err := f.FetchPage(context.Background(), resources.AttackLogs, nil, 1, 10); err == nil {
		t.Error("SiteFetcher served attack-logs")
	}
}

// runCmd executes cmd and every command it batches, feeding messages to update
func runCmd(cmd tea.Cmd, update func(tea.Msg) tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		queue = append(queue, update(msg))
	}
}

// TestAttackLogViewOverAPI scrolls a filtered attack-log view to the end against the server
func TestAttackLogViewOverAPI(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)

	coord := listing.NewCoordinator[models.WAFLog](AttackLogFetcher{Client: client}, 5*time.Second, nil)
	seed := models.FilterCriteria{resources.FieldDstPort: models.IntValue(443)}
	view, err := listing.NewView[models.WAFLog](resources.AttackLogView(seed), coord)
	if err != nil {
		t.Fatalf("NewView() error = %v", err)
	}
	defer view.Close()

	runCmd(view.Init(), view.Update)
	assert.Equal(t, len(view.CurrentItems()), 10)
	assert.Equal(t, view.Total(), 25)
	assert.Equal(t, view.HasMore(), true)

	for i := 0; i < 5 && view.HasMore(); i++ {
		runCmd(view.SentinelVisible(true), view.Update)
		view.SentinelVisible(false)
	}

	assert.Equal(t, len(view.CurrentItems()), 25)
	assert.Equal(t, view.HasMore(), false)
	assert.Equal(t, view.State(), listing.StateExhausted)
	if err := view.LastError(); err != nil {
		t.Errorf("LastError() = %v, want nil", err)
	}

	seen := make(map[string]bool)
	for _, l := range view.CurrentItems() {
		if seen[l.ID] {
			t.Fatalf("duplicate attack log %s", l.ID)
		}
		seen[l.ID] = true
	}
}

// TestCoordinatorSurfacesAuthFailure reports a 401 as a transport error
func TestCoordinatorSurfacesAuthFailure(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, "not-a-token", nil)

	coord := listing.NewCoordinator[models.Site](SiteFetcher{Client: client}, 0, nil)
	view, err := listing.NewView[models.Site](resources.SiteView(), coord)
	if err != nil {
		t.Fatalf("NewView() error = %v", err)
	}

	runCmd(view.Init(), view.Update)
	assert.Equal(t, view.State(), listing.StateError)

	var te *listing.TransportError
	if !errors.As(view.LastError(), &te) {
		t.Fatalf("LastError() = %v, want *TransportError", view.LastError())
	}
	if !IsStatus(view.LastError(), http.StatusUnauthorized) {
		t.Errorf("LastError() = %v, want 401", view.LastError())
	}
}
