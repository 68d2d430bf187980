package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	"github.com/thesavant42/wafconsole/internal/db"
	"github.com/thesavant42/wafconsole/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, opts Options) (*gin.Engine, *db.DB) {
	t.Helper()
	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	counts := db.DemoCounts{Certificates: 3, Sites: 4, AttackLogs: 25}
	if err := database.SeedDemo(context.Background(), counts, base); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	opts.DB = database
	return NewRouter(opts), database
}

func doRequest(r http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type testEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("invalid data %s: %v", env.Data, err)
		}
	}
	return env
}

// TestHealth answers without auth and tags the response with a request id
func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, Options{JWTSecret: testSecret})

	w := doRequest(r, http.MethodGet, "/health", "", "")
	assert.Equal(t, w.Code, http.StatusOK)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

// TestAuthRequired rejects missing and forged tokens
func TestAuthRequired(t *testing.T) {
	r, _ := newTestRouter(t, Options{JWTSecret: testSecret})

	w := doRequest(r, http.MethodGet, "/api/v1/certificate", "", "")
	assert.Equal(t, w.Code, http.StatusUnauthorized)

	forged, err := IssueToken([]byte("other-secret"), "admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	w = doRequest(r, http.MethodGet, "/api/v1/certificate", "", forged)
	assert.Equal(t, w.Code, http.StatusUnauthorized)

	expired, _ := IssueToken(testSecret, "admin", -time.Minute)
	w = doRequest(r, http.MethodGet, "/api/v1/certificate", "", expired)
	assert.Equal(t, w.Code, http.StatusUnauthorized)

	valid, _ := IssueToken(testSecret, "admin", time.Hour)
	w = doRequest(r, http.MethodGet, "/api/v1/certificate", "", valid)
	assert.Equal(t, w.Code, http.StatusOK)
}

// TestParseTokenSubject round-trips the subject claim
func TestParseTokenSubject(t *testing.T) {
	token, err := IssueToken(testSecret, "operator", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	subject, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	assert.Equal(t, subject, "operator")
}

// TestLogin exchanges the admin password for a working token
func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error = %v", err)
	}
	r, _ := newTestRouter(t, Options{JWTSecret: testSecret, AdminUser: "admin", AdminPasswordHash: hash})

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"wrong"}`, "")
	assert.Equal(t, w.Code, http.StatusUnauthorized)

	w = doRequest(r, http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"hunter2"}`, "")
	assert.Equal(t, w.Code, http.StatusOK)

	var out struct {
		Token string `json:"token"`
	}
	decode(t, w, &out)
	if out.Token == "" {
		t.Fatal("login returned no token")
	}

	w = doRequest(r, http.MethodGet, "/api/v1/site", "", out.Token)
	assert.Equal(t, w.Code, http.StatusOK)
}

// TestLoginDisabled answers 404 without configured credentials
func TestLoginDisabled(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"x"}`, "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

// TestListCertificatesPaging pages through the seeded certificates
func TestListCertificatesPaging(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	w := doRequest(r, http.MethodGet, "/api/v1/certificate?page=1&pageSize=2", "", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var first models.ListResult[models.Certificate]
	env := decode(t, w, &first)
	assert.Equal(t, env.Code, 0)
	assert.Equal(t, first.Total, 3)
	assert.Equal(t, len(first.Items), 2)

	w = doRequest(r, http.MethodGet, "/api/v1/certificate?page=2&pageSize=2", "", "")
	var second models.ListResult[models.Certificate]
	decode(t, w, &second)
	assert.Equal(t, len(second.Items), 1)
}

// TestListAttackLogsFilter applies filter fields and reports page metadata
func TestListAttackLogsFilter(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	w := doRequest(r, http.MethodGet, "/api/v1/logs?srcIp=203.0.113.1&pageSize=10", "", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var page models.LogPage
	decode(t, w, &page)
	assert.Equal(t, page.TotalCount, 2)
	assert.Equal(t, page.CurrentPage, 1)
	assert.Equal(t, page.TotalPages, 1)
	for _, l := range page.Results {
		assert.Equal(t, l.SrcIP, "203.0.113.1")
	}

	w = doRequest(r, http.MethodGet, "/api/v1/logs?page=3", "", "")
	decode(t, w, &page)
	assert.Equal(t, page.TotalCount, 25)
	assert.Equal(t, page.TotalPages, 3)
	assert.Equal(t, len(page.Results), 5)
}

// TestListRejectsBadParams answers 400 for invalid filters and paging
func TestListRejectsBadParams(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	tests := []struct {
		name   string
		target string
	}{
		{"non-numeric page", "/api/v1/logs?page=two"},
		{"zero page", "/api/v1/logs?page=0"},
		{"page size too large", "/api/v1/logs?pageSize=500"},
		{"bad port", "/api/v1/logs?srcPort=70000"},
		{"bad ip", "/api/v1/logs?srcIp=not-an-ip"},
		{"bad time", "/api/v1/logs?startTime=yesterday"},
		{"inverted range", "/api/v1/logs?startTime=2024-05-02&endTime=2024-05-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, tt.target, "", "")
			assert.Equal(t, w.Code, http.StatusBadRequest)
			env := decode(t, w, nil)
			assert.Equal(t, env.Code, http.StatusBadRequest)
		})
	}
}

// TestCertificateMutations creates, updates and deletes through the API
func TestCertificateMutations(t *testing.T) {
	r, database := newTestRouter(t, Options{})

	w := doRequest(r, http.MethodPost, "/api/v1/certificate", `{"name":"  edge  ","domains":["edge.example.com"]}`, "")
	assert.Equal(t, w.Code, http.StatusOK)
	var created models.Certificate
	decode(t, w, &created)
	assert.Equal(t, created.Name, "edge")
	if created.ID == "" {
		t.Fatal("create returned no id")
	}

	w = doRequest(r, http.MethodPut, "/api/v1/certificate/"+created.ID, `{"name":"edge-2","domains":["edge.example.com"]}`, "")
	assert.Equal(t, w.Code, http.StatusOK)
	got, err := database.GetCertificate(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetCertificate() error = %v", err)
	}
	assert.Equal(t, got.Name, "edge-2")

	w = doRequest(r, http.MethodDelete, "/api/v1/certificate/"+created.ID, "", "")
	assert.Equal(t, w.Code, http.StatusOK)

	w = doRequest(r, http.MethodDelete, "/api/v1/certificate/"+created.ID, "", "")
	assert.Equal(t, w.Code, http.StatusNotFound)

	w = doRequest(r, http.MethodPost, "/api/v1/certificate", `{"name":"","domains":[]}`, "")
	assert.Equal(t, w.Code, http.StatusBadRequest)
}

// TestDeleteCertificateInUse answers 409 while a site references it
func TestDeleteCertificateInUse(t *testing.T) {
	r, database := newTestRouter(t, Options{})

	sites, _, err := database.GetSitesFiltered(context.Background(), models.SiteFilter{Limit: 10})
	if err != nil {
		t.Fatalf("GetSitesFiltered() error = %v", err)
	}
	var certID string
	for _, s := range sites {
		if s.CertificateID != "" {
			certID = s.CertificateID
			break
		}
	}
	if certID == "" {
		t.Fatal("seed produced no HTTPS site")
	}

	w := doRequest(r, http.MethodDelete, "/api/v1/certificate/"+certID, "", "")
	assert.Equal(t, w.Code, http.StatusConflict)
}

// TestSiteValidation rejects bad domains and ports
func TestSiteValidation(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"name":"web","domain":"web.example.com","listenPort":80,"servers":[{"host":"10.0.0.2","port":8080}]}`, http.StatusOK},
		{"bad domain", `{"name":"web","domain":"bad domain","listenPort":80}`, http.StatusBadRequest},
		{"bad port", `{"name":"web","domain":"web.example.com","listenPort":0}`, http.StatusBadRequest},
		{"https without cert", `{"name":"web","domain":"web.example.com","listenPort":443,"enableHTTPS":true}`, http.StatusBadRequest},
		{"bad backend", `{"name":"web","domain":"web.example.com","listenPort":80,"servers":[{"host":"","port":8080}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/api/v1/site", tt.body, "")
			assert.Equal(t, w.Code, tt.want)
		})
	}
}

// TestGetAttackLog returns one record and 404 for unknown ids
func TestGetAttackLog(t *testing.T) {
	r, database := newTestRouter(t, Options{})

	logs, _, err := database.GetWAFLogsFiltered(context.Background(), models.WAFLogFilter{Limit: 1})
	if err != nil || len(logs) == 0 {
		t.Fatalf("GetWAFLogsFiltered() = %d logs, error = %v", len(logs), err)
	}

	w := doRequest(r, http.MethodGet, "/api/v1/logs/"+logs[0].ID, "", "")
	assert.Equal(t, w.Code, http.StatusOK)
	var got models.WAFLog
	decode(t, w, &got)
	assert.Equal(t, got.RequestID, logs[0].RequestID)

	w = doRequest(r, http.MethodGet, "/api/v1/logs/missing", "", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
}

// TestNoRoute wraps unknown paths in the envelope
func TestNoRoute(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	w := doRequest(r, http.MethodGet, "/api/v1/nothing", "", "")
	assert.Equal(t, w.Code, http.StatusNotFound)
	env := decode(t, w, nil)
	assert.Equal(t, env.Code, http.StatusNotFound)
}
