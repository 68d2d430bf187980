package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/assert/v2"
	"github.com/thesavant42/wafconsole/internal/models"
	"github.com/thesavant42/wafconsole/internal/resources"
)

var seedBase = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// TestNewCreatesDirectory opens a file database in a new directory
func TestNewCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "waf.db")
	database, err := New(path)
	if err != nil {
		t.Fatalf("New(%q) error = %v", path, err)
	}
	defer database.Close()

	if err := database.InsertCertificate(context.Background(), &models.Certificate{Name: "edge"}); err != nil {
		t.Errorf("InsertCertificate() error = %v", err)
	}
}

// TestCertificateLifecycle inserts, reads, updates and deletes a certificate
func TestCertificateLifecycle(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	c := &models.Certificate{
		Name:       "edge",
		Domains:    []string{"example.com", "*.example.com"},
		IssuerName: "Demo CA",
		ExpireTime: seedBase.AddDate(1, 0, 0),
	}
	if err := database.InsertCertificate(ctx, c); err != nil {
		t.Fatalf("InsertCertificate() error = %v", err)
	}
	if c.ID == "" {
		t.Fatal("InsertCertificate() did not assign an id")
	}

	got, err := database.GetCertificate(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCertificate() error = %v", err)
	}
	assert.Equal(t, got.Domains, []string{"example.com", "*.example.com"})
	assert.Equal(t, got.ExpireTime.Equal(c.ExpireTime), true)

	c.Name = "edge-renewed"
	if err := database.UpdateCertificate(ctx, c); err != nil {
		t.Fatalf("UpdateCertificate() error = %v", err)
	}
	got, _ = database.GetCertificate(ctx, c.ID)
	assert.Equal(t, got.Name, "edge-renewed")

	if err := database.DeleteCertificate(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCertificate() error = %v", err)
	}
	if _, err := database.GetCertificate(ctx, c.ID); !IsNotFound(err) {
		t.Errorf("GetCertificate() after delete error = %v, want not found", err)
	}
	if err := database.DeleteCertificate(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteCertificate() error = %v, want ErrNotFound", err)
	}
}

// TestDeleteCertificateInUse refuses to orphan a site
func TestDeleteCertificateInUse(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	c := &models.Certificate{Name: "edge"}
	_ = database.InsertCertificate(ctx, c)
	s := &models.Site{Name: "shop", Domain: "shop.example.com", ListenPort: 443, EnableHTTPS: true, CertificateID: c.ID}
	if err := database.InsertSite(ctx, s); err != nil {
		t.Fatalf("InsertSite() error = %v", err)
	}

	if err := database.DeleteCertificate(ctx, c.ID); !errors.Is(err, ErrInUse) {
		t.Errorf("DeleteCertificate() error = %v, want ErrInUse", err)
	}

	_ = database.DeleteSite(ctx, s.ID)
	if err := database.DeleteCertificate(ctx, c.ID); err != nil {
		t.Errorf("DeleteCertificate() after site removal error = %v", err)
	}
}

// TestSiteLifecycle keeps backend servers and flags
func TestSiteLifecycle(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	s := &models.Site{
		Name:       "shop",
		Domain:     "shop.example.com",
		ListenPort: 80,
		Servers:    []models.BackendServer{{Host: "10.0.0.2", Port: 8080}, {Host: "10.0.0.3", Port: 8443, IsSSL: true}},
		WAFEnabled: true,
	}
	if err := database.InsertSite(ctx, s); err != nil {
		t.Fatalf("InsertSite() error = %v", err)
	}

	got, err := database.GetSite(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSite() error = %v", err)
	}
	assert.Equal(t, got.Servers, s.Servers)
	assert.Equal(t, got.WAFEnabled, true)
	assert.Equal(t, got.WAFMode, "protection")

	s.ListenPort = 8080
	if err := database.UpdateSite(ctx, s); err != nil {
		t.Fatalf("UpdateSite() error = %v", err)
	}
	got, _ = database.GetSite(ctx, s.ID)
	assert.Equal(t, got.ListenPort, 8080)

	missing := &models.Site{ID: "nope"}
	if err := database.UpdateSite(ctx, missing); !IsNotFound(err) {
		t.Errorf("UpdateSite() of a missing site error = %v, want not found", err)
	}
}

// TestFilteredPaging pages through seeded certificates and sites
func TestFilteredPaging(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	if err := database.SeedDemo(ctx, DemoCounts{Certificates: 45, Sites: 25}, seedBase); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}

	tests := []struct {
		page      int
		wantCount int
	}{
		{1, 20},
		{2, 20},
		{3, 5},
		{4, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("certificates page %d", tt.page), func(t *testing.T) {
			certs, total, err := database.GetCertificatesFiltered(ctx, CertificateFilterFor(nil, tt.page, 20))
			if err != nil {
				t.Fatalf("GetCertificatesFiltered() error = %v", err)
			}
			assert.Equal(t, total, 45)
			assert.Equal(t, len(certs), tt.wantCount)
		})
	}

	// newest first
	certs, _, _ := database.GetCertificatesFiltered(ctx, CertificateFilterFor(nil, 1, 1))
	assert.Equal(t, certs[0].Name, "cert-001")

	criteria := models.FilterCriteria{resources.FieldName: models.StringValue("cert-01")}
	certs, total, err := database.GetCertificatesFiltered(ctx, CertificateFilterFor(criteria, 1, 20))
	assert.Equal(t, err, nil)
	assert.Equal(t, total, 10)
	assert.Equal(t, len(certs), 10)

	sites, total, err := database.GetSitesFiltered(ctx, SiteFilterFor(models.FilterCriteria{
		resources.FieldDomain: models.StringValue("example.org"),
	}, 1, 10))
	assert.Equal(t, err, nil)
	assert.Equal(t, total, 5)
	assert.Equal(t, len(sites), 5)
}

// TestWAFLogFilters narrows attack logs field by field
func TestWAFLogFilters(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	if err := database.SeedDemo(ctx, DemoCounts{AttackLogs: 40}, seedBase); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}

	tests := []struct {
		name     string
		criteria models.FilterCriteria
		want     int
	}{
		{"all", nil, 40},
		{"source ip", models.FilterCriteria{resources.FieldSrcIP: models.StringValue("203.0.113.1")}, 3},
		{"domain", models.FilterCriteria{resources.FieldDomain: models.StringValue("example.com")}, 16},
		{"request id", models.FilterCriteria{resources.FieldRequestID: models.StringValue("req-000001")}, 1},
		{"destination port", models.FilterCriteria{resources.FieldDstPort: models.IntValue(443)}, 40},
		{"other port", models.FilterCriteria{resources.FieldDstPort: models.IntValue(80)}, 0},
		{"time range", models.FilterCriteria{
			resources.FieldStartTime: models.TimeValue(seedBase.Add(-9 * time.Minute)),
			resources.FieldEndTime:   models.TimeValue(seedBase),
		}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := database.GetWAFLogsFiltered(ctx, WAFLogFilterFor(tt.criteria, 1, 10))
			if err != nil {
				t.Fatalf("GetWAFLogsFiltered() error = %v", err)
			}
			assert.Equal(t, total, tt.want)
		})
	}

	logs, _, _ := database.GetWAFLogsFiltered(ctx, WAFLogFilterFor(nil, 1, 1))
	assert.Equal(t, logs[0].RequestID, "req-000001")
	assert.Equal(t, len(logs[0].Logs), 1)

	got, err := database.GetWAFLog(ctx, logs[0].ID)
	assert.Equal(t, err, nil)
	assert.Equal(t, got.Payload, logs[0].Payload)
}

// TestFetchersServeListPages adapts the store to page requests
func TestFetchersServeListPages(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	_ = database.SeedDemo(ctx, DemoCounts{Certificates: 3, Sites: 3, AttackLogs: 40}, seedBase)

	fetcher := AttackLogFetcher{DB: database}
	criteria := models.FilterCriteria{resources.FieldSrcIP: models.StringValue("203.0.113.1")}

	page1, total, err := fetcher.FetchPage(ctx, resources.AttackLogs, criteria, 1, 2)
	assert.Equal(t, err, nil)
	assert.Equal(t, total, 3)
	assert.Equal(t, len(page1), 2)

	page2, _, _ := fetcher.FetchPage(ctx, resources.AttackLogs, criteria, 2, 2)
	assert.Equal(t, len(page2), 1)

	if _, _, err := fetcher.FetchPage(ctx, resources.Sites, nil, 1, 2); err == nil {
		t.Error("attack log fetcher should refuse another resource")
	}

	sites, total, err := SiteFetcher{DB: database}.FetchPage(ctx, resources.Sites, nil, 1, 10)
	assert.Equal(t, err, nil)
	assert.Equal(t, total, 3)
	assert.Equal(t, len(sites), 3)

	certs, _, err := CertificateFetcher{DB: database}.FetchPage(ctx, resources.Certificates, nil, 1, 100)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(certs), 3)
}

// TestCountErrorIsWrapped surfaces driver errors from the count query
func TestCountErrorIsWrapped(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	diskErr := errors.New("disk I/O error")
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM certificates").
		WillReturnError(diskErr)

	_, _, err = FromConn(conn).GetCertificatesFiltered(context.Background(), CertificateFilterFor(nil, 1, 20))
	if !errors.Is(err, diskErr) {
		t.Errorf("GetCertificatesFiltered() error = %v, want wrapped disk error", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// TestDeleteSiteNotFound maps zero affected rows to ErrNotFound
func TestDeleteSiteNotFound(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer conn.Close()

	mock.ExpectExec("DELETE FROM sites").WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = FromConn(conn).DeleteSite(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSite() error = %v, want ErrNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
