package db

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/thesavant42/wafconsole/internal/models"
)

// DemoCounts sizes the demo data set
type DemoCounts struct {
	Certificates int
	Sites        int
	AttackLogs   int
}

var demoDomains = []string{
	"example.com", "shop.example.com", "api.example.org", "portal.example.net", "static.example.co.uk",
}

var demoRules = []struct {
	id       int
	message  string
	payload  string
	severity int
}{
	{942100, "SQL Injection Attack Detected via libinjection", "' OR 1=1 --", 2},
	{941100, "XSS Attack Detected via libinjection", "<script>alert(1)</script>", 2},
	{930120, "OS File Access Attempt", "/etc/passwd", 2},
	{932160, "Remote Command Execution: Unix Shell Code Found", ";cat /etc/shadow", 2},
	{920350, "Host header is a numeric IP address", "10.0.0.5", 4},
}

// SeedDemo fills an empty store with deterministic demo data. Records are spaced one
// minute apart going back from base so list order is stable.
func (db *DB) SeedDemo(ctx context.Context, counts DemoCounts, base time.Time) error {
	rng := rand.New(rand.NewSource(42))
	base = base.UTC().Truncate(time.Second)

	certIDs := make([]string, 0, counts.Certificates)
	for i := 0; i < counts.Certificates; i++ {
		domain := demoDomains[i%len(demoDomains)]
		c := &models.Certificate{
			Name:        fmt.Sprintf("cert-%03d", i+1),
			Description: "demo certificate",
			Domains:     []string{domain, "*." + domain},
			IssuerName:  "Demo CA",
			FingerPrint: fmt.Sprintf("%064x", rng.Uint64()),
			ExpireTime:  base.AddDate(0, 3+i%9, 0),
			CreatedAt:   base.Add(-time.Duration(i) * time.Minute),
		}
		if err := db.InsertCertificate(ctx, c); err != nil {
			return fmt.Errorf("failed to seed certificates: %w", err)
		}
		certIDs = append(certIDs, c.ID)
	}

	for i := 0; i < counts.Sites; i++ {
		s := &models.Site{
			Name:       fmt.Sprintf("site-%03d", i+1),
			Domain:     fmt.Sprintf("app%d.%s", i+1, demoDomains[i%len(demoDomains)]),
			ListenPort: 80,
			Servers: []models.BackendServer{
				{Host: fmt.Sprintf("10.0.%d.%d", i/250, i%250+1), Port: 8080},
			},
			WAFEnabled:   true,
			WAFMode:      "protection",
			ActiveStatus: i%7 != 0,
			CreatedAt:    base.Add(-time.Duration(i) * time.Minute),
		}
		if len(certIDs) > 0 && i%2 == 0 {
			s.EnableHTTPS = true
			s.ListenPort = 443
			s.CertificateID = certIDs[i%len(certIDs)]
		}
		if err := db.InsertSite(ctx, s); err != nil {
			return fmt.Errorf("failed to seed sites: %w", err)
		}
	}

	logs := make([]models.WAFLog, 0, counts.AttackLogs)
	for i := 0; i < counts.AttackLogs; i++ {
		rule := demoRules[rng.Intn(len(demoRules))]
		domain := demoDomains[i%len(demoDomains)]
		logs = append(logs, models.WAFLog{
			RuleID:    rule.id,
			SrcIP:     fmt.Sprintf("203.0.113.%d", i%16+1),
			SrcPort:   30000 + rng.Intn(30000),
			DstIP:     "10.0.0.10",
			DstPort:   443,
			Domain:    domain,
			URI:       fmt.Sprintf("/search?q=%d", i),
			RequestID: fmt.Sprintf("req-%06d", i+1),
			Message:   rule.message,
			Payload:   rule.payload,
			Severity:  rule.severity,
			Request:   fmt.Sprintf("GET /search?q=%d HTTP/1.1\r\nHost: %s\r\n\r\n", i, domain),
			Logs: []models.RuleLog{
				{RuleID: rule.id, Message: rule.message, Payload: rule.payload, Severity: rule.severity, Phase: 2},
			},
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	if _, err := db.InsertWAFLogs(ctx, logs); err != nil {
		return fmt.Errorf("failed to seed attack logs: %w", err)
	}
	return nil
}
