package db

import (
	"context"
	"fmt"

	"github.com/thesavant42/wafconsole/internal/models"
	"github.com/thesavant42/wafconsole/internal/resources"
)

func limitOffset(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}

// CertificateFilterFor translates list criteria into a certificate query
func CertificateFilterFor(c models.FilterCriteria, page, pageSize int) models.CertificateFilter {
	limit, offset := limitOffset(page, pageSize)
	return models.CertificateFilter{
		Name:   c.Get(resources.FieldName),
		Domain: c.Get(resources.FieldDomain),
		Limit:  limit,
		Offset: offset,
	}
}

// SiteFilterFor translates list criteria into a site query
func SiteFilterFor(c models.FilterCriteria, page, pageSize int) models.SiteFilter {
	limit, offset := limitOffset(page, pageSize)
	return models.SiteFilter{
		Name:   c.Get(resources.FieldName),
		Domain: c.Get(resources.FieldDomain),
		Limit:  limit,
		Offset: offset,
	}
}

// WAFLogFilterFor translates list criteria into an attack log query
func WAFLogFilterFor(c models.FilterCriteria, page, pageSize int) models.WAFLogFilter {
	limit, offset := limitOffset(page, pageSize)
	return models.WAFLogFilter{
		RuleID:    int(c[resources.FieldRuleID].Int),
		SrcIP:     c.Get(resources.FieldSrcIP),
		DstIP:     c.Get(resources.FieldDstIP),
		Domain:    c.Get(resources.FieldDomain),
		SrcPort:   int(c[resources.FieldSrcPort].Int),
		DstPort:   int(c[resources.FieldDstPort].Int),
		RequestID: c.Get(resources.FieldRequestID),
		StartTime: c[resources.FieldStartTime].Time,
		EndTime:   c[resources.FieldEndTime].Time,
		Limit:     limit,
		Offset:    offset,
	}
}

// CertificateFetcher serves the certificate lists from the local store
type CertificateFetcher struct {
	DB *DB
}

func (f CertificateFetcher) FetchPage(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) ([]models.Certificate, int, error) {
	if resource != resources.Certificates {
		return nil, 0, fmt.Errorf("certificate store cannot serve %q", resource)
	}
	return f.DB.GetCertificatesFiltered(ctx, CertificateFilterFor(criteria, page, pageSize))
}

// SiteFetcher serves the site list from the local store
type SiteFetcher struct {
	DB *DB
}

func (f SiteFetcher) FetchPage(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) ([]models.Site, int, error) {
	if resource != resources.Sites {
		return nil, 0, fmt.Errorf("site store cannot serve %q", resource)
	}
	return f.DB.GetSitesFiltered(ctx, SiteFilterFor(criteria, page, pageSize))
}

// AttackLogFetcher serves the attack log list from the local store
type AttackLogFetcher struct {
	DB *DB
}

func (f AttackLogFetcher) FetchPage(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) ([]models.WAFLog, int, error) {
	if resource != resources.AttackLogs {
		return nil, 0, fmt.Errorf("attack log store cannot serve %q", resource)
	}
	return f.DB.GetWAFLogsFiltered(ctx, WAFLogFilterFor(criteria, page, pageSize))
}
