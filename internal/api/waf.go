package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/thesavant42/wafconsole/internal/models"
	"github.com/thesavant42/wafconsole/internal/resources"
)

// ListQuery builds the query string for one page of a list
func ListQuery(criteria models.FilterCriteria, page, pageSize int) url.Values {
	q := url.Values{}
	for _, field := range criteria.Fields() {
		q.Set(field, criteria[field].String())
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	return q
}

// ListCertificates fetches one page of certificates
func (c *Client) ListCertificates(ctx context.Context, criteria models.FilterCriteria, page, pageSize int) ([]models.Certificate, int, error) {
	var out models.ListResult[models.Certificate]
	if err := c.do(ctx, http.MethodGet, "/certificate", ListQuery(criteria, page, pageSize), nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

// CreateCertificate uploads a certificate and returns the stored record
func (c *Client) CreateCertificate(ctx context.Context, cert models.Certificate) (*models.Certificate, error) {
	var out models.Certificate
	if err := c.do(ctx, http.MethodPost, "/certificate", nil, cert, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCertificate replaces the editable fields of a certificate
func (c *Client) UpdateCertificate(ctx context.Context, cert models.Certificate) error {
	if cert.ID == "" {
		return fmt.Errorf("certificate id is required")
	}
	return c.do(ctx, http.MethodPut, "/certificate/"+url.PathEscape(cert.ID), nil, cert, nil)
}

// DeleteCertificate removes a certificate
func (c *Client) DeleteCertificate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/certificate/"+url.PathEscape(id), nil, nil, nil)
}

// ListSites fetches one page of sites
func (c *Client) ListSites(ctx context.Context, criteria models.FilterCriteria, page, pageSize int) ([]models.Site, int, error) {
	var out models.ListResult[models.Site]
	if err := c.do(ctx, http.MethodGet, "/site", ListQuery(criteria, page, pageSize), nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

// CreateSite creates a site and returns the stored record
func (c *Client) CreateSite(ctx context.Context, site models.Site) (*models.Site, error) {
	var out models.Site
	if err := c.do(ctx, http.MethodPost, "/site", nil, site, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSite replaces the editable fields of a site
func (c *Client) UpdateSite(ctx context.Context, site models.Site) error {
	if site.ID == "" {
		return fmt.Errorf("site id is required")
	}
	return c.do(ctx, http.MethodPut, "/site/"+url.PathEscape(site.ID), nil, site, nil)
}

// DeleteSite removes a site
func (c *Client) DeleteSite(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/site/"+url.PathEscape(id), nil, nil, nil)
}

// ListAttackLogs fetches one page of attack logs
func (c *Client) ListAttackLogs(ctx context.Context, criteria models.FilterCriteria, page, pageSize int) (*models.LogPage, error) {
	var out models.LogPage
	if err := c.do(ctx, http.MethodGet, "/logs", ListQuery(criteria, page, pageSize), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAttackLog fetches one attack log with its request, response and rule matches
func (c *Client) GetAttackLog(ctx context.Context, id string) (*models.WAFLog, error) {
	var out models.WAFLog
	if err := c.do(ctx, http.MethodGet, "/logs/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CertificateFetcher pages certificates over the API
type CertificateFetcher struct {
	Client *Client
}

func (f CertificateFetcher) FetchPage(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) ([]models.Certificate, int, error) {
	if resource != resources.Certificates {
		return nil, 0, fmt.Errorf("certificate endpoint cannot serve %q", resource)
	}
	return f.Client.ListCertificates(ctx, criteria, page, pageSize)
}

// SiteFetcher pages sites over the API
type SiteFetcher struct {
	Client *Client
}

func (f SiteFetcher) FetchPage(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) ([]models.Site, int, error) {
	if resource != resources.Sites {
		return nil, 0, fmt.Errorf("site endpoint cannot serve %q", resource)
	}
	return f.Client.ListSites(ctx, criteria, page, pageSize)
}

// AttackLogFetcher pages attack logs over the API
type AttackLogFetcher struct {
	Client *Client
}

func (f AttackLogFetcher) FetchPage(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) ([]models.WAFLog, int, error) {
	if resource != resources.AttackLogs {
		return nil, 0, fmt.Errorf("attack log endpoint cannot serve %q", resource)
	}
	out, err := f.Client.ListAttackLogs(ctx, criteria, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return out.Results, out.TotalCount, nil
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token and keeps it for later requests.
// Call it before the client is shared with page fetches.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login returned no token")
	}
	c.token = out.Token
	return out.Token, nil
}
