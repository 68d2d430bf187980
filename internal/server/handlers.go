package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/thesavant42/wafconsole/internal/db"
	"github.com/thesavant42/wafconsole/internal/listing"
	"github.com/thesavant42/wafconsole/internal/models"
	"github.com/thesavant42/wafconsole/internal/resources"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type handlers struct {
	db     *db.DB
	logger *log.Logger
	opts   Options
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) login(c *gin.Context) {
	if h.opts.AdminUser == "" || len(h.opts.AdminPasswordHash) == 0 || len(h.opts.JWTSecret) == 0 {
		fail(c, http.StatusNotFound, "login is disabled")
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid login payload")
		return
	}
	if req.Username != h.opts.AdminUser ||
		bcrypt.CompareHashAndPassword(h.opts.AdminPasswordHash, []byte(req.Password)) != nil {
		fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := IssueToken(h.opts.JWTSecret, req.Username, h.opts.TokenTTL)
	if err != nil {
		h.logger.Error("failed to sign token", "error", err)
		fail(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	ok(c, gin.H{"token": token})
}

// listParams parses page, pageSize and the resource's filter fields
func listParams(c *gin.Context, schema listing.Schema) (models.FilterCriteria, int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		fail(c, http.StatusBadRequest, "page must be a positive integer")
		return nil, 0, 0, false
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		fail(c, http.StatusBadRequest, "pageSize must be between 1 and 100")
		return nil, 0, 0, false
	}

	raw := make(map[string]string)
	for _, field := range schema.FieldNames() {
		if v := c.Query(field); v != "" {
			raw[field] = v
		}
	}
	criteria, err := schema.ParseAll(raw)
	if err == nil {
		err = schema.Validate(criteria)
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return nil, 0, 0, false
	}
	return criteria, page, pageSize, true
}

func (h *handlers) storeError(c *gin.Context, what string, err error) {
	switch {
	case db.IsNotFound(err):
		fail(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, db.ErrInUse):
		fail(c, http.StatusConflict, err.Error())
	default:
		h.logger.Error("store failure", "request_id", GetRequestID(c), "what", what, "error", err)
		fail(c, http.StatusInternalServerError, "failed to access "+what)
	}
}

// Certificates

func (h *handlers) listCertificates(c *gin.Context) {
	criteria, page, pageSize, valid := listParams(c, resources.CertificateSchema)
	if !valid {
		return
	}
	items, total, err := h.db.GetCertificatesFiltered(c.Request.Context(), db.CertificateFilterFor(criteria, page, pageSize))
	if err != nil {
		h.storeError(c, "certificates", err)
		return
	}
	ok(c, models.ListResult[models.Certificate]{Items: items, Total: total})
}

func validateCertificate(cert *models.Certificate) string {
	cert.Name = strings.TrimSpace(cert.Name)
	if cert.Name == "" {
		return "name is required"
	}
	for _, d := range cert.Domains {
		if _, err := resources.Hostname(d); err != nil {
			return "invalid domain " + strconv.Quote(d)
		}
	}
	return ""
}

func (h *handlers) createCertificate(c *gin.Context) {
	var cert models.Certificate
	if err := c.ShouldBindJSON(&cert); err != nil {
		fail(c, http.StatusBadRequest, "invalid certificate payload")
		return
	}
	if msg := validateCertificate(&cert); msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}
	cert.ID = ""
	if err := h.db.InsertCertificate(c.Request.Context(), &cert); err != nil {
		h.storeError(c, "certificate", err)
		return
	}
	ok(c, cert)
}

func (h *handlers) updateCertificate(c *gin.Context) {
	var cert models.Certificate
	if err := c.ShouldBindJSON(&cert); err != nil {
		fail(c, http.StatusBadRequest, "invalid certificate payload")
		return
	}
	if msg := validateCertificate(&cert); msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}
	cert.ID = c.Param("id")
	if err := h.db.UpdateCertificate(c.Request.Context(), &cert); err != nil {
		h.storeError(c, "certificate", err)
		return
	}
	ok(c, cert)
}

func (h *handlers) deleteCertificate(c *gin.Context) {
	if err := h.db.DeleteCertificate(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, "certificate", err)
		return
	}
	ok(c, nil)
}

// Sites

func (h *handlers) listSites(c *gin.Context) {
	criteria, page, pageSize, valid := listParams(c, resources.SiteSchema)
	if !valid {
		return
	}
	items, total, err := h.db.GetSitesFiltered(c.Request.Context(), db.SiteFilterFor(criteria, page, pageSize))
	if err != nil {
		h.storeError(c, "sites", err)
		return
	}
	ok(c, models.ListResult[models.Site]{Items: items, Total: total})
}

func validateSite(site *models.Site) string {
	site.Name = strings.TrimSpace(site.Name)
	if site.Name == "" {
		return "name is required"
	}
	host, err := resources.Hostname(site.Domain)
	if err != nil {
		return "invalid domain"
	}
	site.Domain = host
	if site.ListenPort < 1 || site.ListenPort > 65535 {
		return "listenPort must be between 1 and 65535"
	}
	if site.EnableHTTPS && site.CertificateID == "" {
		return "certificateId is required when HTTPS is enabled"
	}
	for _, s := range site.Servers {
		if s.Host == "" || s.Port < 1 || s.Port > 65535 {
			return "invalid backend server"
		}
	}
	return ""
}

func (h *handlers) createSite(c *gin.Context) {
	var site models.Site
	if err := c.ShouldBindJSON(&site); err != nil {
		fail(c, http.StatusBadRequest, "invalid site payload")
		return
	}
	if msg := validateSite(&site); msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}
	site.ID = ""
	if err := h.db.InsertSite(c.Request.Context(), &site); err != nil {
		h.storeError(c, "site", err)
		return
	}
	ok(c, site)
}

func (h *handlers) updateSite(c *gin.Context) {
	var site models.Site
	if err := c.ShouldBindJSON(&site); err != nil {
		fail(c, http.StatusBadRequest, "invalid site payload")
		return
	}
	if msg := validateSite(&site); msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}
	site.ID = c.Param("id")
	if err := h.db.UpdateSite(c.Request.Context(), &site); err != nil {
		h.storeError(c, "site", err)
		return
	}
	ok(c, site)
}

func (h *handlers) deleteSite(c *gin.Context) {
	if err := h.db.DeleteSite(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, "site", err)
		return
	}
	ok(c, nil)
}

// Attack logs

func (h *handlers) listAttackLogs(c *gin.Context) {
	criteria, page, pageSize, valid := listParams(c, resources.AttackLogSchema)
	if !valid {
		return
	}
	items, total, err := h.db.GetWAFLogsFiltered(c.Request.Context(), db.WAFLogFilterFor(criteria, page, pageSize))
	if err != nil {
		h.storeError(c, "attack logs", err)
		return
	}
	ok(c, models.NewLogPage(items, total, page, pageSize))
}

func (h *handlers) getAttackLog(c *gin.Context) {
	l, err := h.db.GetWAFLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, "attack log", err)
		return
	}
	ok(c, l)
}
