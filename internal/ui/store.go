package ui

import (
	"context"

	"github.com/thesavant42/wafconsole/internal/api"
	"github.com/thesavant42/wafconsole/internal/db"
	"github.com/thesavant42/wafconsole/internal/models"
)

// Store performs the mutations the console offers and loads single records
type Store interface {
	CreateCertificate(ctx context.Context, c models.Certificate) error
	UpdateCertificate(ctx context.Context, c models.Certificate) error
	DeleteCertificate(ctx context.Context, id string) error
	CreateSite(ctx context.Context, s models.Site) error
	UpdateSite(ctx context.Context, s models.Site) error
	DeleteSite(ctx context.Context, id string) error
	GetAttackLog(ctx context.Context, id string) (*models.WAFLog, error)
}

// APIStore mutates through the WAF API
type APIStore struct {
	Client *api.Client
}

func (s APIStore) CreateCertificate(ctx context.Context, c models.Certificate) error {
	_, err := s.Client.CreateCertificate(ctx, c)
	return err
}

func (s APIStore) UpdateCertificate(ctx context.Context, c models.Certificate) error {
	return s.Client.UpdateCertificate(ctx, c)
}

func (s APIStore) DeleteCertificate(ctx context.Context, id string) error {
	return s.Client.DeleteCertificate(ctx, id)
}

func (s APIStore) CreateSite(ctx context.Context, site models.Site) error {
	_, err := s.Client.CreateSite(ctx, site)
	return err
}

func (s APIStore) UpdateSite(ctx context.Context, site models.Site) error {
	return s.Client.UpdateSite(ctx, site)
}

func (s APIStore) DeleteSite(ctx context.Context, id string) error {
	return s.Client.DeleteSite(ctx, id)
}

func (s APIStore) GetAttackLog(ctx context.Context, id string) (*models.WAFLog, error) {
	return s.Client.GetAttackLog(ctx, id)
}

// DBStore mutates the local SQLite store
type DBStore struct {
	DB *db.DB
}

func (s DBStore) CreateCertificate(ctx context.Context, c models.Certificate) error {
	return s.DB.InsertCertificate(ctx, &c)
}

func (s DBStore) UpdateCertificate(ctx context.Context, c models.Certificate) error {
	return s.DB.UpdateCertificate(ctx, &c)
}

func (s DBStore) DeleteCertificate(ctx context.Context, id string) error {
	return s.DB.DeleteCertificate(ctx, id)
}

func (s DBStore) CreateSite(ctx context.Context, site models.Site) error {
	return s.DB.InsertSite(ctx, &site)
}

func (s DBStore) UpdateSite(ctx context.Context, site models.Site) error {
	return s.DB.UpdateSite(ctx, &site)
}

func (s DBStore) DeleteSite(ctx context.Context, id string) error {
	return s.DB.DeleteSite(ctx, id)
}

func (s DBStore) GetAttackLog(ctx context.Context, id string) (*models.WAFLog, error) {
	return s.DB.GetWAFLog(ctx, id)
}
