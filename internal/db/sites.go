package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thesavant42/wafconsole/internal/models"
)

// InsertSite stores s, assigning an id and creation time when missing
func (db *DB) InsertSite(ctx context.Context, s *models.Site) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	if s.WAFMode == "" {
		s.WAFMode = "protection"
	}

	servers, err := marshalServers(s.Servers)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx, insertSite,
		s.ID,
		s.Name,
		s.Domain,
		s.ListenPort,
		boolToInt(s.EnableHTTPS),
		s.CertificateID,
		servers,
		boolToInt(s.WAFEnabled),
		s.WAFMode,
		boolToInt(s.ActiveStatus),
		formatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert site: %w", err)
	}
	return nil
}

// UpdateSite overwrites the editable fields of an existing site
func (db *DB) UpdateSite(ctx context.Context, s *models.Site) error {
	servers, err := marshalServers(s.Servers)
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx, updateSite,
		s.Name,
		s.Domain,
		s.ListenPort,
		boolToInt(s.EnableHTTPS),
		s.CertificateID,
		servers,
		boolToInt(s.WAFEnabled),
		s.WAFMode,
		boolToInt(s.ActiveStatus),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update site: %w", err)
	}
	return checkAffected(result, "site "+s.ID)
}

// DeleteSite removes a site
func (db *DB) DeleteSite(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, deleteSite, id)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return checkAffected(result, "site "+id)
}

// GetSite returns one site or ErrNotFound
func (db *DB) GetSite(ctx context.Context, id string) (*models.Site, error) {
	rows, err := db.conn.QueryContext(ctx, selectSite, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query site: %w", err)
	}
	defer rows.Close()

	sites, err := scanSites(rows)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	return &sites[0], nil
}

// GetSitesFiltered returns one page of sites and the total matching count
func (db *DB) GetSitesFiltered(ctx context.Context, filter models.SiteFilter) ([]models.Site, int, error) {
	namePattern := likePattern(filter.Name)
	domainPattern := likePattern(filter.Domain)

	var total int
	err := db.conn.QueryRowContext(ctx, selectSiteCountFiltered,
		namePattern, namePattern, domainPattern, domainPattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sites: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, selectSitesByFilter,
		namePattern, namePattern, domainPattern, domainPattern,
		filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	sites, err := scanSites(rows)
	if err != nil {
		return nil, 0, err
	}
	return sites, total, nil
}

func marshalServers(servers []models.BackendServer) (string, error) {
	if servers == nil {
		servers = []models.BackendServer{}
	}
	b, err := json.Marshal(servers)
	if err != nil {
		return "", fmt.Errorf("failed to encode backend servers: %w", err)
	}
	return string(b), nil
}

// scanSites scans rows into Site structs
func scanSites(rows *sql.Rows) ([]models.Site, error) {
	sites := []models.Site{}
	for rows.Next() {
		var s models.Site
		var servers, createdAt string
		var enableHTTPS, wafEnabled, active int

		if err := rows.Scan(
			&s.ID, &s.Name, &s.Domain, &s.ListenPort, &enableHTTPS, &s.CertificateID,
			&servers, &wafEnabled, &s.WAFMode, &active, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}

		if err := json.Unmarshal([]byte(servers), &s.Servers); err != nil {
			return nil, fmt.Errorf("failed to decode backend servers of site %s: %w", s.ID, err)
		}
		s.EnableHTTPS = enableHTTPS != 0
		s.WAFEnabled = wafEnabled != 0
		s.ActiveStatus = active != 0
		s.CreatedAt, _ = parseTimestamp(createdAt)

		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sites: %w", err)
	}
	return sites, nil
}
