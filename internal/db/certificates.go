package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thesavant42/wafconsole/internal/models"
)

// InsertCertificate stores c, assigning an id and creation time when missing
func (db *DB) InsertCertificate(ctx context.Context, c *models.Certificate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := db.conn.ExecContext(ctx, insertCertificate,
		c.ID,
		c.Name,
		c.Description,
		strings.Join(c.Domains, ","),
		c.IssuerName,
		c.FingerPrint,
		formatTime(c.ExpireTime),
		c.PublicKey,
		c.PrivateKey,
		formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert certificate: %w", err)
	}
	return nil
}

// UpdateCertificate overwrites the editable fields of an existing certificate
func (db *DB) UpdateCertificate(ctx context.Context, c *models.Certificate) error {
	result, err := db.conn.ExecContext(ctx, updateCertificate,
		c.Name,
		c.Description,
		strings.Join(c.Domains, ","),
		c.IssuerName,
		c.FingerPrint,
		formatTime(c.ExpireTime),
		c.PublicKey,
		c.PrivateKey,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update certificate: %w", err)
	}
	return checkAffected(result, "certificate "+c.ID)
}

// DeleteCertificate removes a certificate that no site references
func (db *DB) DeleteCertificate(ctx context.Context, id string) error {
	var used int
	if err := db.conn.QueryRowContext(ctx, selectSitesByCertificate, id).Scan(&used); err != nil {
		return fmt.Errorf("failed to check certificate usage: %w", err)
	}
	if used > 0 {
		return fmt.Errorf("certificate %s is bound to %d site(s): %w", id, used, ErrInUse)
	}

	result, err := db.conn.ExecContext(ctx, deleteCertificate, id)
	if err != nil {
		return fmt.Errorf("failed to delete certificate: %w", err)
	}
	return checkAffected(result, "certificate "+id)
}

// GetCertificate returns one certificate or ErrNotFound
func (db *DB) GetCertificate(ctx context.Context, id string) (*models.Certificate, error) {
	rows, err := db.conn.QueryContext(ctx, selectCertificate, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificate: %w", err)
	}
	defer rows.Close()

	certs, err := scanCertificates(rows)
	if err != nil {
		return nil, err
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("certificate %s: %w", id, ErrNotFound)
	}
	return &certs[0], nil
}

// GetCertificatesFiltered returns one page of certificates and the total matching count
func (db *DB) GetCertificatesFiltered(ctx context.Context, filter models.CertificateFilter) ([]models.Certificate, int, error) {
	namePattern := likePattern(filter.Name)
	domainPattern := likePattern(filter.Domain)

	// Get total count first
	var total int
	err := db.conn.QueryRowContext(ctx, selectCertificateCountFiltered,
		namePattern, namePattern, domainPattern, domainPattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count certificates: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, selectCertificatesByFilter,
		namePattern, namePattern, domainPattern, domainPattern,
		filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query certificates: %w", err)
	}
	defer rows.Close()

	certs, err := scanCertificates(rows)
	if err != nil {
		return nil, 0, err
	}
	return certs, total, nil
}

// scanCertificates scans rows into Certificate structs
func scanCertificates(rows *sql.Rows) ([]models.Certificate, error) {
	certs := []models.Certificate{}
	for rows.Next() {
		var c models.Certificate
		var domains, expireTime, createdAt string

		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &domains, &c.IssuerName, &c.FingerPrint,
			&expireTime, &c.PublicKey, &c.PrivateKey, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}

		if domains != "" {
			c.Domains = strings.Split(domains, ",")
		}
		c.ExpireTime, _ = parseTimestamp(expireTime)
		c.CreatedAt, _ = parseTimestamp(createdAt)

		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read certificates: %w", err)
	}
	return certs, nil
}

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
