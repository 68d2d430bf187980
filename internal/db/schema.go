package db

const createCertificatesTable = `
CREATE TABLE IF NOT EXISTS certificates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    domains TEXT NOT NULL DEFAULT '',
    issuer_name TEXT NOT NULL DEFAULT '',
    fingerprint TEXT NOT NULL DEFAULT '',
    expire_time TEXT NOT NULL DEFAULT '',
    public_key TEXT NOT NULL DEFAULT '',
    private_key TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_certificates_created ON certificates(created_at);
`

const createSitesTable = `
CREATE TABLE IF NOT EXISTS sites (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    domain TEXT NOT NULL,
    listen_port INTEGER NOT NULL,
    enable_https INTEGER NOT NULL DEFAULT 0,
    certificate_id TEXT NOT NULL DEFAULT '',
    servers TEXT NOT NULL DEFAULT '[]',
    waf_enabled INTEGER NOT NULL DEFAULT 1,
    waf_mode TEXT NOT NULL DEFAULT 'protection',
    active_status INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sites_domain ON sites(domain);
CREATE INDEX IF NOT EXISTS idx_sites_created ON sites(created_at);
`

const createWAFLogsTable = `
CREATE TABLE IF NOT EXISTS waf_logs (
    id TEXT PRIMARY KEY,
    rule_id INTEGER NOT NULL DEFAULT 0,
    src_ip TEXT NOT NULL DEFAULT '',
    src_port INTEGER NOT NULL DEFAULT 0,
    dst_ip TEXT NOT NULL DEFAULT '',
    dst_port INTEGER NOT NULL DEFAULT 0,
    domain TEXT NOT NULL DEFAULT '',
    uri TEXT NOT NULL DEFAULT '',
    request_id TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    payload TEXT NOT NULL DEFAULT '',
    severity INTEGER NOT NULL DEFAULT 0,
    request TEXT NOT NULL DEFAULT '',
    response TEXT NOT NULL DEFAULT '',
    logs TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_waf_logs_created ON waf_logs(created_at);
CREATE INDEX IF NOT EXISTS idx_waf_logs_src_ip ON waf_logs(src_ip);
CREATE INDEX IF NOT EXISTS idx_waf_logs_domain ON waf_logs(domain);
`

// Certificates

const insertCertificate = `
INSERT INTO certificates (
    id, name, description, domains, issuer_name, fingerprint,
    expire_time, public_key, private_key, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateCertificate = `
UPDATE certificates SET
    name = ?, description = ?, domains = ?, issuer_name = ?, fingerprint = ?,
    expire_time = ?, public_key = ?, private_key = ?
WHERE id = ?
`

const deleteCertificate = `DELETE FROM certificates WHERE id = ?`

const certificateColumns = `
    id, name, description, domains, issuer_name, fingerprint,
    expire_time, public_key, private_key, created_at
`

const selectCertificate = `SELECT ` + certificateColumns + ` FROM certificates WHERE id = ?`

const certificateFilter = `
WHERE (? = '' OR name LIKE ?)
  AND (? = '' OR domains LIKE ?)
`

const selectCertificateCountFiltered = `SELECT COUNT(*) FROM certificates` + certificateFilter

const selectCertificatesByFilter = `SELECT ` + certificateColumns + ` FROM certificates` + certificateFilter + `
ORDER BY created_at DESC, id
LIMIT ? OFFSET ?
`

// Sites

const insertSite = `
INSERT INTO sites (
    id, name, domain, listen_port, enable_https, certificate_id,
    servers, waf_enabled, waf_mode, active_status, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateSite = `
UPDATE sites SET
    name = ?, domain = ?, listen_port = ?, enable_https = ?, certificate_id = ?,
    servers = ?, waf_enabled = ?, waf_mode = ?, active_status = ?
WHERE id = ?
`

const deleteSite = `DELETE FROM sites WHERE id = ?`

const siteColumns = `
    id, name, domain, listen_port, enable_https, certificate_id,
    servers, waf_enabled, waf_mode, active_status, created_at
`

const selectSite = `SELECT ` + siteColumns + ` FROM sites WHERE id = ?`

const siteFilter = `
WHERE (? = '' OR name LIKE ?)
  AND (? = '' OR domain LIKE ?)
`

const selectSiteCountFiltered = `SELECT COUNT(*) FROM sites` + siteFilter

const selectSitesByFilter = `SELECT ` + siteColumns + ` FROM sites` + siteFilter + `
ORDER BY created_at DESC, id
LIMIT ? OFFSET ?
`

const selectSitesByCertificate = `SELECT COUNT(*) FROM sites WHERE certificate_id = ?`

// Attack logs

const insertWAFLog = `
INSERT OR IGNORE INTO waf_logs (
    id, rule_id, src_ip, src_port, dst_ip, dst_port, domain, uri, request_id,
    message, payload, severity, request, response, logs, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const wafLogColumns = `
    id, rule_id, src_ip, src_port, dst_ip, dst_port, domain, uri, request_id,
    message, payload, severity, request, response, logs, created_at
`

const selectWAFLog = `SELECT ` + wafLogColumns + ` FROM waf_logs WHERE id = ?`

const wafLogFilter = `
WHERE (? = 0 OR rule_id = ?)
  AND (? = '' OR src_ip = ?)
  AND (? = '' OR dst_ip = ?)
  AND (? = '' OR domain LIKE ?)
  AND (? = 0 OR src_port = ?)
  AND (? = 0 OR dst_port = ?)
  AND (? = '' OR request_id = ?)
  AND (? = '' OR created_at >= ?)
  AND (? = '' OR created_at <= ?)
`

const selectWAFLogCountFiltered = `SELECT COUNT(*) FROM waf_logs` + wafLogFilter

const selectWAFLogsByFilter = `SELECT ` + wafLogColumns + ` FROM waf_logs` + wafLogFilter + `
ORDER BY created_at DESC, id
LIMIT ? OFFSET ?
`
