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

// InsertWAFLogs inserts attack log records in one transaction.
// Uses INSERT OR IGNORE so a repeated id is skipped.
// Returns the number of records actually inserted
func (db *DB) InsertWAFLogs(ctx context.Context, logs []models.WAFLog) (int, error) {
	if len(logs) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertWAFLog)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range logs {
		l := &logs[i]
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = time.Now().UTC().Truncate(time.Second)
		}

		ruleLogs := l.Logs
		if ruleLogs == nil {
			ruleLogs = []models.RuleLog{}
		}
		encoded, err := json.Marshal(ruleLogs)
		if err != nil {
			return 0, fmt.Errorf("failed to encode rule logs of %s: %w", l.ID, err)
		}

		result, err := stmt.ExecContext(ctx,
			l.ID, l.RuleID, l.SrcIP, l.SrcPort, l.DstIP, l.DstPort, l.Domain, l.URI, l.RequestID,
			l.Message, l.Payload, l.Severity, l.Request, l.Response, string(encoded), formatTime(l.CreatedAt),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert attack log %s: %w", l.ID, err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inserted, nil
}

// GetWAFLog returns one attack log record or ErrNotFound
func (db *DB) GetWAFLog(ctx context.Context, id string) (*models.WAFLog, error) {
	rows, err := db.conn.QueryContext(ctx, selectWAFLog, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query attack log: %w", err)
	}
	defer rows.Close()

	logs, err := scanWAFLogs(rows)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("attack log %s: %w", id, ErrNotFound)
	}
	return &logs[0], nil
}

// GetWAFLogsFiltered returns one page of attack logs, newest first, and the total matching count
func (db *DB) GetWAFLogsFiltered(ctx context.Context, filter models.WAFLogFilter) ([]models.WAFLog, int, error) {
	domainPattern := likePattern(filter.Domain)
	start := formatTime(filter.StartTime)
	end := formatTime(filter.EndTime)

	args := []interface{}{
		filter.RuleID, filter.RuleID,
		filter.SrcIP, filter.SrcIP,
		filter.DstIP, filter.DstIP,
		domainPattern, domainPattern,
		filter.SrcPort, filter.SrcPort,
		filter.DstPort, filter.DstPort,
		filter.RequestID, filter.RequestID,
		start, start,
		end, end,
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, selectWAFLogCountFiltered, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attack logs: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, selectWAFLogsByFilter, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attack logs: %w", err)
	}
	defer rows.Close()

	logs, err := scanWAFLogs(rows)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// scanWAFLogs scans rows into WAFLog structs
func scanWAFLogs(rows *sql.Rows) ([]models.WAFLog, error) {
	logs := []models.WAFLog{}
	for rows.Next() {
		var l models.WAFLog
		var ruleLogs, createdAt string

		if err := rows.Scan(
			&l.ID, &l.RuleID, &l.SrcIP, &l.SrcPort, &l.DstIP, &l.DstPort, &l.Domain, &l.URI, &l.RequestID,
			&l.Message, &l.Payload, &l.Severity, &l.Request, &l.Response, &ruleLogs, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attack log: %w", err)
		}

		if err := json.Unmarshal([]byte(ruleLogs), &l.Logs); err != nil {
			return nil, fmt.Errorf("failed to decode rule logs of %s: %w", l.ID, err)
		}
		l.CreatedAt, _ = parseTimestamp(createdAt)

		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attack logs: %w", err)
	}
	return logs, nil
}
