package ui

// columns.go provides column width calculation for bubbles/table and the row
// renderers of each list.

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/thesavant42/wafconsole/internal/models"
)

// ColumnSpec defines a table column with flexible or fixed width.
// Use FlexRatio for columns that should expand/contract with terminal width.
// Use FixedWidth for columns that should maintain constant width.
type ColumnSpec struct {
	Title      string
	MinWidth   int // Minimum width (0 = no minimum)
	FixedWidth int // If > 0, use this exact width (ignores FlexRatio)
	FlexRatio  int // Relative ratio for flexible columns
}

// CalculateColumns computes column widths from specs.
// Flexible columns split the space left after fixed columns by ratio, respecting minimums.
func CalculateColumns(specs []ColumnSpec, totalWidth int) []table.Column {
	if totalWidth < 50 {
		totalWidth = 50
	}

	// bubbles/table pads every cell with one space on each side
	totalWidth -= 2 * len(specs)

	fixedTotal := 0
	flexTotal := 0
	for _, s := range specs {
		if s.FixedWidth > 0 {
			fixedTotal += s.FixedWidth
		} else {
			flexTotal += s.FlexRatio
		}
	}
	remaining := max(totalWidth-fixedTotal, 0)

	columns := make([]table.Column, len(specs))
	for i, s := range specs {
		var width int
		if s.FixedWidth > 0 {
			width = s.FixedWidth
		} else if flexTotal > 0 {
			width = remaining * s.FlexRatio / flexTotal
		}
		if s.MinWidth > 0 && width < s.MinWidth {
			width = s.MinWidth
		}
		columns[i] = table.Column{Title: s.Title, Width: width}
	}
	return columns
}

const (
	dateLayout  = "2006-01-02"
	stampLayout = "2006-01-02 15:04:05"
)

// CertificateColumns returns column specs for the certificate list
func CertificateColumns() []ColumnSpec {
	return []ColumnSpec{
		{Title: "Name", FlexRatio: 25, MinWidth: 12},
		{Title: "Domains", FlexRatio: 45, MinWidth: 20},
		{Title: "Issuer", FlexRatio: 30, MinWidth: 12},
		{Title: "Expires", FixedWidth: 10},
		{Title: "Days", FixedWidth: 5},
	}
}

// CertificateRow renders one certificate relative to now
func CertificateRow(c models.Certificate, now time.Time) table.Row {
	expires, days := "-", "-"
	if !c.ExpireTime.IsZero() {
		expires = c.ExpireTime.UTC().Format(dateLayout)
		days = strconv.Itoa(int(c.ExpireTime.Sub(now).Hours() / 24))
	}
	return table.Row{c.Name, strings.Join(c.Domains, ", "), c.IssuerName, expires, days}
}

// SiteColumns returns column specs for the site list
func SiteColumns() []ColumnSpec {
	return []ColumnSpec{
		{Title: "Name", FlexRatio: 20, MinWidth: 10},
		{Title: "Domain", FlexRatio: 35, MinWidth: 20},
		{Title: "Port", FixedWidth: 5},
		{Title: "HTTPS", FixedWidth: 5},
		{Title: "Backends", FlexRatio: 30, MinWidth: 15},
		{Title: "Mode", FixedWidth: 10},
		{Title: "Status", FixedWidth: 8},
	}
}

// SiteRow renders one site
func SiteRow(s models.Site) table.Row {
	backends := make([]string, 0, len(s.Servers))
	for _, srv := range s.Servers {
		scheme := "http"
		if srv.IsSSL {
			scheme = "https"
		}
		backends = append(backends, scheme+"://"+srv.Host+":"+strconv.Itoa(srv.Port))
	}
	mode := s.WAFMode
	if !s.WAFEnabled {
		mode = "off"
	}
	status := "inactive"
	if s.ActiveStatus {
		status = "active"
	}
	return table.Row{s.Name, s.Domain, strconv.Itoa(s.ListenPort), yesNo(s.EnableHTTPS), strings.Join(backends, ", "), mode, status}
}

// AttackLogColumns returns column specs for the attack log list
func AttackLogColumns() []ColumnSpec {
	return []ColumnSpec{
		{Title: "Time", FixedWidth: 19},
		{Title: "Rule", FixedWidth: 7},
		{Title: "Source", FixedWidth: 21},
		{Title: "Target", FlexRatio: 40, MinWidth: 20},
		{Title: "Message", FlexRatio: 60, MinWidth: 20},
	}
}

// AttackLogRow renders one attack log record
func AttackLogRow(l models.WAFLog) table.Row {
	return table.Row{
		l.CreatedAt.UTC().Format(stampLayout),
		strconv.Itoa(l.RuleID),
		l.SrcIP + ":" + strconv.Itoa(l.SrcPort),
		l.Target(),
		l.Message,
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
