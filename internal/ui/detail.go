package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thesavant42/wafconsole/internal/models"
)

// attackLogLoadedMsg carries the full record behind a selected attack-log row
type attackLogLoadedMsg struct {
	id  string
	log *models.WAFLog
	err error
}

// attackLogDetail shows one attack log with its request and matched rules
type attackLogDetail struct {
	id      string
	log     *models.WAFLog
	loading bool
	err     error
	scroll  int
}

func (d *attackLogDetail) loaded(msg attackLogLoadedMsg) {
	if msg.id != d.id {
		return
	}
	d.loading = false
	if msg.err != nil {
		d.err = msg.err
		return
	}
	d.log = msg.log
}

// handleKey scrolls the detail and reports whether it should close
func (d *attackLogDetail) handleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "esc", "q", "enter":
		return true
	case "up", "k":
		if d.scroll > 0 {
			d.scroll--
		}
	case "down", "j":
		d.scroll++
	case "g", "home":
		d.scroll = 0
	}
	return false
}

func (d *attackLogDetail) render(layout Layout) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(" Attack log " + d.id))
	b.WriteString("\n")
	b.WriteString(Divider(layout.InnerWidth - 2))
	b.WriteString("\n\n")

	switch {
	case d.loading && d.log == nil:
		b.WriteString(RenderProgress(" loading..."))
		return b.String()
	case d.err != nil && d.log == nil:
		b.WriteString(RenderError(" " + d.err.Error()))
		return b.String()
	}
	if d.err != nil {
		b.WriteString(RenderError(" full record unavailable: " + d.err.Error()))
		b.WriteString("\n\n")
	}

	lines := detailLines(d.log, layout.InnerWidth-6)
	maxLines := layout.TableHeight - 4
	if maxLines < 5 {
		maxLines = 5
	}
	start := d.scroll
	if start > len(lines)-1 {
		start = len(lines) - 1
	}
	if start < 0 {
		start = 0
	}
	d.scroll = start
	end := start + maxLines
	if end > len(lines) {
		end = len(lines)
	}
	for _, line := range lines[start:end] {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(lines) > maxLines {
		b.WriteString(RenderDim(fmt.Sprintf("   [%d-%d of %d lines]", start+1, end, len(lines))))
		b.WriteString("\n")
	}
	return b.String()
}

func detailLines(l *models.WAFLog, width int) []string {
	if width < 40 {
		width = 40
	}
	field := func(label, value string) string {
		return RenderDim(fmt.Sprintf(" %-10s ", label+":")) + RenderNormal(value)
	}

	lines := []string{
		field("Time", l.CreatedAt.UTC().Format(time.RFC3339)),
		field("Rule", strconv.Itoa(l.RuleID)),
		field("Severity", strconv.Itoa(l.Severity)),
		field("Source", fmt.Sprintf("%s:%d", l.SrcIP, l.SrcPort)),
		field("Target", l.Target()),
		field("Request", l.RequestID),
		field("Message", l.Message),
	}
	if l.Payload != "" {
		lines = append(lines, field("Payload", l.Payload))
	}

	block := func(title, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		lines = append(lines, "", RenderAccent(" "+title))
		for _, line := range strings.Split(wrapText(text, width), "\n") {
			lines = append(lines, "   "+RenderNormal(line))
		}
	}
	block("Request", l.Request)
	block("Response", l.Response)

	if len(l.Logs) > 0 {
		lines = append(lines, "", RenderAccent(fmt.Sprintf(" Matched rules (%d)", len(l.Logs))))
		for _, r := range l.Logs {
			lines = append(lines, "   "+RenderNormal(fmt.Sprintf("%d [%d] %s", r.RuleID, r.Severity, r.Message)))
			if r.Payload != "" {
				lines = append(lines, "     "+RenderDim(r.Payload))
			}
		}
	}
	return lines
}

// wrapText breaks text on whitespace so no line exceeds width runes
func wrapText(text string, width int) string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for len([]rune(word)) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				r := []rune(word)
				out = append(out, string(r[:width]))
				word = string(r[width:])
			}
			switch {
			case line == "":
				line = word
			case len([]rune(line))+1+len([]rune(word)) > width:
				out = append(out, line)
				line = word
			default:
				line += " " + word
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
