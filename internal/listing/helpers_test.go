package listing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thesavant42/wafconsole/internal/models"
)

var errBackendDown = errors.New("backend down")

type fetchCall struct {
	resource string
	criteria models.FilterCriteria
	page     int
	pageSize int
	deadline bool
}

// fakeFetcher serves total numbered rows, prefixed with the "name" criterion so results of
// different identities can be told apart.
type fakeFetcher struct {
	total  int
	failOn map[int]error // page -> error
	calls  []fetchCall
}

func (f *fakeFetcher) FetchPage(ctx context.Context, resource string, criteria models.FilterCriteria, page, pageSize int) ([]string, int, error) {
	_, deadline := ctx.Deadline()
	f.calls = append(f.calls, fetchCall{resource, criteria.Clone(), page, pageSize, deadline})

	if err, ok := f.failOn[page]; ok && err != nil {
		return nil, 0, err
	}

	prefix := criteria.Get("name")
	if prefix == "" {
		prefix = "row"
	}
	start := (page - 1) * pageSize
	if start >= f.total {
		return []string{}, f.total, nil
	}
	end := min(start+pageSize, f.total)
	items := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		items = append(items, prefix+"-"+strconv.Itoa(i+1))
	}
	return items, f.total, nil
}

// drain runs cmd and everything it leads to, feeding each message to update
func drain(cmd tea.Cmd, update func(tea.Msg) tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if msg == nil {
			continue
		}
		queue = append(queue, update(msg))
	}
}

// collect runs cmd and returns the messages it produces without applying them
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func nameQuery(name string, pageSize int) Query {
	c := models.FilterCriteria{}
	if name != "" {
		c["name"] = models.StringValue(name)
	}
	return NewQuery("certificates", c, pageSize)
}

var portSchema = Schema{
	Fields: map[string]FieldSpec{
		"name": {Kind: models.KindString, Label: "Name"},
		"port": {Kind: models.KindInt, Label: "Port", Validate: func(v models.Value) error {
			if v.Int < 1 || v.Int > 65535 {
				return fmt.Errorf("must be between 1 and 65535")
			}
			return nil
		}},
		"srcIp":  {Kind: models.KindString, Label: "Source IP"},
		"domain": {Kind: models.KindString, Label: "Domain"},
		"since":  {Kind: models.KindTime, Label: "Since"},
	},
	Order: []string{"name", "domain", "srcIp", "port", "since"},
}
