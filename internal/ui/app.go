package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/thesavant42/wafconsole/internal/listing"
	"github.com/thesavant42/wafconsole/internal/models"
	"github.com/thesavant42/wafconsole/internal/resources"
)

type tab int

const (
	tabCertificates tab = iota
	tabSites
	tabAttackLogs
)

var tabNames = []string{"Certificates", "Sites", "Attack Logs"}

// Options wires the console to a backend
type Options struct {
	Certificates listing.PageFetcher[models.Certificate]
	Sites        listing.PageFetcher[models.Site]
	AttackLogs   listing.PageFetcher[models.WAFLog]
	Store        Store // nil makes the console read-only

	Seed         models.FilterCriteria // initial attack-log filter from -nav
	Source       string                // API URL or database path, shown in the title
	FetchTimeout time.Duration
	Logger       *log.Logger
}

// mutationFailedMsg reports a rejected create, update or delete
type mutationFailedMsg struct {
	action string
	err    error
}

// modal is a form that has the keyboard until it completes or is cancelled
type modal struct {
	form     *huh.Form
	onSubmit func() tea.Cmd
}

// pane is what the app needs from a ListModel regardless of item type
type pane interface {
	Init() tea.Cmd
	Update(tea.Msg) tea.Cmd
	HandleKey(tea.KeyMsg) (tea.Cmd, bool)
	Resize(Layout)
	Editing() bool
	Render() string
	Close()
	syncRows()
}

// App is the root model: one tab per list, a shared invalidation bus and one
// coordinator per item type.
type App struct {
	PageState
	opts   Options
	logger *log.Logger
	bus    *listing.Bus
	detach []func()

	certCoord *listing.Coordinator[models.Certificate]
	siteCoord *listing.Coordinator[models.Site]
	logCoord  *listing.Coordinator[models.WAFLog]

	certs       *ListModel[models.Certificate]
	sites       *ListModel[models.Site]
	logs        *ListModel[models.WAFLog]
	certOptions *listing.View[models.Certificate] // certificate lookup for the site form

	active tab
	modal  *modal
	detail *attackLogDetail
	help   help.Model
	now    func() time.Time
}

// NewApp builds the console. Nothing is fetched until Init.
func NewApp(opts Options) (*App, error) {
	if opts.Certificates == nil || opts.Sites == nil || opts.AttackLogs == nil {
		return nil, fmt.Errorf("console needs a fetcher for every list")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	a := &App{
		PageState: NewPageState(DefaultLayout()),
		opts:      opts,
		logger:    opts.Logger,
		bus:       listing.NewBus(opts.Logger.WithPrefix("bus")),
		help:      help.New(),
		now:       time.Now,
	}

	a.certCoord = listing.NewCoordinator[models.Certificate](opts.Certificates, opts.FetchTimeout, opts.Logger.WithPrefix(resources.Certificates))
	a.siteCoord = listing.NewCoordinator[models.Site](opts.Sites, opts.FetchTimeout, opts.Logger.WithPrefix(resources.Sites))
	a.logCoord = listing.NewCoordinator[models.WAFLog](opts.AttackLogs, opts.FetchTimeout, opts.Logger.WithPrefix(resources.AttackLogs))
	a.detach = []func(){
		a.certCoord.Attach(a.bus, resources.Certificates),
		a.siteCoord.Attach(a.bus, resources.Sites),
		a.logCoord.Attach(a.bus, resources.AttackLogs),
	}

	certView, err := listing.NewView[models.Certificate](resources.CertificateView(), a.certCoord)
	if err != nil {
		return nil, err
	}
	a.certs = NewListModel("Certificates", certView, CertificateColumns(), func(c models.Certificate) table.Row {
		return CertificateRow(c, a.now())
	}, a.Layout)

	siteView, err := listing.NewView[models.Site](resources.SiteView(), a.siteCoord)
	if err != nil {
		return nil, err
	}
	a.sites = NewListModel("Sites", siteView, SiteColumns(), SiteRow, a.Layout)

	a.logs, err = a.newAttackLogList(opts.Seed)
	if err != nil {
		return nil, err
	}

	a.certOptions, err = listing.NewView[models.Certificate](resources.CertificateOptionsView(), a.certCoord)
	if err != nil {
		return nil, err
	}

	if len(opts.Seed.Compact()) > 0 {
		a.active = tabAttackLogs
	}
	return a, nil
}

func (a *App) newAttackLogList(seed models.FilterCriteria) (*ListModel[models.WAFLog], error) {
	view, err := listing.NewView[models.WAFLog](resources.AttackLogView(seed), a.logCoord)
	if err != nil {
		return nil, err
	}
	return NewListModel("Attack Logs", view, AttackLogColumns(), AttackLogRow, a.Layout), nil
}

func (a *App) panes() []pane {
	return []pane{a.certs, a.sites, a.logs}
}

func (a *App) pane() pane {
	return a.panes()[a.active]
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.certOptions.Init()}
	for _, p := range a.panes() {
		cmds = append(cmds, p.Init())
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	a.ClearExpiredStatus(a.now())

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if a.UpdateLayout(msg.Width, msg.Height) {
			for _, p := range a.panes() {
				p.Resize(a.Layout)
			}
			if a.modal != nil {
				a.modal.form = a.modal.form.WithWidth(a.Layout.InnerWidth)
			}
		}
		return a, nil

	case listing.PageFetchedMsg[models.Certificate]:
		return a, tea.Batch(a.certs.Update(msg), a.certOptions.Update(msg))

	case listing.PageFetchedMsg[models.Site]:
		return a, a.sites.Update(msg)

	case listing.PageFetchedMsg[models.WAFLog]:
		return a, a.logs.Update(msg)

	case listing.InvalidatedMsg:
		a.SetStatus(msg.Resource+" changed, reloading", statusTTL)
		cmd := a.bus.Publish(msg.Invalidation)
		for _, p := range a.panes() {
			p.syncRows()
		}
		return a, cmd

	case attackLogLoadedMsg:
		if a.detail != nil {
			a.detail.loaded(msg)
		}
		return a, nil

	case mutationFailedMsg:
		a.logger.Warn("mutation failed", "action", msg.action, "err", msg.err)
		a.SetError(fmt.Errorf("failed to %s: %w", msg.action, msg.err))
		return a, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		for _, p := range a.panes() {
			cmds = append(cmds, p.Update(msg))
		}
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	// cursor blinks and other form internals
	if a.modal != nil {
		return a, a.updateModal(msg)
	}
	return a, a.pane().Update(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.modal != nil {
		return a.updateModal(msg)
	}
	if a.detail != nil {
		if a.detail.handleKey(msg) {
			a.detail = nil
		}
		return nil
	}
	p := a.pane()
	if p.Editing() {
		cmd, _ := p.HandleKey(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		a.Quitting = true
		return tea.Quit
	case key.Matches(msg, keys.NextTab):
		a.active = (a.active + 1) % tab(len(tabNames))
		return nil
	case key.Matches(msg, keys.PrevTab):
		a.active = (a.active + tab(len(tabNames)) - 1) % tab(len(tabNames))
		return nil
	case key.Matches(msg, keys.New):
		return a.openCreateForm()
	case key.Matches(msg, keys.Edit):
		return a.openEditForm()
	case key.Matches(msg, keys.Delete):
		return a.confirmDelete()
	case key.Matches(msg, keys.Open):
		if a.active == tabAttackLogs {
			return a.openAttackLog()
		}
		return a.drillDown()
	case key.Matches(msg, keys.BySource) && a.active == tabAttackLogs:
		return a.drillDown()
	}

	cmd, _ := p.HandleKey(msg)
	return cmd
}

func (a *App) openModal(form *huh.Form, onSubmit func() tea.Cmd) tea.Cmd {
	a.modal = &modal{form: form, onSubmit: onSubmit}
	return form.Init()
}

func (a *App) updateModal(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.modal = nil
		return nil
	}

	model, cmd := a.modal.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		a.modal.form = form
	}

	switch a.modal.form.State {
	case huh.StateAborted:
		a.modal = nil
		return nil
	case huh.StateCompleted:
		submit := a.modal.onSubmit
		a.modal = nil
		return submit()
	}
	return cmd
}

// mutate runs fn off the Update goroutine and turns success into an invalidation of resource
func (a *App) mutate(action, resource string, fn func(ctx context.Context, store Store) error) tea.Cmd {
	store := a.opts.Store
	if store == nil {
		a.SetStatus("read-only source, cannot "+action, statusTTL)
		return nil
	}
	timeout := a.opts.FetchTimeout
	a.SetStatus(action+"...", 0)

	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := fn(ctx, store); err != nil {
			return mutationFailedMsg{action: action, err: err}
		}
		return listing.Invalidate(resource)
	}
}

func (a *App) openCreateForm() tea.Cmd {
	switch a.active {
	case tabCertificates:
		return a.openCertificateForm(models.Certificate{})
	case tabSites:
		return a.openSiteForm(models.Site{})
	default:
		a.SetStatus("attack logs are read-only", statusTTL)
		return nil
	}
}

// openEditForm opens the create form pre-filled with the selected row
func (a *App) openEditForm() tea.Cmd {
	switch a.active {
	case tabCertificates:
		cert, ok := a.certs.Selected()
		if !ok {
			return nil
		}
		return a.openCertificateForm(cert)
	case tabSites:
		site, ok := a.sites.Selected()
		if !ok {
			return nil
		}
		return a.openSiteForm(site)
	default:
		a.SetStatus("attack logs are read-only", statusTTL)
		return nil
	}
}

func (a *App) openCertificateForm(base models.Certificate) tea.Cmd {
	f := newCertificateForm(base, a.Layout.InnerWidth)
	return a.openModal(f.form, func() tea.Cmd {
		cert, err := f.certificate()
		if err != nil {
			a.SetError(err)
			return nil
		}
		return a.saveCertificate(cert)
	})
}

func (a *App) openSiteForm(base models.Site) tea.Cmd {
	f := newSiteForm(a.certOptions.CurrentItems(), base, a.Layout.InnerWidth)
	return a.openModal(f.form, func() tea.Cmd {
		site, err := f.site()
		if err != nil {
			a.SetError(err)
			return nil
		}
		return a.saveSite(site)
	})
}

// saveCertificate creates cert when it has no ID yet and updates it otherwise
func (a *App) saveCertificate(cert models.Certificate) tea.Cmd {
	if cert.ID == "" {
		return a.mutate("create certificate "+cert.Name, resources.Certificates, func(ctx context.Context, s Store) error {
			return s.CreateCertificate(ctx, cert)
		})
	}
	return a.mutate("update certificate "+cert.Name, resources.Certificates, func(ctx context.Context, s Store) error {
		return s.UpdateCertificate(ctx, cert)
	})
}

func (a *App) saveSite(site models.Site) tea.Cmd {
	if site.ID == "" {
		return a.mutate("create site "+site.Name, resources.Sites, func(ctx context.Context, s Store) error {
			return s.CreateSite(ctx, site)
		})
	}
	return a.mutate("update site "+site.Name, resources.Sites, func(ctx context.Context, s Store) error {
		return s.UpdateSite(ctx, site)
	})
}

func (a *App) confirmDelete() tea.Cmd {
	width := a.Layout.InnerWidth
	confirmed := new(bool)

	switch a.active {
	case tabCertificates:
		cert, ok := a.certs.Selected()
		if !ok {
			return nil
		}
		form := newConfirmForm("Delete certificate "+cert.Name+"?", strings.Join(cert.Domains, ", "), confirmed, width)
		return a.openModal(form, func() tea.Cmd {
			if !*confirmed {
				return nil
			}
			return a.deleteCertificate(cert)
		})

	case tabSites:
		site, ok := a.sites.Selected()
		if !ok {
			return nil
		}
		form := newConfirmForm("Delete site "+site.Name+"?", site.Domain, confirmed, width)
		return a.openModal(form, func() tea.Cmd {
			if !*confirmed {
				return nil
			}
			return a.deleteSite(site)
		})

	default:
		a.SetStatus("attack logs are read-only", statusTTL)
		return nil
	}
}

func (a *App) deleteCertificate(cert models.Certificate) tea.Cmd {
	return a.mutate("delete certificate "+cert.Name, resources.Certificates, func(ctx context.Context, s Store) error {
		return s.DeleteCertificate(ctx, cert.ID)
	})
}

func (a *App) deleteSite(site models.Site) tea.Cmd {
	return a.mutate("delete site "+site.Name, resources.Sites, func(ctx context.Context, s Store) error {
		return s.DeleteSite(ctx, site.ID)
	})
}

// openAttackLog shows the selected attack log. The row is shown right away and
// replaced by the stored record once it loads.
func (a *App) openAttackLog() tea.Cmd {
	l, ok := a.logs.Selected()
	if !ok {
		return nil
	}
	row := l
	a.detail = &attackLogDetail{id: l.ID, log: &row}

	store := a.opts.Store
	if store == nil {
		return nil
	}
	a.detail.loading = true
	timeout := a.opts.FetchTimeout
	id := l.ID
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		full, err := store.GetAttackLog(ctx, id)
		return attackLogLoadedMsg{id: id, log: full, err: err}
	}
}

// drillDown opens the attack logs of the selected site (by domain) or source IP
func (a *App) drillDown() tea.Cmd {
	var seed models.FilterCriteria
	switch a.active {
	case tabSites:
		site, ok := a.sites.Selected()
		if !ok {
			return nil
		}
		seed = models.FilterCriteria{resources.FieldDomain: models.StringValue(site.Domain)}
	case tabAttackLogs:
		l, ok := a.logs.Selected()
		if !ok {
			return nil
		}
		seed = models.FilterCriteria{resources.FieldSrcIP: models.StringValue(l.SrcIP)}
	default:
		return nil
	}
	return a.ShowAttackLogs(seed)
}

// ShowAttackLogs replaces the attack-log tab with a list seeded from seed and focuses it
func (a *App) ShowAttackLogs(seed models.FilterCriteria) tea.Cmd {
	next, err := a.newAttackLogList(seed)
	if err != nil {
		a.SetError(err)
		return nil
	}

	a.detail = nil
	// mount the new list before releasing the old one so a shared identity keeps its pages
	cmd := next.Init()
	a.logs.Close()
	a.logs = next
	a.logs.syncRows()
	a.active = tabAttackLogs
	return cmd
}

// Close releases every list and bus subscription
func (a *App) Close() {
	for _, p := range a.panes() {
		p.Close()
	}
	a.certOptions.Close()
	for _, detach := range a.detach {
		detach()
	}
	a.detach = nil
}

func (a *App) View() string {
	if a.Quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(RenderTitle("WAF Console"))
	if a.opts.Source != "" {
		b.WriteString("  ")
		b.WriteString(RenderDim(a.opts.Source))
	}
	b.WriteString("\n")
	b.WriteString(RenderTabs(tabNames, int(a.active)))
	b.WriteString("\n")
	b.WriteString(Divider(a.Layout.InnerWidth))
	b.WriteString("\n")

	switch {
	case a.modal != nil:
		b.WriteString(a.modal.form.View())
	case a.detail != nil:
		b.WriteString(a.detail.render(a.Layout))
	default:
		b.WriteString(a.pane().Render())
	}
	b.WriteString("\n")
	if a.HasStatus() {
		b.WriteString(a.RenderStatus())
	}

	return BuildTwoBoxView(b.String(), a.helpText(), a.Layout)
}

func (a *App) helpText() string {
	if a.detail != nil {
		return a.help.ShortHelpView([]key.Binding{
			key.NewBinding(key.WithKeys("j", "k"), key.WithHelp("j/k", "scroll")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		})
	}
	if a.modal != nil || a.pane().Editing() {
		return a.help.ShortHelpView([]key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next/submit")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		})
	}

	bindings := []key.Binding{keys.NextTab, keys.Filter, keys.ResetFilter, keys.Retry, keys.Refresh}
	switch a.active {
	case tabCertificates:
		bindings = append(bindings, keys.New, keys.Edit, keys.Delete)
	case tabSites:
		bindings = append(bindings, keys.New, keys.Edit, keys.Delete, keys.Open)
	case tabAttackLogs:
		bindings = append(bindings, keys.Open, keys.BySource)
	}
	return a.help.ShortHelpView(append(bindings, keys.Quit))
}
