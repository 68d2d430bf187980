package ui

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/thesavant42/wafconsole/internal/listing"
	"github.com/thesavant42/wafconsole/internal/models"
	"github.com/thesavant42/wafconsole/internal/resources"
)

// sanitizeInput removes null bytes and other invisible control characters from input
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 || (r < 32 && r != '\t' && r != '\n' && r != '\r') {
			return -1
		}
		return r
	}, s)
}

func newForm(width int, groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).
		WithTheme(NewAppTheme()).
		WithShowHelp(true).
		WithWidth(width)
}

// filterForm edits the criteria of one list, one input per schema field
type filterForm struct {
	form   *huh.Form
	schema listing.Schema
	values map[string]*string
}

func newFilterForm(title string, schema listing.Schema, current models.FilterCriteria, width int) *filterForm {
	f := &filterForm{
		schema: schema,
		values: make(map[string]*string),
	}

	fields := make([]huh.Field, 0, len(schema.Fields))
	for _, name := range schema.FieldNames() {
		name := name
		spec := schema.Fields[name]
		value := current.Get(name)
		f.values[name] = &value

		input := huh.NewInput().
			Key(name).
			Title(spec.Label).
			Placeholder(placeholderFor(spec.Kind)).
			CharLimit(256).
			Value(f.values[name]).
			Validate(func(s string) error {
				v, err := schema.Parse(name, sanitizeInput(s))
				if err != nil || v.IsEmpty() || spec.Validate == nil {
					return err
				}
				return spec.Validate(v)
			})
		fields = append(fields, input)
	}

	f.form = newForm(width, huh.NewGroup(fields...).Title(title).Description("Leave a field empty to match everything"))
	return f
}

func placeholderFor(kind models.ValueKind) string {
	switch kind {
	case models.KindInt:
		return "number"
	case models.KindTime:
		return "2006-01-02T15:04:05Z"
	default:
		return ""
	}
}

// criteria parses the submitted values. Cross-field checks run when the view applies them.
func (f *filterForm) criteria() (models.FilterCriteria, error) {
	raw := make(map[string]string, len(f.values))
	for name, v := range f.values {
		raw[name] = sanitizeInput(*v)
	}
	return f.schema.ParseAll(raw)
}

func newConfirmForm(title, description string, confirmed *bool, width int) *huh.Form {
	return newForm(width, huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(description).
			Affirmative("Delete").
			Negative("Cancel").
			Value(confirmed),
	))
}

// certificateForm collects a certificate upload. An edit starts from the stored record.
type certificateForm struct {
	form       *huh.Form
	base       models.Certificate
	name       string
	domains    string
	publicKey  string
	privateKey string
}

func newCertificateForm(base models.Certificate, width int) *certificateForm {
	f := &certificateForm{
		base:      base,
		name:      base.Name,
		domains:   strings.Join(base.Domains, ", "),
		publicKey: base.PublicKey,
	}
	title, keyHint := "New certificate", ""
	if base.ID != "" {
		title, keyHint = "Edit "+base.Name, "Leave empty to keep the current key"
	}

	f.form = newForm(width, huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&f.name).
			Validate(requireText("name")),
		huh.NewInput().
			Title("Domains").
			Description("Comma separated, wildcards allowed").
			Placeholder("example.com, *.example.com").
			Value(&f.domains).
			Validate(func(s string) error {
				_, err := splitDomains(s)
				return err
			}),
		huh.NewText().
			Title("Certificate (PEM)").
			Value(&f.publicKey),
		huh.NewText().
			Title("Private key (PEM)").
			Description(keyHint).
			Value(&f.privateKey),
	).Title(title))
	return f
}

// certificate returns the base record with the form's values applied
func (f *certificateForm) certificate() (models.Certificate, error) {
	domains, err := splitDomains(f.domains)
	if err != nil {
		return models.Certificate{}, err
	}
	c := f.base
	c.Name = strings.TrimSpace(sanitizeInput(f.name))
	c.Domains = domains
	if pub := strings.TrimSpace(f.publicKey); pub != "" || c.ID == "" {
		c.PublicKey = pub
	}
	if key := strings.TrimSpace(f.privateKey); key != "" || c.ID == "" {
		c.PrivateKey = key
	}
	return c, nil
}

func splitDomains(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(sanitizeInput(s), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := resources.Hostname(part); err != nil {
			return nil, fmt.Errorf("invalid domain %q", part)
		}
		out = append(out, strings.ToLower(part))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one domain is required")
	}
	return out, nil
}

// siteForm collects a site. certificates come from the certificate lookup view.
// An edit starts from the stored record and keeps any extra backend servers.
type siteForm struct {
	form          *huh.Form
	base          models.Site
	name          string
	domain        string
	listenPort    string
	backend       string
	certificateID string
	wafMode       string
}

func newSiteForm(certificates []models.Certificate, base models.Site, width int) *siteForm {
	f := &siteForm{
		base:          base,
		name:          base.Name,
		domain:        base.Domain,
		listenPort:    "80",
		certificateID: base.CertificateID,
		wafMode:       "protection",
	}
	if base.ListenPort > 0 {
		f.listenPort = strconv.Itoa(base.ListenPort)
	}
	if base.WAFMode != "" {
		f.wafMode = base.WAFMode
	}
	if len(base.Servers) > 0 {
		f.backend = net.JoinHostPort(base.Servers[0].Host, strconv.Itoa(base.Servers[0].Port))
	}

	options := []huh.Option[string]{huh.NewOption("None (plain HTTP)", "")}
	listed := false
	for _, c := range certificates {
		label := c.Name
		if len(c.Domains) > 0 {
			label += " (" + strings.Join(c.Domains, ", ") + ")"
		}
		options = append(options, huh.NewOption(label, c.ID))
		listed = listed || c.ID == base.CertificateID
	}
	if base.CertificateID != "" && !listed {
		options = append(options, huh.NewOption("Current ("+base.CertificateID+")", base.CertificateID))
	}

	title := "New site"
	if base.ID != "" {
		title = "Edit " + base.Name
	}

	f.form = newForm(width, huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&f.name).
			Validate(requireText("name")),
		huh.NewInput().
			Title("Domain").
			Placeholder("app.example.com").
			Value(&f.domain).
			Validate(func(s string) error {
				_, err := resources.Hostname(sanitizeInput(s))
				return err
			}),
		huh.NewInput().
			Title("Listen port").
			Value(&f.listenPort).
			Validate(func(s string) error {
				_, err := parsePort(s)
				return err
			}),
		huh.NewInput().
			Title("Backend").
			Placeholder("10.0.0.2:8080").
			Value(&f.backend).
			Validate(func(s string) error {
				_, err := parseBackend(s)
				return err
			}),
		huh.NewSelect[string]().
			Title("Certificate").
			Options(options...).
			Value(&f.certificateID),
		huh.NewSelect[string]().
			Title("WAF mode").
			Options(
				huh.NewOption("Protection", "protection"),
				huh.NewOption("Observe only", "observe"),
			).
			Value(&f.wafMode),
	).Title(title))
	return f
}

// site returns the base record with the form's values applied. A new site starts enabled.
func (f *siteForm) site() (models.Site, error) {
	port, err := parsePort(f.listenPort)
	if err != nil {
		return models.Site{}, err
	}
	backend, err := parseBackend(f.backend)
	if err != nil {
		return models.Site{}, err
	}
	host, err := resources.Hostname(sanitizeInput(f.domain))
	if err != nil {
		return models.Site{}, err
	}

	s := f.base
	s.Name = strings.TrimSpace(sanitizeInput(f.name))
	s.Domain = host
	s.ListenPort = port
	s.EnableHTTPS = f.certificateID != ""
	s.CertificateID = f.certificateID
	s.WAFMode = f.wafMode
	if len(s.Servers) > 0 {
		backend.IsSSL = s.Servers[0].IsSSL
		s.Servers = append([]models.BackendServer{backend}, s.Servers[1:]...)
	} else {
		s.Servers = []models.BackendServer{backend}
	}
	if s.ID == "" {
		s.WAFEnabled = true
		s.ActiveStatus = true
	}
	return s, nil
}

func requireText(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(sanitizeInput(s)) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("port must be between 1 and 65535")
	}
	return n, nil
}

// parseBackend accepts host:port where host is an IP address or hostname
func parseBackend(s string) (models.BackendServer, error) {
	s = strings.TrimSpace(sanitizeInput(s))
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return models.BackendServer{Host: ap.Addr().String(), Port: int(ap.Port())}, nil
	}
	host, portText, ok := strings.Cut(s, ":")
	if !ok {
		return models.BackendServer{}, fmt.Errorf("backend must be host:port")
	}
	if _, err := resources.Hostname(host); err != nil {
		return models.BackendServer{}, fmt.Errorf("invalid backend host")
	}
	port, err := parsePort(portText)
	if err != nil {
		return models.BackendServer{}, err
	}
	return models.BackendServer{Host: host, Port: port}, nil
}

// PromptCredentials asks for the API username and password before the console starts
func PromptCredentials(user string) (string, string, error) {
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&user).
				Validate(requireText("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password),
		).Title("Sign in to the WAF API"),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return "", "", fmt.Errorf("sign-in cancelled: %w", err)
	}
	return strings.TrimSpace(sanitizeInput(user)), password, nil
}
