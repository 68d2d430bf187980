package resources

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"github.com/thesavant42/wafconsole/internal/models"
	"golang.org/x/net/publicsuffix"
)

// RootDomain extracts the registrable domain from a URL or hostname.
// Handles multi-label suffixes like .co.uk:
//   - "https://shop.example.co.uk/" -> "example.co.uk"
//   - "api.dev.example.com:8443" -> "example.com"
func RootDomain(input string) (string, error) {
	host, err := Hostname(input)
	if err != nil {
		return "", err
	}

	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("failed to extract root domain: %w", err)
	}
	return root, nil
}

// Hostname normalizes a URL, host:port or bare hostname to a lowercase hostname
func Hostname(input string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "", fmt.Errorf("empty input")
	}

	if strings.Contains(input, "://") {
		parsed, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		input = parsed.Hostname()
	} else if i := strings.LastIndexByte(input, ':'); i > 0 && !strings.Contains(input[:i], ":") {
		input = input[:i]
	}

	input = strings.TrimSuffix(strings.TrimPrefix(input, "*."), ".")
	if input == "" {
		return "", fmt.Errorf("empty hostname")
	}
	for _, label := range strings.Split(input, ".") {
		if label == "" || len(label) > 63 {
			return "", fmt.Errorf("invalid hostname %q", input)
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
				return "", fmt.Errorf("invalid hostname %q", input)
			}
		}
	}
	return input, nil
}

func validateDomain(v models.Value) error {
	host, err := Hostname(v.Str)
	if err != nil {
		return fmt.Errorf("must be a hostname")
	}
	if !strings.Contains(host, ".") {
		// single labels are allowed as partial matches
		return nil
	}
	if _, err := RootDomain(host); err != nil {
		return fmt.Errorf("must not be a bare public suffix")
	}
	return nil
}

func validateIP(v models.Value) error {
	if _, err := netip.ParseAddr(strings.TrimSpace(v.Str)); err != nil {
		return fmt.Errorf("must be an IPv4 or IPv6 address")
	}
	return nil
}

func validatePort(v models.Value) error {
	if v.Int < 1 || v.Int > 65535 {
		return fmt.Errorf("must be between 1 and 65535")
	}
	return nil
}

func validateRuleID(v models.Value) error {
	if v.Int <= 0 {
		return fmt.Errorf("must be a positive rule id")
	}
	return nil
}

func validateRequestID(v models.Value) error {
	if len(v.Str) > 128 {
		return fmt.Errorf("must be at most 128 characters")
	}
	if strings.ContainsAny(v.Str, " \t\r\n") {
		return fmt.Errorf("must not contain whitespace")
	}
	return nil
}

func validateName(v models.Value) error {
	if len(v.Str) > 255 {
		return fmt.Errorf("must be at most 255 characters")
	}
	return nil
}

func checkTimeRange(c models.FilterCriteria) map[string]string {
	start, okStart := c[FieldStartTime]
	end, okEnd := c[FieldEndTime]
	if !okStart || !okEnd {
		return nil
	}
	if end.Time.Before(start.Time) {
		return map[string]string{FieldEndTime: "must not be before start time"}
	}
	return nil
}
