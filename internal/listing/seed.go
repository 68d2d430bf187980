package listing

import (
	"errors"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/wafconsole/internal/models"
)

// ParseNavSeed reads filter overrides from a navigational entry point. raw may be a full
// URL ("/logs?srcIp=10.0.0.1") or a bare query string. Keys the schema does not know and
// values that fail to parse or validate are dropped with a warning.
func ParseNavSeed(raw string, schema Schema, logger *log.Logger) models.FilterCriteria {
	seed := make(models.FilterCriteria)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return seed
	}

	query := raw
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		query = raw[i+1:]
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		warn(logger, "ignoring malformed navigation seed", "seed", raw, "err", err)
		return seed
	}

	for key, vals := range values {
		if _, ok := schema.Fields[key]; !ok {
			warn(logger, "ignoring unknown seed field", "field", key)
			continue
		}
		if len(vals) == 0 {
			continue
		}
		v, err := schema.Parse(key, vals[0])
		if err != nil {
			warn(logger, "ignoring seed field", "field", key, "err", err)
			continue
		}
		if v.IsEmpty() {
			continue
		}
		if err := schema.Validate(models.FilterCriteria{key: v}); err != nil {
			warn(logger, "ignoring seed field", "field", key, "err", err)
			continue
		}
		seed[key] = v
	}
	return dropInvalid(seed, schema, logger)
}

// dropInvalid removes the fields a whole-criteria check rejects, such as an end time
// before the start time, until what is left validates.
func dropInvalid(seed models.FilterCriteria, schema Schema, logger *log.Logger) models.FilterCriteria {
	for len(seed) > 0 {
		err := schema.Validate(seed)
		var verr *ValidationError
		if !errors.As(err, &verr) || len(verr.Fields) == 0 {
			break
		}
		dropped := false
		for field, msg := range verr.Fields {
			if _, ok := seed[field]; !ok {
				continue
			}
			warn(logger, "ignoring seed field", "field", field, "err", msg)
			delete(seed, field)
			dropped = true
		}
		if !dropped {
			warn(logger, "ignoring seed", "err", err)
			return models.FilterCriteria{}
		}
	}
	return seed
}

func warn(logger *log.Logger, msg string, keyvals ...interface{}) {
	if logger != nil {
		logger.Warn(msg, keyvals...)
	}
}
