// Package listing keeps paginated, filterable list views in sync with the server.
//
// A View owns the filter criteria of one screen. Criteria plus page size derive an
// Identity; the Coordinator keeps one Cache entry and one FetchState per Identity and
// issues page requests as Bubble Tea commands. Results come back as PageFetchedMsg and are
// applied on the Update goroutine, so nothing in this package takes a lock.
package listing

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/thesavant42/wafconsole/internal/models"
)

// Identity names one independent result set: what is asked for, never how far it is loaded.
type Identity struct {
	Resource string
	Key      string
}

func (id Identity) String() string {
	return id.Resource + "#" + id.Key
}

// IsZero reports whether id was never derived
func (id Identity) IsZero() bool {
	return id.Resource == "" && id.Key == ""
}

type identityKey struct {
	Resource string
	Fields   map[string]string
	PageSize int
}

// DeriveIdentity hashes the non-empty fields of criteria together with the page size.
// The page number never takes part.
func DeriveIdentity(resource string, criteria models.FilterCriteria, pageSize int) Identity {
	key := identityKey{
		Resource: resource,
		Fields:   criteria.Canonical(),
		PageSize: pageSize,
	}

	h, err := hashstructure.Hash(key, hashstructure.FormatV2, nil)
	if err != nil {
		// map[string]string never fails to hash; keep a readable key anyway
		return Identity{Resource: resource, Key: canonicalKey(key)}
	}
	return Identity{Resource: resource, Key: strconv.FormatUint(h, 16)}
}

func canonicalKey(k identityKey) string {
	names := make([]string, 0, len(k.Fields))
	for name := range k.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(k.Fields[name])
		b.WriteByte('&')
	}
	b.WriteString("pageSize=")
	b.WriteString(strconv.Itoa(k.PageSize))
	return b.String()
}

// Query is everything needed to fetch a page for an Identity.
type Query struct {
	Identity Identity
	Criteria models.FilterCriteria
	PageSize int
}

// NewQuery derives the identity for criteria and keeps a compacted copy of them
func NewQuery(resource string, criteria models.FilterCriteria, pageSize int) Query {
	compact := criteria.Compact()
	return Query{
		Identity: DeriveIdentity(resource, compact, pageSize),
		Criteria: compact,
		PageSize: pageSize,
	}
}
