package listing

import (
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/thesavant42/wafconsole/internal/models"
)

// TestParseNavSeed keeps only known, well-formed fields
func TestParseNavSeed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "full url",
			raw:  "/logs?srcIp=10.0.0.1&domain=example.com",
			want: map[string]string{"srcIp": "10.0.0.1", "domain": "example.com"},
		},
		{
			name: "bare query",
			raw:  "srcIp=10.0.0.1",
			want: map[string]string{"srcIp": "10.0.0.1"},
		},
		{
			name: "unknown and malformed dropped",
			raw:  "?srcIp=10.0.0.1&color=red&port=https&since=",
			want: map[string]string{"srcIp": "10.0.0.1"},
		},
		{
			name: "invalid value dropped",
			raw:  "port=0&name=edge",
			want: map[string]string{"name": "edge"},
		},
		{
			name: "fragment ignored",
			raw:  "/logs?port=443#top",
			want: map[string]string{"port": "443"},
		},
		{
			name: "empty",
			raw:  "",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := ParseNavSeed(tt.raw, portSchema, nil)
			got := make(map[string]string, len(seed))
			for _, field := range seed.Fields() {
				got[field] = seed.Get(field)
			}
			assert.Equal(t, got, tt.want)
		})
	}
}

// TestParseNavSeedDropsInvertedRange drops the field the range check rejects
// and keeps the rest of the seed
func TestParseNavSeedDropsInvertedRange(t *testing.T) {
	ranged := portSchema
	ranged.Fields = map[string]FieldSpec{"until": {Kind: models.KindTime, Label: "Until"}}
	for name, spec := range portSchema.Fields {
		ranged.Fields[name] = spec
	}
	ranged.Order = append([]string{}, portSchema.Order...)
	ranged.Order = append(ranged.Order, "until")
	ranged.Check = func(c models.FilterCriteria) map[string]string {
		since, until := c["since"], c["until"]
		if since.IsEmpty() || until.IsEmpty() || !until.Time.Before(since.Time) {
			return nil
		}
		return map[string]string{"until": "must not be before since"}
	}

	seed := ParseNavSeed("since=2025-02-01&until=2025-01-01&srcIp=10.0.0.1", ranged, nil)

	assert.Equal(t, seed.Fields(), []string{"since", "srcIp"})
	assert.Equal(t, seed.Get("srcIp"), "10.0.0.1")
	if err := ranged.Validate(seed); err != nil {
		t.Fatalf("Validate() of the kept seed error = %v", err)
	}
}
