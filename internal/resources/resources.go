// Package resources names the lists the console shows and describes how each one can be
// filtered.
package resources

import (
	"github.com/thesavant42/wafconsole/internal/listing"
	"github.com/thesavant42/wafconsole/internal/models"
)

// Resource names, shared by views, fetchers and invalidations
const (
	Certificates = "certificates"
	Sites        = "sites"
	AttackLogs   = "attack-logs"
)

// Page sizes per view
const (
	CertificatePageSize       = 20
	CertificateOptionPageSize = 100 // certificate picker on the site form
	SitePageSize              = 10
	AttackLogPageSize         = 10
)

// Filter field names, as sent to the API
const (
	FieldName      = "name"
	FieldDomain    = "domain"
	FieldRuleID    = "ruleId"
	FieldSrcIP     = "srcIp"
	FieldDstIP     = "dstIp"
	FieldSrcPort   = "srcPort"
	FieldDstPort   = "dstPort"
	FieldRequestID = "requestId"
	FieldStartTime = "startTime"
	FieldEndTime   = "endTime"
)

var (
	nameField   = listing.FieldSpec{Kind: models.KindString, Label: "Name", Validate: validateName}
	domainField = listing.FieldSpec{Kind: models.KindString, Label: "Domain", Validate: validateDomain}
)

// CertificateSchema filters certificates by name and domain
var CertificateSchema = listing.Schema{
	Fields: map[string]listing.FieldSpec{
		FieldName:   nameField,
		FieldDomain: domainField,
	},
	Order: []string{FieldName, FieldDomain},
}

// SiteSchema filters sites by name and domain
var SiteSchema = listing.Schema{
	Fields: map[string]listing.FieldSpec{
		FieldName:   nameField,
		FieldDomain: domainField,
	},
	Order: []string{FieldName, FieldDomain},
}

// AttackLogSchema covers every attack-log filter field
var AttackLogSchema = listing.Schema{
	Fields: map[string]listing.FieldSpec{
		FieldRuleID:    {Kind: models.KindInt, Label: "Rule ID", Validate: validateRuleID},
		FieldDomain:    domainField,
		FieldSrcIP:     {Kind: models.KindString, Label: "Source IP", Validate: validateIP},
		FieldDstIP:     {Kind: models.KindString, Label: "Destination IP", Validate: validateIP},
		FieldSrcPort:   {Kind: models.KindInt, Label: "Source port", Validate: validatePort},
		FieldDstPort:   {Kind: models.KindInt, Label: "Destination port", Validate: validatePort},
		FieldRequestID: {Kind: models.KindString, Label: "Request ID", Validate: validateRequestID},
		FieldStartTime: {Kind: models.KindTime, Label: "Start time"},
		FieldEndTime:   {Kind: models.KindTime, Label: "End time"},
	},
	Order: []string{
		FieldRuleID, FieldDomain, FieldSrcIP, FieldDstIP, FieldSrcPort,
		FieldDstPort, FieldRequestID, FieldStartTime, FieldEndTime,
	},
	Check: checkTimeRange,
}

// CertificateView configures the certificates list
func CertificateView() listing.ViewConfig {
	return listing.ViewConfig{
		Resource: Certificates,
		Schema:   CertificateSchema,
		PageSize: CertificatePageSize,
	}
}

// CertificateOptionsView configures the certificate lookup used by the site form.
// It shares the certificates resource but has its own identity through the page size.
func CertificateOptionsView() listing.ViewConfig {
	return listing.ViewConfig{
		Resource: Certificates,
		Schema:   CertificateSchema,
		PageSize: CertificateOptionPageSize,
	}
}

// SiteView configures the sites list
func SiteView() listing.ViewConfig {
	return listing.ViewConfig{
		Resource: Sites,
		Schema:   SiteSchema,
		PageSize: SitePageSize,
	}
}

// AttackLogView configures the attack-log list, optionally seeded from navigation
func AttackLogView(seed models.FilterCriteria) listing.ViewConfig {
	return listing.ViewConfig{
		Resource: AttackLogs,
		Schema:   AttackLogSchema,
		PageSize: AttackLogPageSize,
		Seed:     seed,
	}
}

// Schema returns the schema of a resource
func Schema(resource string) (listing.Schema, bool) {
	switch resource {
	case Certificates:
		return CertificateSchema, true
	case Sites:
		return SiteSchema, true
	case AttackLogs:
		return AttackLogSchema, true
	default:
		return listing.Schema{}, false
	}
}
