// Package service implements the audit classification engine.
// Classification is a pure function over (method, path, role): no I/O, no
// side effects, deterministic output, total over arbitrary input.
package service

import (
	"sort"
	"strings"

	auditDomain "github.com/allisson/compliance/internal/audit/domain"
)

// Classification holds every derived field for an observed operation.
type Classification struct {
	Action             string
	Resource           string
	ResourceType       string
	DataClassification auditDomain.DataClassification
	RiskLevel          auditDomain.RiskLevel
	ComplianceRelevant bool
	Tags               []string
}

// request is the normalized input evaluated by the rule tables.
type request struct {
	method string // upper-cased HTTP method
	path   string // lower-cased request path
	role   string
}

// resourceRule maps a path to a resource. Rules are evaluated top to bottom;
// the first match wins, so ordering is part of the contract.
type resourceRule struct {
	match        func(r request) bool
	resource     string
	resourceType string
}

// classificationRule assigns a sensitivity tier to a path.
type classificationRule struct {
	match  func(r request) bool
	result auditDomain.DataClassification
}

// riskRule assigns a risk level given the resolved resource and tier.
type riskRule struct {
	match  func(r request, resource string, tier auditDomain.DataClassification) bool
	result auditDomain.RiskLevel
}

// actionRule maps a request to an action verb.
type actionRule struct {
	match  func(r request) bool
	result string
}

func pathContains(sub string) func(r request) bool {
	return func(r request) bool { return strings.Contains(r.path, sub) }
}

func pathHasPrefix(prefix string) func(r request) bool {
	return func(r request) bool { return strings.HasPrefix(r.path, prefix) }
}

// isAuditTrailPath matches both URL ("audit-trail") and identifier
// ("audit_trail") spellings.
func isAuditTrailPath(r request) bool {
	return strings.Contains(r.path, "audit-trail") || strings.Contains(r.path, "audit_trail")
}

// isPagePath reports whether the path is a page-level route rather than an
// API endpoint.
func isPagePath(r request) bool {
	return !strings.HasPrefix(r.path, "/api")
}

// resourceRules is the ordered keyword table. The generic "audit" keyword
// excludes audit-trail paths so the dedicated audit_trail rules still apply.
var resourceRules = []resourceRule{
	{pathContains("document"), "document", "document"},
	{func(r request) bool {
		return strings.Contains(r.path, "audit") && !isAuditTrailPath(r)
	}, "audit", "audit"},
	{pathContains("report"), "report", "report"},
	{pathContains("activit"), "activity", "activity"},
	{pathContains("notification"), "notification", "notification"},
	{pathContains("user"), "user", "user"},
	{pathContains("alert"), "alert", "alert"},
	{isAuditTrailPath, "audit_trail", "audit_trail"},
	// Fallback path-prefix categories.
	{func(r request) bool { return strings.HasPrefix(r.path, "/admin") && isPagePath(r) }, "admin_page", "page"},
	{func(r request) bool { return strings.HasPrefix(r.path, "/client") && isPagePath(r) }, "client_page", "page"},
	{pathHasPrefix("/api"), "api_endpoint", "api"},
	{func(r request) bool {
		return strings.HasPrefix(r.path, "/auth") || strings.Contains(r.path, "login") || strings.Contains(r.path, "logout")
	}, "auth_endpoint", "api"},
	{func(r request) bool { return true }, "web_page", "page"},
}

// classificationRules is the ordered tier table; the highest matching tier wins.
var classificationRules = []classificationRule{
	{func(r request) bool {
		return isAuditTrailPath(r) || strings.Contains(r.path, "user") || strings.Contains(r.path, "alert")
	}, auditDomain.ClassificationRestricted},
	{func(r request) bool {
		return strings.Contains(r.path, "document") || strings.Contains(r.path, "audit") ||
			strings.Contains(r.path, "report") || strings.Contains(r.path, "notification")
	}, auditDomain.ClassificationConfidential},
	{func(r request) bool {
		return strings.HasPrefix(r.path, "/admin") || strings.HasPrefix(r.path, "/client") ||
			strings.HasPrefix(r.path, "/api")
	}, auditDomain.ClassificationInternal},
	{func(r request) bool { return true }, auditDomain.ClassificationPublic},
}

// riskRules is the ordered severity table; the highest matching severity wins.
var riskRules = []riskRule{
	{func(r request, resource string, tier auditDomain.DataClassification) bool {
		return (r.method == "DELETE" && tier == auditDomain.ClassificationRestricted) ||
			(r.method != "GET" && resource == "audit_trail")
	}, auditDomain.RiskCritical},
	{func(r request, resource string, tier auditDomain.DataClassification) bool {
		return (r.method == "DELETE" && tier == auditDomain.ClassificationConfidential) ||
			(r.method == "POST" && resource == "user") ||
			resource == "alert"
	}, auditDomain.RiskHigh},
	{func(r request, resource string, tier auditDomain.DataClassification) bool {
		return (r.method == "PUT" || r.method == "POST") && tier == auditDomain.ClassificationConfidential
	}, auditDomain.RiskMedium},
	{func(r request, resource string, tier auditDomain.DataClassification) bool { return true }, auditDomain.RiskLow},
}

// actionRules maps requests to action verbs. Authentication paths are
// special-cased, page-level paths map to portal access actions, and plain
// API requests follow the HTTP method.
var actionRules = []actionRule{
	{pathContains("login"), "login"},
	{pathContains("logout"), "logout"},
	{func(r request) bool {
		return r.method == "GET" && strings.HasPrefix(r.path, "/admin") && isPagePath(r)
	}, "admin_access"},
	{func(r request) bool {
		return r.method == "GET" && strings.HasPrefix(r.path, "/client") && isPagePath(r)
	}, "client_access"},
	{func(r request) bool { return r.method == "GET" }, "read"},
	{func(r request) bool { return r.method == "POST" }, "create"},
	{func(r request) bool { return r.method == "PUT" || r.method == "PATCH" }, "update"},
	{func(r request) bool { return r.method == "DELETE" }, "delete"},
}

// mutatingMethods flag operations as compliance relevant regardless of resource.
var mutatingMethods = map[string]bool{
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
	"PATCH":  true,
}

// complianceResources always produce compliance-relevant entries.
var complianceResources = map[string]bool{
	"document":    true,
	"audit":       true,
	"report":      true,
	"user":        true,
	"alert":       true,
	"audit_trail": true,
}

// Classifier derives audit classification fields for observed operations.
type Classifier interface {
	Classify(method, path, callerRole string) Classification
}

type classifier struct{}

// NewClassifier creates the rule-table backed classification engine.
func NewClassifier() Classifier {
	return classifier{}
}

// Classify evaluates the ordered rule tables for the given request and returns
// every derived field. Same input always yields the same output, and any
// input (including empty strings and unknown methods) yields valid enum
// members.
func (classifier) Classify(method, path, callerRole string) Classification {
	r := request{
		method: strings.ToUpper(strings.TrimSpace(method)),
		path:   strings.ToLower(strings.TrimSpace(path)),
		role:   callerRole,
	}

	resource, resourceType := "web_page", "page"
	for _, rule := range resourceRules {
		if rule.match(r) {
			resource, resourceType = rule.resource, rule.resourceType
			break
		}
	}

	tier := auditDomain.ClassificationPublic
	for _, rule := range classificationRules {
		if rule.match(r) {
			tier = rule.result
			break
		}
	}

	risk := auditDomain.RiskLow
	for _, rule := range riskRules {
		if rule.match(r, resource, tier) {
			risk = rule.result
			break
		}
	}

	action := ""
	for _, rule := range actionRules {
		if rule.match(r) {
			action = rule.result
			break
		}
	}
	if action == "" {
		verb := strings.ToLower(r.method)
		if verb == "" {
			verb = "unknown"
		}
		action = verb + "_" + slugify(r.path)
	}

	return Classification{
		Action:             action,
		Resource:           resource,
		ResourceType:       resourceType,
		DataClassification: tier,
		RiskLevel:          risk,
		ComplianceRelevant: complianceResources[resource] || mutatingMethods[r.method],
		Tags:               buildTags(r, resource),
	}
}

// buildTags returns the deduplicated, sorted tag set for a request.
func buildTags(r request, resource string) []string {
	set := map[string]bool{}

	if r.method != "" {
		set[strings.ToLower(r.method)] = true
	}
	set[resource] = true
	if r.role != "" {
		set[r.role] = true
	}
	if strings.HasPrefix(r.path, "/admin") {
		set["admin_portal"] = true
	} else if strings.HasPrefix(r.path, "/client") {
		set["client_portal"] = true
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags
}

// slugify collapses a path into a lowercase identifier for fallback actions
// (e.g., "/api/widgets/42" becomes "api_widgets_42").
func slugify(path string) string {
	var b strings.Builder
	lastUnderscore := true // trim leading separators

	for _, c := range path {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	slug := strings.TrimSuffix(b.String(), "_")
	if slug == "" {
		return "root"
	}
	return slug
}
