// Package content defines the domain model for localized editorial
// content: services, job postings, and news articles authored in a
// canonical locale and mirrored into machine-translated locales.
package content

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain identifies which editorial catalogue an entity belongs to.
type Domain string

const (
	DomainService Domain = "service"
	DomainJob     Domain = "job"
	DomainNews    Domain = "news"
)

// ErrInvalidDomain indicates an unrecognized domain value.
var ErrInvalidDomain = errors.New("domain is invalid")

// ParseDomain converts user input into a Domain.
func ParseDomain(s string) (Domain, error) {
	switch Domain(strings.ToLower(strings.TrimSpace(s))) {
	case DomainService:
		return DomainService, nil
	case DomainJob:
		return DomainJob, nil
	case DomainNews:
		return DomainNews, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDomain, s)
}

// Policy selects how translation failures propagate during a sync.
type Policy string

const (
	// PolicyStrict fails the whole operation when any locale or field
	// fails; no derived translation is persisted on failure.
	PolicyStrict Policy = "strict"
	// PolicyLenient persists whatever succeeded and logs the rest;
	// translation failures never fail the operation.
	PolicyLenient Policy = "lenient"
)

// ErrInvalidPolicy indicates an unrecognized policy value.
var ErrInvalidPolicy = errors.New("policy is invalid")

// ParsePolicy converts user input into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyStrict:
		return PolicyStrict, nil
	case PolicyLenient:
		return PolicyLenient, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// DefaultPolicy returns the policy a domain uses unless the caller
// overrides it: job postings need full multilingual coverage, while
// services and news tolerate partial translation.
func DefaultPolicy(domain Domain) Policy {
	if domain == DomainJob {
		return PolicyStrict
	}
	return PolicyLenient
}

// Attributes holds every translatable field a content item can carry.
// Which fields are in play depends on the domain; unused fields stay
// empty. Features is a typed list translated element-wise, never as a
// single serialized blob.
type Attributes struct {
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Position     string   `json:"position,omitempty"`
	Location     string   `json:"location,omitempty"`
	Requirements string   `json:"requirements,omitempty"`
	Benefits     string   `json:"benefits,omitempty"`
	Features     []string `json:"features,omitempty"`
}

// Entity is one content item. Its attributes live in the per-locale
// Translation rows; the entity itself only carries identity.
type Entity struct {
	ID        string    `json:"id"`
	Domain    Domain    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Translation is one locale-specific rendering of an entity, unique
// per (entity_id, locale). The canonical-locale row is the only one
// authored by a human and the only source text fed to the provider.
type Translation struct {
	EntityID   string     `json:"entity_id"`
	Locale     string     `json:"locale"`
	Attributes Attributes `json:"attributes"`
	Slug       string     `json:"slug"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ValidationError reports required canonical fields that are missing
// before any provider call is attempted.
type ValidationError struct {
	Domain Domain
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Domain, strings.Join(e.Fields, ", "))
}

// Validate checks the canonical attributes against the domain's
// required-field schema. Every domain requires a title; job postings
// additionally require position and location.
func Validate(domain Domain, attrs Attributes) error {
	var missing []string
	if strings.TrimSpace(attrs.Title) == "" {
		missing = append(missing, "title")
	}
	if domain == DomainJob {
		if strings.TrimSpace(attrs.Position) == "" {
			missing = append(missing, "position")
		}
		if strings.TrimSpace(attrs.Location) == "" {
			missing = append(missing, "location")
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Domain: domain, Fields: missing}
	}
	return nil
}

// Field is one translatable attribute of a record, addressed by a
// stable key so concurrent translation results can be reassembled
// regardless of arrival order.
type Field struct {
	Key   string
	Value string
}

// FeatureKey returns the field key for the i-th feature list entry.
func FeatureKey(i int) string {
	return fmt.Sprintf("features.%d", i)
}

// TranslatableFields enumerates the attributes of a domain's schema in
// key order, including one entry per feature list element. Empty
// fields are included; callers decide whether to skip them.
func TranslatableFields(domain Domain, attrs Attributes) []Field {
	var fields []Field
	switch domain {
	case DomainService:
		fields = append(fields,
			Field{Key: "title", Value: attrs.Title},
			Field{Key: "body", Value: attrs.Body},
		)
		for i, f := range attrs.Features {
			fields = append(fields, Field{Key: FeatureKey(i), Value: f})
		}
	case DomainJob:
		fields = append(fields,
			Field{Key: "title", Value: attrs.Title},
			Field{Key: "body", Value: attrs.Body},
			Field{Key: "position", Value: attrs.Position},
			Field{Key: "location", Value: attrs.Location},
			Field{Key: "requirements", Value: attrs.Requirements},
			Field{Key: "benefits", Value: attrs.Benefits},
		)
	case DomainNews:
		fields = append(fields,
			Field{Key: "title", Value: attrs.Title},
			Field{Key: "body", Value: attrs.Body},
		)
	}
	return fields
}

// AssembleAttributes rebuilds an Attributes value from translated
// field values keyed as in TranslatableFields. Keys absent from the
// map produce empty fields; the feature list keeps the canonical
// record's length so element positions stay aligned.
func AssembleAttributes(domain Domain, canonical Attributes, translated map[string]string) Attributes {
	attrs := Attributes{
		Title:        translated["title"],
		Body:         translated["body"],
		Position:     translated["position"],
		Location:     translated["location"],
		Requirements: translated["requirements"],
		Benefits:     translated["benefits"],
	}
	if domain == DomainService && len(canonical.Features) > 0 {
		attrs.Features = make([]string, len(canonical.Features))
		for i := range canonical.Features {
			attrs.Features[i] = translated[FeatureKey(i)]
		}
	}
	return attrs
}
