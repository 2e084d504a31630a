// Package syncer keeps machine-translated locale copies of content in
// step with the canonical record: it persists the canonical write,
// fans translation out across every target locale concurrently, and
// applies a strict or lenient failure policy to the join.
package syncer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/content"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/credential"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/fields"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/provider"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/slug"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/store"
)

// DefaultTimeout bounds each locale's translation pass.
const DefaultTimeout = 2 * time.Minute

// Config carries the synchronizer's locale set and per-locale timeout.
type Config struct {
	CanonicalLocale string
	TargetLocales   []string
	Timeout         time.Duration
}

// SyncError aggregates per-locale translation failures that surfaced
// after the canonical write had already committed. The canonical row
// stays retrievable; the error names every failed locale and field.
type SyncError struct {
	EntityID string
	Errs     []error
}

func (e *SyncError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("sync entity %s (canonical committed): %s", e.EntityID, strings.Join(msgs, "; "))
}

func (e *SyncError) Unwrap() []error { return e.Errs }

// Result is what a caller gets back from a create or update: the
// entity plus every translation row that now exists for it.
type Result struct {
	Entity       content.Entity
	Translations []content.Translation
}

// Synchronizer orchestrates canonical persistence and fan-out
// translation. One instance is shared across operations; the
// credential cache inside it is the only mutable shared state.
type Synchronizer struct {
	store  *store.Store
	creds  *credential.Cache
	client provider.Client
	fields *fields.Translator
	slugs  *slug.Assigner
	cfg    Config
	logger *log.Logger

	now   func() time.Time
	newID func() string
}

// New wires a Synchronizer. A nil logger falls back to log.Default;
// a zero timeout falls back to DefaultTimeout.
func New(st *store.Store, creds *credential.Cache, client provider.Client, cfg Config, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Synchronizer{
		store:  st,
		creds:  creds,
		client: client,
		fields: fields.New(client, cfg.CanonicalLocale, logger),
		slugs:  slug.New(),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// groupFor maps a content domain onto its credential group. Both are
// closed enums, so the mapping is total.
func groupFor(domain content.Domain) credential.Group {
	switch domain {
	case content.DomainJob:
		return credential.GroupJob
	case content.DomainNews:
		return credential.GroupNews
	default:
		return credential.GroupService
	}
}

// CreateEntity validates the canonical attributes, persists the entity
// with its canonical translation, then translates into every target
// locale. Validation failures reject the whole operation before any
// write or provider call.
func (s *Synchronizer) CreateEntity(ctx context.Context, domain content.Domain, attrs content.Attributes, policy content.Policy) (*Result, error) {
	if err := content.Validate(domain, attrs); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entity := content.Entity{
		ID:        s.newID(),
		Domain:    domain,
		CreatedAt: now,
		UpdatedAt: now,
	}
	canonical := content.Translation{
		EntityID:   entity.ID,
		Locale:     s.cfg.CanonicalLocale,
		Attributes: attrs,
		Slug:       s.slugs.Make(attrs.Title),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateEntity(ctx, entity, canonical); err != nil {
		return nil, fmt.Errorf("persist canonical: %w", err)
	}

	return s.translateAndPersist(ctx, entity, canonical, policy)
}

// UpdateEntity replaces the canonical translation and re-derives every
// target locale from scratch. Derived rows are fully overwritten, not
// merged with their previous content.
func (s *Synchronizer) UpdateEntity(ctx context.Context, id string, attrs content.Attributes, policy content.Policy) (*Result, error) {
	entity, err := s.store.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := content.Validate(entity.Domain, attrs); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entity.UpdatedAt = now
	canonical := content.Translation{
		EntityID:   entity.ID,
		Locale:     s.cfg.CanonicalLocale,
		Attributes: attrs,
		Slug:       s.slugs.Make(attrs.Title),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.ReplaceCanonical(ctx, canonical); err != nil {
		return nil, fmt.Errorf("persist canonical: %w", err)
	}

	return s.translateAndPersist(ctx, *entity, canonical, policy)
}

// translateAndPersist runs step 2 and 3 of the sync state machine:
// concurrent per-locale translation, then the policy-dependent join
// and persistence of derived rows. The canonical write has already
// committed by the time this runs.
func (s *Synchronizer) translateAndPersist(ctx context.Context, entity content.Entity, canonical content.Translation, policy content.Policy) (*Result, error) {
	result := &Result{Entity: entity, Translations: []content.Translation{canonical}}

	// Credential problems are detected before any provider dispatch.
	secret, err := s.creds.Get(ctx, groupFor(entity.Domain))
	if err != nil {
		return result, err
	}

	type localeResult struct {
		locale string
		tr     content.Translation
		err    error
	}
	results := make(chan localeResult, len(s.cfg.TargetLocales))

	var wg sync.WaitGroup
	for _, locale := range s.cfg.TargetLocales {
		wg.Add(1)
		go func(locale string) {
			defer wg.Done()

			localeCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
			defer cancel()

			fieldMap, err := s.fields.Translate(localeCtx, entity.Domain, canonical.Attributes, locale, secret, policy)
			if err != nil {
				results <- localeResult{locale: locale, err: err}
				return
			}

			now := s.now().UTC()
			results <- localeResult{locale: locale, tr: content.Translation{
				EntityID:   entity.ID,
				Locale:     locale,
				Attributes: content.AssembleAttributes(entity.Domain, canonical.Attributes, fieldMap),
				Slug:       s.slugs.Make(fieldMap["title"]),
				CreatedAt:  now,
				UpdatedAt:  now,
			}}
		}(locale)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var derived []content.Translation
	var localeErrs []error
	for r := range results {
		if r.err != nil {
			localeErrs = append(localeErrs, r.err)
			continue
		}
		derived = append(derived, r.tr)
	}
	sort.Slice(derived, func(i, j int) bool { return derived[i].Locale < derived[j].Locale })

	if policy == content.PolicyStrict && len(localeErrs) > 0 {
		// All-or-nothing for the derived set: persist none. The
		// canonical write stays committed, which the error says out loud.
		return result, &SyncError{EntityID: entity.ID, Errs: localeErrs}
	}

	for _, err := range localeErrs {
		s.logger.Printf("lenient sync %s: skipping locale: %v", entity.ID, err)
	}

	if err := s.store.UpsertTranslations(ctx, derived); err != nil {
		return result, fmt.Errorf("persist derived translations: %w", err)
	}
	result.Translations = append(result.Translations, derived...)

	return result, nil
}

// TestCredentialGroup re-reads the group's secret from the store
// (refreshing the cache) and exercises it against the provider. Quota
// exhaustion counts as valid; every other failure, including a missing
// configuration value, reports false. It never returns an error.
func (s *Synchronizer) TestCredentialGroup(ctx context.Context, group credential.Group) bool {
	s.creds.Invalidate(group)
	secret, err := s.creds.Get(ctx, group)
	if err != nil {
		return false
	}
	return provider.CredentialUsable(s.client.ValidateCredential(ctx, secret))
}

// TestCredentialValue validates an arbitrary, not-yet-stored secret.
// The cache is untouched.
func (s *Synchronizer) TestCredentialValue(ctx context.Context, secret string) bool {
	return provider.CredentialUsable(s.client.ValidateCredential(ctx, secret))
}

// SetCredential stores a group's secret and invalidates the cached
// copy, so a write followed by a translation never runs on a stale
// secret.
func (s *Synchronizer) SetCredential(ctx context.Context, group credential.Group, secret string) error {
	if err := s.store.SetValue(ctx, group.StoreKey(), secret); err != nil {
		return fmt.Errorf("store credential for %s: %w", group, err)
	}
	s.creds.Invalidate(group)
	return nil
}

// DeleteCredential removes a group's secret from the store and cache.
func (s *Synchronizer) DeleteCredential(ctx context.Context, group credential.Group) error {
	if err := s.store.DeleteValue(ctx, group.StoreKey()); err != nil {
		return fmt.Errorf("delete credential for %s: %w", group, err)
	}
	s.creds.Invalidate(group)
	return nil
}

// GetEntity returns an entity and all its translation rows.
func (s *Synchronizer) GetEntity(ctx context.Context, id string) (*Result, error) {
	entity, err := s.store.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	translations, err := s.store.ListTranslations(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Result{Entity: *entity, Translations: translations}, nil
}
