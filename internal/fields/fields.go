// Package fields translates every translatable attribute of a content
// record into one target locale, fanning provider calls out per field.
package fields

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/content"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/provider"
)

// FieldError identifies the field and locale a translation failed on.
type FieldError struct {
	Field  string
	Locale string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("translate field %q to %s: %v", e.Field, e.Locale, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Translator fans out one provider call per non-empty field and
// reassembles the results into a field map keyed by the record's
// schema, independent of call completion order.
type Translator struct {
	client       provider.Client
	sourceLocale string
	logger       *log.Logger
}

// New builds a field translator. The logger records Lenient-path
// omissions; nil falls back to the default logger.
func New(client provider.Client, sourceLocale string, logger *log.Logger) *Translator {
	if logger == nil {
		logger = log.Default()
	}
	return &Translator{client: client, sourceLocale: sourceLocale, logger: logger}
}

// Translate renders the record's attributes into targetLocale using
// the given secret. Empty canonical fields are mapped to empty output
// without a provider call.
//
// Under PolicyStrict any field failure aborts the call with a
// *FieldError. Under PolicyLenient failed fields are logged and
// omitted from the returned map; the call itself never fails.
func (t *Translator) Translate(ctx context.Context, domain content.Domain, attrs content.Attributes, targetLocale, secret string, policy content.Policy) (map[string]string, error) {
	schema := content.TranslatableFields(domain, attrs)

	out := make(map[string]string, len(schema))

	type fieldResult struct {
		key  string
		text string
		err  error
	}
	results := make(chan fieldResult, len(schema))

	var wg sync.WaitGroup
	for _, f := range schema {
		if f.Value == "" {
			// Empty in the canonical record: present in the map, no call.
			out[f.Key] = ""
			continue
		}
		wg.Add(1)
		go func(f content.Field) {
			defer wg.Done()
			text, err := t.client.TranslateText(ctx, secret, provider.Request{
				Text:         f.Value,
				SourceLocale: t.sourceLocale,
				TargetLocale: targetLocale,
			})
			results <- fieldResult{key: f.Key, text: text, err: err}
		}(f)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr *FieldError
	for r := range results {
		if r.err != nil {
			fe := &FieldError{Field: r.key, Locale: targetLocale, Err: r.err}
			if policy == content.PolicyStrict {
				if firstErr == nil {
					firstErr = fe
				}
				continue
			}
			t.logger.Printf("lenient translate: dropping field %q for %s: %v", r.key, targetLocale, r.err)
			continue
		}
		out[r.key] = r.text
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
