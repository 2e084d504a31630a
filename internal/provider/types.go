// Package provider talks to the external text-generation service that
// produces machine translations, and classifies its failures so
// callers can distinguish a rejected key from an exhausted quota.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a provider failure.
type Kind int

const (
	// KindAuthInvalid means the credential was rejected outright.
	KindAuthInvalid Kind = iota
	// KindPermissionDenied means the credential is recognized but not
	// allowed to perform the call.
	KindPermissionDenied
	// KindQuotaExceeded means the credential is valid but temporarily
	// unusable. Credential-validity checks treat this as success.
	KindQuotaExceeded
	// KindNetworkOrTimeout covers transport failures and deadline
	// expiry before a classified provider response arrived.
	KindNetworkOrTimeout
	// KindEmptyResponse means the provider answered without usable text.
	KindEmptyResponse
)

func (k Kind) String() string {
	switch k {
	case KindAuthInvalid:
		return "auth_invalid"
	case KindPermissionDenied:
		return "permission_denied"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindNetworkOrTimeout:
		return "network_or_timeout"
	case KindEmptyResponse:
		return "empty_response"
	}
	return "unknown"
}

// Error is a classified provider failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain. The second
// return is false when the error did not originate from a provider.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// Request is one text blob to translate.
type Request struct {
	Text         string
	SourceLocale string
	TargetLocale string
}

// Client is the translation provider boundary. TranslateText sends a
// single text blob with an explicit credential; empty input returns an
// empty result without any network call. ValidateCredential performs
// the cheapest possible check of whether a credential is usable; it
// returns a classified *Error on failure and nil when usable.
type Client interface {
	TranslateText(ctx context.Context, secret string, req Request) (string, error)
	ValidateCredential(ctx context.Context, secret string) error
}

// CredentialUsable interprets a ValidateCredential outcome: a nil
// error is usable, and so is QuotaExceeded, because the key itself is
// valid even while the provider refuses more work on it.
func CredentialUsable(err error) bool {
	if err == nil {
		return true
	}
	if kind, ok := KindOf(err); ok && kind == KindQuotaExceeded {
		return true
	}
	return false
}
