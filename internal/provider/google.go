package provider

import (
	"context"
	"errors"
	"strings"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleClient translates through the Google Cloud Translation API.
// The per-call secret is a service-account credentials file path.
type GoogleClient struct{}

// NewGoogleClient returns a Google Cloud Translation client.
func NewGoogleClient() *GoogleClient {
	return &GoogleClient{}
}

// TranslateText sends one text blob to Google Cloud Translation.
// Empty input short-circuits without a call.
func (c *GoogleClient) TranslateText(ctx context.Context, secret string, req Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", nil
	}

	targetTag, err := language.Parse(req.TargetLocale)
	if err != nil {
		return "", &Error{Kind: KindNetworkOrTimeout, Msg: "invalid target locale", Err: err}
	}

	client, err := translate.NewClient(ctx, option.WithCredentialsFile(secret))
	if err != nil {
		return "", classifyGoogleErr(err, "create client")
	}
	defer client.Close()

	var opts *translate.Options
	if req.SourceLocale != "" {
		if sourceTag, parseErr := language.Parse(req.SourceLocale); parseErr == nil {
			opts = &translate.Options{Source: sourceTag}
		}
	}

	translations, err := client.Translate(ctx, []string{req.Text}, targetTag, opts)
	if err != nil {
		return "", classifyGoogleErr(err, "translate")
	}
	if len(translations) == 0 || strings.TrimSpace(translations[0].Text) == "" {
		return "", &Error{Kind: KindEmptyResponse, Msg: "no translation returned"}
	}
	return translations[0].Text, nil
}

// ValidateCredential exercises the credentials with a minimal
// single-word translation. An empty secret fails without a call.
func (c *GoogleClient) ValidateCredential(ctx context.Context, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return &Error{Kind: KindAuthInvalid, Msg: "empty credentials path"}
	}
	_, err := c.TranslateText(ctx, secret, Request{Text: "ping", TargetLocale: "en"})
	return err
}

func classifyGoogleErr(err error, msg string) *Error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		pe := classifyStatus(apiErr.Code)
		pe.Msg = msg
		pe.Err = err
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindNetworkOrTimeout, Msg: msg, Err: err}
	}
	// Credential file problems surface before any HTTP exchange.
	if strings.Contains(err.Error(), "credentials") {
		return &Error{Kind: KindAuthInvalid, Msg: msg, Err: err}
	}
	return &Error{Kind: KindNetworkOrTimeout, Msg: msg, Err: err}
}
