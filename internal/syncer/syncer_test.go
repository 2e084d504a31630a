package syncer

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/content"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/credential"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/provider"
	"github.com/NguyenTrunggg/ChimaHTT-logistics-sub000/internal/store"
)

type mockClient struct {
	translateFunc func(ctx context.Context, secret string, req provider.Request) (string, error)
	validateFunc  func(ctx context.Context, secret string) error
	translateCnt  atomic.Int32
	validateCnt   atomic.Int32
}

func (m *mockClient) TranslateText(ctx context.Context, secret string, req provider.Request) (string, error) {
	m.translateCnt.Add(1)
	if m.translateFunc != nil {
		return m.translateFunc(ctx, secret, req)
	}
	return strings.ToUpper(req.Text), nil
}

func (m *mockClient) ValidateCredential(ctx context.Context, secret string) error {
	m.validateCnt.Add(1)
	if m.validateFunc != nil {
		return m.validateFunc(ctx, secret)
	}
	return nil
}

func newTestSyncer(t *testing.T, client provider.Client) (*Synchronizer, *store.Store) {
	t.Helper()

	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, g := range credential.Groups {
		if err := db.SetValue(ctx, g.StoreKey(), "sk-or-test-"+string(g)); err != nil {
			t.Fatal(err)
		}
	}

	cfg := Config{
		CanonicalLocale: "vi",
		TargetLocales:   []string{"en", "zh"},
		Timeout:         5 * time.Second,
	}
	s := New(db, credential.NewCache(db), client, cfg, log.New(io.Discard, "", 0))
	return s, db
}

func localesOf(trs []content.Translation) map[string]content.Translation {
	m := make(map[string]content.Translation, len(trs))
	for _, tr := range trs {
		m[tr.Locale] = tr
	}
	return m
}

// Lenient service create with an uppercasing test provider.
func TestCreateEntity_Lenient_Service(t *testing.T) {
	s, db := newTestSyncer(t, &mockClient{})

	attrs := content.Attributes{
		Title:    "Vận chuyển",
		Body:     "Mô tả",
		Features: []string{"Nhanh"},
	}

	result, err := s.CreateEntity(context.Background(), content.DomainService, attrs, content.PolicyLenient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trs, err := db.ListTranslations(context.Background(), result.Entity.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) != 3 {
		t.Fatalf("expected 3 translation rows, got %d", len(trs))
	}

	byLocale := localesOf(trs)
	if byLocale["vi"].Attributes.Title != "Vận chuyển" {
		t.Errorf("canonical must stay untouched, got %q", byLocale["vi"].Attributes.Title)
	}
	for _, locale := range []string{"en", "zh"} {
		tr := byLocale[locale]
		if tr.Attributes.Title != "VẬN CHUYỂN" {
			t.Errorf("%s title = %q", locale, tr.Attributes.Title)
		}
		if tr.Attributes.Body != "MÔ TẢ" {
			t.Errorf("%s body = %q", locale, tr.Attributes.Body)
		}
		if len(tr.Attributes.Features) != 1 || tr.Attributes.Features[0] != "NHANH" {
			t.Errorf("%s features = %v", locale, tr.Attributes.Features)
		}
		if tr.Slug == "" {
			t.Errorf("%s derived row should carry a slug", locale)
		}
	}
}

// A job posting missing a required field is rejected before any write.
func TestCreateEntity_ValidationBeforeAnyWrite(t *testing.T) {
	client := &mockClient{}
	s, db := newTestSyncer(t, client)

	attrs := content.Attributes{Title: "Tuyển dụng", Location: "Lạng Sơn"} // position missing
	_, err := s.CreateEntity(context.Background(), content.DomainJob, attrs, content.PolicyStrict)

	var ve *content.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if client.translateCnt.Load() != 0 {
		t.Errorf("validation failure must precede provider calls, got %d", client.translateCnt.Load())
	}

	// No entity row, no translation rows.
	trs, listErr := db.ListTranslations(context.Background(), "")
	if listErr != nil {
		t.Fatal(listErr)
	}
	if len(trs) != 0 {
		t.Errorf("expected zero translation rows, got %d", len(trs))
	}
}

// Strict create where one locale fails: canonical commits, derived set stays empty.
func TestCreateEntity_Strict_ProviderFailure(t *testing.T) {
	client := &mockClient{
		translateFunc: func(ctx context.Context, secret string, req provider.Request) (string, error) {
			if req.TargetLocale == "zh" {
				return "", &provider.Error{Kind: provider.KindAuthInvalid, Msg: "401"}
			}
			return strings.ToUpper(req.Text), nil
		},
	}
	s, db := newTestSyncer(t, client)

	attrs := content.Attributes{
		Title:    "Tuyển tài xế",
		Body:     "Chạy tuyến Bắc Nam",
		Position: "Tài xế",
		Location: "Hà Nội",
	}
	result, err := s.CreateEntity(context.Background(), content.DomainJob, attrs, content.PolicyStrict)

	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected *SyncError, got %v", err)
	}
	if result == nil {
		t.Fatal("result should still carry the committed canonical state")
	}

	// Canonical committed and retrievable; no derived rows at all.
	trs, listErr := db.ListTranslations(context.Background(), result.Entity.ID)
	if listErr != nil {
		t.Fatal(listErr)
	}
	if len(trs) != 1 {
		t.Fatalf("strict failure must persist no derived locale, got %d rows", len(trs))
	}
	if trs[0].Locale != "vi" {
		t.Errorf("surviving row should be canonical, got %s", trs[0].Locale)
	}
}

// Lenient-policy property: derived set == succeeded locale set.
func TestCreateEntity_Lenient_PartialFailure(t *testing.T) {
	client := &mockClient{
		translateFunc: func(ctx context.Context, secret string, req provider.Request) (string, error) {
			if req.TargetLocale == "zh" {
				return "", &provider.Error{Kind: provider.KindNetworkOrTimeout, Msg: "boom"}
			}
			return strings.ToUpper(req.Text), nil
		},
	}
	s, db := newTestSyncer(t, client)

	result, err := s.CreateEntity(context.Background(), content.DomainNews,
		content.Attributes{Title: "Tin mới", Body: "Nội dung"}, content.PolicyLenient)
	if err != nil {
		t.Fatalf("lenient create must not fail on provider errors: %v", err)
	}

	trs, listErr := db.ListTranslations(context.Background(), result.Entity.ID)
	if listErr != nil {
		t.Fatal(listErr)
	}
	byLocale := localesOf(trs)
	if len(trs) != 2 {
		t.Fatalf("expected canonical + en only, got %d rows", len(trs))
	}
	if _, ok := byLocale["en"]; !ok {
		t.Error("succeeded locale en should be persisted")
	}
	if _, ok := byLocale["zh"]; ok {
		t.Error("failed locale zh must be absent")
	}
}

// Updates fully replace derived rows, re-translating unchanged fields too.
func TestUpdateEntity_FullReplacement(t *testing.T) {
	client := &mockClient{}
	s, db := newTestSyncer(t, client)
	ctx := context.Background()

	attrs := content.Attributes{Title: "Vận chuyển", Body: "Mô tả"}
	created, err := s.CreateEntity(ctx, content.DomainService, attrs, content.PolicyLenient)
	if err != nil {
		t.Fatal(err)
	}

	// Provider behavior changes; only the title changes in the canonical
	// record. Unchanged attributes must still be re-translated.
	client.translateFunc = func(ctx context.Context, secret string, req provider.Request) (string, error) {
		return "v2:" + strings.ToUpper(req.Text), nil
	}

	attrs.Title = "Vận chuyển quốc tế"
	updated, err := s.UpdateEntity(ctx, created.Entity.ID, attrs, content.PolicyLenient)
	if err != nil {
		t.Fatal(err)
	}

	trs, err := db.ListTranslations(ctx, updated.Entity.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) != 3 {
		t.Fatalf("update must not add rows, got %d", len(trs))
	}
	for _, locale := range []string{"en", "zh"} {
		tr := localesOf(trs)[locale]
		if !strings.HasPrefix(tr.Attributes.Body, "v2:") {
			t.Errorf("%s body not re-translated: %q", locale, tr.Attributes.Body)
		}
	}
}

func TestUpdateEntity_Idempotent(t *testing.T) {
	s, db := newTestSyncer(t, &mockClient{})
	ctx := context.Background()

	attrs := content.Attributes{Title: "Tin tức", Body: "Nội dung"}
	created, err := s.CreateEntity(ctx, content.DomainNews, attrs, content.PolicyLenient)
	if err != nil {
		t.Fatal(err)
	}

	first, err := s.UpdateEntity(ctx, created.Entity.ID, attrs, content.PolicyLenient)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.UpdateEntity(ctx, created.Entity.ID, attrs, content.PolicyLenient)
	if err != nil {
		t.Fatal(err)
	}

	firstByLocale := localesOf(first.Translations)
	secondByLocale := localesOf(second.Translations)
	for _, locale := range []string{"en", "zh"} {
		if firstByLocale[locale].Attributes.Title != secondByLocale[locale].Attributes.Title ||
			firstByLocale[locale].Attributes.Body != secondByLocale[locale].Attributes.Body {
			t.Errorf("%s: repeated update produced different content", locale)
		}
	}

	trs, err := db.ListTranslations(ctx, created.Entity.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) != 3 {
		t.Errorf("repeated updates must not create extra rows, got %d", len(trs))
	}
}

func TestUpdateEntity_NotFound(t *testing.T) {
	s, _ := newTestSyncer(t, &mockClient{})

	_, err := s.UpdateEntity(context.Background(), "missing",
		content.Attributes{Title: "x"}, content.PolicyLenient)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateEntity_ConfigMissingSurfaced(t *testing.T) {
	client := &mockClient{}
	s, db := newTestSyncer(t, client)
	ctx := context.Background()

	if err := db.DeleteValue(ctx, credential.GroupNews.StoreKey()); err != nil {
		t.Fatal(err)
	}

	_, err := s.CreateEntity(ctx, content.DomainNews,
		content.Attributes{Title: "Tin"}, content.PolicyLenient)
	if !errors.Is(err, credential.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
	if client.translateCnt.Load() != 0 {
		t.Errorf("missing credential must prevent dispatch, got %d calls", client.translateCnt.Load())
	}
}

func TestTestCredentialGroup(t *testing.T) {
	client := &mockClient{}
	s, db := newTestSyncer(t, client)
	ctx := context.Background()

	if !s.TestCredentialGroup(ctx, credential.GroupJob) {
		t.Error("expected valid credential")
	}

	// Quota exhaustion still counts as a valid key.
	client.validateFunc = func(ctx context.Context, secret string) error {
		return &provider.Error{Kind: provider.KindQuotaExceeded, Msg: "429"}
	}
	if !s.TestCredentialGroup(ctx, credential.GroupJob) {
		t.Error("quota exhaustion should report valid")
	}

	client.validateFunc = func(ctx context.Context, secret string) error {
		return &provider.Error{Kind: provider.KindAuthInvalid, Msg: "401"}
	}
	if s.TestCredentialGroup(ctx, credential.GroupJob) {
		t.Error("rejected key should report invalid")
	}

	// Unconfigured group reports false, never an error.
	if err := db.DeleteValue(ctx, credential.GroupNews.StoreKey()); err != nil {
		t.Fatal(err)
	}
	if s.TestCredentialGroup(ctx, credential.GroupNews) {
		t.Error("missing configuration should report invalid")
	}
}

func TestTestCredentialGroup_RefreshesCache(t *testing.T) {
	var lastSecret atomic.Value
	client := &mockClient{
		validateFunc: func(ctx context.Context, secret string) error {
			lastSecret.Store(secret)
			return nil
		},
	}
	s, db := newTestSyncer(t, client)
	ctx := context.Background()

	s.TestCredentialGroup(ctx, credential.GroupService)

	if err := db.SetValue(ctx, credential.GroupService.StoreKey(), "sk-or-rotated"); err != nil {
		t.Fatal(err)
	}
	s.TestCredentialGroup(ctx, credential.GroupService)

	if got := lastSecret.Load(); got != "sk-or-rotated" {
		t.Errorf("test must exercise the freshly stored secret, got %v", got)
	}
}

func TestTestCredentialValue(t *testing.T) {
	client := &mockClient{
		validateFunc: func(ctx context.Context, secret string) error {
			if secret == "sk-or-good-key-0001" {
				return nil
			}
			return &provider.Error{Kind: provider.KindAuthInvalid, Msg: "401"}
		},
	}
	s, _ := newTestSyncer(t, client)
	ctx := context.Background()

	if !s.TestCredentialValue(ctx, "sk-or-good-key-0001") {
		t.Error("expected valid")
	}
	if s.TestCredentialValue(ctx, "bogus") {
		t.Error("expected invalid")
	}
}

func TestSetCredential_InvalidatesCache(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	client := &mockClient{
		translateFunc: func(ctx context.Context, secret string, req provider.Request) (string, error) {
			mu.Lock()
			seen = append(seen, secret)
			mu.Unlock()
			return strings.ToUpper(req.Text), nil
		},
	}
	s, _ := newTestSyncer(t, client)
	ctx := context.Background()

	if _, err := s.CreateEntity(ctx, content.DomainNews,
		content.Attributes{Title: "Tin"}, content.PolicyLenient); err != nil {
		t.Fatal(err)
	}

	if err := s.SetCredential(ctx, credential.GroupNews, "sk-or-rotated"); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	seen = seen[:0]
	mu.Unlock()
	if _, err := s.CreateEntity(ctx, content.DomainNews,
		content.Attributes{Title: "Tin khác"}, content.PolicyLenient); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, secret := range seen {
		if secret != "sk-or-rotated" {
			t.Fatalf("write-then-translate used stale secret %q", secret)
		}
	}
}
