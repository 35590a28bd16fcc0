package registry

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/interfaces"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
)

type stubProvider struct {
	name    string
	records []types.ResultRecord
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, query string, limit int) ([]types.ResultRecord, error) {
	s.calls++
	return s.records, s.err
}

func testLogger() *logging.Logger {
	return logging.New("debug", false, io.Discard)
}

func newChain(t *testing.T, priority []string, providers ...*stubProvider) *Chain {
	t.Helper()
	available := make(map[string]interfaces.Provider, len(providers))
	for _, p := range providers {
		available[p.name] = p
	}
	c, err := New(priority, available, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New([]string{"api", "nope"}, map[string]interfaces.Provider{
		"api": &stubProvider{name: "api"},
	}, testLogger())
	if err == nil {
		t.Fatal("New() should reject an unknown provider name")
	}
}

func TestNew_EmptyPriority(t *testing.T) {
	if _, err := New(nil, nil, testLogger()); err == nil {
		t.Fatal("New() should reject an empty priority list")
	}
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &stubProvider{name: "api", records: []types.ResultRecord{{ID: "aaaaaaaaaa1"}}}
	second := &stubProvider{name: "mirror", records: []types.ResultRecord{{ID: "bbbbbbbbbb2"}}}

	c := newChain(t, []string{"api", "mirror"}, first, second)

	records, err := c.Search(context.Background(), "lofi", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "aaaaaaaaaa1" {
		t.Errorf("records = %v, want the first provider's result", records)
	}
	if second.calls != 0 {
		t.Errorf("second provider called %d times, want 0", second.calls)
	}
}

func TestChain_ErrorAdvances(t *testing.T) {
	first := &stubProvider{name: "api", err: types.ErrUpstreamUnavailable}
	second := &stubProvider{name: "mirror", records: []types.ResultRecord{{ID: "bbbbbbbbbb2"}}}

	c := newChain(t, []string{"api", "mirror"}, first, second)

	records, err := c.Search(context.Background(), "lofi", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "bbbbbbbbbb2" {
		t.Errorf("records = %v, want the fallback provider's result", records)
	}
}

func TestChain_EmptySuccessIsTerminal(t *testing.T) {
	first := &stubProvider{name: "api", records: []types.ResultRecord{}}
	second := &stubProvider{name: "mirror", records: []types.ResultRecord{{ID: "bbbbbbbbbb2"}}}

	c := newChain(t, []string{"api", "mirror"}, first, second)

	records, err := c.Search(context.Background(), "zzzz no hits", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0: an empty success must not fall through", len(records))
	}
	if second.calls != 0 {
		t.Errorf("second provider called %d times, want 0", second.calls)
	}
}

func TestChain_MissingCredentialSurfaces(t *testing.T) {
	first := &stubProvider{name: "api", err: types.ErrMissingCredential}
	second := &stubProvider{name: "mirror", records: []types.ResultRecord{{ID: "bbbbbbbbbb2"}}}

	c := newChain(t, []string{"api", "mirror"}, first, second)

	_, err := c.Search(context.Background(), "lofi", 5)
	if !errors.Is(err, types.ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
	if second.calls != 0 {
		t.Errorf("fallback called %d times, want 0 on a credential error", second.calls)
	}
}

func TestChain_AllFailReturnsLastError(t *testing.T) {
	sentinel := errors.New("mirror down")
	first := &stubProvider{name: "api", err: types.ErrUpstreamUnavailable}
	second := &stubProvider{name: "mirror", err: sentinel}

	c := newChain(t, []string{"api", "mirror"}, first, second)

	_, err := c.Search(context.Background(), "lofi", 5)
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want the last provider's error", err)
	}
}

func TestChain_Names(t *testing.T) {
	c := newChain(t, []string{"mirror", "api"},
		&stubProvider{name: "api"}, &stubProvider{name: "mirror"})

	names := c.Names()
	if len(names) != 2 || names[0] != "mirror" || names[1] != "api" {
		t.Errorf("Names() = %v, want [mirror api]", names)
	}
}
