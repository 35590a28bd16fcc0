package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type directClient struct{}

func (directClient) Do(req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}

const invidiousFixture = `[
	{"type":"video","videoId":"abcdefghijk","title":"mirror hit","lengthSeconds":212,
	 "videoThumbnails":[{"quality":"medium","url":"https://i.ytimg.com/vi/abcdefghijk/mqdefault.jpg"}]},
	{"type":"channel","videoId":"","title":"a channel"},
	{"type":"video","videoId":"lmnopqrstuv","title":"second hit","lengthSeconds":95,"videoThumbnails":[]}
]`

const pipedFixture = `{"items":[
	{"url":"/watch?v=dQw4w9WgXcQ","title":"piped hit","duration":213,"thumbnail":"https://pipedproxy.example/t.jpg"},
	{"url":"/watch?v=zzzzzzzzzzz","title":"live stream","duration":-1,"thumbnail":""}
]}`

func jsonServer(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
}

func failingServer(hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
}

func TestMirrorProvider_FirstSuccessWins(t *testing.T) {
	down1 := failingServer(nil)
	defer down1.Close()
	down2 := failingServer(nil)
	defer down2.Close()
	good := jsonServer(invidiousFixture)
	defer good.Close()

	var pipedHits atomic.Int32
	piped := failingServer(&pipedHits)
	defer piped.Close()

	p := NewMirrorProvider(
		[]string{down1.URL, down2.URL, good.URL},
		[]string{piped.URL},
		false, directClient{}, testLogger())

	records, err := p.Search(context.Background(), "lofi", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 from the third mirror", len(records))
	}
	if records[0].ID != "abcdefghijk" || records[0].Title != "mirror hit" {
		t.Errorf("record 0 = %+v, want the third mirror's first video", records[0])
	}
	if records[1].ThumbnailURL != "https://i.ytimg.com/vi/lmnopqrstuv/mqdefault.jpg" {
		t.Errorf("record 1 thumbnail = %q, want the synthesized fallback", records[1].ThumbnailURL)
	}
	if pipedHits.Load() != 0 {
		t.Errorf("pool B received %d requests, want 0 once pool A succeeded", pipedHits.Load())
	}
}

func TestMirrorProvider_FallsThroughToPiped(t *testing.T) {
	down := failingServer(nil)
	defer down.Close()
	piped := jsonServer(pipedFixture)
	defer piped.Close()

	p := NewMirrorProvider([]string{down.URL}, []string{piped.URL}, false, directClient{}, testLogger())

	records, err := p.Search(context.Background(), "lofi", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "dQw4w9WgXcQ" {
		t.Errorf("record 0 ID = %q, want dQw4w9WgXcQ", records[0].ID)
	}
	if records[1].DurationSeconds != 0 {
		t.Errorf("live duration = %d, want 0", records[1].DurationSeconds)
	}
	if records[1].ThumbnailURL == "" {
		t.Error("empty thumbnail should be synthesized")
	}
}

func TestMirrorProvider_ExhaustedIsEmptyNotError(t *testing.T) {
	downA := failingServer(nil)
	defer downA.Close()
	downB := failingServer(nil)
	defer downB.Close()

	p := NewMirrorProvider([]string{downA.URL}, []string{downB.URL}, false, directClient{}, testLogger())

	records, err := p.Search(context.Background(), "lofi", 10)
	if err != nil {
		t.Fatalf("Search() error = %v, want nil on exhaustion", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("records = %v, want empty non-nil slice", records)
	}
}

func TestMirrorProvider_TruncatesToLimit(t *testing.T) {
	srv := jsonServer(invidiousFixture)
	defer srv.Close()

	p := NewMirrorProvider([]string{srv.URL}, nil, false, directClient{}, testLogger())

	records, err := p.Search(context.Background(), "lofi", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
}

func TestMirrorProvider_SearchDebug(t *testing.T) {
	down := failingServer(nil)
	defer down.Close()
	good := jsonServer(invidiousFixture)
	defer good.Close()

	p := NewMirrorProvider([]string{down.URL, good.URL}, nil, false, directClient{}, testLogger())

	records, attempts := p.SearchDebug(context.Background(), "lofi", 10)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	if len(attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(attempts))
	}
	if attempts[0].OK || attempts[0].Error == "" {
		t.Errorf("attempt 0 = %+v, want a recorded failure", attempts[0])
	}
	if !attempts[1].OK || attempts[1].Count != 2 {
		t.Errorf("attempt 1 = %+v, want OK with count 2", attempts[1])
	}
}

func TestPipedVideoID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://piped.video/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"/playlist?list=PL123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := pipedVideoID(tt.in); got != tt.want {
			t.Errorf("pipedVideoID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
