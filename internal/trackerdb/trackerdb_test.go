package trackerdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trackerscope/internal/dnsclient"
)

const sampleDB = `{
  "timeUpdated": "2026-09-01",
  "categories": {"advertising": {"name": "Advertising"}},
  "patterns": {
    "google_analytics": {
      "name": "Google Analytics",
      "category": "site_analytics",
      "organization": "google",
      "domains": ["google-analytics.com", ".Analytics.Google.com"]
    },
    "no_domains": {"name": "Pattern only", "category": "advertising", "organization": "x", "domains": []},
    "adco": {"name": "AdCo", "category": "", "domains": ["tracker.com"]},
    "doubleclick": {"name": "DoubleClick", "category": "advertising", "organization": "google", "domains": ["doubleclick.net"]}
  },
  "organizations": {"google": {"name": "Google"}}
}`

func strPtr(s string) *string { return &s }

func TestDecode_PreservesOrder(t *testing.T) {
	src, err := Decode(strings.NewReader(sampleDB))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ids, _ := src.Snapshot(context.Background())
	want := []string{"google_analytics", "no_domains", "adco", "doubleclick"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("expected ids %v, got %v", want, ids)
	}

	ga, ok := src.Tracker("google_analytics")
	if !ok {
		t.Fatal("google_analytics missing")
	}
	if ga.CompanyID == nil || *ga.CompanyID != "google" {
		t.Errorf("expected company google, got %v", ga.CompanyID)
	}
	if adco, _ := src.Tracker("adco"); adco.CompanyID != nil {
		t.Errorf("expected nil company for adco, got %v", *adco.CompanyID)
	}
}

func TestDecode_WhoTracksMeLayout(t *testing.T) {
	src, err := Decode(strings.NewReader(`{"trackers": {"hotjar": {"company_id": "hotjar", "category": "site_analytics", "domains": ["hotjar.com"]}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tr, ok := src.Tracker("hotjar")
	if !ok || tr.CompanyID == nil || *tr.CompanyID != "hotjar" || tr.Category != "site_analytics" {
		t.Errorf("unexpected tracker %+v", tr)
	}
}

func TestDecode_Errors(t *testing.T) {
	for _, input := range []string{`[]`, `{"categories": {}}`, `{"patterns": []}`, `{"patterns": {"x": {"domains": "nope"}}}`} {
		if _, err := Decode(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %s", input)
		}
	}
}

func TestBuild(t *testing.T) {
	src, err := Decode(strings.NewReader(sampleDB))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	ref, err := Build(context.Background(), src)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var domains []string
	for _, e := range ref.Entries() {
		domains = append(domains, e.Domain)
	}
	want := "google-analytics.com,analytics.google.com,tracker.com,doubleclick.net"
	if strings.Join(domains, ",") != want {
		t.Errorf("expected %s, got %s", want, strings.Join(domains, ","))
	}

	rec, ok := ref.Lookup("tracker.com")
	if !ok {
		t.Fatal("tracker.com missing")
	}
	if rec.Company != nil || len(rec.Categories) != 0 || rec.Categories == nil {
		t.Errorf("expected null company and empty categories, got %+v", rec)
	}

	rec, _ = ref.Lookup("doubleclick.net")
	if len(rec.Categories) != 1 || rec.Categories[0] != "advertising" {
		t.Errorf("unexpected categories %v", rec.Categories)
	}
}

func TestBuild_LastWriteWinsKeepsPosition(t *testing.T) {
	src := &StaticSource{
		IDs: []string{"first", "second", "missing"},
		Trackers: map[string]Tracker{
			"first":  {Domains: []string{"shared.com", "a.com"}, CompanyID: strPtr("one"), Category: "ads"},
			"second": {Domains: []string{"SHARED.com"}, CompanyID: strPtr("two"), Category: "analytics"},
		},
	}
	ref, err := Build(context.Background(), src)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ref.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", ref.Len())
	}
	first := ref.Entries()[0]
	if first.Domain != "shared.com" || *first.Company != "two" || first.Categories[0] != "analytics" {
		t.Errorf("expected shared.com first with the later tracker's data, got %+v", first)
	}
}

func TestLoad_DownloadsOnFirstUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleDB))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "trackerdb.json")
	ref, err := Load(context.Background(), dnsclient.NewFetcher(), srv.URL, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ref.Len() != 4 {
		t.Errorf("expected 4 domains, got %d", ref.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("dataset should be cached: %v", err)
	}
}

func TestLoad_DatasetUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), dnsclient.NewFetcher(), srv.URL, filepath.Join(t.TempDir(), "trackerdb.json"))
	if !errors.Is(err, ErrDatasetUnavailable) {
		t.Fatalf("expected ErrDatasetUnavailable, got %v", err)
	}
	var netErr *dnsclient.NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("expected wrapped NetworkError, got %v", err)
	}
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrDatasetUnavailable) {
		t.Errorf("expected ErrDatasetUnavailable, got %v", err)
	}
}
