package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"trackerscope/internal/models"
	"trackerscope/internal/trackerdb"
)

func strPtr(s string) *string { return &s }

func event(scriptURL, siteURL string) models.ObservedEvent {
	raw := func(s string) json.RawMessage {
		b, _ := json.Marshal(s)
		return b
	}
	return models.ObservedEvent{
		ScriptURL:   raw(scriptURL),
		TopLevelURL: raw(siteURL),
		Object:      raw("window.navigator"),
		Property:    raw("userAgent"),
		Timestamp:   raw("2026-01-01T00:00:00Z"),
	}
}

func testReference() *trackerdb.Reference {
	ref := trackerdb.NewReference()
	ref.Set("tracker.com", strPtr("AdCo"), []string{"advertising"})
	ref.Set("google-analytics.com", strPtr("google"), []string{"site_analytics"})
	return ref
}

type fakeUncloaker map[string][]string

func (f fakeUncloaker) CNAMEChain(_ context.Context, host string) ([]string, error) {
	if host == "broken.site.com" {
		return nil, errors.New("timeout")
	}
	return f[host], nil
}

func TestVerifyTracker_EndToEnd(t *testing.T) {
	c := NewEventClassifier(testReference())
	r := c.VerifyTracker(context.Background(), event("https://ads.tracker.com/x.js", "https://site.com"))

	if !r.IsTracker || r.TrackerDomain != "tracker.com" || !r.ThirdParty {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.Company == nil || *r.Company != "AdCo" {
		t.Errorf("expected company AdCo, got %v", r.Company)
	}
	if len(r.Categories) != 1 || r.Categories[0] != "advertising" {
		t.Errorf("expected [advertising], got %v", r.Categories)
	}
}

func TestVerifyTracker_Miss(t *testing.T) {
	c := NewEventClassifier(testReference())

	firstParty := c.VerifyTracker(context.Background(), event("https://site.com/app.js", "https://SITE.com/page"))
	if firstParty.IsTracker || firstParty.ThirdParty {
		t.Errorf("expected first-party miss, got %+v", firstParty)
	}

	lookalike := c.VerifyTracker(context.Background(), event("https://nottracker.com/a.js", "https://site.com"))
	if lookalike.IsTracker || !lookalike.ThirdParty {
		t.Errorf("expected third-party miss, got %+v", lookalike)
	}
}

func TestVerifyTracker_MalformedURLs(t *testing.T) {
	c := NewEventClassifier(testReference())
	r := c.VerifyTracker(context.Background(), event("http://[::1", "https://site.com"))
	if r.IsTracker || !r.ThirdParty {
		t.Errorf("malformed script URL should be a third-party miss, got %+v", r)
	}

	r = c.VerifyTracker(context.Background(), models.ObservedEvent{})
	if r.IsTracker || r.ThirdParty {
		t.Errorf("event without URLs should be a first-party miss, got %+v", r)
	}
}

func TestVerifyTracker_FirstMatchInReferenceOrder(t *testing.T) {
	ref := trackerdb.NewReference()
	ref.Set("example.com", strPtr("Parent"), []string{"cdn"})
	ref.Set("ads.example.com", strPtr("Child"), []string{"advertising"})

	r := NewEventClassifier(ref).VerifyTracker(context.Background(), event("https://x.ads.example.com/t.js", "https://site.com"))
	if r.TrackerDomain != "example.com" || *r.Company != "Parent" {
		t.Errorf("expected first entry example.com, got %s", r.TrackerDomain)
	}

	reversed := trackerdb.NewReference()
	reversed.Set("ads.example.com", strPtr("Child"), []string{"advertising"})
	reversed.Set("example.com", strPtr("Parent"), []string{"cdn"})

	r = NewEventClassifier(reversed).VerifyTracker(context.Background(), event("https://x.ads.example.com/t.js", "https://site.com"))
	if r.TrackerDomain != "ads.example.com" {
		t.Errorf("expected first entry ads.example.com, got %s", r.TrackerDomain)
	}
}

func TestVerifyTracker_CNAMEUncloaking(t *testing.T) {
	c := NewEventClassifier(testReference())
	c.Uncloaker = fakeUncloaker{
		"metrics.site.com": {"site.com.edge.net", "collect.tracker.com"},
	}

	r := c.VerifyTracker(context.Background(), event("https://metrics.site.com/s.js", "https://site.com"))
	if !r.IsTracker || r.TrackerDomain != "tracker.com" || r.CNAMETarget != "collect.tracker.com" {
		t.Errorf("expected cloaked tracker via collect.tracker.com, got %+v", r)
	}

	r = c.VerifyTracker(context.Background(), event("https://broken.site.com/s.js", "https://site.com"))
	if r.IsTracker {
		t.Errorf("resolver failure should leave a miss, got %+v", r)
	}

	r = c.VerifyTracker(context.Background(), event("https://ads.tracker.com/x.js", "https://site.com"))
	if r.CNAMETarget != "" {
		t.Errorf("direct hits must not be uncloaked, got %q", r.CNAMETarget)
	}
}

func TestAnalyzeEvents_PreservesOrder(t *testing.T) {
	var events []models.ObservedEvent
	for i := 0; i < 50; i++ {
		if i%3 == 0 {
			events = append(events, event(fmt.Sprintf("https://s%d.tracker.com/x.js", i), "https://site.com"))
		} else {
			events = append(events, event(fmt.Sprintf("https://cdn%d.site.com/x.js", i), "https://site.com"))
		}
	}

	for _, workers := range []int{1, 8} {
		c := NewEventClassifier(testReference())
		c.Workers = workers
		results, err := c.AnalyzeEvents(context.Background(), events)
		if err != nil {
			t.Fatalf("workers=%d: unexpected error %v", workers, err)
		}
		if len(results) != len(events) {
			t.Fatalf("workers=%d: expected %d results, got %d", workers, len(events), len(results))
		}
		for i, r := range results {
			if string(r.ScriptURL) != string(events[i].ScriptURL) {
				t.Errorf("workers=%d: result %d out of order", workers, i)
			}
			if r.IsTracker != (i%3 == 0) {
				t.Errorf("workers=%d: result %d is_tracker=%v", workers, i, r.IsTracker)
			}
		}
	}
}

func TestAnalyzeEvents_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEventClassifier(testReference()).AnalyzeEvents(ctx, []models.ObservedEvent{event("https://a.com", "https://b.com")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
