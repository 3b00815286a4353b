package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEventResultMarshal_Miss(t *testing.T) {
	r := EventResult{
		ScriptURL:  json.RawMessage(`"https://cdn.site.com/a.js"`),
		Timestamp:  json.RawMessage(`1700000000`),
		ThirdParty: false,
	}
	got, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"script_url":"https://cdn.site.com/a.js","top_level_url":null,"object":null,"property":null,"timestamp":1700000000,"is_tracker":false,"third_party":false}`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestEventResultMarshal_Hit(t *testing.T) {
	r := EventResult{
		ScriptURL:     json.RawMessage(`"https://ads.tracker.com/x.js"`),
		TopLevelURL:   json.RawMessage(`"https://site.com"`),
		IsTracker:     true,
		TrackerDomain: "tracker.com",
		ThirdParty:    true,
	}
	got, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"script_url":"https://ads.tracker.com/x.js","top_level_url":"https://site.com","object":null,"property":null,"timestamp":null,"is_tracker":true,"tracker_domain":"tracker.com","company":null,"categories":[],"third_party":true}`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestObservedEventURLStrings(t *testing.T) {
	var ev ObservedEvent
	if err := json.Unmarshal([]byte(`{"script_url":42,"top_level_url":"https://site.com"}`), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.ScriptURLString() != "" {
		t.Errorf("non-string URL should read as empty, got %q", ev.ScriptURLString())
	}
	if ev.TopLevelURLString() != "https://site.com" {
		t.Errorf("unexpected top level url %q", ev.TopLevelURLString())
	}
}

func TestObservedCookie_RequiredFields(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{`{"name":"_ga","domain":".example.com"}`, false},
		{`{"name":"_ga","domain":".example.com","path":"/"}`, false},
		{`{"domain":".example.com"}`, true},
		{`{"name":"_ga"}`, true},
		{`{"name":null,"domain":"x.com"}`, true},
	}
	for _, tt := range tests {
		var c ObservedCookie
		err := json.Unmarshal([]byte(tt.input), &c)
		if tt.wantErr {
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("%s: expected ErrMissingField, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.input, err)
		}
	}
}

func TestCookieResultMarshal(t *testing.T) {
	match := "example.com"
	r := CookieResult{
		CookieName:             "_ga",
		CookieDomain:           "example.com",
		NameCategory:           CategoryAnalytics,
		EasyPrivacyDomainMatch: &match,
		TrackingScore:          90,
		LikelyTracking:         true,
		DetectionMethod:        DetectionCookieName,
	}
	got, _ := json.Marshal(r)
	want := `{"cookie_name":"_ga","cookie_domain":"example.com","name_category":"analytics","easyprivacy_domain_match":"example.com","tracking_score":90,"likely_tracking":true,"detection_method":"cookie-name"}`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	r.EasyPrivacyDomainMatch = nil
	got, _ = json.Marshal(r)
	var m map[string]interface{}
	_ = json.Unmarshal(got, &m)
	if v, ok := m["easyprivacy_domain_match"]; !ok || v != nil {
		t.Errorf("expected explicit null match, got %v (present=%v)", v, ok)
	}
}
