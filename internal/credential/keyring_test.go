package credential

import (
	"fmt"
	"testing"

	"github.com/dkazakov/scan-reporting/internal/model"
)

// withLookup swaps the keyring lookup for the duration of a test.
func withLookup(t *testing.T, fn func(string) (string, error)) {
	t.Helper()
	orig := lookup
	lookup = fn
	t.Cleanup(func() { lookup = orig })
}

func TestResolvePassthrough(t *testing.T) {
	withLookup(t, func(key string) (string, error) {
		t.Fatalf("lookup should not run for plain values")
		return "", nil
	})

	got, err := Resolve("plain-secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "plain-secret" {
		t.Errorf("expected the value unchanged, got %q", got)
	}
}

func TestResolveReference(t *testing.T) {
	withLookup(t, func(key string) (string, error) {
		if key != "jira-token" {
			t.Errorf("expected the reference key, got %q", key)
		}
		return "s3cret", nil
	})

	got, err := Resolve("keyring:jira-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("expected the stored secret, got %q", got)
	}
}

func TestResolveEmptyReference(t *testing.T) {
	if _, err := Resolve("keyring:"); err == nil {
		t.Errorf("expected an error for an empty reference")
	}
}

func TestResolveReportersExpandsAllTargets(t *testing.T) {
	secrets := map[string]string{
		"jira-main":  "pw-main",
		"jira-infra": "tok-infra",
		"portal":     "tok-portal",
		"smtp":       "pw-smtp",
	}
	withLookup(t, func(key string) (string, error) {
		v, ok := secrets[key]
		if !ok {
			return "", fmt.Errorf("unknown key %q", key)
		}
		return v, nil
	})

	cfg := &model.ReportersConfig{
		Jira: &model.JiraConfig{
			JiraTarget: model.JiraTarget{Password: "keyring:jira-main"},
			DynamicJira: map[string]model.JiraTarget{
				"https://infra.*": {Token: "keyring:jira-infra"},
			},
		},
		Engagement: &model.EngagementConfig{Token: "keyring:portal"},
		Email:      &model.EmailConfig{Password: "keyring:smtp"},
	}

	if err := ResolveReporters(cfg); err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if cfg.Jira.Password != "pw-main" {
		t.Errorf("expected the jira password resolved, got %q", cfg.Jira.Password)
	}
	if cfg.Jira.DynamicJira["https://infra.*"].Token != "tok-infra" {
		t.Errorf("expected the dynamic target token resolved")
	}
	if cfg.Engagement.Token != "tok-portal" {
		t.Errorf("expected the portal token resolved, got %q", cfg.Engagement.Token)
	}
	if cfg.Email.Password != "pw-smtp" {
		t.Errorf("expected the smtp password resolved, got %q", cfg.Email.Password)
	}
}

func TestResolveReportersConventionalFallback(t *testing.T) {
	secrets := map[string]string{
		"jira-token":     "tok-conventional",
		"email-password": "pw-conventional",
	}
	withLookup(t, func(key string) (string, error) {
		v, ok := secrets[key]
		if !ok {
			return "", fmt.Errorf("unknown key %q", key)
		}
		return v, nil
	})

	cfg := &model.ReportersConfig{
		Jira:  &model.JiraConfig{},
		Email: &model.EmailConfig{},
	}

	if err := ResolveReporters(cfg); err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if cfg.Jira.Token != "tok-conventional" {
		t.Errorf("expected the jira token filled from its conventional key, got %q", cfg.Jira.Token)
	}
	if cfg.Jira.Password != "" {
		t.Errorf("expected the absent conventional password left empty, got %q", cfg.Jira.Password)
	}
	if cfg.Email.Password != "pw-conventional" {
		t.Errorf("expected the smtp password filled from its conventional key, got %q", cfg.Email.Password)
	}
}

func TestResolveReportersConventionalKeepsExplicit(t *testing.T) {
	withLookup(t, func(key string) (string, error) {
		return "from-keyring", nil
	})

	cfg := &model.ReportersConfig{
		Jira: &model.JiraConfig{
			JiraTarget: model.JiraTarget{Token: "explicit"},
		},
	}

	if err := ResolveReporters(cfg); err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if cfg.Jira.Token != "explicit" {
		t.Errorf("expected the configured token kept, got %q", cfg.Jira.Token)
	}
	if cfg.Jira.Password != "from-keyring" {
		t.Errorf("expected the omitted password filled, got %q", cfg.Jira.Password)
	}
}

func TestResolveReportersUnknownReference(t *testing.T) {
	withLookup(t, func(key string) (string, error) {
		return "", fmt.Errorf("no such credential %q", key)
	})

	cfg := &model.ReportersConfig{
		Jira: &model.JiraConfig{
			JiraTarget: model.JiraTarget{Password: "keyring:missing"},
		},
	}
	if err := ResolveReporters(cfg); err == nil {
		t.Errorf("expected an unresolvable reference to fail")
	}
}
