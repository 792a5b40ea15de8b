package store

import (
	"context"
	"testing"
)

func TestIsConfigured(t *testing.T) {
	testCases := []struct {
		name string
		url  string
		key  string
		want bool
	}{
		{name: "valid", url: "https://abc.supabase.co", key: "anon", want: true},
		{name: "http-uppercase", url: "HTTP://localhost:54321", key: "anon", want: true},
		{name: "missing-url", url: "", key: "anon", want: false},
		{name: "non-http-url", url: "abc.supabase.co", key: "anon", want: false},
		{name: "missing-key", url: "https://abc.supabase.co", key: " ", want: false},
		{name: "placeholder-key", url: "https://abc.supabase.co", key: "YOUR_SUPABASE_ANON_KEY", want: false},
		{name: "env-literal-key", url: "https://abc.supabase.co", key: "process.env.SUPABASE_KEY", want: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := IsConfigured(testCase.url, testCase.key); got != testCase.want {
				t.Fatalf("IsConfigured(%q, %q) = %v, want %v", testCase.url, testCase.key, got, testCase.want)
			}
		})
	}
}

func TestQueryBuilderDoesNotShareFilters(t *testing.T) {
	base := From(TableCases).Eq("status", "Pending")
	first := base.Eq("case_id", "A")
	second := base.Eq("case_id", "B")

	if len(base.Filters) != 1 {
		t.Fatalf("base query mutated: %#v", base.Filters)
	}
	if first.Filters[1].Value != "A" || second.Filters[1].Value != "B" {
		t.Fatalf("derived queries share filter storage: %#v %#v", first.Filters, second.Filters)
	}

	ordered := base.OrderBy("created_at", true).Take(1)
	if ordered.Order == nil || !ordered.Order.Descending || ordered.Limit != 1 {
		t.Fatalf("unexpected ordered query: %#v", ordered)
	}
}

func TestAccessTokenContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := AccessToken(ctx); ok {
		t.Fatalf("expected no token on empty context")
	}
	if _, ok := AccessToken(WithAccessToken(ctx, " ")); ok {
		t.Fatalf("blank token must not be attached")
	}
	token, ok := AccessToken(WithAccessToken(ctx, "operator-token"))
	if !ok || token != "operator-token" {
		t.Fatalf("unexpected token %q", token)
	}
}
