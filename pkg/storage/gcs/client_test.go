package gcs

import (
	"context"
	"testing"
	"time"
)

func TestObjectURL(t *testing.T) {
	t.Parallel()

	client := &Client{defaultBucket: "tindago-payouts"}
	bucket := client.BucketHandle("")

	if got := bucket.Name(); got != "tindago-payouts" {
		t.Fatalf("unexpected bucket name %q", got)
	}

	want := "https://storage.googleapis.com/tindago-payouts/invoices/INV-001.html"
	if got := bucket.ObjectURL("invoices/INV-001.html"); got != want {
		t.Fatalf("unexpected object url %q", got)
	}
}

func TestTokenSourceCachesUntilNearExpiry(t *testing.T) {
	t.Parallel()

	calls := 0
	ts := &tokenSource{
		fetch: func(context.Context) (string, time.Time, error) {
			calls++
			return "token-1", time.Now().Add(time.Hour), nil
		},
	}

	for i := 0; i < 3; i++ {
		token, err := ts.Token(context.Background())
		if err != nil {
			t.Fatalf("token fetch %d: %v", i, err)
		}
		if token != "token-1" {
			t.Fatalf("unexpected token %q", token)
		}
	}

	if calls != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", calls)
	}
}

func TestTokenSourceRefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	calls := 0
	ts := &tokenSource{
		fetch: func(context.Context) (string, time.Time, error) {
			calls++
			return "fresh", time.Now().Add(time.Hour), nil
		},
	}
	ts.token = "stale"
	ts.expiry = time.Now().Add(30 * time.Second)

	token, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("token fetch: %v", err)
	}
	if token != "fresh" {
		t.Fatalf("expected refreshed token, got %q", token)
	}
	if calls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", calls)
	}
}
