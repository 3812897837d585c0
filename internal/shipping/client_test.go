package shipping

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

func TestTableLookup(t *testing.T) {
	table := NewTable(DefaultRegions)
	ctx := context.Background()

	region, err := table.Lookup(ctx, "  cairo ")
	if err != nil {
		t.Fatalf("lookup cairo: %v", err)
	}
	if region.Name != "Cairo" || !region.Fee.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected region %+v", region)
	}

	region, err = table.Lookup(ctx, "kafr  el sheikh")
	if err != nil {
		t.Fatalf("lookup kafr el sheikh: %v", err)
	}
	if region.Name != "Kafr El Sheikh" {
		t.Fatalf("expected canonical name, got %q", region.Name)
	}

	if _, err := table.Lookup(ctx, "Atlantis"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := table.Lookup(ctx, " "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	regions := table.Regions()
	if len(regions) != len(DefaultRegions) {
		t.Fatalf("expected %d regions, got %d", len(DefaultRegions), len(regions))
	}
	if regions[0].Name != "Alexandria" {
		t.Fatalf("expected sorted regions, first is %q", regions[0].Name)
	}
}

func TestClientUsesServiceFee(t *testing.T) {
	var gotPath, gotRegion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRegion = r.URL.Query().Get("region")
		_, _ = w.Write([]byte(`{"region":"Giza","fee":42.5}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	region, err := client.Lookup(context.Background(), "Giza")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if gotPath != "/shipping/fees" || gotRegion != "Giza" {
		t.Fatalf("unexpected request path=%q region=%q", gotPath, gotRegion)
	}
	if !region.Fee.Equal(decimal.RequireFromString("42.5")) {
		t.Fatalf("expected service fee 42.5, got %s", region.Fee)
	}
}

func TestClientFallsBackOnFailure(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) { http.Error(w, "down", http.StatusServiceUnavailable) },
		"bad shape":    func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"price":10}`)) },
		"unknown":      func(w http.ResponseWriter, _ *http.Request) { http.NotFound(w, nil) },
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			client := NewClient(srv.URL, time.Second)
			region, err := client.Lookup(context.Background(), "Alexandria")
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if !region.Fee.Equal(decimal.NewFromInt(60)) {
				t.Fatalf("expected table fee 60, got %s", region.Fee)
			}

			if _, err := client.Lookup(context.Background(), "Atlantis"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}

func TestClientWithoutBaseURLServesTable(t *testing.T) {
	client := NewClient("", 0)
	region, err := client.Lookup(context.Background(), "Luxor")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !region.Fee.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("expected fee 95, got %s", region.Fee)
	}
	if len(client.Regions()) == 0 {
		t.Fatal("expected table regions")
	}
}

func TestConcurrentLookupsAreCoalesced(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte(`{"region":"Cairo","fee":50}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = client.Lookup(context.Background(), "Cairo")
		}()
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&calls) == 0 {
		if time.Now().After(deadline) {
			close(release)
			t.Fatal("no request reached the shipping service")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one upstream call, got %d", got)
	}
}
