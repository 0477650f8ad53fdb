package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"paperledger/internal/domain"
)

func TestQuoteClient_GetPrice(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"symbol":"AAA","price":123.45}]`))
	}))
	defer srv.Close()

	qc := NewQuoteClient(srv.URL, "tok123", 2*time.Second)

	price, err := qc.GetPrice(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("GetPrice() error = %v", err)
	}
	if !price.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("price = %s, want 123.45", price)
	}
	if gotAuth != "token tok123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "token tok123")
	}
	if gotQuery != "symbols=AAA" {
		t.Errorf("query = %q, want symbols=AAA", gotQuery)
	}
}

func TestQuoteClient_EmptyResponseMeansNoQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	qc := NewQuoteClient(srv.URL, "", 2*time.Second)
	if _, err := qc.GetPrice(context.Background(), "NOPE"); !errors.Is(err, domain.ErrNoQuote) {
		t.Errorf("error = %v, want ErrNoQuote", err)
	}
}

func TestQuoteClient_NullAndNonPositivePrices(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null price", `[{"symbol":"AAA","price":null}]`},
		{"zero price", `[{"symbol":"AAA","price":0}]`},
		{"negative price", `[{"symbol":"AAA","price":-1.5}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			qc := NewQuoteClient(srv.URL, "", 2*time.Second)
			if _, err := qc.GetPrice(context.Background(), "AAA"); !errors.Is(err, domain.ErrNoQuote) {
				t.Errorf("error = %v, want ErrNoQuote", err)
			}
		})
	}
}

func TestQuoteClient_UpstreamErrorIsNotNoQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "feed down", http.StatusBadGateway)
	}))
	defer srv.Close()

	qc := NewQuoteClient(srv.URL, "", 2*time.Second)
	_, err := qc.GetPrice(context.Background(), "AAA")
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if errors.Is(err, domain.ErrNoQuote) {
		t.Errorf("error = %v, transport failures must stay distinguishable from missing quotes", err)
	}
}

func TestQuoteClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	qc := NewQuoteClient(srv.URL, "", 10*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := qc.GetPrice(ctx, "AAA"); err == nil {
		t.Fatal("expected error when context expires")
	}
}

func TestQuoteClient_ReloadSwapsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[{"symbol":"AAA","price":1}]`))
	}))
	defer srv.Close()

	qc := NewQuoteClient(srv.URL, "old", 2*time.Second)
	qc.Reload("fresh")

	if _, err := qc.GetPrice(context.Background(), "AAA"); err != nil {
		t.Fatalf("GetPrice() error = %v", err)
	}
	if gotAuth != "token fresh" {
		t.Errorf("Authorization = %q, want reloaded token", gotAuth)
	}
}
