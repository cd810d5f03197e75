package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseQuoteBox_FullPayload(t *testing.T) {
	payload := []byte(`{
		"isin": "IE00BK5BQT80",
		"lastPrice": 108.52,
		"changeToPrevDayAbsolute": -0.54,
		"changeToPrevDayInPercent": -0.49,
		"open": 109.02,
		"timestampLastPrice": "2026-08-28T15:30:00+02:00",
		"tradingStatus": "TRADE",
		"instrumentStatus": "ACTIVE",
		"turnoverInPieces": 12500,
		"bid": 108.50,
		"ask": 108.54
	}`)

	q, err := ParseQuoteBox(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.Price == nil || *q.Price != 108.52 {
		t.Fatalf("price: %+v", q.Price)
	}
	if q.ChangePercent == nil || *q.ChangePercent != -0.49 {
		t.Fatalf("change percent: %+v", q.ChangePercent)
	}
	if q.OpenPrice == nil || *q.OpenPrice != 109.02 {
		t.Fatalf("open: %+v", q.OpenPrice)
	}
	if q.Timestamp != "2026-08-28T15:30:00+02:00" {
		t.Fatalf("timestamp: %q", q.Timestamp)
	}
	if q.TradingStatus != "TRADE" || q.InstrumentStatus != "ACTIVE" {
		t.Fatalf("status: %q / %q", q.TradingStatus, q.InstrumentStatus)
	}
	if !q.HasVariation() || !q.HasPrice() {
		t.Fatal("quote should be fully usable")
	}
	if q.FetchedAt.IsZero() {
		t.Fatal("fetchedAt must be stamped")
	}
}

func TestParseQuoteBox_MissingOptionalFields(t *testing.T) {
	q, err := ParseQuoteBox([]byte(`{"lastPrice": 42.0}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.ChangePercent != nil || q.OpenPrice != nil || q.Bid != nil {
		t.Fatal("absent fields must stay nil, not zero")
	}
	if q.HasVariation() {
		t.Fatal("quote without changePercent must not report variation")
	}
	if !q.HasPrice() {
		t.Fatal("quote with lastPrice must report a price")
	}
}

func TestParseQuoteBox_MissingPrice(t *testing.T) {
	if _, err := ParseQuoteBox([]byte(`{"changeToPrevDayInPercent": 1.0}`)); err == nil {
		t.Fatal("expected error when lastPrice is missing")
	}
	if _, err := ParseQuoteBox([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestParseQuoteBox_NumericTimestamp(t *testing.T) {
	q, err := ParseQuoteBox([]byte(`{"lastPrice": 10.5, "timestampLastPrice": 1756380600000}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.Timestamp != "1756380600000" {
		t.Fatalf("numeric timestamp: %q", q.Timestamp)
	}
}

func TestFetchQuote(t *testing.T) {
	var gotISIN string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotISIN = r.URL.Query().Get("isin")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lastPrice": 108.52, "changeToPrevDayInPercent": -0.49}`))
	}))
	defer srv.Close()

	c := NewBoerseClient(srv.URL, time.Millisecond, 2*time.Second)
	q, err := c.FetchQuote(context.Background(), "IE00BK5BQT80")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotISIN != "IE00BK5BQT80" {
		t.Fatalf("isin query param: %q", gotISIN)
	}
	if !q.HasPrice() || *q.Price != 108.52 {
		t.Fatalf("quote: %+v", q)
	}
}

func TestFetchQuote_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewBoerseClient(srv.URL, time.Millisecond, 2*time.Second)
	if _, err := c.FetchQuote(context.Background(), "XX0000000000"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestFetchQuote_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewBoerseClient(srv.URL, time.Microsecond, 2*time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := c.FetchQuote(ctx, "XX0000000000"); err == nil {
			t.Fatalf("attempt %d: expected failure", i)
		}
	}

	before := calls
	if _, err := c.FetchQuote(ctx, "XX0000000000"); err == nil {
		t.Fatal("expected open breaker to reject")
	}
	if calls != before {
		t.Fatal("open breaker must not hit the upstream")
	}
}
