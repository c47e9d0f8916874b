package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// idsFromPath extracts the comma-separated id segment following prefix.
func idsFromPath(path, prefix, suffix string) []string {
	seg := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	return strings.Split(seg, ",")
}

func TestRelatedContracts_Chunking(t *testing.T) {
	tests := []struct {
		name      string
		ids       int
		chunkSize int
		wantReqs  int
	}{
		{"below chunk size", 3, 20, 1},
		{"exact chunk size", 20, 20, 1},
		{"one over", 21, 20, 2},
		{"many chunks", 45, 20, 3},
		{"chunk of one", 4, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			var requests [][]string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				chunk := idsFromPath(r.URL.Path, "/markets/", "/contracts/")
				mu.Lock()
				requests = append(requests, chunk)
				mu.Unlock()

				var resp ContractsResponse
				for _, id := range chunk {
					resp.Contracts = append(resp.Contracts, APIContract{ID: "c" + id, MarketID: id})
				}
				json.NewEncoder(w).Encode(resp)
			}))
			defer server.Close()

			ids := make([]string, tt.ids)
			for i := range ids {
				ids[i] = strconv.Itoa(i)
			}

			c := NewClient(server.URL+"/", nil, WithChunkSize(tt.chunkSize))
			contracts, err := c.RelatedContracts(context.Background(), ids)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(requests) != tt.wantReqs {
				t.Errorf("requests = %d, want %d", len(requests), tt.wantReqs)
			}
			for _, chunk := range requests {
				if len(chunk) > tt.chunkSize {
					t.Errorf("chunk of %d ids exceeds %d", len(chunk), tt.chunkSize)
				}
			}

			got := make([]string, len(contracts))
			for i, ct := range contracts {
				got[i] = ct.MarketID
			}
			if !reflect.DeepEqual(got, ids) {
				t.Errorf("result order = %v, want %v", got, ids)
			}
		})
	}
}

func TestRelatedMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/e1,e2/markets/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("sort"); got != "event_id,display_order" {
			t.Errorf("sort = %q", got)
		}
		w.Write([]byte(`{"markets": [{"id": "m1", "event_id": "e1"}, {"id": "m2", "event_id": "e2"}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", nil)
	markets, err := c.RelatedMarkets(context.Background(), []string{"e1", "e2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 2 || markets[0].EventID != "e1" || markets[1].ID != "m2" {
		t.Errorf("markets = %+v", markets)
	}
}

func TestRelatedMarkets_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty id list")
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", nil)
	markets, err := c.RelatedMarkets(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 0 {
		t.Errorf("markets = %v, want empty", markets)
	}
}

func TestQuotes(t *testing.T) {
	t.Run("merges chunks", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/markets/m1,m2/quotes/":
				w.Write([]byte(`{
					"c1": {"bids": [{"price": 4000, "quantity": 10}], "offers": [{"price": 4100, "quantity": 5}]},
					"c2": {"bids": [], "offers": [{"price": 6000, "quantity": 1}]}
				}`))
			case "/markets/m3/quotes/":
				w.Write([]byte(`{
					"c3": {"bids": [{"price": 2000, "quantity": 3}], "offers": []},
					"c1": {"bids": [{"price": 1, "quantity": 1}], "offers": []}
				}`))
			default:
				t.Errorf("unexpected path %q", r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		c := NewClient(server.URL+"/", nil, WithChunkSize(2))
		snap, err := c.Quotes(context.Background(), []string{"m1", "m2", "m3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap) != 3 {
			t.Fatalf("len(snapshot) = %d, want 3", len(snap))
		}
		if bid, _ := snap["c1"].BestBid(); bid.Price != 4000 {
			t.Errorf("c1 best bid = %v, want 4000 from the first chunk", bid.Price)
		}
		if _, ok := snap["c2"].BestBid(); ok {
			t.Error("c2 should have no bids")
		}
		if offer, _ := snap["c2"].BestOffer(); offer.Price != 6000 {
			t.Errorf("c2 best offer = %v, want 6000", offer.Price)
		}
	})

	t.Run("chunk failure fails the call", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "m3") {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL+"/", nil, WithChunkSize(2))
		_, err := c.Quotes(context.Background(), []string{"m1", "m2", "m3"})
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			t.Fatalf("error = %v, want retryable APIError", err)
		}
	})
}

func TestMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/m1/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("with_volumes"); got != "true" {
			t.Errorf("with_volumes = %q", got)
		}
		w.Write([]byte(`{"markets": [{"id": "m1", "volume": 1200}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", nil)
	markets, err := c.Markets(context.Background(), []string{"m1"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 1 || markets[0].Volume != 1200 {
		t.Errorf("markets = %+v", markets)
	}
}

func TestEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query()["ids"]; !reflect.DeepEqual(got, []string{"e1", "e2"}) {
			t.Errorf("ids = %v", got)
		}
		w.Write([]byte(`{"events": [{"id": "e1", "start_datetime": "2024-05-01T15:00:00Z"}, {"id": "e2"}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", nil)
	events, err := c.Events(context.Background(), []string{"e1", "e2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].StartDatetime.Hour() != 15 {
		t.Errorf("StartDatetime = %v", events[0].StartDatetime)
	}
}
