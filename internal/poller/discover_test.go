package poller

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rickgao/tickplant/internal/api"
	"github.com/rickgao/tickplant/internal/model"
)

type fakeEvents struct {
	events    []model.Event
	markets   []model.Market
	err       error
	gotFilter api.EventFilter
	gotIDs    []string
}

func (f *fakeEvents) ListEvents(ctx context.Context, filter api.EventFilter) ([]model.Event, error) {
	f.gotFilter = filter
	return f.events, f.err
}

func (f *fakeEvents) RelatedMarkets(ctx context.Context, eventIDs []string) ([]model.Market, error) {
	f.gotIDs = eventIDs
	return f.markets, nil
}

func TestDiscover(t *testing.T) {
	t.Run("resolves markets", func(t *testing.T) {
		src := &fakeEvents{
			events:  []model.Event{{ID: "e1"}, {ID: "e2"}},
			markets: []model.Market{{ID: "m1"}, {ID: "m2"}, {ID: "m1"}},
		}
		filter := api.EventFilter{States: []string{"upcoming"}, Types: []string{"football_match"}}

		ids, err := Discover(context.Background(), src, filter)
		if err != nil {
			t.Fatalf("Discover: %v", err)
		}
		if !reflect.DeepEqual(ids, []string{"m1", "m2"}) {
			t.Errorf("ids = %v, want [m1 m2]", ids)
		}
		if !reflect.DeepEqual(src.gotIDs, []string{"e1", "e2"}) {
			t.Errorf("event ids = %v", src.gotIDs)
		}
		if !reflect.DeepEqual(src.gotFilter, filter) {
			t.Errorf("filter = %+v", src.gotFilter)
		}
	})

	t.Run("no events", func(t *testing.T) {
		src := &fakeEvents{}
		ids, err := Discover(context.Background(), src, api.EventFilter{})
		if err != nil || ids != nil {
			t.Errorf("Discover = %v, %v; want nil, nil", ids, err)
		}
		if src.gotIDs != nil {
			t.Error("RelatedMarkets should not be called without events")
		}
	})

	t.Run("list error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Discover(context.Background(), &fakeEvents{err: boom}, api.EventFilter{})
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want wrapped boom", err)
		}
	})
}
