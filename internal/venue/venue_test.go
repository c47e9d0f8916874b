package venue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rickgao/tickplant/internal/api"
	"github.com/rickgao/tickplant/internal/model"
	"github.com/rickgao/tickplant/internal/venue"
)

var _ venue.Venue = (*api.Client)(nil)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    venue.Mode
		wantErr bool
	}{
		{"", venue.ModeLive, false},
		{"live", venue.ModeLive, false},
		{"replay", venue.ModeReplay, false},
		{"paper", "", true},
	}
	for _, tt := range tests {
		got, err := venue.ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// namedVenue is a Venue that only reports which builder produced it.
type namedVenue struct{ name string }

func (namedVenue) Quotes(context.Context, []string) (model.Snapshot, error) { return nil, nil }
func (namedVenue) RelatedMarkets(context.Context, []string) ([]model.Market, error) {
	return nil, nil
}
func (namedVenue) RelatedContracts(context.Context, []string) ([]model.Contract, error) {
	return nil, nil
}
func (namedVenue) PlaceOrder(context.Context, model.OrderRequest) (*model.OrderResult, error) {
	return nil, nil
}
func (namedVenue) CancelOrder(context.Context, string) error { return nil }

func TestOpen(t *testing.T) {
	built := map[string]int{}
	builders := venue.Builders{
		Live: func() (venue.Venue, error) {
			built["live"]++
			return namedVenue{"live"}, nil
		},
		Replay: func() (venue.Venue, error) {
			built["replay"]++
			return namedVenue{"replay"}, nil
		},
	}

	tests := []struct {
		mode     string
		wantName string
		wantMode venue.Mode
	}{
		{"", "live", venue.ModeLive},
		{"live", "live", venue.ModeLive},
		{"replay", "replay", venue.ModeReplay},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			v, mode, err := venue.Open(tt.mode, builders)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", mode, tt.wantMode)
			}
			if got := v.(namedVenue).name; got != tt.wantName {
				t.Errorf("venue = %q, want %q", got, tt.wantName)
			}
		})
	}

	if built["live"] != 2 || built["replay"] != 1 {
		t.Errorf("builders ran %v, want live=2 replay=1", built)
	}
}

func TestOpen_Errors(t *testing.T) {
	boom := errors.New("no history")

	t.Run("unknown mode", func(t *testing.T) {
		if _, _, err := venue.Open("paper", venue.Builders{}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("mode without builder", func(t *testing.T) {
		live := func() (venue.Venue, error) { return namedVenue{"live"}, nil }
		_, mode, err := venue.Open("replay", venue.Builders{Live: live})
		if !errors.Is(err, venue.ErrUnsupportedMode) {
			t.Errorf("err = %v, want ErrUnsupportedMode", err)
		}
		if mode != venue.ModeReplay {
			t.Errorf("mode = %q, want replay", mode)
		}
	})

	t.Run("builder failure", func(t *testing.T) {
		replay := func() (venue.Venue, error) { return nil, boom }
		if _, _, err := venue.Open("replay", venue.Builders{Replay: replay}); !errors.Is(err, boom) {
			t.Errorf("err = %v, want builder error", err)
		}
	})
}
