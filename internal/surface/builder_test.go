package surface

import (
	"reflect"
	"testing"

	"fxvolbridge/internal/gateway"
	"fxvolbridge/internal/model"
	"fxvolbridge/internal/ticker"
)

type fakeGateway struct {
	values   gateway.Result
	requests [][]string
}

func (f *fakeGateway) Connect() bool { return true }
func (f *fakeGateway) Close()        {}

func (f *fakeGateway) Fetch(securities []string, fields []string) (gateway.Result, error) {
	f.requests = append(f.requests, securities)
	result := make(gateway.Result)
	for _, security := range securities {
		for _, field := range fields {
			if value := f.values.Value(security, field); value != "" {
				result.Set(security, field, value)
			}
		}
	}
	return result, nil
}

func TestBuildAssemblesPoints(t *testing.T) {
	fake := &fakeGateway{values: make(gateway.Result)}
	fake.values.Set("EURSEKVON BGN Curncy", "PX_BID", "7.100")
	fake.values.Set("EURSEKVON BGN Curncy", "PX_ASK", "7.400")
	fake.values.Set("EURSEK25RON BGN Curncy", "PX_MID", "0.250")
	fake.values.Set("EURSEK10RON BGN Curncy", "PX_MID", "0.450")
	fake.values.Set("EURSEK25BON BGN Curncy", "PX_MID", "0.150")
	fake.values.Set("EURSEK10BON BGN Curncy", "PX_MID", "0.550")

	builder := NewBuilder(fake, ticker.NewMapper(nil), nil)
	points, err := builder.Build([]model.Pair{model.NewPair("EURSEK")})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(points) != len(model.Tenors) {
		t.Fatalf("points: got %d, want %d", len(points), len(model.Tenors))
	}

	want := model.VolatilityPoint{
		Pair: "EURSEK", Tenor: "ON",
		AtmBid: 7.1, AtmAsk: 7.4,
		RR25: 0.25, RR10: 0.45, BF25: 0.15, BF10: 0.55,
	}
	if !reflect.DeepEqual(points[0], want) {
		t.Fatalf("first point mismatch: %+v != %+v", points[0], want)
	}

	// Tenors the feed did not answer default every value to zero.
	if points[1].Tenor != "1W" || points[1].AtmBid != 0 || points[1].RR25 != 0 {
		t.Fatalf("missing quotes must default to zero: %+v", points[1])
	}
}

func TestBuildUsesProviderPairAndAdjustsRR(t *testing.T) {
	fake := &fakeGateway{values: make(gateway.Result)}
	// The provider quotes CNHSEK inverted as SEKCNH.
	fake.values.Set("SEKCNH25R1M BGN Curncy", "PX_MID", "0.300")
	fake.values.Set("SEKCNH25B1M BGN Curncy", "PX_MID", "0.100")

	builder := NewBuilder(fake, ticker.NewMapper(nil), nil)
	points, err := builder.Build([]model.Pair{model.NewPair("CNHSEK")})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(fake.requests) != 2 {
		t.Fatalf("expected one atm and one smile batch, got %d", len(fake.requests))
	}
	if got := fake.requests[0][0]; got != "SEKCNHVON BGN Curncy" {
		t.Fatalf("atm ticker must use the provider pair: %s", got)
	}

	var oneMonth model.VolatilityPoint
	for _, point := range points {
		if point.Tenor == "1M" {
			oneMonth = point
		}
	}
	if oneMonth.Pair != "CNHSEK" {
		t.Fatalf("point must carry the canonical pair, got %s", oneMonth.Pair)
	}
	if oneMonth.RR25 != -0.3 {
		t.Fatalf("rr must be sign-adjusted once for inverted pairs: %v", oneMonth.RR25)
	}
	if oneMonth.BF25 != 0.1 {
		t.Fatalf("butterflies must not be sign-adjusted: %v", oneMonth.BF25)
	}
}

func TestBuildSkipsNonLivePairs(t *testing.T) {
	fake := &fakeGateway{values: make(gateway.Result)}
	dormant := model.NewPair("EURSEK")
	dormant.Live = false

	builder := NewBuilder(fake, ticker.NewMapper(nil), nil)
	points, err := builder.Build([]model.Pair{dormant})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("non-live pairs must produce no points, got %d", len(points))
	}
	if len(fake.requests) != 0 {
		t.Fatalf("non-live pairs must not be fetched, got %d requests", len(fake.requests))
	}
}
