package obs

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestParseBucketsCSV(t *testing.T) {
	cases := []struct {
		csv  string
		want []float64
	}{
		{"", nil},
		{"  ", nil},
		{"5,10,25", []float64{5, 10, 25}},
		{" 5 , bogus , -1 , 0 , 50 ", []float64{5, 50}},
	}
	for _, tc := range cases {
		got := ParseBucketsCSV(tc.csv)
		if len(got) != len(tc.want) {
			t.Fatalf("ParseBucketsCSV(%q) = %v, want %v", tc.csv, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("ParseBucketsCSV(%q) = %v, want %v", tc.csv, got, tc.want)
			}
		}
	}
}

func TestNewHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewHTTPMetrics("test", nil, reg)
	second := NewHTTPMetrics("test", nil, reg)
	if first.ReqTotal != second.ReqTotal {
		t.Fatal("duplicate registration must reuse the existing counter")
	}
	if first.InFlight != second.InFlight {
		t.Fatal("duplicate registration must reuse the existing gauge")
	}
}

func TestRoutePatternContextRoundTrip(t *testing.T) {
	ctx := WithRoutePattern(context.Background(), "/api/v1/quotes/{id}")
	if got := RoutePatternFromContext(ctx); got != "/api/v1/quotes/{id}" {
		t.Fatalf("unexpected pattern %q", got)
	}
	if got := RoutePatternFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty pattern, got %q", got)
	}
}
