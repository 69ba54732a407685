package flightsource

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	planesDat = `"Airbus A320","320","A320"
"Antonov An-2","\N","AN2"
`
	airlinesDat = `324,"All Nippon Airways","ANA All Nippon Airways","NH","ANA","ALL NIPPON","Japan","Y"
3320,"Lufthansa","\N","LH","DLH","LUFTHANSA","Germany","Y"
1,"Private flight",\N,"-","N/A","","","N"
`
	airportsDat = `340,"Frankfurt am Main Airport","Frankfurt","Germany","FRA","EDDF",50.033333,8.570556,364,1,"E","Europe/Berlin","airport","OurAirports"
1,"Goroka Airport","Goroka","Papua New Guinea","GKA","AYGA",-6.081689834590001,145.391998291,5282,10,"U","Pacific/Port_Moresby","airport","OurAirports"
2,"Broken Airport","Nowhere","Nowhere",\N,\N,north,8.5,0,\N,"U",\N,"airport","OurAirports"
`
	flightsJSON = `[{
		"departure": {"airport": {"icao": "EDDF", "iata": "FRA", "name": "Frankfurt-am-Main"},
			"scheduledTimeLocal": "2024-01-01 10:00+01:00", "scheduledTimeUtc": "2024-01-01 09:00Z",
			"actualTimeLocal": "2024-01-01 10:12+01:00", "actualTimeUtc": "2024-01-01 09:12Z"},
		"arrival": {"airport": {"icao": "KJFK", "iata": "JFK", "name": "New York John F Kennedy"},
			"scheduledTimeLocal": "2024-01-01 13:00-05:00", "scheduledTimeUtc": "2024-01-01 18:00Z",
			"actualTimeLocal": "2024-01-01 12:50-05:00", "actualTimeUtc": "2024-01-01 17:50Z"},
		"number": "LH 400",
		"callSign": "DLH400",
		"status": "Arrived",
		"aircraft": {"reg": "D-ABYA", "model": "Boeing 747-8"},
		"airline": {"name": "Lufthansa", "iata": "LH", "icao": "DLH"},
		"greatCircleDistance": {"meter": 6199000, "km": 6199, "mile": 3851.8, "nm": 3347.2, "feet": 20337927}
	}]`
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/data/planes.dat", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(planesDat)) })
	r.Get("/data/airlines.dat", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(airlinesDat)) })
	r.Get("/data/airports.dat", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(airportsDat)) })
	r.Get("/slow/planes.dat", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
			_, _ = w.Write([]byte(planesDat))
		case <-r.Context().Done():
		}
	})
	r.Get("/api/flights/number/{number}/{date}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-RapidAPI-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch chi.URLParam(r, "number") {
		case "LH400":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(flightsJSON))
		case "XX1":
			w.WriteHeader(http.StatusNoContent)
		case "SLOW1":
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusNoContent)
		case "BAD1":
			_, _ = w.Write([]byte(`{not json`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	r.Get("/api/airports/{codeType}/{from}/distance-time/{to}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "codeType") != "icao" || chi.URLParam(r, "from") != "EDDF" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"greatCircleDistance": {"meter": 6199000, "km": 6199, "mile": 3851.8, "nm": 3347.2, "feet": 20337927}}`))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, m *metrics.Registry) Client {
	return NewHTTPClient(Config{
		ReferenceURL: srv.URL + "/data",
		APIURL:       srv.URL + "/api",
		APIKey:       "secret",
		Timeout:      100 * time.Millisecond,
		RateLimit:    100,
		RateBurst:    10,
	}, m)
}

func TestClient_Datasets(t *testing.T) {
	client := newTestClient(newTestServer(t), nil)
	ctx := context.Background()

	aircrafts, err := client.GetAircrafts(ctx)
	require.NoError(t, err)
	require.Len(t, aircrafts, 2)
	assert.Equal(t, AircraftRecord{Name: "Antonov An-2", IATA: "", ICAO: "AN2"}, aircrafts[1])

	airlines, err := client.GetAirlines(ctx)
	require.NoError(t, err)
	require.Len(t, airlines, 3)
	assert.Equal(t, "NH", airlines[0].IATA)
	assert.True(t, airlines[1].Active)
	assert.Equal(t, "", airlines[1].Alias)
	assert.False(t, airlines[2].Active)

	airports, err := client.GetAirports(ctx)
	require.NoError(t, err)
	require.Len(t, airports, 3)
	assert.Equal(t, "EDDF", airports[0].ICAO)
	assert.InDelta(t, 50.033333, airports[0].Latitude, 1e-9)
	assert.Equal(t, float64(10), airports[1].UTCOffset)
	assert.True(t, math.IsNaN(airports[2].Latitude))
	assert.Equal(t, float64(0), airports[2].UTCOffset)
}

func TestClient_DatasetUnavailable(t *testing.T) {
	srv := newTestServer(t)
	client := NewHTTPClient(Config{ReferenceURL: srv.URL + "/missing"}, nil)

	_, err := client.GetAircrafts(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestClient_DatasetTimeout(t *testing.T) {
	srv := newTestServer(t)
	client := NewHTTPClient(Config{
		ReferenceURL:   srv.URL + "/slow",
		Timeout:        time.Second,
		DatasetTimeout: 50 * time.Millisecond,
	}, nil)

	start := time.Now()
	_, err := client.GetAircrafts(context.Background())

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestParseAirlines_Malformed(t *testing.T) {
	_, err := parseAirlines(strings.NewReader(`1,"Short row"` + "\n"))
	assert.ErrorIs(t, err, errMalformedDataset)
}

func TestClient_GetFlights(t *testing.T) {
	reg := metrics.New(prometheus.NewRegistry())
	client := newTestClient(newTestServer(t), reg)
	ctx := context.Background()

	tests := []struct {
		name      string
		number    string
		wantCount int
		wantErr   bool
	}{
		{name: "найден один рейс", number: "LH400", wantCount: 1},
		{name: "204 - пустой список", number: "XX1", wantCount: 0},
		{name: "ошибка источника", number: "FAIL1", wantErr: true},
		{name: "некорректный JSON", number: "BAD1", wantErr: true},
		{name: "таймаут", number: "SLOW1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flights, err := client.GetFlights(ctx, tt.number, "2024-01-01")
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Len(t, flights, tt.wantCount)
		})
	}

	flights, err := client.GetFlights(ctx, "LH400", "2024-01-01")
	require.NoError(t, err)
	f := flights[0]
	assert.Equal(t, "LH 400", f.Number)
	assert.Equal(t, "EDDF", f.Departure.Airport.ICAO)
	assert.Equal(t, "2024-01-01 12:50-05:00", f.Arrival.ActualTimeLocal)
	require.NotNil(t, f.GreatCircleDistance)
	assert.Equal(t, float64(6199), f.GreatCircleDistance.Km)
	require.NotNil(t, f.Airline)
	assert.Equal(t, "DLH", f.Airline.ICAO)

	assert.Equal(t, float64(3), testutil.ToFloat64(reg.SourceRequestsTotal.WithLabelValues("flights", "ok")))
	assert.Equal(t, float64(3), testutil.ToFloat64(reg.SourceRequestsTotal.WithLabelValues("flights", "error")))
}

func TestClient_GetFlightDistance(t *testing.T) {
	client := newTestClient(newTestServer(t), nil)
	ctx := context.Background()

	d, err := client.GetFlightDistance(ctx, "EDDF", "KJFK", domain.CodeTypeICAO)
	require.NoError(t, err)
	assert.Equal(t, float64(6199000), d.Meter)

	_, err = client.GetFlightDistance(ctx, "FRA", "JFK", domain.CodeTypeIATA)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
