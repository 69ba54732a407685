package flightsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frontandrew/flighthub/internal/domain"
	"github.com/frontandrew/flighthub/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

// Client - внешний источник справочников, рейсов и расстояний.
// Любая ошибка оборачивает domain.ErrSourceUnavailable.
type Client interface {
	GetAircrafts(ctx context.Context) ([]AircraftRecord, error)
	GetAirlines(ctx context.Context) ([]AirlineRecord, error)
	GetAirports(ctx context.Context) ([]AirportRecord, error)

	// GetFlights возвращает рейсы по номеру и локальной дате; пустой список, если не найдено
	GetFlights(ctx context.Context, number, dateLocal string) ([]FlightRecord, error)

	// GetFlightDistance возвращает расстояние между аэропортами по кодам указанного типа
	GetFlightDistance(ctx context.Context, from, to string, codeType domain.CodeType) (*DistanceRecord, error)
}

// Config - настройки клиента
type Config struct {
	ReferenceURL string
	APIURL       string
	APIKey       string
	APIHost      string
	Timeout      time.Duration // на запрос к API
	// DatasetTimeout - верхняя граница любого запроса, включая загрузку справочного набора; 0 - без ограничения
	DatasetTimeout time.Duration
	RateLimit      float64 // запросов в секунду к API; <= 0 - без ограничения
	RateBurst      int
}

// httpClient - HTTP реализация источника
type httpClient struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Registry
}

// NewHTTPClient создает клиент источника. m может быть nil.
func NewHTTPClient(cfg Config, m *metrics.Registry) Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &httpClient{
		cfg:     cfg,
		limiter: limiter,
		metrics: m,
		httpClient: &http.Client{
			Timeout:   cfg.DatasetTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *httpClient) GetAircrafts(ctx context.Context) ([]AircraftRecord, error) {
	var records []AircraftRecord
	err := c.fetchDataset(ctx, "aircrafts", aircraftDataset, func(r io.Reader) (err error) {
		records, err = parseAircrafts(r)
		return err
	})
	return records, err
}

func (c *httpClient) GetAirlines(ctx context.Context) ([]AirlineRecord, error) {
	var records []AirlineRecord
	err := c.fetchDataset(ctx, "airlines", airlineDataset, func(r io.Reader) (err error) {
		records, err = parseAirlines(r)
		return err
	})
	return records, err
}

func (c *httpClient) GetAirports(ctx context.Context) ([]AirportRecord, error) {
	var records []AirportRecord
	err := c.fetchDataset(ctx, "airports", airportDataset, func(r io.Reader) (err error) {
		records, err = parseAirports(r)
		return err
	})
	return records, err
}

func (c *httpClient) GetFlights(ctx context.Context, number, dateLocal string) ([]FlightRecord, error) {
	path := fmt.Sprintf("/flights/number/%s/%s", url.PathEscape(number), url.PathEscape(dateLocal))

	var flights []FlightRecord
	found, err := c.getJSON(ctx, "flights", path, &flights)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return flights, nil
}

func (c *httpClient) GetFlightDistance(ctx context.Context, from, to string, codeType domain.CodeType) (*DistanceRecord, error) {
	path := fmt.Sprintf("/airports/%s/%s/distance-time/%s",
		url.PathEscape(string(codeType)), url.PathEscape(from), url.PathEscape(to))

	var resp distanceResponse
	found, err := c.getJSON(ctx, "distance", path, &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.GreatCircleDistance == nil {
		return nil, fmt.Errorf("%w: no distance between %s and %s", domain.ErrSourceUnavailable, from, to)
	}
	return resp.GreatCircleDistance, nil
}

// fetchDataset скачивает набор данных и передает тело в parse
func (c *httpClient) fetchDataset(ctx context.Context, operation, name string, parse func(io.Reader) error) (err error) {
	defer c.observe(operation, time.Now(), &err)

	endpoint := strings.TrimRight(c.cfg.ReferenceURL, "/") + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", domain.ErrSourceUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to download %s: %v", domain.ErrSourceUnavailable, name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", domain.ErrSourceUnavailable, name, resp.StatusCode)
	}

	if err := parse(resp.Body); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, name, err)
	}
	return nil
}

// getJSON выполняет запрос к API. found=false для 204 и 404.
func (c *httpClient) getJSON(ctx context.Context, operation, path string, out interface{}) (found bool, err error) {
	defer c.observe(operation, time.Now(), &err)

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("%w: rate limiter: %v", domain.ErrSourceUnavailable, err)
	}

	endpoint := strings.TrimRight(c.cfg.APIURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("%w: failed to create request: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	}
	if c.cfg.APIHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: failed to send request: %v", domain.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: failed to read response body: %v", domain.ErrSourceUnavailable, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: source returned status %d: %s",
			domain.ErrSourceUnavailable, resp.StatusCode, truncate(string(body), 200))
	}

	if len(body) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("%w: failed to unmarshal response: %v", domain.ErrSourceUnavailable, err)
	}
	return true, nil
}

func (c *httpClient) observe(operation string, start time.Time, err *error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if *err != nil {
		outcome = "error"
	}
	c.metrics.SourceRequestsTotal.WithLabelValues(operation, outcome).Inc()
	c.metrics.SourceRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
