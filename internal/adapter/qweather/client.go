// Package qweather implements domain.WeatherProvider and domain.LocationResolver
// on top of the QWeather (和风天气) city lookup and weather APIs.
package qweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resty.dev/v3"

	"github.com/couchcryptid/crop-advisor/internal/config"
	"github.com/couchcryptid/crop-advisor/internal/domain"
	"github.com/couchcryptid/crop-advisor/internal/observability"
)

// Client fetches locations and weather from QWeather.
type Client struct {
	apiKey  string
	http    *resty.Client
	geoURL  string
	apiURL  string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a QWeather client from the advisor configuration.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: cfg.QWeatherAPIKey,
		http: resty.New().
			SetTimeout(cfg.QWeatherTimeout).
			SetHeader("Accept", "application/json"),
		geoURL:  cfg.QWeatherGeoURL,
		apiURL:  cfg.QWeatherAPIURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// ResolveLocation looks up the best matching city for name.
func (c *Client) ResolveLocation(ctx context.Context, name string) (domain.Location, error) {
	if c.apiKey == "" {
		return domain.Location{}, domain.ErrMissingCredential
	}

	resp, err := fetch[lookupResponse](ctx, c, domain.StageLookup, c.geoURL+"/city/lookup", name)
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && ue.Code == notFoundCode {
			return domain.Location{}, &domain.NotFoundError{Location: name}
		}
		return domain.Location{}, err
	}
	if len(resp.Location) == 0 {
		return domain.Location{}, &domain.NotFoundError{Location: name}
	}

	loc, err := resp.toLocation()
	if err != nil {
		return domain.Location{}, &domain.UpstreamError{Stage: domain.StageLookup, Code: resp.Code, Err: err}
	}
	return loc, nil
}

// weatherStep fills part of a snapshot from one weather endpoint.
type weatherStep struct {
	stage string
	run   func(ctx context.Context, c *Client, locationID string, s *domain.WeatherSnapshot) error
}

// weatherSteps run in order; the first failure ends the fetch.
var weatherSteps = []weatherStep{
	{
		stage: domain.StageNow,
		run: func(ctx context.Context, c *Client, id string, s *domain.WeatherSnapshot) error {
			resp, err := fetch[nowResponse](ctx, c, domain.StageNow, c.apiURL+"/weather/now", id)
			if err != nil {
				return err
			}
			return resp.apply(s)
		},
	},
	{
		stage: domain.StageDaily,
		run: func(ctx context.Context, c *Client, id string, s *domain.WeatherSnapshot) error {
			resp, err := fetch[dailyResponse](ctx, c, domain.StageDaily, c.apiURL+"/weather/3d", id)
			if err != nil {
				return err
			}
			s.Daily, err = resp.toDaily()
			return err
		},
	},
	{
		stage: domain.StageHourly,
		run: func(ctx context.Context, c *Client, id string, s *domain.WeatherSnapshot) error {
			resp, err := fetch[hourlyResponse](ctx, c, domain.StageHourly, c.apiURL+"/weather/24h", id)
			if err != nil {
				return err
			}
			s.Forecast, err = resp.toForecast()
			return err
		},
	},
}

// FetchWeather resolves name and collects current conditions, the 3-day
// outlook and the hourly forecast. Failures are returned inside the result.
func (c *Client) FetchWeather(ctx context.Context, name string) domain.WeatherResult {
	loc, err := c.ResolveLocation(ctx, name)
	if err != nil {
		c.logger.Warn("location lookup failed", "location", name, "error", err)
		return domain.WeatherFailed(err)
	}

	snap := domain.WeatherSnapshot{Location: loc.Label(name)}
	for _, step := range weatherSteps {
		if err := step.run(ctx, c, loc.ID, &snap); err != nil {
			var ue *domain.UpstreamError
			if !errors.As(err, &ue) {
				err = &domain.UpstreamError{Stage: step.stage, Err: err}
			}
			c.logger.Warn("weather fetch failed", "location", name, "stage", step.stage, "error", err)
			return domain.WeatherFailed(err)
		}
	}

	c.logger.Debug("weather fetched",
		"location", snap.Location,
		"hourly", len(snap.Forecast),
		"daily", len(snap.Daily),
	)
	return domain.WeatherOK(snap)
}

// fetch performs one GET and decodes the payload, requiring a success code.
func fetch[T statusCarrier](ctx context.Context, c *Client, stage, url, location string) (T, error) {
	var out T

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"location": location,
			"key":      c.apiKey,
		}).
		Get(url)
	c.metrics.WeatherAPIDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		c.record(stage, "transport_error")
		return out, &domain.UpstreamError{Stage: stage, Err: fmt.Errorf("request: %w", err)}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		c.record(stage, "http_error")
		var body errorBody
		_ = json.Unmarshal(resp.Bytes(), &body)
		return out, &domain.UpstreamError{Stage: stage, Status: status, Code: body.Code, Message: body.text()}
	}

	if err := json.Unmarshal(resp.Bytes(), &out); err != nil {
		c.record(stage, "decode_error")
		return out, &domain.UpstreamError{Stage: stage, Status: status, Err: fmt.Errorf("decode response: %w", err)}
	}

	if env := out.status(); env.Code != successCode {
		outcome := "api_error"
		if env.Code == notFoundCode {
			outcome = "not_found"
		}
		c.record(stage, outcome)
		return out, &domain.UpstreamError{Stage: stage, Status: status, Code: env.Code, Message: env.Message}
	}

	c.record(stage, "success")
	return out, nil
}

func (c *Client) record(stage, outcome string) {
	c.metrics.WeatherRequests.WithLabelValues(stage, outcome).Inc()
}
