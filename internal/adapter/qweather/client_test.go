package qweather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crop-advisor/internal/config"
	"github.com/couchcryptid/crop-advisor/internal/domain"
	"github.com/couchcryptid/crop-advisor/internal/observability"
)

const (
	testKey           = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"

	lookupBody = `{"code":"200","location":[{"name":"北京","id":"101010100","lat":"39.90498","lon":"116.40528","adm1":"北京市","country":"中国"}]}`
	nowBody    = `{"code":"200","now":{"temp":"24","humidity":"72","text":"多云","windSpeed":"3"}}`
	dailyBody  = `{"code":"200","daily":[{"fxDate":"2024-06-01","tempMax":"30","tempMin":"19","textDay":"晴","precip":"0.0","humidity":"55"},{"fxDate":"2024-06-02","tempMax":"28","tempMin":"18","textDay":"小雨","precip":"3.2","humidity":"80"}]}`
)

func hourlyBody(n int) string {
	entries := make([]string, n)
	for i := range n {
		entries[i] = fmt.Sprintf(`{"fxTime":"2024-06-01T%02d:00+08:00","temp":"%d","humidity":"60","text":"阴","pop":"%d","precip":"0.5"}`, 10+i, 20+i, 10*i)
	}
	return `{"code":"200","hourly":[` + strings.Join(entries, ",") + `]}`
}

type routes map[string]string

func newServer(t *testing.T, r routes) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, testKey, req.URL.Query().Get("key"))
		body, ok := r[req.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fullRoutes() routes {
	return routes{
		"/v2/city/lookup": lookupBody,
		"/v7/weather/now": nowBody,
		"/v7/weather/3d":  dailyBody,
		"/v7/weather/24h": hourlyBody(3),
	}
}

func testClient(t *testing.T, baseURL string, metrics *observability.Metrics) *Client {
	t.Helper()
	c := NewClient(&config.Config{
		QWeatherAPIKey:  testKey,
		QWeatherGeoURL:  baseURL + "/v2",
		QWeatherAPIURL:  baseURL + "/v7",
		QWeatherTimeout: 5 * time.Second,
	}, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func upstreamErr(t *testing.T, err error) *domain.UpstreamError {
	t.Helper()
	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	return ue
}

func TestClient_FetchWeather_Success(t *testing.T) {
	srv := newServer(t, fullRoutes())
	metrics := observability.NewMetricsForTesting()
	c := testClient(t, srv.URL, metrics)

	snap, err := c.FetchWeather(context.Background(), "北京").Snapshot()
	require.NoError(t, err)

	assert.Equal(t, "北京, 中国", snap.Location)
	assert.Equal(t, 24.0, snap.Temperature)
	assert.Equal(t, 72.0, snap.Humidity)
	assert.Equal(t, "多云", snap.Description)
	assert.Equal(t, 3.0, snap.WindSpeed)
	assert.Zero(t, snap.RainNext3h)

	require.Len(t, snap.Forecast, 3)
	assert.Equal(t, 20.0, snap.Forecast[0].Temperature)
	assert.Equal(t, 20.0, snap.Forecast[2].PrecipProbability)
	assert.Equal(t, 0.5, snap.Forecast[1].PrecipMM)
	assert.Equal(t, 11, snap.Forecast[1].Time.Hour())

	require.Len(t, snap.Daily, 2)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), snap.Daily[1].Date)
	assert.Equal(t, 3.2, snap.Daily[1].PrecipMM)
	assert.Equal(t, "小雨", snap.Daily[1].Description)

	for _, stage := range []string{domain.StageLookup, domain.StageNow, domain.StageDaily, domain.StageHourly} {
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WeatherRequests.WithLabelValues(stage, "success")), stage)
	}
}

func TestClient_FetchWeather_UsesLocationID(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path+"?"+r.URL.Query().Get("location"))
		body := fullRoutes()[r.URL.Path]
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, observability.NewMetricsForTesting())
	require.NoError(t, c.FetchWeather(context.Background(), "北京").Err())

	assert.Equal(t, []string{
		"/v2/city/lookup?北京",
		"/v7/weather/now?101010100",
		"/v7/weather/3d?101010100",
		"/v7/weather/24h?101010100",
	}, seen)
}

func TestClient_FetchWeather_TruncatesHourly(t *testing.T) {
	r := fullRoutes()
	r["/v7/weather/24h"] = hourlyBody(24)
	srv := newServer(t, r)
	c := testClient(t, srv.URL, observability.NewMetricsForTesting())

	snap, err := c.FetchWeather(context.Background(), "北京").Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Forecast, domain.MaxForecastEntries)
	assert.Equal(t, 27.0, snap.Forecast[7].Temperature)
}

func TestClient_FetchWeather_MissingPopDefaultsToZero(t *testing.T) {
	r := fullRoutes()
	r["/v7/weather/24h"] = `{"code":"200","hourly":[{"fxTime":"2024-06-01T10:00+08:00","temp":"20","humidity":"60","text":"阴"}]}`
	srv := newServer(t, r)
	c := testClient(t, srv.URL, observability.NewMetricsForTesting())

	snap, err := c.FetchWeather(context.Background(), "北京").Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Forecast, 1)
	assert.Zero(t, snap.Forecast[0].PrecipProbability)
	assert.Zero(t, snap.Forecast[0].PrecipMM)
}

func TestClient_FetchWeather_MissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	c := testClient(t, srv.URL, observability.NewMetricsForTesting())
	c.apiKey = ""

	err := c.FetchWeather(context.Background(), "北京").Err()
	require.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.False(t, called, "no request without a key")
}

func TestClient_FetchWeather_CityNotFound(t *testing.T) {
	srv := newServer(t, routes{"/v2/city/lookup": `{"code":"404"}`})
	metrics := observability.NewMetricsForTesting()
	c := testClient(t, srv.URL, metrics)

	err := c.FetchWeather(context.Background(), "火星").Err()
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "未找到城市: 火星", err.Error())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WeatherRequests.WithLabelValues(domain.StageLookup, "not_found")))
}

func TestClient_ResolveLocation_EmptyList(t *testing.T) {
	srv := newServer(t, routes{"/v2/city/lookup": `{"code":"200","location":[]}`})
	c := testClient(t, srv.URL, observability.NewMetricsForTesting())

	_, err := c.ResolveLocation(context.Background(), "无名")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "无名", nf.Location)
}

func TestClient_ResolveLocation_MissingID(t *testing.T) {
	srv := newServer(t, routes{"/v2/city/lookup": `{"code":"200","location":[{"name":"北京","country":"中国"}]}`})
	c := testClient(t, srv.URL, observability.NewMetricsForTesting())

	_, err := c.ResolveLocation(context.Background(), "北京")
	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, domain.StageLookup, ue.Stage)
	assert.Equal(t, "获取位置信息失败: location without id", err.Error())
}

func TestClient_ResolveLocation_Success(t *testing.T) {
	srv := newServer(t, fullRoutes())
	c := testClient(t, srv.URL, observability.NewMetricsForTesting())

	loc, err := c.ResolveLocation(context.Background(), "北京")
	require.NoError(t, err)
	assert.Equal(t, domain.Location{
		ID:      "101010100",
		Name:    "北京",
		Region:  "北京市",
		Country: "中国",
		Lat:     39.90498,
		Lon:     116.40528,
	}, loc)
}

func TestClient_FetchWeather_LookupCodeError(t *testing.T) {
	srv := newServer(t, routes{"/v2/city/lookup": `{"code":"401"}`})
	c := testClient(t, srv.URL, observability.NewMetricsForTesting())

	err := c.FetchWeather(context.Background(), "北京").Err()
	ue := upstreamErr(t, err)
	assert.Equal(t, domain.StageLookup, ue.Stage)
	assert.Equal(t, "401", ue.Code)
	assert.True(t, strings.HasPrefix(err.Error(), "获取位置信息失败"), err.Error())
}

func TestClient_FetchWeather_NowCodeErrorStopsPipeline(t *testing.T) {
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		if r.URL.Path == "/v7/weather/now" {
			_, _ = w.Write([]byte(`{"code":"402"}`))
			return
		}
		_, _ = w.Write([]byte(fullRoutes()[r.URL.Path]))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(t, srv.URL, metrics)

	err := c.FetchWeather(context.Background(), "北京").Err()
	ue := upstreamErr(t, err)
	assert.Equal(t, domain.StageNow, ue.Stage)
	assert.Equal(t, "获取天气数据失败: 未知错误 (code 402)", err.Error())
	assert.Equal(t, []string{"/v2/city/lookup", "/v7/weather/now"}, hits)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WeatherRequests.WithLabelValues(domain.StageNow, "api_error")))
}

func TestClient_FetchWeather_DailyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v7/weather/3d" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(fullRoutes()[r.URL.Path]))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, observability.NewMetricsForTesting())

	err := c.FetchWeather(context.Background(), "北京").Err()
	ue := upstreamErr(t, err)
	assert.Equal(t, domain.StageDaily, ue.Stage)
	assert.Equal(t, http.StatusInternalServerError, ue.Status)
	assert.Equal(t, "获取天气预报失败: HTTP 500: 未知错误", err.Error())
}

func TestClient_FetchWeather_HTTPErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":401,"title":"Unauthorized","detail":"Invalid key"}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, observability.NewMetricsForTesting())

	err := c.FetchWeather(context.Background(), "北京").Err()
	assert.Equal(t, "获取位置信息失败: HTTP 401: Invalid key", err.Error())
}

func TestClient_FetchWeather_MalformedJSON(t *testing.T) {
	r := fullRoutes()
	r["/v7/weather/24h"] = `{"code":`
	srv := newServer(t, r)
	metrics := observability.NewMetricsForTesting()
	c := testClient(t, srv.URL, metrics)

	err := c.FetchWeather(context.Background(), "北京").Err()
	ue := upstreamErr(t, err)
	assert.Equal(t, domain.StageHourly, ue.Stage)
	require.Error(t, ue.Err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WeatherRequests.WithLabelValues(domain.StageHourly, "decode_error")))
}

func TestClient_FetchWeather_MalformedNumber(t *testing.T) {
	r := fullRoutes()
	r["/v7/weather/now"] = `{"code":"200","now":{"temp":"warm","humidity":"72","text":"多云","windSpeed":"3"}}`
	srv := newServer(t, r)
	c := testClient(t, srv.URL, observability.NewMetricsForTesting())

	err := c.FetchWeather(context.Background(), "北京").Err()
	ue := upstreamErr(t, err)
	assert.Equal(t, domain.StageNow, ue.Stage)
	assert.Contains(t, err.Error(), "temp")
}

func TestClient_FetchWeather_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(t, srv.URL, metrics)
	c.http.SetTimeout(50 * time.Millisecond)

	err := c.FetchWeather(context.Background(), "北京").Err()
	ue := upstreamErr(t, err)
	assert.Equal(t, domain.StageLookup, ue.Stage)
	assert.Zero(t, ue.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WeatherRequests.WithLabelValues(domain.StageLookup, "transport_error")))
}
