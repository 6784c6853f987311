package qweather

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crop-advisor/internal/domain"
)

// successCode is the payload status code QWeather uses for a good response.
const successCode = "200"

// notFoundCode is returned by the city lookup for unknown names.
const notFoundCode = "404"

// QWeather API response types. Numeric values arrive as JSON strings.

type envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e envelope) status() envelope { return e }

type statusCarrier interface {
	status() envelope
}

// errorBody covers the error payload of the newer API hosts.
type errorBody struct {
	envelope
	Error *struct {
		Status int    `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"error"`
}

func (b errorBody) text() string {
	if b.Error != nil {
		if b.Error.Detail != "" {
			return b.Error.Detail
		}
		return b.Error.Title
	}
	return b.Message
}

type lookupResponse struct {
	envelope
	Location []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Lat     string `json:"lat"`
		Lon     string `json:"lon"`
		Adm1    string `json:"adm1"`
		Country string `json:"country"`
	} `json:"location"`
}

type nowResponse struct {
	envelope
	Now struct {
		Temp      string `json:"temp"`
		Humidity  string `json:"humidity"`
		Text      string `json:"text"`
		WindSpeed string `json:"windSpeed"`
	} `json:"now"`
}

type dailyResponse struct {
	envelope
	Daily []struct {
		FxDate   string `json:"fxDate"`
		TempMax  string `json:"tempMax"`
		TempMin  string `json:"tempMin"`
		TextDay  string `json:"textDay"`
		Precip   string `json:"precip"`
		Humidity string `json:"humidity"`
	} `json:"daily"`
}

type hourlyResponse struct {
	envelope
	Hourly []struct {
		FxTime   string `json:"fxTime"`
		Temp     string `json:"temp"`
		Humidity string `json:"humidity"`
		Text     string `json:"text"`
		Pop      string `json:"pop"`
		Precip   string `json:"precip"`
	} `json:"hourly"`
}

// fxTimeLayout matches hourly timestamps such as "2021-02-16T15:00+08:00".
const fxTimeLayout = "2006-01-02T15:04Z07:00"

func (r lookupResponse) toLocation() (domain.Location, error) {
	l := r.Location[0]
	if l.ID == "" {
		return domain.Location{}, errors.New("location without id")
	}
	lat, err := parseOptional("lat", l.Lat)
	if err != nil {
		return domain.Location{}, err
	}
	lon, err := parseOptional("lon", l.Lon)
	if err != nil {
		return domain.Location{}, err
	}
	return domain.Location{
		ID:      l.ID,
		Name:    l.Name,
		Region:  l.Adm1,
		Country: l.Country,
		Lat:     lat,
		Lon:     lon,
	}, nil
}

func (r nowResponse) apply(s *domain.WeatherSnapshot) error {
	var err error
	if s.Temperature, err = parseRequired("temp", r.Now.Temp); err != nil {
		return err
	}
	if s.Humidity, err = parseRequired("humidity", r.Now.Humidity); err != nil {
		return err
	}
	if s.WindSpeed, err = parseRequired("windSpeed", r.Now.WindSpeed); err != nil {
		return err
	}
	s.Description = r.Now.Text
	return nil
}

func (r dailyResponse) toDaily() ([]domain.DailyForecast, error) {
	out := make([]domain.DailyForecast, 0, len(r.Daily))
	for i, d := range r.Daily {
		date, err := time.Parse(time.DateOnly, d.FxDate)
		if err != nil {
			return nil, fmt.Errorf("daily[%d].fxDate: %w", i, err)
		}
		f := domain.DailyForecast{Date: date, Description: d.TextDay}
		if f.TempMax, err = parseRequired("tempMax", d.TempMax); err != nil {
			return nil, fmt.Errorf("daily[%d]: %w", i, err)
		}
		if f.TempMin, err = parseRequired("tempMin", d.TempMin); err != nil {
			return nil, fmt.Errorf("daily[%d]: %w", i, err)
		}
		if f.PrecipMM, err = parseOptional("precip", d.Precip); err != nil {
			return nil, fmt.Errorf("daily[%d]: %w", i, err)
		}
		if f.Humidity, err = parseOptional("humidity", d.Humidity); err != nil {
			return nil, fmt.Errorf("daily[%d]: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// toForecast maps at most domain.MaxForecastEntries hourly entries.
func (r hourlyResponse) toForecast() ([]domain.ForecastEntry, error) {
	hours := r.Hourly
	if len(hours) > domain.MaxForecastEntries {
		hours = hours[:domain.MaxForecastEntries]
	}
	out := make([]domain.ForecastEntry, 0, len(hours))
	for i, h := range hours {
		ts, err := time.Parse(fxTimeLayout, h.FxTime)
		if err != nil {
			return nil, fmt.Errorf("hourly[%d].fxTime: %w", i, err)
		}
		e := domain.ForecastEntry{Time: ts, Description: h.Text}
		if e.Temperature, err = parseRequired("temp", h.Temp); err != nil {
			return nil, fmt.Errorf("hourly[%d]: %w", i, err)
		}
		if e.Humidity, err = parseRequired("humidity", h.Humidity); err != nil {
			return nil, fmt.Errorf("hourly[%d]: %w", i, err)
		}
		if e.PrecipProbability, err = parseOptional("pop", h.Pop); err != nil {
			return nil, fmt.Errorf("hourly[%d]: %w", i, err)
		}
		if e.PrecipMM, err = parseOptional("precip", h.Precip); err != nil {
			return nil, fmt.Errorf("hourly[%d]: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRequired(field, s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("missing %s", field)
	}
	return parseOptional(field, s)
}

// parseOptional treats an absent value as 0.
func parseOptional(field, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, s)
	}
	return v, nil
}
