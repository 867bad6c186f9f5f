package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
)

const (
	weatherTimeout = 30 * time.Second

	// weatherNotFound is the marker handed to the model when a location cannot be resolved.
	weatherNotFound = "Weather Data Not Found"
)

// ErrWeatherNotFound is returned when the provider answers without location data.
var ErrWeatherNotFound = errors.New("weather data not found")

// Weather is the typed subset of the provider's current-conditions response.
type Weather struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
}

type Location struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	TzID      string  `json:"tz_id"`
	LocalTime string  `json:"localtime"`
}

type Current struct {
	LastUpdated string    `json:"last_updated"`
	TempC       float64   `json:"temp_c"`
	TempF       float64   `json:"temp_f"`
	IsDay       int       `json:"is_day"`
	Condition   Condition `json:"condition"`
	WindKph     float64   `json:"wind_kph"`
	WindDir     string    `json:"wind_dir"`
	PrecipMm    float64   `json:"precip_mm"`
	Humidity    int       `json:"humidity"`
	Cloud       int       `json:"cloud"`
	FeelsLikeC  float64   `json:"feelslike_c"`
	UV          float64   `json:"uv"`
}

type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// WeatherTool looks up current conditions on weatherapi.com.
type WeatherTool struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewWeatherTool creates a weather tool talking to baseURL.
func NewWeatherTool(baseURL, apiKey string) *WeatherTool {
	return &WeatherTool{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: weatherTimeout,
		},
	}
}

func (w *WeatherTool) Name() string {
	return "get_weather"
}

func (w *WeatherTool) Description() string {
	return "Search weatherapi to get the current weather"
}

func (w *WeatherTool) Parameters() *jsonschema.Schema {
	return queryParameters("City or place name to get the current weather for")
}

func (w *WeatherTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, ok := stringArg(args, "query")
	if !ok {
		return "", fmt.Errorf("query is required")
	}

	raw, _, err := w.lookup(ctx, query)
	if errors.Is(err, ErrWeatherNotFound) {
		return ErrorPayload(weatherNotFound), nil
	}
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	if err := json.Compact(&out, raw); err != nil {
		return "", fmt.Errorf("compacting weather: %w", err)
	}
	return out.String(), nil
}

// Current issues a single GET to /v1/current.json. A response without a
// named location yields ErrWeatherNotFound.
func (w *WeatherTool) Current(ctx context.Context, location string) (*Weather, error) {
	_, data, err := w.lookup(ctx, location)
	return data, err
}

// lookup returns the provider response as received alongside its typed subset.
func (w *WeatherTool) lookup(ctx context.Context, location string) (json.RawMessage, *Weather, error) {
	params := url.Values{}
	params.Set("key", w.apiKey)
	params.Set("q", location)
	endpoint := w.baseURL + "/v1/current.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: weather: %w", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: weather: reading response: %w", ErrProviderUnavailable, err)
	}

	var body struct {
		Location *Location `json:"location"`
		Current  Current   `json:"current"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, nil, fmt.Errorf("%w: weather: HTTP %d: decoding response: %v", ErrProviderUnavailable, resp.StatusCode, err)
	}

	if body.Location == nil || body.Location.Name == "" {
		zap.S().Debugw("weather lookup without location", "query", location, "status", resp.StatusCode)
		return nil, nil, ErrWeatherNotFound
	}

	return raw, &Weather{Location: *body.Location, Current: body.Current}, nil
}
