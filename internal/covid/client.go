package covid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"coronabot/internal/errs"
	"coronabot/internal/models"
	"coronabot/internal/providers"
	"coronabot/internal/structures"
)

// Feature tables of the upstream dashboard service.
//
//	1 - states and region/city (Cases)
//	2 - countries (Cases_country)
//	3 - states/provinces (Cases_state)
//	4 - time series with Delta_Confirmed/Delta_Recovered (Cases_time)
const (
	TableRegion     = 1
	TableCountry    = 2
	TableProvince   = 3
	TableTimeSeries = 4
)

// The upstream service rejects plain client user agents, so queries carry
// the header set of the dashboard the data is published through.
const (
	userAgent = "Mozilla/5.0 (Linux; Android 8.0.0;) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/80.0.3987.149 Mobile Safari/537.36"
	referer = "https://www.arcgis.com/apps/opsdashboard/index.html"
)

type Statistic struct {
	StatisticType         string `json:"statisticType"`
	OnStatisticField      string `json:"onStatisticField"`
	OutStatisticFieldName string `json:"outStatisticFieldName"`
}

// QueryOptions mirrors the feature-table query parameters. Zero values mean
// "not set" and are sent as empty parameters, which the service ignores.
type QueryOptions struct {
	Where      string
	Statistics []Statistic
	OutFields  []string
	OrderBy    string
	Offset     int
	Limit      int
}

type Feature struct {
	Attributes map[string]any `json:"attributes"`
}

type remoteError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

type queryResponse struct {
	Error    *remoteError `json:"error"`
	Features []Feature    `json:"features"`
}

type countryListMemo struct {
	values    []string
	expiresAt time.Time
}

type countryCountMemo struct {
	count     int
	expiresAt time.Time
}

// Client queries the statistics service. Queries are stateless and may run
// concurrently; only the two memoized aggregates are guarded internally.
type Client struct {
	http    *http.Client
	conf    structures.CoronaConfig
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	memoMu sync.Mutex
	list   countryListMemo
	count  countryCountMemo
}

func NewClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *Client {
	return &Client{
		http:    &http.Client{Timeout: conf.Corona.RequestTimeout},
		conf:    conf.Corona,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *Client) queryURL(table int) string {
	return fmt.Sprintf("%s/%s/FeatureServer/%d/query",
		strings.TrimSuffix(c.conf.BaseURL, "/"), c.conf.ServiceID, table)
}

// Query issues one GET against the given feature table and returns the
// parsed features. An error envelope in the response body surfaces as a
// RemoteQuery error carrying the remote code and details.
func (c *Client) Query(ctx context.Context, table int, opts QueryOptions) ([]Feature, error) {
	where := opts.Where
	if where == "" {
		where = "1=1"
	}

	outFields := "*"
	if len(opts.OutFields) > 0 {
		outFields = strings.Join(opts.OutFields, ",")
	}

	statistics := ""
	if len(opts.Statistics) > 0 {
		encoded, err := json.Marshal(opts.Statistics)
		if err != nil {
			return nil, fmt.Errorf("failed to encode outStatistics: %w", err)
		}
		statistics = string(encoded)
	}

	offset := ""
	if opts.Offset > 0 {
		offset = strconv.Itoa(opts.Offset)
	}
	limit := ""
	if opts.Limit > 0 {
		limit = strconv.Itoa(opts.Limit)
	}

	params := url.Values{
		"f":                 {"json"},
		"where":             {where},
		"returnGeometry":    {"false"},
		"spatialRel":        {"esriSpatialRelIntersects"},
		"outFields":         {outFields},
		"outStatistics":     {statistics},
		"orderByFields":     {opts.OrderBy},
		"resultOffset":      {offset},
		"resultRecordCount": {limit},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL(table)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)

	tableLabel := strconv.Itoa(table)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.IncRemoteQueries(tableLabel, "transport_error")
		return nil, err
	}
	defer resp.Body.Close()
	c.metrics.ObserveRemoteQueryDuration(tableLabel, time.Since(start))

	// The service answers with text/plain, so decode the body regardless
	// of content type.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncRemoteQueries(tableLabel, "transport_error")
		return nil, err
	}

	var result queryResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.metrics.IncRemoteQueries(tableLabel, "decode_error")
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	if result.Error != nil {
		c.metrics.IncRemoteQueries(tableLabel, "remote_error")
		c.logger.Debugf(providers.TypeApp, "Remote query failed: code=%d message=%s details=%s",
			result.Error.Code, result.Error.Message, strings.Join(result.Error.Details, "; "))
		return nil, errs.New(errs.RemoteQuery, result.Error.Message).
			WithDetail("code", strconv.Itoa(result.Error.Code)).
			WithDetail("details", strings.Join(result.Error.Details, "; "))
	}

	c.metrics.IncRemoteQueries(tableLabel, "ok")
	return result.Features, nil
}

// CountryList returns all country names ordered by confirmed cases
// descending, memoized for the configured window. A fresh list also primes
// the country count memo.
func (c *Client) CountryList(ctx context.Context) ([]string, error) {
	c.memoMu.Lock()
	if time.Now().Before(c.list.expiresAt) {
		values := c.list.values
		c.memoMu.Unlock()
		return values, nil
	}
	c.memoMu.Unlock()

	features, err := c.Query(ctx, TableCountry, QueryOptions{
		OutFields: []string{models.AttrCountry},
		OrderBy:   "Confirmed desc",
	})
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(features))
	for _, f := range features {
		values = append(values, cast.ToString(f.Attributes[models.AttrCountry]))
	}

	now := time.Now()
	c.memoMu.Lock()
	c.list = countryListMemo{values: values, expiresAt: now.Add(c.conf.CountryListTTL)}
	c.count = countryCountMemo{count: len(values), expiresAt: now.Add(c.conf.CountryCountTTL)}
	c.memoMu.Unlock()

	return values, nil
}

// CountryCount returns the number of affected countries, memoized for the
// configured window.
func (c *Client) CountryCount(ctx context.Context) (int, error) {
	c.memoMu.Lock()
	if time.Now().Before(c.count.expiresAt) {
		count := c.count.count
		c.memoMu.Unlock()
		return count, nil
	}
	c.memoMu.Unlock()

	features, err := c.Query(ctx, TableCountry, QueryOptions{
		Statistics: []Statistic{{
			StatisticType:         "count",
			OnStatisticField:      "OBJECTID",
			OutStatisticFieldName: "value",
		}},
	})
	if err != nil {
		return 0, err
	}
	if len(features) == 0 {
		return 0, errs.New(errs.RemoteQuery, "country count query returned no features")
	}

	count := cast.ToInt(features[0].Attributes["value"])
	c.memoMu.Lock()
	c.count = countryCountMemo{count: count, expiresAt: time.Now().Add(c.conf.CountryCountTTL)}
	c.memoMu.Unlock()

	return count, nil
}
