package opendata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"AgriPulse/internal/domain/models"
	drepo "AgriPulse/internal/domain/repository"
	apphttp "AgriPulse/pkg/http"
	"AgriPulse/pkg/logger"
	"AgriPulse/pkg/util"
)

// DefaultBaseURL is the MOA wholesale transaction endpoint.
const DefaultBaseURL = "https://data.moa.gov.tw/Service/OpenData/FromM/FarmTransData.aspx"

// Client implements a TransSource backed by the MOA open-data API.
// The endpoint sits behind aggressive CORS/geo gating, so a direct fetch
// falls back to an ordered chain of relay URL templates.
type Client struct {
	http     *apphttp.Client
	baseURL  string
	proxies  []string
	pageSize int
	log      *logger.Logger
}

// Option configures Client.
type Option func(*Client)

// New creates a MOA open-data TransSource.
func New(log *logger.Logger, opts ...Option) drepo.TransSource {
	c := &Client{
		baseURL:  DefaultBaseURL,
		pageSize: 1000,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = apphttp.NewClient()
	}
	return c
}

// WithBaseURL overrides the endpoint URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithProxies sets the ordered relay templates. Each template contains a
// single %s that receives the query-escaped target URL.
func WithProxies(templates []string) Option {
	return func(c *Client) { c.proxies = append([]string(nil), templates...) }
}

// WithPageSize sets the $top page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithHTTPClient injects the underlying HTTP client.
func WithHTTPClient(hc *apphttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// transRow mirrors one row of the upstream payload. Numeric fields arrive
// as either JSON numbers or strings depending on the row.
type transRow struct {
	CropName   string     `json:"作物名稱"`
	MarketName string     `json:"市場名稱"`
	TradeDate  string     `json:"交易日期"`
	AvgPrice   flexNumber `json:"平均價"`
	Volume     flexNumber `json:"交易量"`
}

// flexNumber decodes a JSON number or a numeric string. Blank and
// non-numeric values decode to zero so the row is dropped downstream
// instead of failing the whole page.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexNumber(v)
	return nil
}

// FetchRange pulls all transaction rows for one market between from and to.
func (c *Client) FetchRange(ctx context.Context, market string, from, to time.Time) ([]models.TransRecord, error) {
	target := c.buildURL(market, from, to)

	body, err := c.fetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("opendata fetch: %w", err)
	}

	var rows []transRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("opendata decode: %w", err)
	}

	records := make([]models.TransRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, models.TransRecord{
			CropName:   r.CropName,
			MarketName: r.MarketName,
			TradeDate:  r.TradeDate,
			AvgPrice:   float64(r.AvgPrice),
			Volume:     float64(r.Volume),
		})
	}

	c.log.Debug("opendata fetched",
		logger.String("market", market),
		logger.Int("rows", len(records)))
	return records, nil
}

func (c *Client) buildURL(market string, from, to time.Time) string {
	q := url.Values{}
	q.Set("$top", strconv.Itoa(c.pageSize))
	q.Set("$skip", "0")
	q.Set("StartDate", util.ROCDotted(from))
	q.Set("EndDate", util.ROCDotted(to))
	q.Set("Market", market)
	return c.baseURL + "?" + q.Encode()
}

// fetch tries the target directly, then each relay template in order.
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodGet,
		URL:    target,
	}, &body)
	if err == nil {
		return body, nil
	}
	direct := err

	for _, tmpl := range c.proxies {
		relayed := fmt.Sprintf(tmpl, url.QueryEscape(target))
		body = nil
		if perr := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
			Method: apphttp.MethodGet,
			URL:    relayed,
		}, &body); perr == nil {
			return body, nil
		}
		c.log.Warn("opendata relay failed", logger.String("relay", tmpl))
	}

	return nil, apphttp.BadGatewayError("upstream and all relays failed").WithError(direct)
}
