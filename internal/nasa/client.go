// Package nasa proxies the public NASA and Open Notify APIs.
package nasa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	SourceAPOD     = "apod"
	SourceNEO      = "neo"
	SourceISS      = "iss"
	SourceTechPort = "techport"
)

const (
	techPortDetailLimit = 20
	techPortConcurrency = 5
)

// UpstreamError reports a failed call to one of the upstream APIs.
type UpstreamError struct {
	Source string
	Status int // 0 when no response was received
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream returned %d", e.Source, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Status == http.StatusNotFound
}

type Config struct {
	APIKey     string
	BaseURL    string
	ISSBaseURL string
	Timeout    time.Duration
	RetryCount int
}

// Client talks to api.nasa.gov and the ISS location service.
type Client struct {
	nasa   *resty.Client
	iss    *resty.Client
	apiKey string
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		nasa:   newRestClient(cfg.BaseURL, cfg),
		iss:    newRestClient(cfg.ISSBaseURL, cfg),
		apiKey: cfg.APIKey,
		logger: logger.With(zap.String("component", "nasa")),
	}
}

func newRestClient(baseURL string, cfg Config) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return resp != nil && resp.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json")
}

// APOD returns the Astronomy Picture of the Day. An empty date means today.
func (c *Client) APOD(ctx context.Context, date string) (json.RawMessage, error) {
	req := c.nasa.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.apiKey)
	if date != "" {
		req.SetQueryParam("date", date)
	}
	return c.raw(SourceAPOD, req, "/planetary/apod")
}

// NearEarthObjects returns the NeoWs feed for a single day (YYYY-MM-DD).
func (c *Client) NearEarthObjects(ctx context.Context, day string) (json.RawMessage, error) {
	req := c.nasa.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start_date": day,
			"end_date":   day,
			"api_key":    c.apiKey,
		})
	return c.raw(SourceNEO, req, "/neo/rest/v1/feed")
}

// ISSLocation returns the current ISS position.
func (c *Client) ISSLocation(ctx context.Context) (json.RawMessage, error) {
	return c.raw(SourceISS, c.iss.R().SetContext(ctx), "/iss-now.json")
}

type techPortList struct {
	Projects []struct {
		ProjectID int64 `json:"projectId"`
	} `json:"projects"`
}

type techPortDetail struct {
	Project json.RawMessage `json:"project"`
}

// TechPortProjects lists projects, optionally updated since a date, and
// fetches the details of the first 20 concurrently. Details that fail to load
// are dropped. total is the number of projects the list reported.
func (c *Client) TechPortProjects(ctx context.Context, updatedSince string) (projects []json.RawMessage, total int, err error) {
	var list techPortList
	req := c.nasa.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.apiKey).
		SetResult(&list)
	if updatedSince != "" {
		req.SetQueryParam("updatedSince", updatedSince)
	}
	if err := c.do(SourceTechPort, req, "/techport/api/projects"); err != nil {
		return nil, 0, err
	}

	ids := list.Projects
	if len(ids) > techPortDetailLimit {
		ids = ids[:techPortDetailLimit]
	}

	details := make([]json.RawMessage, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(techPortConcurrency)
	for i, item := range ids {
		g.Go(func() error {
			detail, err := c.TechPortProject(gctx, item.ProjectID)
			if err != nil {
				c.logger.Debug("techport detail dropped", zap.Int64("project_id", item.ProjectID), zap.Error(err))
				return nil
			}
			details[i] = detail
			return nil
		})
	}
	_ = g.Wait()

	projects = make([]json.RawMessage, 0, len(details))
	for _, detail := range details {
		if len(detail) > 0 {
			projects = append(projects, detail)
		}
	}
	return projects, len(list.Projects), nil
}

// TechPortProject returns the "project" object of a single TechPort project.
func (c *Client) TechPortProject(ctx context.Context, id int64) (json.RawMessage, error) {
	var detail techPortDetail
	req := c.nasa.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.apiKey).
		SetResult(&detail)
	if err := c.do(SourceTechPort, req, "/techport/api/projects/"+strconv.FormatInt(id, 10)); err != nil {
		return nil, err
	}
	if len(detail.Project) == 0 || string(detail.Project) == "null" {
		return nil, &UpstreamError{Source: SourceTechPort, Err: errors.New("response has no project")}
	}
	return detail.Project, nil
}

func (c *Client) raw(source string, req *resty.Request, path string) (json.RawMessage, error) {
	resp, err := req.Get(path)
	if err := c.check(source, resp, err); err != nil {
		return nil, err
	}
	body := resp.Body()
	if !json.Valid(body) {
		return nil, &UpstreamError{Source: source, Err: errors.New("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

func (c *Client) do(source string, req *resty.Request, path string) error {
	resp, err := req.Get(path)
	return c.check(source, resp, err)
}

func (c *Client) check(source string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Warn("upstream call failed", zap.String("source", source), zap.Error(err))
		return &UpstreamError{Source: source, Err: err}
	}
	if resp.IsError() {
		c.logger.Warn("upstream returned error status",
			zap.String("source", source),
			zap.Int("status_code", resp.StatusCode()),
		)
		return &UpstreamError{Source: source, Status: resp.StatusCode()}
	}
	return nil
}
