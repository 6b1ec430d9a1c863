package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"bompick/internal/config"
)

// Client talks to the Mouser Search API v1.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	log        *zap.Logger
}

type partNumberRequest struct {
	MouserPartNumber  string `json:"mouserPartNumber"`
	PartNumber        string `json:"partNumber"`
	PartSearchOptions string `json:"partSearchOptions"`
}

type keywordRequest struct {
	Keyword        string `json:"keyword"`
	Records        int    `json:"records"`
	StartingRecord int    `json:"startingRecord"`
	SearchOptions  string `json:"searchOptions"`
	SearchLanguage string `json:"searchWithYourSignUpLanguage"`
}

type searchResponse struct {
	Errors        []apiError     `json:"Errors"`
	SearchResults *searchResults `json:"SearchResults"`
}

type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type searchResults struct {
	NumberOfResult int              `json:"NumberOfResult"`
	Parts          []map[string]any `json:"Parts"`
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.MouserTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.MouserRateLimitPS),
		log:        log,
	}
}

// SearchByPartNumber runs an exact MPN lookup and returns the raw part
// records in the catalog's native shape.
func (c *Client) SearchByPartNumber(ctx context.Context, mpn string) ([]map[string]any, error) {
	payload := map[string]partNumberRequest{
		"SearchByPartRequest": {
			PartNumber:        mpn,
			PartSearchOptions: "Exact",
		},
	}
	return c.search(ctx, "search/partnumber", payload)
}

// SearchByKeyword runs a free-text search. searchOptions follows the
// catalog contract ("None", "InStock", "RohsAndInStock", ...).
func (c *Client) SearchByKeyword(ctx context.Context, keyword, searchOptions string) ([]map[string]any, error) {
	if searchOptions == "" {
		searchOptions = "None"
	}
	payload := map[string]keywordRequest{
		"SearchByKeywordRequest": {
			Keyword:        keyword,
			Records:        c.cfg.MouserMaxResults,
			StartingRecord: 0,
			SearchOptions:  searchOptions,
			SearchLanguage: "en",
		},
	}
	return c.search(ctx, "search/keyword", payload)
}

func (c *Client) search(ctx context.Context, endpoint string, payload any) ([]map[string]any, error) {
	if strings.TrimSpace(c.cfg.MouserAPIKey) == "" {
		return nil, errors.New("missing MOUSER_API_KEY")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.MouserAPIBaseURL, "/") + "/" + endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("apiKey", c.cfg.MouserAPIKey)
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				c.log.Debug("catalog request retry",
					zap.String("endpoint", endpoint),
					zap.Int("status", resp.StatusCode),
					zap.Duration("backoff", backoff))
				time.Sleep(backoff)
				lastErr = fmt.Errorf("catalog status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("catalog api error: status=%d body=%s", resp.StatusCode, string(respBody))
		}

		var parsed searchResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, err
		}
		if len(parsed.Errors) > 0 {
			return nil, fmt.Errorf("catalog api unsuccessful: %s: %s", parsed.Errors[0].Code, parsed.Errors[0].Message)
		}
		if parsed.SearchResults == nil {
			return nil, nil
		}
		c.log.Debug("catalog search complete",
			zap.String("endpoint", endpoint),
			zap.Int("results", parsed.SearchResults.NumberOfResult))
		return parsed.SearchResults.Parts, nil
	}

	if lastErr == nil {
		lastErr = errors.New("catalog request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
