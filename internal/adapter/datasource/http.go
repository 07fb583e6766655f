package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/lvgames/internal/entity"
)

const maxDocumentBytes = 16 << 20

// HTTPSource fetches a vocabulary document relative to a base URL.
type HTTPSource struct {
	url       string
	itemsPath string
	client    *http.Client
	logger    *logrus.Logger
}

// NewHTTPSource resolves path against baseURL. A zero timeout means 10s.
func NewHTTPSource(baseURL, path, itemsPath string, timeout time.Duration, logger *logrus.Logger) (*HTTPSource, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse data path %q: %w", path, err)
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, fmt.Errorf("data url %q must be http or https", resolved)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPSource{
		url:       resolved.String(),
		itemsPath: itemsPath,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}, nil
}

// URL is the resolved document location.
func (s *HTTPSource) URL() string { return s.url }

func (s *HTTPSource) Name() string { return "http:" + s.url }

func (s *HTTPSource) Load(ctx context.Context) ([]entity.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", s.url, resp.Status)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.url, err)
	}
	result, err := DecodeItems(raw, s.itemsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.url, err)
	}
	if result.Skipped > 0 {
		s.logger.WithFields(logrus.Fields{"url": s.url, "skipped": result.Skipped}).Warn("skipped malformed items")
	}
	return result.Items, nil
}
