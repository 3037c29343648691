// Package capabilities fetches GetCapabilities documents of remote map
// services and attaches the advertised layers to the configuration.
package capabilities

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/models"
)

// Resolver looks up the capabilities of one service. A nil result with a
// nil error means the format has no capabilities document.
type Resolver interface {
	Resolve(ctx context.Context, serviceURL, format string) (*models.ServiceCapabilities, error)
}

// ErrUnexpectedStatus is returned for non-2xx capability responses.
var ErrUnexpectedStatus = errors.New("unexpected capabilities status")

const maxDocumentSize = 8 << 20

// HTTPResolver resolves WMS and WMTS capabilities over HTTP with a TTL
// cache keyed on format and URL.
type HTTPResolver struct {
	client *http.Client
	cache  *expirable.LRU[string, *models.ServiceCapabilities]
}

// NewHTTPResolver creates a resolver. timeout bounds each request; cacheSize
// and ttl bound the cache.
func NewHTTPResolver(timeout time.Duration, cacheSize int, ttl time.Duration) *HTTPResolver {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	return &HTTPResolver{
		client: &http.Client{Timeout: timeout},
		cache:  expirable.NewLRU[string, *models.ServiceCapabilities](cacheSize, nil, ttl),
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context, serviceURL, format string) (*models.ServiceCapabilities, error) {
	format = strings.ToLower(format)
	var parse func([]byte) (*models.ServiceCapabilities, error)
	switch format {
	case models.FormatWMS:
		parse = parseWMS
	case models.FormatWMTS:
		parse = parseWMTS
	default:
		return nil, nil
	}

	key := format + " " + serviceURL
	if caps, ok := r.cache.Get(key); ok {
		return caps, nil
	}

	reqURL, err := capabilitiesURL(serviceURL, format)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build capabilities request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch capabilities: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read capabilities: %w", err)
	}

	caps, err := parse(body)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, caps)
	return caps, nil
}

// capabilitiesURL adds the GetCapabilities query to serviceURL, keeping
// any vendor parameters it already carries.
func capabilitiesURL(serviceURL, format string) (string, error) {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("parse service url: %w", err)
	}
	q := u.Query()
	for key := range q {
		switch strings.ToLower(key) {
		case "service", "request":
			q.Del(key)
		}
	}
	q.Set("SERVICE", strings.ToUpper(format))
	q.Set("REQUEST", "GetCapabilities")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type wmsLayer struct {
	Name     string     `xml:"Name"`
	Title    string     `xml:"Title"`
	Abstract string     `xml:"Abstract"`
	Layers   []wmsLayer `xml:"Layer"`
}

type wmsCapabilities struct {
	Title    string     `xml:"Service>Title"`
	Abstract string     `xml:"Service>Abstract"`
	Layers   []wmsLayer `xml:"Capability>Layer"`
}

func parseWMS(body []byte) (*models.ServiceCapabilities, error) {
	var doc wmsCapabilities
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode WMS capabilities: %w", err)
	}
	caps := &models.ServiceCapabilities{
		Title:    strings.TrimSpace(doc.Title),
		Abstract: strings.TrimSpace(doc.Abstract),
		Layers:   []models.LayerInfo{},
	}
	var walk func([]wmsLayer)
	walk = func(layers []wmsLayer) {
		for _, l := range layers {
			// group layers without a name cannot be requested
			if name := strings.TrimSpace(l.Name); name != "" {
				caps.Layers = append(caps.Layers, models.LayerInfo{
					Name:     name,
					Title:    strings.TrimSpace(l.Title),
					Abstract: strings.TrimSpace(l.Abstract),
				})
			}
			walk(l.Layers)
		}
	}
	walk(doc.Layers)
	return caps, nil
}

type wmtsCapabilities struct {
	Title    string `xml:"ServiceIdentification>Title"`
	Abstract string `xml:"ServiceIdentification>Abstract"`
	Layers   []struct {
		Identifier string `xml:"Identifier"`
		Title      string `xml:"Title"`
		Abstract   string `xml:"Abstract"`
	} `xml:"Contents>Layer"`
}

func parseWMTS(body []byte) (*models.ServiceCapabilities, error) {
	var doc wmtsCapabilities
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode WMTS capabilities: %w", err)
	}
	caps := &models.ServiceCapabilities{
		Title:    strings.TrimSpace(doc.Title),
		Abstract: strings.TrimSpace(doc.Abstract),
		Layers:   make([]models.LayerInfo, 0, len(doc.Layers)),
	}
	for _, l := range doc.Layers {
		caps.Layers = append(caps.Layers, models.LayerInfo{
			Name:     strings.TrimSpace(l.Identifier),
			Title:    strings.TrimSpace(l.Title),
			Abstract: strings.TrimSpace(l.Abstract),
		})
	}
	return caps, nil
}
