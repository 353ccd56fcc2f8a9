package canvass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RestAction is one endpoint of a REST resource. URL overrides the
// resource template when set.
type RestAction struct {
	Method  string            `yaml:"method" json:"method"`
	URL     string            `yaml:"url" json:"url,omitempty"`
	IsArray bool              `yaml:"isArray" json:"isArray,omitempty"`
	Params  map[string]string `yaml:"params" json:"params,omitempty"`
}

// RestResource is a URL template such as "people/:id" with default
// parameters and named actions. A default parameter value "@name" is
// taken from the request body's "name" property.
type RestResource struct {
	URL     string                `yaml:"url" json:"url"`
	Params  map[string]string     `yaml:"params" json:"params,omitempty"`
	Actions map[string]RestAction `yaml:"actions" json:"actions,omitempty"`
}

// DefaultActions are available on every resource unless overridden.
func DefaultActions() map[string]RestAction {
	return map[string]RestAction{
		"get":    {Method: http.MethodGet},
		"save":   {Method: http.MethodPost},
		"query":  {Method: http.MethodGet, IsArray: true},
		"update": {Method: http.MethodPut},
		"remove": {Method: http.MethodDelete},
		"delete": {Method: http.MethodDelete},
	}
}

// Action returns the named action, falling back to the defaults.
func (r *RestResource) Action(name string) (RestAction, bool) {
	if a, ok := r.Actions[name]; ok {
		if a.Method == "" {
			a.Method = http.MethodGet
		}
		return a, true
	}
	a, ok := DefaultActions()[name]
	return a, ok
}

// ActionNames lists the resource's actions, defaults included, sorted.
func (r *RestResource) ActionNames() []string {
	seen := map[string]bool{}
	for name := range DefaultActions() {
		seen[name] = true
	}
	for name := range r.Actions {
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RestRequest is a resolved action call.
type RestRequest struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	IsArray bool
}

// Build resolves the action's URL template. Explicit params win over the
// resource and action defaults; "@prop" defaults read body[prop]. Params
// not consumed by the template become query parameters. Segments whose
// param has no value are dropped.
func (r *RestResource) Build(action string, params map[string]any, body any) (RestRequest, error) {
	a, ok := r.Action(action)
	if !ok {
		return RestRequest{}, fmt.Errorf("rest %s: action %q: %w", r.URL, action, ErrMissingArgument)
	}
	values := map[string]string{}
	for _, defaults := range []map[string]string{r.Params, a.Params} {
		for k, v := range defaults {
			if prop, isRef := strings.CutPrefix(v, "@"); isRef {
				if m, ok := asMap(body); ok {
					if x, ok := m[prop]; ok && x != nil {
						values[k] = idString(x)
					}
				}
				continue
			}
			values[k] = v
		}
	}
	for k, v := range params {
		if v == nil {
			continue
		}
		values[k] = idString(v)
	}
	tmpl := r.URL
	if a.URL != "" {
		tmpl = a.URL
	}
	path, used := expandTemplate(tmpl, values)
	query := url.Values{}
	for k, v := range values {
		if !used[k] && v != "" {
			query.Set(k, v)
		}
	}
	req := RestRequest{Method: a.Method, Path: path, Query: query, IsArray: a.IsArray}
	if a.Method != http.MethodGet && a.Method != http.MethodDelete {
		req.Body = body
	}
	return req, nil
}

func expandTemplate(tmpl string, values map[string]string) (string, map[string]bool) {
	used := map[string]bool{}
	segs := strings.Split(tmpl, "/")
	out := make([]string, 0, len(segs))
	for _, seg := range segs {
		name, isParam := strings.CutPrefix(seg, ":")
		if !isParam {
			out = append(out, seg)
			continue
		}
		used[name] = true
		if v := values[name]; v != "" {
			out = append(out, url.PathEscape(v))
		}
	}
	return strings.TrimSuffix(strings.Join(out, "/"), "/"), used
}

// Transport issues a REST request and returns the decoded JSON body.
type Transport interface {
	Do(ctx context.Context, req RestRequest) (any, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// HTTPTransport sends JSON requests relative to BaseURL.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
	Header  http.Header
	logger  *zap.SugaredLogger
}

func NewHTTPTransport(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *HTTPTransport {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &HTTPTransport{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Header:  http.Header{},
		logger:  logger,
	}
}

func (t *HTTPTransport) Do(ctx context.Context, req RestRequest) (any, error) {
	u := t.BaseURL + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", req.Method, u, err)
		}
		body = bytes.NewReader(data)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range t.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	hr.Header.Set("Accept", "application/json")
	if body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	t.logger.Debugw("rest request", "method", req.Method, "url", u)
	resp, err := client.Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, u, err)
	}
	t.logger.Debugw("rest response", "method", req.Method, "url", u, "status", resp.StatusCode, "bytes", len(data))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: req.Method, URL: u, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s %s: decode body: %w", req.Method, u, err)
	}
	return out, nil
}
