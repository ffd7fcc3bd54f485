package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

var errNoDeleteURL = errors.New("submit: delete url not configured")

// PayloadMapper turns wizard values into the request payload.
type PayloadMapper func(values field.Values) (map[string]any, error)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = resty.NewWithClient(hc)
		}
	}
}

// WithAuthToken sends a bearer token on every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithPayloadMapper replaces the identity mapping.
func WithPayloadMapper(fn PayloadMapper) Option {
	return func(c *Client) {
		if fn != nil {
			c.mapper = fn
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the REST backend behind one wizard definition.
type Client struct {
	http     *resty.Client
	baseURL  string
	endpoint schema.EndpointConfig
	token    string
	timeout  time.Duration
	mapper   PayloadMapper
	logger   *slog.Logger
}

// New builds a client for endpoint, resolving relative URLs against baseURL.
func New(baseURL string, endpoint schema.EndpointConfig, options ...Option) *Client {
	c := &Client{
		http:     resty.New(),
		baseURL:  strings.TrimRight(baseURL, "/"),
		endpoint: endpoint,
		timeout:  30 * time.Second,
		mapper:   identityPayload,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	c.http.SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetHeader("Accept", "application/json")
	if c.token != "" {
		c.http.SetAuthToken(c.token)
	}
	return c
}

// SubmitFunc adapts Submit to wizard.SubmitFunc.
func (c *Client) SubmitFunc() wizard.SubmitFunc {
	return c.Submit
}

// DeleteFunc adapts Delete to wizard.DeleteFunc.
func (c *Client) DeleteFunc() wizard.DeleteFunc {
	return c.Delete
}

// Submit sends values to the endpoint. Non-2xx responses become failed
// results; transport failures are returned as errors.
func (c *Client) Submit(ctx context.Context, values field.Values) (wizard.SubmitResult, error) {
	payload, err := c.mapper(values)
	if err != nil {
		return wizard.SubmitResult{}, fmt.Errorf("submit: map payload: %w", err)
	}

	var body responseBody
	req := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&body)
	if err := setPayload(req, payload); err != nil {
		return wizard.SubmitResult{}, err
	}

	method := strings.ToUpper(strings.TrimSpace(c.endpoint.Method))
	if method == "" {
		method = http.MethodPost
	}
	target := expandURL(c.endpoint.URL, values)
	resp, err := req.Execute(method, target)
	if err != nil {
		return wizard.SubmitResult{}, fmt.Errorf("submit: %s %s: %w", method, target, err)
	}
	c.logger.Debug("submit: response", "method", method, "url", target, "status", resp.StatusCode())

	if resp.IsError() {
		result := wizard.SubmitResult{
			Errors:      wizard.MergeMessages(body.Error, body.Message),
			FieldErrors: body.Errors,
		}
		if len(result.Errors) == 0 && len(result.FieldErrors) == 0 {
			result.Errors = []string{fmt.Sprintf("request failed: %s", resp.Status())}
		}
		return result, nil
	}
	return wizard.SubmitResult{Success: true, Message: body.Message}, nil
}

// Delete issues DELETE against the configured delete URL.
func (c *Client) Delete(ctx context.Context, values field.Values) error {
	if strings.TrimSpace(c.endpoint.DeleteURL) == "" {
		return errNoDeleteURL
	}
	var body responseBody
	target := expandURL(c.endpoint.DeleteURL, values)
	resp, err := c.http.R().SetContext(ctx).SetError(&body).Delete(target)
	if err != nil {
		return fmt.Errorf("submit: DELETE %s: %w", target, err)
	}
	if resp.IsError() {
		msgs := wizard.MergeMessages(body.Error, body.Message)
		if len(msgs) == 0 {
			msgs = []string{resp.Status()}
		}
		return fmt.Errorf("submit: DELETE %s: %s", target, strings.Join(msgs, "; "))
	}
	return nil
}

func setPayload(req *resty.Request, payload map[string]any) error {
	files := make(map[string][]field.PendingFile)
	form := url.Values{}
	for name, v := range payload {
		switch typed := v.(type) {
		case field.PendingFile:
			files[name] = append(files[name], typed)
		case []field.File:
			pending, existing := field.SplitFiles(typed)
			files[name] = append(files[name], pending...)
			for _, e := range existing {
				form.Add(name, e.URL)
			}
		default:
			addFormValue(form, name, v)
		}
	}

	if len(files) == 0 {
		req.SetBody(jsonPayload(payload))
		return nil
	}
	for name, list := range files {
		for _, f := range list {
			if f.Open == nil {
				return fmt.Errorf("submit: file %q for %s has no reader", f.Name, name)
			}
			r, err := f.Open()
			if err != nil {
				return fmt.Errorf("submit: open %s: %w", f.Name, err)
			}
			req.SetFileReader(name, f.Name, r)
		}
	}
	req.SetFormDataFromValues(form)
	return nil
}

func jsonPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		switch typed := v.(type) {
		case field.ExistingFile:
			out[k] = typed.URL
		case []field.File:
			_, existing := field.SplitFiles(typed)
			urls := make([]string, 0, len(existing))
			for _, e := range existing {
				urls = append(urls, e.URL)
			}
			out[k] = urls
		default:
			out[k] = v
		}
	}
	return out
}

func addFormValue(form url.Values, name string, v any) {
	switch typed := v.(type) {
	case nil:
	case field.ExistingFile:
		form.Add(name, typed.URL)
	case []string:
		for _, s := range typed {
			form.Add(name, s)
		}
	default:
		form.Add(name, fmt.Sprint(typed))
	}
}

func identityPayload(values field.Values) (map[string]any, error) {
	return map[string]any(values), nil
}

// expandURL substitutes {name} placeholders with url-escaped values.
func expandURL(raw string, values field.Values) string {
	out := raw
	for {
		start := strings.Index(out, "{")
		if start < 0 {
			return out
		}
		end := strings.Index(out[start:], "}")
		if end < 0 {
			return out
		}
		name := out[start+1 : start+end]
		out = out[:start] + url.PathEscape(fmt.Sprint(values[name])) + out[start+end+1:]
	}
}

// responseBody is the error/success envelope returned by the backend.
type responseBody struct {
	Message string              `json:"message"`
	Error   messageList         `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// messageList accepts either a string or an array of strings.
type messageList []string

func (m *messageList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*m = messageList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = many
	return nil
}
