package oauthmodel

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	bridgeerrors "github.com/jrsteele09/wallet-oidc-bridge/internal/errors"
)

const maxBodyBytes = 1 << 20

// ProtocolRequest is the transport-neutral view of an HTTP request handed to
// the protocol handlers. Every field is always populated.
type ProtocolRequest struct {
	Method  string
	URL     *url.URL
	Header  http.Header
	Form    url.Values
	Body    []byte
	Cookies map[string]string
	// Secure is set for TLS requests, directly or behind a proxy
	Secure  bool
}

// Cookie returns the named cookie value or ""
func (r *ProtocolRequest) Cookie(name string) string {
	return r.Cookies[name]
}

// BasicAuth parses an Authorization: Basic header
func (r *ProtocolRequest) BasicAuth() (username, password string, ok bool) {
	fake := http.Request{Header: r.Header}
	return fake.BasicAuth()
}

// DecodeJSON decodes the body into v
func (r *ProtocolRequest) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(bridgeerrors.ErrInvalidRequest, "malformed JSON body")
	}
	return nil
}

// IsJSON reports whether the body is declared as JSON
func (r *ProtocolRequest) IsJSON() bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// NewProtocolRequest maps an *http.Request onto a ProtocolRequest. The body
// is read once; url-encoded bodies are also parsed into Form, merged over the
// query string.
func NewProtocolRequest(r *http.Request) (*ProtocolRequest, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "unreadable body")
		}
		if len(body) > maxBodyBytes {
			return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "body too large")
		}
	}

	form := url.Values{}
	for k, v := range r.URL.Query() {
		form[k] = append([]string(nil), v...)
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" && len(body) > 0 {
		posted, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, errors.Wrap(bridgeerrors.ErrInvalidRequest, "malformed form body")
		}
		for k, v := range posted {
			form[k] = v
		}
	}

	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}

	u := *r.URL
	return &ProtocolRequest{
		Method:  r.Method,
		URL:     &u,
		Header:  r.Header.Clone(),
		Form:    form,
		Body:    body,
		Cookies: cookies,
		Secure:  r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	}, nil
}

// ProtocolResponse is what a protocol handler produces. A non-empty Redirect
// takes precedence over Body.
type ProtocolResponse struct {
	Status   int
	Header   http.Header
	Redirect string
	Body     any
	Cookies  []*http.Cookie
}

// JSONResponse builds a JSON response
func JSONResponse(status int, body any) *ProtocolResponse {
	return &ProtocolResponse{Status: status, Header: http.Header{}, Body: body}
}

// RedirectResponse builds a 302 redirect
func RedirectResponse(location string) *ProtocolResponse {
	return &ProtocolResponse{Status: http.StatusFound, Header: http.Header{}, Redirect: location}
}

// WithCookie appends a cookie to the response
func (p *ProtocolResponse) WithCookie(c *http.Cookie) *ProtocolResponse {
	p.Cookies = append(p.Cookies, c)
	return p
}

// WithHeader sets a response header
func (p *ProtocolResponse) WithHeader(key, value string) *ProtocolResponse {
	if p.Header == nil {
		p.Header = http.Header{}
	}
	p.Header.Set(key, value)
	return p
}

// Write sends the response on w
func (p *ProtocolResponse) Write(w http.ResponseWriter, r *http.Request) error {
	for key, values := range p.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	for _, c := range p.Cookies {
		http.SetCookie(w, c)
	}

	status := p.Status
	if p.Redirect != "" {
		if status == 0 {
			status = http.StatusFound
		}
		http.Redirect(w, r, p.Redirect, status)
		return nil
	}

	if status == 0 {
		status = http.StatusOK
	}
	if p.Body == nil {
		w.WriteHeader(status)
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(p.Body)
}
