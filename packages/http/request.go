package http

import (
	"encoding/json"
	"strings"

	"github.com/alessio/shellescape"
)

// Request describes one call relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Body   any
	Token  string
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
	}
}

// SetJSON sets a value to be serialized as the JSON request body.
func (r *Request) SetJSON(body any) *Request {
	r.Body = body
	return r
}

// SetToken attaches a bearer credential.
func (r *Request) SetToken(token string) *Request {
	r.Token = token
	return r
}

// URL joins the request path to baseURL.
func (r *Request) URL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if r.Path == "" {
		return base
	}
	if strings.HasPrefix(r.Path, "/") {
		return base + r.Path
	}
	return base + "/" + r.Path
}

// Curl renders a shell-safe curl command reproducing the request. The bearer
// token is masked.
func (r *Request) Curl(baseURL string) string {
	var b commandBuilder
	b.add("curl", "-sS", "-X", r.Method)

	if r.Token != "" {
		b.add("-H", "Authorization: Bearer ***")
	}
	if r.Body != nil {
		if payload, err := json.Marshal(r.Body); err == nil {
			b.add("-H", "Content-Type: application/json", "--data", string(payload))
		}
	}
	b.add(r.URL(baseURL))
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
