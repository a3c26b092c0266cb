package http

import (
	"strings"
	"time"
)

// StatusTransportFailure is the status code of an Outcome whose exchange
// never produced an HTTP response.
const StatusTransportFailure = -1

// Outcome is the result of one call: a status code and raw body, or a
// transport failure.
type Outcome struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
	Err        error
}

func transportFailure(err error, d time.Duration) *Outcome {
	return &Outcome{
		StatusCode: StatusTransportFailure,
		Status:     "transport failure",
		Headers:    map[string]string{},
		Duration:   d,
		Err:        err,
	}
}

// TransportFailed reports whether the call failed before a response arrived.
func (o *Outcome) TransportFailed() bool {
	return o.StatusCode == StatusTransportFailure
}

func (o *Outcome) BodyString() string {
	return string(o.Body)
}

func (o *Outcome) Header(key string) string {
	for k, v := range o.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (o *Outcome) ContentType() string {
	return o.Header("Content-Type")
}

func (o *Outcome) IsJSON() bool {
	return strings.Contains(o.ContentType(), "application/json")
}

func (o *Outcome) IsSuccess() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}
