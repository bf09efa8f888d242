package errors

import (
	"errors"
	"fmt"
)

// httpStatusCarrier is implemented by errors originating from upstream HTTP
// calls (see pkg/corelia).
type httpStatusCarrier interface {
	error
	StatusCode() int
}

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus int `json:"upstream_status,omitempty"`
}

// Dump flattens an error chain into loggable fields.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var upstream httpStatusCarrier
	if errors.As(err, &upstream) {
		d.UpstreamStatus = upstream.StatusCode()
	}

	return d
}
