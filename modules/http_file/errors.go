package http_file

import "errors"

var (
	errNotHTTP = errors.New("must be an http or https URL")
	errNoHost  = errors.New("must name a host")
)
