package http

import "strconv"

// Status is a numeric status code paired with its reason phrase.
type Status struct {
	Code   uint16
	Reason string
}

var (
	StatusOK                  = Status{200, "OK"}
	StatusCreated             = Status{201, "Created"}
	StatusBadRequest          = Status{400, "Bad Request"}
	StatusNotFound            = Status{404, "Not Found"}
	StatusInternalServerError = Status{500, "Internal Server Error"}
)

const unknownStatusReason = "Unknown Status Code"

var statusReasons = map[uint16]string{
	100: "Continue",
	101: "Switching Protocols",

	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	206: "Partial Content",

	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",

	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	409: "Conflict",
	411: "Length Required",
	413: "Request Entity Too Large",
	415: "Unsupported Media Type",
	429: "Too Many Requests",

	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// NewStatus returns the status for code with its standard reason phrase.
func NewStatus(code uint16) Status {
	reason, ok := statusReasons[code]
	if !ok {
		reason = unknownStatusReason
	}
	return Status{Code: code, Reason: reason}
}

func (s Status) String() string {
	return strconv.Itoa(int(s.Code)) + " " + s.Reason
}
