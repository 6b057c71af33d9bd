package http

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
)

// Response is a status, a header mapping and an optional body. A nil Body
// means the response carries no body at all; an empty non-nil Body is sent
// with "Content-Length: 0".
type Response struct {
	Status  Status
	Headers Headers
	Body    []byte
}

func NewResponse(status Status) *Response {
	return &Response{Status: status}
}

func OK() *Response                  { return NewResponse(StatusOK) }
func Created() *Response             { return NewResponse(StatusCreated) }
func BadRequest() *Response          { return NewResponse(StatusBadRequest) }
func NotFound() *Response            { return NewResponse(StatusNotFound) }
func InternalServerError() *Response { return NewResponse(StatusInternalServerError) }

func (res *Response) WithStatus(status Status) *Response {
	res.Status = status
	return res
}

func (res *Response) WithHeader(name, value string) *Response {
	res.Headers.Set(name, value)
	return res
}

func (res *Response) WithBody(body []byte) *Response {
	if body == nil {
		body = []byte{}
	}
	res.Body = body
	return res
}

func (res *Response) WithText(text string) *Response {
	res.Headers.Set("Content-Type", "text/plain")
	return res.WithBody([]byte(text))
}

// WithJSON encodes payload as the response body. Encoding failures turn the
// response into a 500 without a body.
func (res *Response) WithJSON(payload any) *Response {
	data, err := json.Marshal(payload)
	if err != nil {
		res.Status = StatusInternalServerError
		res.Body = nil
		return res
	}
	res.Headers.Set("Content-Type", "application/json")
	return res.WithBody(data)
}

func (res *Response) HasBody() bool {
	return res.Body != nil
}

// WriteTo serializes the response in HTTP/1.1 wire format.
func (res *Response) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.Grow(len(res.Body) + 32*(res.Headers.Len()+2))

	buf.WriteString(protocolHTTP11)
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(int(res.Status.Code)))
	buf.WriteByte(' ')
	buf.WriteString(res.Status.Reason)
	buf.Write(crlf)

	for _, f := range res.Headers.fields {
		// The codec owns framing.
		if strings.EqualFold(f.Name, "Content-Length") {
			continue
		}
		buf.WriteString(f.Name)
		buf.WriteString(": ")
		buf.WriteString(f.Value)
		buf.Write(crlf)
	}

	if res.Body != nil {
		buf.WriteString("Content-Length: ")
		buf.WriteString(strconv.Itoa(len(res.Body)))
		buf.Write(crlf)
		buf.Write(crlf)
		buf.Write(res.Body)
	} else {
		buf.Write(crlf)
	}

	return buf.WriteTo(w)
}

// Bytes returns the wire encoding of the response.
func (res *Response) Bytes() []byte {
	var buf bytes.Buffer
	res.WriteTo(&buf)
	return buf.Bytes()
}
