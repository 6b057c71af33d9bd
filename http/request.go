package http

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Request is a parsed request message. It is not modified after ReadRequest
// returns it.
type Request struct {
	Method Method
	Target string

	// Headers maps lower-cased header names to their trimmed value. A repeated
	// header keeps the last value seen.
	Headers map[string]string

	Body []byte
}

// Header returns the value of the named header. The lookup is case-insensitive.
func (req *Request) Header(name string) (string, bool) {
	v, ok := req.Headers[strings.ToLower(name)]
	return v, ok
}

// ReadRequest decodes a single request from r. Any failure is reported as a
// *DecodeError.
func ReadRequest(r io.Reader) (*Request, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, ReadBufferSize)
	}

	req := &Request{Headers: make(map[string]string)}
	if err := req.readRequestLine(br); err != nil {
		return nil, decodeError(err)
	}
	if err := req.readHeaders(br); err != nil {
		return nil, decodeError(err)
	}
	if err := req.readBody(br); err != nil {
		return nil, decodeError(err)
	}

	return req, nil
}

func (req *Request) readRequestLine(br *bufio.Reader) error {
	line, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return err
	}

	parts := strings.Split(strings.TrimSpace(line), " ")
	if len(parts) != 3 {
		return fmt.Errorf("%w: %q", ErrMalformedRequestLine, strings.TrimSpace(line))
	}
	rawMethod, target, version := parts[0], parts[1], parts[2]

	method, ok := ParseMethod(rawMethod)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, rawMethod)
	}
	if version != protocolHTTP11 {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}

	req.Method = method
	req.Target = target
	return nil
}

func (req *Request) readHeaders(br *bufio.Reader) error {
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			return nil
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		req.Headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)

		if err != nil {
			// Stream ended without the blank line terminator.
			return nil
		}
	}
}

func (req *Request) readBody(br *bufio.Reader) error {
	raw, ok := req.Headers["content-length"]
	if !ok {
		req.Body = []byte{}
		return nil
	}

	remaining, err := strconv.ParseUint(raw, 10, 63)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidContentLength, raw)
	}

	body := make([]byte, 0, min(remaining, 64*ReadBufferSize))
	buf := make([]byte, ReadBufferSize)
	for remaining > 0 {
		chunk := buf[:min(uint64(len(buf)), remaining)]
		n, err := br.Read(chunk)
		body = append(body, chunk[:n]...)
		remaining -= uint64(n)

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if n == 0 {
			break
		}
	}

	req.Body = body
	return nil
}
