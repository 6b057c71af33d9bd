package http

import "strings"

// Header is a single response header field.
type Header struct {
	Name  string
	Value string
}

// Headers is an insertion-ordered header mapping with case-insensitive keys
// and at most one value per key.
type Headers struct {
	fields []Header
}

func (h *Headers) index(name string) int {
	for i, f := range h.fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Set stores value under name, replacing an existing value in place.
func (h *Headers) Set(name, value string) {
	if i := h.index(name); i >= 0 {
		h.fields[i].Value = value
		return
	}
	h.fields = append(h.fields, Header{Name: name, Value: value})
}

func (h *Headers) Get(name string) (string, bool) {
	if i := h.index(name); i >= 0 {
		return h.fields[i].Value, true
	}
	return "", false
}

func (h *Headers) Del(name string) {
	if i := h.index(name); i >= 0 {
		h.fields = append(h.fields[:i], h.fields[i+1:]...)
	}
}

func (h *Headers) Len() int {
	return len(h.fields)
}

// Fields returns a copy of the header fields in insertion order.
func (h *Headers) Fields() []Header {
	out := make([]Header, len(h.fields))
	copy(out, h.fields)
	return out
}
