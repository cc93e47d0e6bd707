// Package problem renders errors as RFC 7807 problem details.
package problem

import (
	"encoding/json"
	"net/http"
)

const (
	mediaType = "application/problem+json"
	typeBase  = "https://errors.launchpad.dev/"
)

// Details is the RFC 7807 response body.
type Details struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Instance  string `json:"instance"`
	RequestID string `json:"request_id"`
}

// Type expands a short error slug into the absolute problem type URI.
func Type(slug string) string {
	return typeBase + slug
}

// Write emits a problem response. An empty title defaults to the standard
// status text and an empty type to about:blank.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string) {
	d := Details{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	}
	if d.Title == "" {
		d.Title = http.StatusText(status)
	}
	if d.Type == "" {
		d.Type = "about:blank"
	}
	if r != nil {
		d.Instance = r.URL.Path
		d.RequestID = r.Header.Get("X-Trace-ID")
	}
	if d.RequestID == "" {
		d.RequestID = w.Header().Get("X-Trace-ID")
	}

	w.Header().Set("Content-Type", mediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(d)
}
