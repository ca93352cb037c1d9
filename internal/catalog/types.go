package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrStatus is returned when a page answers with a non-2xx status.
var ErrStatus = errors.New("unexpected http status")

// CheckStatus returns an ErrStatus error unless resp carries a 2xx status.
func CheckStatus(resp FetchResponse) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d for %s", ErrStatus, resp.StatusCode, resp.URL)
	}
	return nil
}

// Course is one exported row. Optional fields are nil when the page did not
// carry them.
type Course struct {
	Title     string   `json:"title"`
	Language  string   `json:"language"`
	StartDate *string  `json:"start_date,omitempty"`
	Weeks     *int     `json:"weeks,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
	URL       string   `json:"url"`
}

// Field names used when reporting absent values.
const (
	FieldTitle     = "title"
	FieldLanguage  = "language"
	FieldStartDate = "start_date"
	FieldWeeks     = "weeks"
	FieldRating    = "rating"
)

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	RunID       string
	URL         string
	UseHeadless bool
	Headers     http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
	RobotsStatus RobotsStatus
	RobotsReason string
}

// RobotsStatus describes how robots.txt evaluation concluded for a fetch.
type RobotsStatus string

// Robots evaluation outcomes.
const (
	RobotsStatusUnknown       RobotsStatus = ""
	RobotsStatusIndeterminate RobotsStatus = "indeterminate"
)
