// Package extract pulls course metadata out of catalog page markup.
//
// Every lookup is best-effort and independent: a page lacking an element
// yields an empty or nil value for that field only.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"

	"github.com/JakeFAU/course-sampler/internal/catalog"
)

var ratingPattern = regexp.MustCompile(`\d+\.?\d*`)

// Course parses html and runs every field lookup against it.
func Course(html []byte, url string) (catalog.Course, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return catalog.Course{}, fmt.Errorf("parse course page: %w", err)
	}
	return FromDocument(doc, url), nil
}

// FromDocument runs every field lookup against an already parsed page.
func FromDocument(doc *goquery.Document, url string) catalog.Course {
	return catalog.Course{
		Title:     Title(doc),
		Language:  Language(doc),
		StartDate: StartDate(doc),
		Weeks:     Weeks(doc),
		Rating:    Rating(doc),
		URL:       url,
	}
}

// Title returns the text of the first div classed "title" or "display-3-text".
func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("div.title, div.display-3-text").First().Text())
}

// Language returns the first word of the language block, e.g. "English"
// from "English, Subtitles: Arabic".
func Language(doc *goquery.Document) string {
	fields := strings.Fields(doc.Find("div.language-info").First().Text())
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(fields[0], ",")
}

// StartDate reads hasCourseInstance[0].startDate from the page's first
// JSON-LD script. Later scripts are ignored.
func StartDate(doc *goquery.Document) *string {
	script := doc.Find(`script[type="application/ld+json"]`).First()
	if script.Length() == 0 {
		return nil
	}
	var payload any
	if err := json5.Unmarshal([]byte(script.Text()), &payload); err != nil {
		return nil
	}
	return startDateFrom(payload)
}

// startDateFrom walks a decoded JSON-LD payload. A top-level array or an
// @graph container is searched in order.
func startDateFrom(payload any) *string {
	switch v := payload.(type) {
	case []any:
		for _, item := range v {
			if date := startDateFrom(item); date != nil {
				return date
			}
		}
	case map[string]any:
		if instances, ok := v["hasCourseInstance"].([]any); ok && len(instances) > 0 {
			if first, ok := instances[0].(map[string]any); ok {
				if date, ok := first["startDate"].(string); ok {
					return &date
				}
			}
		}
		if graph, ok := v["@graph"]; ok {
			return startDateFrom(graph)
		}
	}
	return nil
}

// Weeks returns the trailing number of the last week heading, e.g. 6 from
// "Week 6".
func Weeks(doc *goquery.Document) *int {
	weeks := doc.Find("div.week")
	if weeks.Length() == 0 {
		return nil
	}
	fields := strings.Fields(weeks.Last().Find("div").First().Text())
	if len(fields) == 0 {
		return nil
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return nil
	}
	return &n
}

// Rating returns the first number in the ratings block.
func Rating(doc *goquery.Document) *float64 {
	block := doc.Find("div.ratings-text")
	if block.Length() == 0 {
		return nil
	}
	match := ratingPattern.FindString(block.First().Text())
	if match == "" {
		return nil
	}
	rating, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &rating
}

// Missing lists the fields the page did not provide.
func Missing(course catalog.Course) []string {
	var missing []string
	if course.Title == "" {
		missing = append(missing, catalog.FieldTitle)
	}
	if course.Language == "" {
		missing = append(missing, catalog.FieldLanguage)
	}
	if course.StartDate == nil {
		missing = append(missing, catalog.FieldStartDate)
	}
	if course.Weeks == nil {
		missing = append(missing, catalog.FieldWeeks)
	}
	if course.Rating == nil {
		missing = append(missing, catalog.FieldRating)
	}
	return missing
}
