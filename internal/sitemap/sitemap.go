// Package sitemap reads sitemap XML indexes and draws random samples from
// the URLs they list.
package sitemap

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ErrNoEntries is returned when a sitemap parses but lists no URLs.
var ErrNoEntries = errors.New("sitemap lists no entries")

// Parse returns the location of every top-level entry in document order.
// An entry's location is the text of its first child element, which is
// <loc> in both <urlset> and <sitemapindex> documents.
func Parse(body []byte) ([]string, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}
	root := doc.SelectElement("*")
	if root == nil {
		return nil, ErrNoEntries
	}

	var urls []string
	for entry := firstElement(root.FirstChild); entry != nil; entry = firstElement(entry.NextSibling) {
		loc := firstElement(entry.FirstChild)
		if loc == nil {
			continue
		}
		if text := strings.TrimSpace(loc.InnerText()); text != "" {
			urls = append(urls, text)
		}
	}
	if len(urls) == 0 {
		return nil, ErrNoEntries
	}
	return urls, nil
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	for ; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

// Sample draws n URLs uniformly at random with replacement, so a URL may
// appear more than once.
func Sample(urls []string, n int, rng *rand.Rand) []string {
	if n <= 0 || len(urls) == 0 {
		return []string{}
	}
	picked := make([]string, n)
	for i := range picked {
		picked[i] = urls[rng.IntN(len(urls))]
	}
	return picked
}

// NewRand returns a generator for Sample. A zero seed draws a random one.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}
