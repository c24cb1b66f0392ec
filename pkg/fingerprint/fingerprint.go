// Package fingerprint computes the digests used to detect content changes.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Func computes a fingerprint of page content.
type Func func(content string) string

// Content returns the hex MD5 digest of content.
func Content(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// URL returns the hex MD5 digest of a URL string. It is used where a
// content-independent identifier for a URL is needed.
func URL(rawURL string) string {
	return Content(rawURL)
}

// Text fingerprints only the visible text of an HTML document, so markup
// churn such as inline scripts or nonces does not register as a change.
// Content that cannot be parsed is fingerprinted as is.
func Text(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Content(page)
	}
	doc.Find("script, style, noscript, template").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	var words []string
	for _, n := range root.Nodes {
		words = appendWords(words, n)
	}
	return Content(strings.Join(words, " "))
}

// appendWords collects the words of all text nodes below n in document order.
func appendWords(words []string, n *html.Node) []string {
	if n.Type == html.TextNode {
		return append(words, strings.Fields(n.Data)...)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		words = appendWords(words, c)
	}
	return words
}

// ForMode returns the fingerprint function for a configured mode ("raw" or "text").
func ForMode(mode string) Func {
	if mode == "text" {
		return Text
	}
	return Content
}
