package utils

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// IsValidURL reports whether s is an absolute http or https URL.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// ExtractURLsFromText returns the valid URLs of a text holding one URL per line.
// Blank lines and lines that are not http(s) URLs are skipped.
func ExtractURLsFromText(text string) []string {
	urls := []string{}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && IsValidURL(trimmed) {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

// ExtractURLsFromHTML returns the distinct http(s) link targets of an HTML
// document, resolved against base, in document order.
func ExtractURLsFromHTML(html string, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	urls := []string{}
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		abs := href
		if base != nil {
			resolved, err := ToAbsoluteURL(base, href)
			if err != nil {
				return
			}
			abs = resolved
		}
		if !IsValidURL(abs) || seen[abs] {
			return
		}
		seen[abs] = true
		urls = append(urls, abs)
	})
	return urls, nil
}

// LooksLikeHTML reports whether text appears to be an HTML document or fragment.
func LooksLikeHTML(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(t, "<") && (strings.Contains(t, "<a ") || strings.Contains(t, "<html") || strings.Contains(t, "<body"))
}
