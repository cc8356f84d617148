package extractor

import (
	"net/url"
	"strings"
)

// Classifier decides whether a string value is an image reference. It is
// deliberately permissive: a false positive costs one failed download, a false
// negative loses the image for good.
type Classifier struct {
	rules         Rules
	extensions    []string
	assetSegments map[string]bool
}

func NewClassifier(rules Rules) *Classifier {
	exts := make([]string, 0, len(rules.ImageExtensions))
	for _, e := range rules.ImageExtensions {
		e = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(e, ".")))
		if e != "" {
			exts = append(exts, e)
		}
	}
	return &Classifier{
		rules:         rules,
		extensions:    exts,
		assetSegments: lowerSet(rules.AssetPathSegments),
	}
}

// IsImageURL applies the rule battery in order; any match suffices. It never
// panics and returns false for empty or non-absolute input.
func (c *Classifier) IsImageURL(candidate string) bool {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return false
	}

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	// 1. Known storage paths and trusted storage hosts.
	for _, frag := range c.rules.StoragePathFragments {
		if strings.Contains(lower, strings.ToLower(frag)) {
			return true
		}
	}
	for _, host := range c.rules.TrustedStorageHosts {
		if strings.Contains(lower, strings.ToLower(host)) {
			return true
		}
	}

	// 2. Extension suffix, query string allowed after it.
	pathPart := lower
	if i := strings.IndexAny(pathPart, "?#"); i >= 0 {
		pathPart = pathPart[:i]
	}
	for _, ext := range c.extensions {
		if strings.HasSuffix(pathPart, "."+ext) {
			return true
		}
	}

	parsed, err := url.Parse(s)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())

	// 3. CDN providers and asset subdomains.
	for _, pattern := range c.rules.HostPatterns {
		if strings.Contains(host, strings.ToLower(pattern)) {
			return true
		}
	}
	for _, sub := range c.rules.AssetSubdomains {
		if strings.HasPrefix(host, strings.ToLower(sub)) {
			return true
		}
	}

	// 4. Generic asset directory segments.
	for _, segment := range strings.Split(strings.Trim(parsed.Path, "/"), "/") {
		if c.assetSegments[strings.ToLower(segment)] {
			return true
		}
	}

	return false
}
