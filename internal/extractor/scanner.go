package extractor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Reference is one image discovered during a scan: where it points, where in
// the source JSON it was found, and whatever sibling metadata was nearby.
type Reference struct {
	URL     string            `json:"url"`
	Path    string            `json:"path"`
	Context map[string]string `json:"context"`
}

// Scanner walks arbitrary JSON values looking for image references. It is
// pure: no I/O, deterministic output for the same input.
type Scanner struct {
	classifier  *Classifier
	rules       Rules
	imageFields map[string]bool
}

func NewScanner(rules Rules) *Scanner {
	return &Scanner{
		classifier:  NewClassifier(rules),
		rules:       rules,
		imageFields: lowerSet(rules.ImageFieldNames),
	}
}

func (s *Scanner) Classifier() *Classifier {
	return s.classifier
}

// ExtractImageURLs walks value and returns every discovered reference,
// deduplicated by URL with the first occurrence winning. Object keys are
// visited in sorted order so paths and dedup winners are stable even though
// decoded JSON maps have no inherent order.
func (s *Scanner) ExtractImageURLs(value interface{}, path string) []Reference {
	var found []Reference
	s.walk(value, path, &found)
	return dedupeByURL(found)
}

func (s *Scanner) walk(value interface{}, path string, found *[]Reference) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		if s.classifier.IsImageURL(v) {
			*found = append(*found, Reference{URL: v, Path: path, Context: map[string]string{}})
		}
	case []interface{}:
		for i, item := range v {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if str, ok := item.(string); ok && s.classifier.IsImageURL(str) {
				*found = append(*found, Reference{
					URL:     str,
					Path:    itemPath,
					Context: map[string]string{"index": strconv.Itoa(i)},
				})
				continue
			}
			s.walk(item, itemPath, found)
		}
	case map[string]interface{}:
		for _, key := range sortedKeys(v) {
			child := v[key]
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}

			if s.imageFields[strings.ToLower(key)] {
				s.walkImageField(v, key, child, childPath, found)
				continue
			}

			if str, ok := child.(string); ok {
				if s.classifier.IsImageURL(str) {
					*found = append(*found, Reference{
						URL:     str,
						Path:    childPath,
						Context: ResolveContext(v, key, s.rules.MetadataKeys),
					})
				}
				continue
			}
			s.walk(child, childPath, found)
		}
	}
}

// walkImageField handles values under recognized image-bearing keys. Strings
// are taken when they classify; arrays take their matching string items
// directly (structured items fall back to the generic walk, so objects like
// photos: [{url: ...}] are still visited).
func (s *Scanner) walkImageField(container map[string]interface{}, key string, value interface{}, path string, found *[]Reference) {
	switch v := value.(type) {
	case string:
		if s.classifier.IsImageURL(v) {
			*found = append(*found, Reference{
				URL:     v,
				Path:    path,
				Context: ResolveContext(container, key, s.rules.MetadataKeys),
			})
		}
	case []interface{}:
		for i, item := range v {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if str, ok := item.(string); ok {
				if s.classifier.IsImageURL(str) {
					context := ResolveContext(container, key, s.rules.MetadataKeys)
					context["index"] = strconv.Itoa(i)
					*found = append(*found, Reference{URL: str, Path: itemPath, Context: context})
				}
				continue
			}
			s.walk(item, itemPath, found)
		}
	default:
		s.walk(value, path, found)
	}
}

func dedupeByURL(refs []Reference) []Reference {
	seen := make(map[string]bool, len(refs))
	out := make([]Reference, 0, len(refs))
	for _, ref := range refs {
		if seen[ref.URL] {
			continue
		}
		seen[ref.URL] = true
		out = append(out, ref)
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
