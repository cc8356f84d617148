package extractor

import "testing"

func TestIsImageURL(t *testing.T) {
	c := NewClassifier(DefaultRules())

	cases := []struct {
		name string
		url  string
		want bool
	}{
		{"cdn subdomain with extension", "https://cdn.example.com/pic.jpg", true},
		{"managed storage host", "https://foo.supabase.co/storage/v1/object/public/bucket/img.png", true},
		{"uploads path without extension", "https://site.com/uploads/x", true},
		{"extension with query string", "https://example.com/files/photo.webp?w=300&h=300", true},
		{"cloudinary host", "https://res.cloudinary.com/demo/v1/sample", true},
		{"asset path segment", "https://example.com/static/logo-dark", true},
		{"plain text", "hello world", false},
		{"html page", "https://example.com/page.html", false},
		{"empty string", "", false},
		{"whitespace only", "   ", false},
		{"relative path", "/uploads/pic.jpg", false},
		{"non-http scheme", "ftp://cdn.example.com/pic.jpg", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.IsImageURL(tc.url); got != tc.want {
				t.Fatalf("IsImageURL(%q): want=%v got=%v", tc.url, tc.want, got)
			}
		})
	}
}

func TestIsImageURLCustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.HostPatterns = append(rules.HostPatterns, "mybucket.example.net")
	c := NewClassifier(rules)

	if !c.IsImageURL("https://mybucket.example.net/obj/abc123") {
		t.Fatalf("expected custom host pattern to classify true")
	}
}
