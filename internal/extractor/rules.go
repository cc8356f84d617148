package extractor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules carries the heuristic lists used by the classifier and scanner. The
// lists were tuned against one upstream dataset, so they are injectable
// configuration rather than constants; every list falls back to its default
// when left empty.
type Rules struct {
	// Substrings anywhere in the URL that mark a known storage path.
	StoragePathFragments []string `yaml:"storage_path_fragments"`
	// Substrings identifying trusted managed-storage hosts.
	TrustedStorageHosts []string `yaml:"trusted_storage_hosts"`
	// Image file extensions, without the leading dot.
	ImageExtensions []string `yaml:"image_extensions"`
	// Substrings matched against the URL host (CDN and image-host providers).
	HostPatterns []string `yaml:"host_patterns"`
	// Host prefixes that mark asset subdomains.
	AssetSubdomains []string `yaml:"asset_subdomains"`
	// Bare path segments that mark generic asset directories.
	AssetPathSegments []string `yaml:"asset_path_segments"`
	// Object keys that are assumed to carry image references.
	ImageFieldNames []string `yaml:"image_field_names"`
	// Sibling keys collected as reference context.
	MetadataKeys []string `yaml:"metadata_keys"`
}

func DefaultRules() Rules {
	return Rules{
		StoragePathFragments: []string{"/uploads/", "/images/", "/media/"},
		TrustedStorageHosts:  []string{"supabase.co/storage"},
		ImageExtensions:      []string{"jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "ico"},
		HostPatterns:         []string{"cloudinary.com", "imgur.com", "imgix.net", "cloudfront.net"},
		AssetSubdomains:      []string{"cdn.", "static.", "media.", "assets."},
		AssetPathSegments:    []string{"image", "images", "img", "photo", "photos", "media", "assets", "static", "uploads"},
		ImageFieldNames: []string{
			"imageUrl", "imageUrls", "image_url", "image_urls",
			"photo", "photos", "picture", "pictures",
			"avatar", "thumbnail", "cover", "banner", "logo", "icon",
		},
		MetadataKeys: []string{"alt", "title", "caption", "description", "name", "label"},
	}
}

// LoadRules reads a YAML rules file and overlays it on the defaults.
func LoadRules(path string) (Rules, error) {
	defaults := DefaultRules()

	raw, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read rules file: %w", err)
	}

	var loaded Rules
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return defaults, fmt.Errorf("parse rules file: %w", err)
	}
	return loaded.withDefaults(defaults), nil
}

func (r Rules) withDefaults(defaults Rules) Rules {
	if len(r.StoragePathFragments) == 0 {
		r.StoragePathFragments = defaults.StoragePathFragments
	}
	if len(r.TrustedStorageHosts) == 0 {
		r.TrustedStorageHosts = defaults.TrustedStorageHosts
	}
	if len(r.ImageExtensions) == 0 {
		r.ImageExtensions = defaults.ImageExtensions
	}
	if len(r.HostPatterns) == 0 {
		r.HostPatterns = defaults.HostPatterns
	}
	if len(r.AssetSubdomains) == 0 {
		r.AssetSubdomains = defaults.AssetSubdomains
	}
	if len(r.AssetPathSegments) == 0 {
		r.AssetPathSegments = defaults.AssetPathSegments
	}
	if len(r.ImageFieldNames) == 0 {
		r.ImageFieldNames = defaults.ImageFieldNames
	}
	if len(r.MetadataKeys) == 0 {
		r.MetadataKeys = defaults.MetadataKeys
	}
	return r
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}
