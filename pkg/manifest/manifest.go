// Package manifest defines the ordered list of resources pre-cached on install.
package manifest

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is an ordered list of resource locators. Entries are opaque:
// relative paths are resolved against the site origin, absolute URLs are used
// as-is, and nothing is validated before fetch. Duplicates are allowed.
type Manifest struct {
	Entries []string `yaml:"entries"`
}

// Default returns the site's pre-cache list.
func Default() Manifest {
	return Manifest{
		Entries: []string{
			"/",
			"/index.html",
			"/style.css",
			"/script.js",
			"/images/colored-logo-arabic-1.svg",
			"/images/1980x1090-en-1 (1).webp",
			"/images/225A9478 (1).jpg",
			"/images/225A9481-1 (1).webp",
			"/images/yellowvipbus (1).webp",
			"/images/location-icon-1 (1).svg",
			"/images/arrows (1).svg",
			"/images/g148 (1).svg",
			"/images/Website_2M_AR_740x1920px (1).png",
			"/images/Summer-Sale_AR_Popup_450x650 (1).png",
			"/images/image-1 (1).png",
			"/images/Map (1).png",
			"/images/Occupied-Theatre-Seat (1).png",
			"/images/WhatsApp-Image-2025-06-30-at-12.55.34-PM-1 (1).jpeg",
			"/images/Screenshot-2025-07-30-130400 (1).png",
			"https://fonts.googleapis.com/css2?family=Cairo:wght@200;300;400;600;700;900&display=swap",
			"https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.4.0/css/all.min.css",
		},
	}
}

// Parse decodes a YAML manifest:
//
//	entries:
//	  - /
//	  - /index.html
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// Load reads a YAML manifest from path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Len returns the number of entries, duplicates included.
func (m Manifest) Len() int {
	return len(m.Entries)
}

// Resolve turns entry into an absolute URL using origin as the base.
func Resolve(origin *url.URL, entry string) (*url.URL, error) {
	ref, err := url.Parse(entry)
	if err != nil {
		return nil, fmt.Errorf("parse manifest entry %q: %w", entry, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}
	if origin == nil {
		return nil, fmt.Errorf("manifest entry %q is relative and no origin is set", entry)
	}
	return origin.ResolveReference(ref), nil
}
