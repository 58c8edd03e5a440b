// Package imageaudit checks the site's large images and produces responsive
// markup and an optimisation report for them.
//
// The audit is read-only apart from the report file and never touches the
// offline cache.
//
// Usage:
//
//	a := imageaudit.New(afero.NewOsFs(), imageaudit.DefaultSettings())
//	result, err := a.Check(imageaudit.DefaultImages())
//	for _, img := range result.Existing {
//	    fmt.Println(a.PictureHTML(img))
//	}
//	err = a.WriteReport(result, imageaudit.DefaultReportPath)
package imageaudit

import (
	"fmt"
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// DefaultReportPath is where the Markdown report is written.
const DefaultReportPath = "image-optimization-report.md"

var parenthesized = regexp.MustCompile(`\([^)]*\)`)

// Result lists which audited images are present.
type Result struct {
	Existing []string
	Missing  []string
}

// Total returns the number of audited images.
func (r Result) Total() int {
	return len(r.Existing) + len(r.Missing)
}

// Auditor runs the image audit against a filesystem.
type Auditor struct {
	fs       afero.Fs
	settings Settings
	logger   zerolog.Logger
}

// New creates an auditor reading images from fs.
func New(fs afero.Fs, settings Settings) *Auditor {
	return &Auditor{
		fs:       fs,
		settings: settings,
		logger:   log.With().Str("component", "image-audit").Logger(),
	}
}

// Check splits images into existing and missing files, keeping input order.
func (a *Auditor) Check(images []string) (Result, error) {
	var result Result
	for _, img := range images {
		ok, err := afero.Exists(a.fs, img)
		if err != nil {
			return Result{}, fmt.Errorf("check %s: %w", img, err)
		}
		if ok {
			result.Existing = append(result.Existing, img)
			a.logger.Debug().Str("image", img).Msg("Image present")
		} else {
			result.Missing = append(result.Missing, img)
			a.logger.Warn().Str("image", img).Msg("Image missing")
		}
	}

	a.logger.Info().
		Int("existing", len(result.Existing)).
		Int("missing", len(result.Missing)).
		Msg("Image check complete")
	return result, nil
}

// variant returns the path of the rendition of img with the given suffix,
// in the same directory as img.
func variant(img, suffix string) string {
	ext := path.Ext(img)
	base := strings.TrimSuffix(path.Base(img), ext)
	return path.Join(path.Dir(img), base+suffix+ext)
}

// escapePath percent-encodes characters that would break a srcset list.
func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}

// Srcset returns the srcset attribute value for img, one candidate per size.
func (a *Auditor) Srcset(img string) string {
	candidates := make([]string, 0, len(a.settings.Sizes))
	for _, size := range a.settings.Sizes {
		candidates = append(candidates, fmt.Sprintf("%s %dw", escapePath(variant(img, size.Suffix)), size.Width))
	}
	return strings.Join(candidates, ", ")
}

// AltText derives a description from the file name: separators become
// spaces and parenthesised parts are dropped.
func AltText(img string) string {
	base := strings.TrimSuffix(path.Base(img), path.Ext(img))
	alt := strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(parenthesized.ReplaceAllString(alt, ""))
}

// PictureHTML returns a lazily loaded <picture> element for img with one
// <source> per breakpoint and a medium-sized fallback.
func (a *Auditor) PictureHTML(img string) string {
	base := strings.TrimSuffix(path.Base(img), path.Ext(img))

	var b strings.Builder
	fmt.Fprintf(&b, "<!-- optimised image: %s -->\n", html.EscapeString(base))
	b.WriteString("<picture>\n")

	// Every size but the smallest gets a breakpoint at the next size down.
	sizes := a.settings.Sizes
	for i := 0; i+1 < len(sizes); i++ {
		fmt.Fprintf(&b, "    <source media=\"(min-width: %dpx)\" srcset=\"%s\">\n",
			sizes[i+1].Width, html.EscapeString(escapePath(variant(img, sizes[i].Suffix))))
	}

	fallback := img
	if len(sizes) > 1 {
		fallback = variant(img, sizes[1].Suffix)
	}
	b.WriteString("    <img\n")
	fmt.Fprintf(&b, "        src=\"%s\"\n", html.EscapeString(escapePath(fallback)))
	fmt.Fprintf(&b, "        srcset=\"%s\"\n", html.EscapeString(a.Srcset(img)))
	fmt.Fprintf(&b, "        sizes=\"%s\"\n", a.sizesAttr())
	fmt.Fprintf(&b, "        alt=\"%s\"\n", html.EscapeString(AltText(img)))
	b.WriteString("        loading=\"lazy\"\n")
	b.WriteString("        decoding=\"async\"\n")
	b.WriteString("        style=\"width: 100%; height: auto;\"\n")
	b.WriteString("    >\n")
	b.WriteString("</picture>")
	return b.String()
}

// sizesAttr builds the sizes attribute from smallest to largest rendition.
func (a *Auditor) sizesAttr() string {
	sizes := a.settings.Sizes
	if len(sizes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sizes))
	for i := len(sizes) - 1; i > 0; i-- {
		parts = append(parts, fmt.Sprintf("(max-width: %dpx) %dpx", sizes[i].Width, sizes[i].Width))
	}
	parts = append(parts, fmt.Sprintf("%dpx", sizes[0].Width))
	return strings.Join(parts, ", ")
}
