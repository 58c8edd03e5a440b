package imageaudit

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Report renders the Markdown optimisation report for result.
func (a *Auditor) Report(result Result) string {
	s := a.settings
	var b strings.Builder

	b.WriteString("# Image Optimization Report - Northwest Bus\n\n")

	b.WriteString("## Image statistics\n")
	fmt.Fprintf(&b, "- Total images: %d\n", result.Total())
	fmt.Fprintf(&b, "- Present: %d\n", len(result.Existing))
	fmt.Fprintf(&b, "- Missing: %d\n", len(result.Missing))
	if len(result.Missing) > 0 {
		b.WriteString("\n### Missing images\n")
		for _, img := range result.Missing {
			fmt.Fprintf(&b, "- `%s`\n", img)
		}
	}

	b.WriteString("\n## Recommendations\n\n")
	b.WriteString("### 1. Convert images to WebP\n")
	b.WriteString("- Saves 25-35% of file size\n")
	b.WriteString("- Supported by all modern browsers\n\n")

	b.WriteString("### 2. Generate multiple sizes\n")
	for _, size := range s.Sizes {
		fmt.Fprintf(&b, "- %dx%d (`%s`)\n", size.Width, size.Height, size.Suffix)
	}
	b.WriteString("\n")

	b.WriteString("### 3. Use lazy loading\n")
	b.WriteString("- Load images only when they scroll into view\n\n")

	b.WriteString("### 4. Add srcset\n")
	b.WriteString("- Let the browser pick the rendition that fits the screen\n\n")

	b.WriteString("## Commands\n\n")
	b.WriteString("### Convert to WebP\n")
	fmt.Fprintf(&b, "```bash\ncwebp -q %d -m %d images/input.jpg -o images/output.webp\n```\n\n", s.WebP.Quality, s.WebP.Method)

	b.WriteString("### Optimise JPEG\n")
	progressive := ""
	if s.JPEG.Progressive {
		progressive = " --all-progressive"
	}
	fmt.Fprintf(&b, "```bash\njpegoptim --max=%d%s images/*.jpg\n```\n\n", s.JPEG.Quality, progressive)

	b.WriteString("### Optimise PNG\n")
	strip := ""
	if s.PNG.Strip {
		strip = " --strip"
	}
	fmt.Fprintf(&b, "```bash\npngquant --quality=%d-%d --speed %d%s images/*.png\n```\n\n", s.PNG.MinQuality, s.PNG.Quality, s.PNG.Speed, strip)

	b.WriteString("## Offline caching\n")
	b.WriteString("- Optimised renditions should be added to the pre-cache manifest\n")
	b.WriteString("- Bump the cache version after replacing images so stale copies are cleared\n\n")

	b.WriteString("---\n")
	b.WriteString("Generated automatically by image-audit\n")
	return b.String()
}

// WriteReport writes the report for result to name on the auditor's filesystem.
func (a *Auditor) WriteReport(result Result, name string) error {
	if err := afero.WriteFile(a.fs, name, []byte(a.Report(result)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	a.logger.Info().Str("path", name).Msg("Report written")
	return nil
}
