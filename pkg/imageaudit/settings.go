package imageaudit

// Size is one responsive rendition of an image.
type Size struct {
	Width  int
	Height int
	Suffix string
}

// WebPSettings are the recommended WebP encoder options.
type WebPSettings struct {
	Quality  int
	Method   int
	Lossless bool
}

// JPEGSettings are the recommended JPEG encoder options.
type JPEGSettings struct {
	Quality     int
	Progressive bool
	MozJPEG     bool
}

// PNGSettings are the recommended PNG quantizer options.
// Quality is the upper bound of the accepted range, MinQuality the lower.
type PNGSettings struct {
	MinQuality int
	Quality    int
	Speed      int
	Strip      bool
}

// Settings holds encoder recommendations and the rendition sizes, largest first.
type Settings struct {
	WebP  WebPSettings
	JPEG  JPEGSettings
	PNG   PNGSettings
	Sizes []Size
}

// DefaultSettings returns the site's optimisation settings.
func DefaultSettings() Settings {
	return Settings{
		WebP: WebPSettings{Quality: 85, Method: 6, Lossless: false},
		JPEG: JPEGSettings{Quality: 85, Progressive: true, MozJPEG: true},
		PNG:  PNGSettings{MinQuality: 85, Quality: 90, Speed: 1, Strip: true},
		Sizes: []Size{
			{Width: 1920, Height: 1080, Suffix: "_large"},
			{Width: 1280, Height: 720, Suffix: "_medium"},
			{Width: 640, Height: 360, Suffix: "_small"},
			{Width: 320, Height: 180, Suffix: "_thumbnail"},
		},
	}
}

// DefaultImages returns the large site images that should be optimised,
// relative to the site root.
func DefaultImages() []string {
	return []string{
		"images/1980x1090-en-1 (1).webp",
		"images/225A9478 (1).jpg",
		"images/225A9481-1 (1).webp",
		"images/yellowvipbus (1).webp",
		"images/Website_2M_AR_740x1920px (1).png",
		"images/Summer-Sale_AR_Popup_450x650 (1).png",
		"images/Screenshot-2025-07-30-130400 (1).png",
		"images/WhatsApp-Image-2025-06-30-at-12.55.34-PM-1 (1).jpeg",
	}
}
