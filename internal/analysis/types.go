// Package analysis defines the photo analysis types shared by the vision
// detector and the geometric redaction pipeline: detected banner regions,
// privacy-sensitive regions, and the redacted crops produced from them.
package analysis

// Rect is a normalized bounding box: each component is a fraction of the
// image's width or height in [0,1], origin top-left. Detectors do not
// guarantee x+width <= 1 or y+height <= 1; consumers clamp to the image.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RegionKind identifies what a privacy region contains.
type RegionKind string

const (
	KindFace         RegionKind = "face"
	KindLicensePlate RegionKind = "licensePlate"
)

// PrivacyRegion marks an area of the photo that must be blurred before any
// banner crop is taken.
type PrivacyRegion struct {
	Kind RegionKind `json:"kind"`
	BBox Rect       `json:"bbox"`
}

// DetectedBanner is one banner region found in a photo, with the metadata
// the vision model read off the banner. TempID identifies the region within
// a single analysis; it never outlives the review step.
type DetectedBanner struct {
	TempID      string   `json:"temp_id"`
	Title       *string  `json:"title"`
	Hashtags    []string `json:"hashtags"`
	SubjectType *string  `json:"subject_type"`
	BBox        Rect     `json:"bbox"`
	Confidence  float64  `json:"confidence"`
}

// Result is the full output of analyzing one photo.
type Result struct {
	Banners        []DetectedBanner `json:"banners"`
	PrivacyRegions []PrivacyRegion  `json:"privacy_regions"`
}

// Crop is one banner region extracted from the fully redacted photo,
// encoded as JPEG.
type Crop struct {
	TempID     string
	ImageBytes []byte
}
