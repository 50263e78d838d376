package detector

import (
	"fmt"

	"github.com/placard-project/placard/internal/analysis"
)

// rawResult mirrors the JSON shape the vision model is prompted to return.
// Field values are taken as-is except where normalize corrects them; in
// particular bbox coordinates are NOT clamped here — the redaction pipeline
// clamps against actual pixel dimensions.
type rawResult struct {
	Banners []struct {
		TempID      string       `json:"tempId"`
		Title       *string      `json:"title"`
		Hashtags    []string     `json:"hashtags"`
		SubjectType *string      `json:"subjectType"`
		BBox        analysis.Rect `json:"bbox"`
		Confidence  float64      `json:"confidence"`
	} `json:"banners"`
	PrivacyRegions []struct {
		Type string        `json:"type"`
		BBox analysis.Rect `json:"bbox"`
	} `json:"privacyRegions"`
}

// normalize converts the raw model output into an analysis.Result:
// missing tempIds are assigned positionally, hashtags default to an empty
// list, and subject types outside the known set are dropped to nil rather
// than failing the whole analysis.
func (r rawResult) normalize() *analysis.Result {
	result := &analysis.Result{
		Banners:        make([]analysis.DetectedBanner, 0, len(r.Banners)),
		PrivacyRegions: make([]analysis.PrivacyRegion, 0, len(r.PrivacyRegions)),
	}

	for i, b := range r.Banners {
		tempID := b.TempID
		if tempID == "" {
			tempID = fmt.Sprintf("banner_%d", i)
		}

		hashtags := b.Hashtags
		if hashtags == nil {
			hashtags = []string{}
		}

		result.Banners = append(result.Banners, analysis.DetectedBanner{
			TempID:      tempID,
			Title:       b.Title,
			Hashtags:    hashtags,
			SubjectType: normalizeSubjectType(b.SubjectType),
			BBox:        b.BBox,
			Confidence:  b.Confidence,
		})
	}

	for _, p := range r.PrivacyRegions {
		kind := analysis.RegionKind(p.Type)
		if kind != analysis.KindFace && kind != analysis.KindLicensePlate {
			continue
		}
		result.PrivacyRegions = append(result.PrivacyRegions, analysis.PrivacyRegion{
			Kind: kind,
			BBox: p.BBox,
		})
	}

	return result
}

func normalizeSubjectType(s *string) *string {
	if s == nil {
		return nil
	}
	switch *s {
	case "politician", "party", "other":
		return s
	}
	return nil
}
