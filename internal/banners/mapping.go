package banners

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/placard-project/placard/pkg/query"
	"github.com/placard-project/placard/pkg/repository"
)

// firstImageSubquery selects each banner's earliest image so list and detail
// reads can surface one representative photo per banner.
const firstImageSubquery = `(SELECT DISTINCT ON (banner_id) banner_id, image_url FROM public.images ORDER BY banner_id, created_at)`

var projection = query.
	NewProjectionMap("public", "banners", "b").
	Project("id", "ID").
	Project("title", "Title").
	Project("hashtags", "Hashtags").
	Project("subject_type", "SubjectType").
	Project("region_text", "RegionText").
	Project("first_seen_at", "FirstSeenAt").
	Project("last_seen_at", "LastSeenAt").
	Project("observed_count", "ObservedCount").
	Project("status", "Status").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	JoinExpr(firstImageSubquery, "fi", "LEFT JOIN", "b.id = fi.banner_id").
	Project("image_url", "ImageURL")

var defaultSort = []query.SortField{
	{Field: "LastSeenAt", Descending: true},
	{Field: "ID"},
}

// SortFromOption maps the public sort options to sort fields:
// "recent" orders by most recent sighting, "first" by earliest first
// sighting, and "count" by observation count. Unknown options fall back to
// "recent". The banner ID breaks ties so pagination stays stable.
func SortFromOption(option string) []query.SortField {
	var primary query.SortField
	switch option {
	case "first":
		primary = query.SortField{Field: "FirstSeenAt"}
	case "count":
		primary = query.SortField{Field: "ObservedCount", Descending: true}
	default:
		primary = query.SortField{Field: "LastSeenAt", Descending: true}
	}
	return []query.SortField{primary, {Field: "ID"}}
}

// Filters contains optional filtering criteria for banner queries.
// Nil fields are ignored, except Status which defaults to active.
// RegionText uses case-insensitive contains matching.
type Filters struct {
	Status      *string `json:"status,omitempty"`
	SubjectType *string `json:"subject_type,omitempty"`
	RegionText  *string `json:"region_text,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("SubjectType", f.SubjectType).
		WhereContains("RegionText", f.RegionText)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if st := values.Get("subject_type"); st != "" {
		f.SubjectType = &st
	}

	if rt := values.Get("region_text"); rt != "" {
		f.RegionText = &rt
	}

	return f
}

func scanBanner(s repository.Scanner) (Banner, error) {
	var b Banner
	var hashtags []byte

	err := s.Scan(
		&b.ID,
		&b.Title,
		&hashtags,
		&b.SubjectType,
		&b.RegionText,
		&b.FirstSeenAt,
		&b.LastSeenAt,
		&b.ObservedCount,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.ImageURL,
	)
	if err != nil {
		return b, err
	}

	if err := json.Unmarshal(hashtags, &b.Hashtags); err != nil {
		return b, fmt.Errorf("decode hashtags: %w", err)
	}

	return b, nil
}

// scanBannerRow scans a bare banners row without the first-image join,
// used inside the ingestion transaction and for RETURNING clauses.
func scanBannerRow(s repository.Scanner) (Banner, error) {
	var b Banner
	var hashtags []byte

	err := s.Scan(
		&b.ID,
		&b.Title,
		&hashtags,
		&b.SubjectType,
		&b.RegionText,
		&b.FirstSeenAt,
		&b.LastSeenAt,
		&b.ObservedCount,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return b, err
	}

	if err := json.Unmarshal(hashtags, &b.Hashtags); err != nil {
		return b, fmt.Errorf("decode hashtags: %w", err)
	}

	return b, nil
}
