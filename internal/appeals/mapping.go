package appeals

import (
	"net/url"

	"github.com/placard-project/placard/pkg/query"
	"github.com/placard-project/placard/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "appeals", "a").
	Project("id", "ID").
	Project("banner_id", "BannerID").
	Project("reason", "Reason").
	Project("detail", "Detail").
	Project("contact", "Contact").
	Project("status", "Status").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID"},
}

// Filters contains optional filtering criteria for appeal queries.
type Filters struct {
	BannerID *string `json:"banner_id,omitempty"`
	Reason   *string `json:"reason,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("BannerID", f.BannerID).
		WhereEquals("Reason", f.Reason).
		WhereEquals("Status", f.Status)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if b := values.Get("banner_id"); b != "" {
		f.BannerID = &b
	}

	if r := values.Get("reason"); r != "" {
		f.Reason = &r
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	return f
}

func scanAppeal(s repository.Scanner) (Appeal, error) {
	var a Appeal

	err := s.Scan(
		&a.ID,
		&a.BannerID,
		&a.Reason,
		&a.Detail,
		&a.Contact,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}
