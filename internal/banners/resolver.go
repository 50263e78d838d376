package banners

import "github.com/google/uuid"

// FindDuplicate scans candidates in the given order and returns the ID of
// the first banner whose weighted similarity to the incoming comparand meets
// DuplicateThreshold. It does not search for a best match among multiple
// qualifying candidates, so candidate ordering decides ties. The caller is
// responsible for restricting candidates to banners sharing the incoming
// banner's region; no region filtering happens here.
//
// An incoming banner with neither title nor hashtags is decided by date
// proximity alone with its weight renormalized to 1, which merges any two
// otherwise-indistinct banners in the same region observed within 7.5 days
// of each other.
func FindDuplicate(incoming Comparand, candidates []Banner) (uuid.UUID, bool) {
	for _, existing := range candidates {
		if SimilarityScore(incoming, existing) >= DuplicateThreshold {
			return existing.ID, true
		}
	}
	return uuid.Nil, false
}
