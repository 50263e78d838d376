package banners_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/placard-project/placard/internal/banners"
)

func TestFindDuplicateEmptyPool(t *testing.T) {
	incoming := banners.Comparand{Title: ptr("홍길동 후보"), ObservedAt: date(0)}

	if id, ok := banners.FindDuplicate(incoming, nil); ok {
		t.Errorf("FindDuplicate(empty) = %v, want no match", id)
	}
}

func TestFindDuplicateNoQualifyingCandidate(t *testing.T) {
	incoming := banners.Comparand{Title: ptr("환영합니다"), ObservedAt: date(0)}
	pool := []banners.Banner{
		existing(ptr("재개발 반대"), nil, date(0)),
		existing(ptr("축제 안내"), nil, date(0)),
	}

	if id, ok := banners.FindDuplicate(incoming, pool); ok {
		t.Errorf("FindDuplicate() = %v, want no match", id)
	}
}

func TestFindDuplicateReturnsFirstMatch(t *testing.T) {
	incoming := banners.Comparand{Title: ptr("홍길동 후보"), ObservedAt: date(0)}

	// Both candidates score 1.0; first-match semantics pick the earlier one.
	first := existing(ptr("홍길동 후보"), nil, date(0))
	second := existing(ptr("홍길동 후보"), nil, date(0))
	pool := []banners.Banner{first, second}

	id, ok := banners.FindDuplicate(incoming, pool)
	if !ok {
		t.Fatal("FindDuplicate() found no match")
	}
	if id != first.ID {
		t.Errorf("FindDuplicate() = %v, want first candidate %v", id, first.ID)
	}
}

func TestFindDuplicateSkipsNonQualifying(t *testing.T) {
	incoming := banners.Comparand{Title: ptr("홍길동 후보"), ObservedAt: date(0)}

	miss := existing(ptr("전혀 다른 내용"), nil, date(0))
	hit := existing(ptr("홍길동 후보"), nil, date(0))
	pool := []banners.Banner{miss, hit}

	id, ok := banners.FindDuplicate(incoming, pool)
	if !ok {
		t.Fatal("FindDuplicate() found no match")
	}
	if id != hit.ID {
		t.Errorf("FindDuplicate() = %v, want %v", id, hit.ID)
	}
}

// Without a title or hashtags the decision reduces to date proximity with
// its weight renormalized to 1, so two indistinct banners in the same
// region merge when observed within 7.5 days of each other.
func TestFindDuplicateDateOnlyFallback(t *testing.T) {
	tests := []struct {
		name     string
		observed int
		wantDup  bool
	}{
		{"same day merges", 0, true},
		{"six days apart merges", 6, true},
		{"eight days apart does not merge", 8, false},
		{"month apart does not merge", 30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			incoming := banners.Comparand{ObservedAt: date(tt.observed)}
			pool := []banners.Banner{existing(nil, nil, date(0))}

			_, ok := banners.FindDuplicate(incoming, pool)
			if ok != tt.wantDup {
				t.Errorf("FindDuplicate() match = %v, want %v", ok, tt.wantDup)
			}
		})
	}
}

func TestFindDuplicateReturnsNilUUIDOnMiss(t *testing.T) {
	incoming := banners.Comparand{Title: ptr("환영"), ObservedAt: date(0)}

	id, ok := banners.FindDuplicate(incoming, nil)
	if ok {
		t.Fatal("expected no match")
	}
	if id != uuid.Nil {
		t.Errorf("id = %v, want uuid.Nil", id)
	}
}
