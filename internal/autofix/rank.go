package autofix

import (
	"cmp"
	"slices"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// Rank scores every candidate and orders them best first. Ties keep their
// original candidate order.
func Rank(fixes []schemas.RankedFix) {
	for i := range fixes {
		fixes[i].RankScore = validationWeight*fixes[i].ValidationScore + confidenceWeight*fixes[i].Confidence
	}
	slices.SortStableFunc(fixes, func(a, b schemas.RankedFix) int {
		return cmp.Compare(b.RankScore, a.RankScore)
	})
}

// rankByConfidence orders unvalidated suggestions on confidence alone.
func rankByConfidence(fixes []schemas.RankedFix) {
	for i := range fixes {
		fixes[i].RankScore = fixes[i].Confidence
	}
	slices.SortStableFunc(fixes, func(a, b schemas.RankedFix) int {
		return cmp.Compare(b.RankScore, a.RankScore)
	})
}
