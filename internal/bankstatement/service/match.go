package service

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	bankdomain "github.com/railzwaylabs/clubsettle/internal/bankstatement/domain"
	"github.com/railzwaylabs/clubsettle/internal/money"
)

const (
	nameWeight   = 0.6
	amountWeight = 0.3
	signWeight   = 0.1

	tokenSimilarity = 0.8
	minConfidence   = 0.5
	minTokenLen     = 3
)

// Candidate is an entity a statement line may belong to. OpenBalance is
// what the entity still owes the club for the week (negative: the club owes
// the entity).
type Candidate struct {
	EntityID    snowflake.ID
	Name        string
	OpenBalance float64
}

func tokens(s string) []string {
	var out []string
	for _, t := range strings.Split(slug.Make(s), "-") {
		if len(t) >= minTokenLen {
			out = append(out, t)
		}
	}
	return out
}

func similarity(a, b string) float64 {
	maxLen := math.Max(float64(len(a)), float64(len(b)))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/maxLen
}

// nameScore is the share of the candidate's name tokens found, allowing
// typos, among the description tokens.
func nameScore(description, name string) float64 {
	want := tokens(name)
	have := tokens(description)
	if len(want) == 0 || len(have) == 0 {
		return 0
	}
	matched := 0
	for _, w := range want {
		for _, h := range have {
			if similarity(w, h) >= tokenSimilarity {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(want))
}

// amountScore rates how close the payment is to the open balance.
func amountScore(amount, openBalance float64) float64 {
	expected := math.Abs(openBalance)
	if money.IsZero(expected) {
		return 0
	}
	pctDiff := math.Abs(math.Abs(amount)-expected) / expected
	switch {
	case pctDiff <= 0.001:
		return 1.0
	case pctDiff <= 0.01:
		return 0.95
	case pctDiff <= 0.02:
		return 0.90
	case pctDiff <= 0.05:
		return 0.80
	case pctDiff < 1:
		return 0.6 * (1 - pctDiff)
	default:
		return 0
	}
}

// signScore checks direction: an entity that owes pays in, one that is owed
// is paid out.
func signScore(amount, openBalance float64) float64 {
	if money.IsZero(openBalance) {
		return 0.5
	}
	if (amount > 0) == (openBalance > 0) {
		return 1
	}
	return 0
}

func score(tx bankdomain.BankTransaction, c Candidate) float64 {
	name := nameScore(tx.Description, c.Name)
	if name == 0 {
		return 0
	}
	total := nameWeight*name +
		amountWeight*amountScore(tx.Amount, c.OpenBalance) +
		signWeight*signScore(tx.Amount, c.OpenBalance)
	return money.Round2(total)
}

// Suggest proposes at most one entity per transaction. Ignored and
// non-unmatched rows are never proposed. Ties go to the lowest entity ID.
func Suggest(txs []bankdomain.BankTransaction, candidates []Candidate) []bankdomain.Suggestion {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EntityID < sorted[j].EntityID })

	out := []bankdomain.Suggestion{}
	for _, tx := range txs {
		if tx.Ignored || tx.Status != bankdomain.StatusUnmatched {
			continue
		}
		var best *Candidate
		bestScore := 0.0
		for i := range sorted {
			s := score(tx, sorted[i])
			if s > bestScore {
				best, bestScore = &sorted[i], s
			}
		}
		if best == nil || bestScore < minConfidence {
			continue
		}
		out = append(out, bankdomain.Suggestion{
			TransactionID: tx.ID,
			EntityID:      best.EntityID,
			EntityName:    best.Name,
			Confidence:    bestScore,
		})
	}
	return out
}
