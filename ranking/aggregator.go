package ranking

import (
	"encoding/json"
	"math"
	"slices"
	"strings"

	"github.com/Dosada05/worldcup/models"
)

// Ratio is a share in [0,1]. NaN marks an undefined ratio (zero denominator)
// and is encoded as JSON null.
type Ratio float64

func NewRatio(numerator, denominator int) Ratio {
	if denominator == 0 {
		return Ratio(math.NaN())
	}
	return Ratio(float64(numerator) / float64(denominator))
}

func (r Ratio) Defined() bool {
	return !math.IsNaN(float64(r))
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

type Summary struct {
	CandidateID  int     `json:"id"`
	Name         string  `json:"name"`
	ImageKey     string  `json:"key"`
	ImageURL     *string `json:"url,omitempty"`
	VictoryRatio Ratio   `json:"victory_ratio"`
	WinRatio     Ratio   `json:"win_ratio"`
}

// Page selects a 1-based page. Limit <= 0 returns everything.
type Page struct {
	Number int
	Limit  int
}

func (p Page) bounds(total int) (int, int) {
	if p.Limit <= 0 {
		return 0, total
	}
	number := p.Number
	if number < 1 {
		number = 1
	}
	offset := (number - 1) * p.Limit
	if offset > total {
		offset = total
	}
	end := offset + p.Limit
	if end > total {
		end = total
	}
	return offset, end
}

// Summarize computes the derived ratios of one candidate.
func Summarize(s models.CandidateStats) Summary {
	return Summary{
		CandidateID:  s.ID,
		Name:         s.Name,
		ImageKey:     s.ImageKey,
		ImageURL:     s.ImageURL,
		VictoryRatio: NewRatio(s.VictoryCount, s.RunCount),
		WinRatio:     NewRatio(s.WinCount, s.ShowCount),
	}
}

// Rank filters by a case-sensitive name substring, orders by victory ratio
// (descending, undefined last, stable for ties) and returns the requested page
// together with the filtered total.
func Rank(stats []models.CandidateStats, filter string, page Page) ([]Summary, int) {
	summaries := make([]Summary, 0, len(stats))
	for _, s := range stats {
		if filter != "" && !strings.Contains(s.Name, filter) {
			continue
		}
		summaries = append(summaries, Summarize(s))
	}

	slices.SortStableFunc(summaries, compareByVictory)

	total := len(summaries)
	offset, end := page.bounds(total)
	return summaries[offset:end], total
}

func compareByVictory(a, b Summary) int {
	aDef, bDef := a.VictoryRatio.Defined(), b.VictoryRatio.Defined()
	switch {
	case aDef && !bDef:
		return -1
	case !aDef && bDef:
		return 1
	case !aDef && !bDef:
		return 0
	case a.VictoryRatio > b.VictoryRatio:
		return -1
	case a.VictoryRatio < b.VictoryRatio:
		return 1
	default:
		return 0
	}
}

// Breakdown is the demographic view of one candidate used for charts.
type Breakdown struct {
	CandidateID int                   `json:"id"`
	Name        string                `json:"name"`
	Total       int                   `json:"total"`
	Buckets     map[models.Bucket]int `json:"buckets"`
}

func AccumulateOne(s models.CandidateStats) Breakdown {
	buckets := make(map[models.Bucket]int, len(models.Buckets))
	for _, b := range models.Buckets {
		buckets[b] = s.Buckets[b]
	}
	return Breakdown{
		CandidateID: s.ID,
		Name:        s.Name,
		Total:       s.WinCount,
		Buckets:     buckets,
	}
}

// Accumulate projects stats into per-candidate bucket breakdowns without mutating them.
func Accumulate(stats []models.CandidateStats) []Breakdown {
	out := make([]Breakdown, len(stats))
	for i, s := range stats {
		out[i] = AccumulateOne(s)
	}
	return out
}
