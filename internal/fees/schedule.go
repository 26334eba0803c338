package fees

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stadiumcard/stadiumcard-backend/pkg/config"
)

// Tier maps a gross payout ceiling to a flat withdrawal fee in yen. UpTo == 0
// marks the unbounded top tier.
type Tier struct {
	UpTo int `json:"upTo"`
	Fee  int `json:"fee"`
}

// DefaultTiers is the built-in schedule used whenever the configured tier
// string is absent or malformed.
var DefaultTiers = []Tier{
	{UpTo: 29999, Fee: 200},
	{UpTo: 99999, Fee: 400},
	{UpTo: 0, Fee: 600},
}

// Schedule is an immutable, ordered withdrawal-fee table.
type Schedule struct {
	tiers           []Tier
	minPayoutAmount int
}

// NewSchedule builds the fee schedule from raw config. Malformed tier strings
// fall back to DefaultTiers rather than failing startup; operators fix the env
// var without an outage.
func NewSchedule(cfg config.FeesConfig) *Schedule {
	minPayout := cfg.MinPayoutAmount
	if minPayout <= 0 {
		minPayout = 1000
	}
	return &Schedule{
		tiers:           ParseTiers(cfg.WithdrawalFeeTiers),
		minPayoutAmount: minPayout,
	}
}

// ParseTiers decodes "upTo:fee,upTo:fee,..." into an ordered tier list. Any
// malformed entry, duplicate ceiling, or missing unbounded tier discards the
// whole string and returns DefaultTiers.
func ParseTiers(raw string) []Tier {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return cloneTiers(DefaultTiers)
	}

	parts := strings.Split(raw, ",")
	parsed := make([]Tier, 0, len(parts))
	seen := map[int]bool{}
	for _, part := range parts {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 2 {
			return cloneTiers(DefaultTiers)
		}
		upTo, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil || upTo < 0 {
			return cloneTiers(DefaultTiers)
		}
		fee, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || fee < 0 {
			return cloneTiers(DefaultTiers)
		}
		if seen[upTo] {
			return cloneTiers(DefaultTiers)
		}
		seen[upTo] = true
		parsed = append(parsed, Tier{UpTo: upTo, Fee: fee})
	}

	if len(parsed) == 0 || !seen[0] {
		return cloneTiers(DefaultTiers)
	}

	sortTiers(parsed)
	return parsed
}

// FeeFor returns the flat fee for a gross payout amount. Amounts above every
// bounded ceiling land in the unbounded tier.
func (s *Schedule) FeeFor(amount int) int {
	for _, t := range s.tiers {
		if t.UpTo != 0 && amount <= t.UpTo {
			return t.Fee
		}
	}
	return s.tiers[len(s.tiers)-1].Fee
}

// MinPayoutAmount is the smallest net amount a seller may request.
func (s *Schedule) MinPayoutAmount() int {
	return s.minPayoutAmount
}

// Tiers returns a copy of the ordered schedule.
func (s *Schedule) Tiers() []Tier {
	return cloneTiers(s.tiers)
}

// TierDisplay is a render-ready row for the fee table shown to sellers.
type TierDisplay struct {
	UpTo  int    `json:"upTo"`
	Fee   int    `json:"fee"`
	Label string `json:"label"`
}

// TiersForDisplay renders Japanese range labels, e.g. "¥1,000 〜 ¥29,999" and
// "¥100,000以上" for the unbounded tier. The first range starts at the minimum
// payout amount.
func (s *Schedule) TiersForDisplay() []TierDisplay {
	out := make([]TierDisplay, 0, len(s.tiers))
	lower := s.minPayoutAmount
	for _, t := range s.tiers {
		if t.UpTo == 0 {
			out = append(out, TierDisplay{
				UpTo:  0,
				Fee:   t.Fee,
				Label: fmt.Sprintf("%s以上", formatYen(lower)),
			})
			continue
		}
		out = append(out, TierDisplay{
			UpTo:  t.UpTo,
			Fee:   t.Fee,
			Label: fmt.Sprintf("%s 〜 %s", formatYen(lower), formatYen(t.UpTo)),
		})
		lower = t.UpTo + 1
	}
	return out
}

func sortTiers(tiers []Tier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		// Unbounded tier sorts last.
		if tiers[i].UpTo == 0 {
			return false
		}
		if tiers[j].UpTo == 0 {
			return true
		}
		return tiers[i].UpTo < tiers[j].UpTo
	})
}

func cloneTiers(tiers []Tier) []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

func formatYen(amount int) string {
	digits := strconv.Itoa(amount)
	var b strings.Builder
	b.WriteString("¥")
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
