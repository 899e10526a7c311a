package simulation

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// PersonaProfile is a synthetic candidate archetype used for pre-publication
// dry runs.
type PersonaProfile int

const (
	PersonaStruggling PersonaProfile = iota
	PersonaAverage
	PersonaStrong
	PersonaExpert
)

// String returns the profile name.
func (p PersonaProfile) String() string {
	switch p {
	case PersonaStruggling:
		return "STRUGGLING"
	case PersonaAverage:
		return "AVERAGE"
	case PersonaStrong:
		return "STRONG"
	case PersonaExpert:
		return "EXPERT"
	default:
		return "UNKNOWN"
	}
}

// ParsePersona maps a profile name to its PersonaProfile; unknown names fall
// back to AVERAGE.
func ParsePersona(name string) PersonaProfile {
	switch name {
	case "STRUGGLING":
		return PersonaStruggling
	case "STRONG":
		return PersonaStrong
	case "EXPERT":
		return PersonaExpert
	default:
		return PersonaAverage
	}
}

// baseRates holds each persona's difficulty-conditioned base probability of a
// correct response.
var baseRates = map[PersonaProfile]map[model.Difficulty]float64{
	PersonaStruggling: {
		model.DifficultyFoundational: 0.55,
		model.DifficultyIntermediate: 0.35,
		model.DifficultyAdvanced:     0.20,
	},
	PersonaAverage: {
		model.DifficultyFoundational: 0.75,
		model.DifficultyIntermediate: 0.55,
		model.DifficultyAdvanced:     0.35,
	},
	PersonaStrong: {
		model.DifficultyFoundational: 0.88,
		model.DifficultyIntermediate: 0.72,
		model.DifficultyAdvanced:     0.55,
	},
	PersonaExpert: {
		model.DifficultyFoundational: 0.95,
		model.DifficultyIntermediate: 0.85,
		model.DifficultyAdvanced:     0.72,
	},
}

// BaseRate returns the persona's base probability for a question difficulty.
func BaseRate(p PersonaProfile, d model.Difficulty) float64 {
	if rates, ok := baseRates[p]; ok {
		if r, ok := rates[d]; ok {
			return r
		}
	}
	return 0.5
}

// Seed derives the deterministic simulation seed: the persona ordinal and
// ability folded with every question id's hash in order. Identical inputs
// always produce the identical seed, which makes simulation results cacheable.
func Seed(profile PersonaProfile, abilityLevel int, questionIDs []uuid.UUID) int64 {
	seed := int64(profile)*31 + int64(abilityLevel)
	for _, id := range questionIDs {
		seed = seed*31 + int64(hashUUID(id))
	}
	return seed
}

// AbilityShift maps the 0..100 ability slider linearly into roughly ±2 logits
// around the persona base rate.
func AbilityShift(abilityLevel int) float64 {
	return float64(abilityLevel-50) / 25
}

// CompetencyNoise derives a competency-specific offset in [-0.10, +0.10]
// logits, stable for a (seed, competency) pair across every question of that
// competency within one run.
func CompetencyNoise(seed int64, competencyID uuid.UUID) float64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(seed))
	h.Write(buf[:])
	h.Write(competencyID[:])

	// Uniform in [0, 1) from the top 53 bits, then centered.
	u := float64(h.Sum64()>>11) / float64(1<<53)
	return (u - 0.5) * 0.2
}

// ResponseProbability composes base rate, ability shift and competency noise
// in logit space, clamped to [0.01, 0.99] to avoid degenerate certainty.
func ResponseProbability(base float64, abilityLevel int, noise float64) float64 {
	p := Sigmoid(Logit(base) + AbilityShift(abilityLevel) + noise)
	if p < 0.01 {
		return 0.01
	}
	if p > 0.99 {
		return 0.99
	}
	return p
}

// Logit is the inverse sigmoid, with inputs nudged off 0 and 1.
func Logit(p float64) float64 {
	const eps = 1e-9
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return math.Log(p / (1 - p))
}

// Sigmoid maps a logit back to a probability.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func hashUUID(id uuid.UUID) uint64 {
	h := fnv.New64a()
	h.Write(id[:])
	return h.Sum64()
}
