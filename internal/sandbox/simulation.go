// Package sandbox implements the insurance pricing simulation.
//
// A run prices a fixed book of synthetic policyholders at one premium and
// deductible, draws claims from the supplied generator and scores the
// resulting portfolio out of 100.
package sandbox

import (
	"math/rand"

	"actuarialhub/internal/validation"
)

const (
	PolicyholderCount = 100
	ClaimProbability  = 0.15
	FixedCosts        = 200

	MinClaimSeverity = 1000
	MaxClaimSeverity = 10000

	MinPremium    = 800
	MaxPremium    = 3000
	MinDeductible = 250
	MaxDeductible = 2000
)

// Params are the operator-chosen inputs of a run
type Params struct {
	Premium    float64 `json:"premium"`
	Deductible float64 `json:"deductible"`
}

// Validate enforces the slider bounds
func (p Params) Validate() error {
	if err := validation.ValidateRange("premium", p.Premium, MinPremium, MaxPremium); err != nil {
		return err
	}
	return validation.ValidateRange("deductible", p.Deductible, MinDeductible, MaxDeductible)
}

// Record is the outcome for one synthetic policyholder
type Record struct {
	ID           int     `json:"id"`
	Premium      float64 `json:"premium"`
	HasClaim     bool    `json:"has_claim"`
	ClaimAmount  float64 `json:"claim_amount"`
	Deductible   float64 `json:"deductible"`
	ActualProfit float64 `json:"actual_profit"`
}

// Result aggregates a run
type Result struct {
	Records       []Record `json:"records"`
	TotalPremiums float64  `json:"total_premiums"`
	TotalClaims   float64  `json:"total_claims"`
	TotalProfit   float64  `json:"total_profit"`
	ClaimCount    int      `json:"claim_count"`
	LossRatio     float64  `json:"loss_ratio"`
	ProfitMargin  float64  `json:"profit_margin"`
	Score         int      `json:"score"`
}

// Run simulates one pricing decision. The generator is the only source
// of randomness, so a seeded generator reproduces a run exactly.
func Run(rng *rand.Rand, params Params) Result {
	res := Result{Records: make([]Record, 0, PolicyholderCount)}

	for i := 0; i < PolicyholderCount; i++ {
		rec := Record{
			ID:         i + 1,
			Premium:    params.Premium,
			Deductible: params.Deductible,
			HasClaim:   rng.Float64() < ClaimProbability,
		}
		if rec.HasClaim {
			rec.ClaimAmount = float64(MinClaimSeverity + rng.Intn(MaxClaimSeverity-MinClaimSeverity+1))
		}

		// The deductible is charged against the insurer when a claim occurs.
		rec.ActualProfit = rec.Premium - rec.ClaimAmount - FixedCosts
		if rec.HasClaim {
			rec.ActualProfit -= rec.Deductible
			res.ClaimCount++
		}

		res.TotalPremiums += rec.Premium
		res.TotalClaims += rec.ClaimAmount
		res.TotalProfit += rec.ActualProfit
		res.Records = append(res.Records, rec)
	}

	if res.TotalPremiums > 0 {
		res.LossRatio = res.TotalClaims / res.TotalPremiums * 100
		res.ProfitMargin = res.TotalProfit / res.TotalPremiums * 100
	}
	res.Score = Score(res.TotalProfit, res.LossRatio)
	return res
}

// Score converts a portfolio outcome into a mastery score in [0, 100]
func Score(totalProfit, lossRatio float64) int {
	score := 50
	if totalProfit > 0 {
		score += 30
	}
	if lossRatio < 70 {
		score += 20
	}
	if lossRatio > 90 {
		score -= 20
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
