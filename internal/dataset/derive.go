package dataset

import "math"

// Derive fills the computed columns of r from its source columns.
//
// Ratios follow IEEE division, so a zero denominator yields NaN or ±Inf.
// Only CostPerAnsweredCall is clamped to 0 in that case; the other ratios
// carry the non-finite value through to the views.
func Derive(r *Row) {
	r.AbandonmentRate = r.CallsAbandoned / r.CallsOffered
	r.TotalCost = r.CostCallHandlers + r.CostClinicalStaff

	r.CostPerAnsweredCall = r.TotalCost / r.CallsAnswered
	if math.IsNaN(r.CostPerAnsweredCall) || math.IsInf(r.CostPerAnsweredCall, 0) {
		r.CostPerAnsweredCall = 0
	}

	r.AERate = r.ReferralsAE / r.CallsAnswered
	r.PrimaryCareRate = r.ReferralsPrimaryCare / r.CallsAnswered

	thousands := r.Population / 1000
	r.CallsOfferedPer1k = r.CallsOffered / thousands
	r.DispatchesPer1k = r.AmbulanceDispatches / thousands
}

// DeriveAll applies Derive to every row in place.
func DeriveAll(rows []Row) {
	for i := range rows {
		Derive(&rows[i])
	}
}
