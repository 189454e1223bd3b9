package dataset

// Source columns, spelled exactly as they appear in the published extract.
const (
	ColProvider             = "Provider Name"
	ColCallsOffered         = "Nhs1 Number Calls Offered SUM"
	ColCallsAnswered        = "Nhs1 Answered Calls SUM"
	ColCallsAbandoned       = "Nhs1 Abandoned Calls SUM"
	ColCostCallHandlers     = "Nhs1 Cost Call Handlers SUM"
	ColCostClinicalStaff    = "Nhs1 Cost Clinical Staff SUM"
	ColReferralsAE          = "Nhs1 Recommend To Ae SUM"
	ColReferralsPrimaryCare = "Nhs1 Recommend To Primcare SUM"
	ColPopulation           = "Nhs1 Population SUM"
	ColAmbulanceDispatches  = "Nhs1 Amb Dispatches SUM"
	ColCallsThrough111      = "Nhs1 Calls Through 111 SUM"
	ColCombinedRank         = "Combined_Rank"
	ColAnswered60sRate      = "Answered_60sec_Rate"
	ColCallback10mRate      = "Callback_10min_Compliance"
	ColTransferTime         = "Ave_Wtransfer_Time_Minutes"
)

// Derived columns added by Derive.
const (
	ColAbandonmentRate     = "Abandonment Rate"
	ColTotalCost           = "Total_Cost"
	ColCostPerAnsweredCall = "Cost_Per_Answered_Call"
	ColAERate              = "A&E_Referral_Rate"
	ColPrimaryCareRate     = "PrimaryCare_Referral_Rate"
	ColCallsOfferedPer1k   = "Calls_Offered_Per_1k"
	ColDispatchesPer1k     = "Ambulance_Dispatches_Per_1k"
)

// RequiredColumns must all be present for a file to load.
var RequiredColumns = []string{
	ColProvider,
	ColCallsOffered,
	ColCallsAnswered,
	ColCallsAbandoned,
	ColCostCallHandlers,
	ColCostClinicalStaff,
	ColReferralsAE,
	ColReferralsPrimaryCare,
	ColPopulation,
	ColAmbulanceDispatches,
	ColCallsThrough111,
	ColCombinedRank,
	ColAnswered60sRate,
	ColCallback10mRate,
}

// OptionalColumns are parsed when present. Only the correlation view needs them.
var OptionalColumns = []string{ColTransferTime}

// DerivedColumns lists the computed columns in the order they are appended.
var DerivedColumns = []string{
	ColAbandonmentRate,
	ColTotalCost,
	ColCostPerAnsweredCall,
	ColAERate,
	ColPrimaryCareRate,
	ColCallsOfferedPer1k,
	ColDispatchesPer1k,
}

// numericField returns a pointer to the Row field backing a numeric column.
func (r *Row) numericField(col string) *float64 {
	switch col {
	case ColCallsOffered:
		return &r.CallsOffered
	case ColCallsAnswered:
		return &r.CallsAnswered
	case ColCallsAbandoned:
		return &r.CallsAbandoned
	case ColCostCallHandlers:
		return &r.CostCallHandlers
	case ColCostClinicalStaff:
		return &r.CostClinicalStaff
	case ColReferralsAE:
		return &r.ReferralsAE
	case ColReferralsPrimaryCare:
		return &r.ReferralsPrimaryCare
	case ColPopulation:
		return &r.Population
	case ColAmbulanceDispatches:
		return &r.AmbulanceDispatches
	case ColCallsThrough111:
		return &r.CallsThrough111
	case ColCombinedRank:
		return &r.CombinedRank
	case ColAnswered60sRate:
		return &r.Answered60sRate
	case ColCallback10mRate:
		return &r.Callback10mRate
	case ColTransferTime:
		return &r.TransferTimeMinutes
	case ColAbandonmentRate:
		return &r.AbandonmentRate
	case ColTotalCost:
		return &r.TotalCost
	case ColCostPerAnsweredCall:
		return &r.CostPerAnsweredCall
	case ColAERate:
		return &r.AERate
	case ColPrimaryCareRate:
		return &r.PrimaryCareRate
	case ColCallsOfferedPer1k:
		return &r.CallsOfferedPer1k
	case ColDispatchesPer1k:
		return &r.DispatchesPer1k
	}
	return nil
}

// Float returns the value of a numeric column and whether the column is known.
func (r Row) Float(col string) (float64, bool) {
	p := r.numericField(col)
	if p == nil {
		return 0, false
	}
	return *p, true
}
