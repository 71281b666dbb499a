package models

import "time"

// Spoilage splits spoiled portions by cause. Total is the rounded spoilage
// share of waste; the three causes are rounded independently and may not add
// up to it exactly.
type Spoilage struct {
	Temperature int `json:"temperature"`
	Quality     int `json:"quality"`
	Expired     int `json:"expired"`
	Total       int `json:"total"`
}

// WasteImpact is the estimated dollar cost of the waste bundle.
type WasteImpact struct {
	WastedValue    float64 `json:"wastedValue"`
	SpoilageValue  float64 `json:"spoilageValue"`
	CarryOverValue float64 `json:"carryOverValue"`
	Total          float64 `json:"total"`
	HighWaste      bool    `json:"highWaste"`
}

// WasteMetrics is the estimated production and waste for a period.
type WasteMetrics struct {
	Planned            int         `json:"planned"`
	Produced           int         `json:"produced"`
	Served             int         `json:"served"`
	Waste              int         `json:"waste"`
	RTS                int         `json:"rts"`
	CarryOver          int         `json:"carryOver"`
	LeftOver           int         `json:"leftOver"`
	Spoilage           Spoilage    `json:"spoilage"`
	Impact             WasteImpact `json:"impact"`
	ProductionAccuracy float64     `json:"productionAccuracy"`
}

// MEQBreakdown holds meal equivalents per leaf. Total is the sum of the
// already rounded leaves.
type MEQBreakdown struct {
	StudentBreakfast int `json:"studentBreakfast"`
	AdultBreakfast   int `json:"adultBreakfast"`
	StudentLunch     int `json:"studentLunch"`
	AdultLunch       int `json:"adultLunch"`
	Snack            int `json:"snack"`
	Supper           int `json:"supper"`
	Nonprogram       int `json:"nonprogram"`
	Total            int `json:"total"`
}

// RevenueSource is one named revenue line with its per-MEQ ratio.
type RevenueSource struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	PerMEQ float64 `json:"perMeq"`
}

// RevenueBreakdown decomposes period revenue by source.
type RevenueBreakdown struct {
	Sources  []RevenueSource `json:"sources"`
	Total    float64         `json:"total"`
	TotalMEQ int             `json:"totalMeq"`
	PerMEQ   float64         `json:"perMeq"`
}

// MealBreakdown summarizes one meal type's participation over a period.
type MealBreakdown struct {
	MealType                  MealType `json:"mealType"`
	Total                     int      `json:"total"`
	Free                      int      `json:"free"`
	Reduced                   int      `json:"reduced"`
	Paid                      int      `json:"paid"`
	OperatingDays             int      `json:"operatingDays"`
	AttendanceFactor          float64  `json:"attendanceFactor"`
	AverageDailyParticipation float64  `json:"averageDailyParticipation"`
}

// SchoolEnrollment is one school's latest enrollment snapshot.
type SchoolEnrollment struct {
	SchoolID        string    `json:"schoolId"`
	SchoolName      string    `json:"schoolName"`
	AsOf            time.Time `json:"asOf"`
	TotalEnrollment int       `json:"totalEnrollment"`
	FreeCount       int       `json:"freeCount"`
	ReducedCount    int       `json:"reducedCount"`
	PaidCount       int       `json:"paidCount"`
}

// EnrollmentBreakdown is current enrollment by eligibility, for one school or
// summed over the latest snapshot of every school in the district.
type EnrollmentBreakdown struct {
	TotalEnrollment int                `json:"totalEnrollment"`
	FreeCount       int                `json:"freeCount"`
	ReducedCount    int                `json:"reducedCount"`
	PaidCount       int                `json:"paidCount"`
	Schools         []SchoolEnrollment `json:"schoolBreakdown,omitempty"`
}

// ProgramAccessSummary averages the reported participation rates.
type ProgramAccessSummary struct {
	ProgramAccessRate          float64 `json:"programAccessRate"`
	BreakfastParticipationRate float64 `json:"breakfastParticipationRate"`
	LunchParticipationRate     float64 `json:"lunchParticipationRate"`
	ReimbursementAmount        float64 `json:"reimbursementAmount"`
	ALCRevenue                 float64 `json:"alcRevenue"`
	Days                       int     `json:"days"`
}

// PerformanceGrade is a school's letter grade derived from its latest snapshot.
type PerformanceGrade struct {
	SchoolID     string    `bson:"school_id" json:"schoolId"`
	SchoolName   string    `bson:"school_name" json:"schoolName"`
	AsOf         time.Time `bson:"as_of" json:"asOf"`
	Score        int       `bson:"score" json:"score"`
	Grade        string    `bson:"grade" json:"grade"`
	Strengths    []string  `bson:"strengths" json:"strengths"`
	Improvements []string  `bson:"improvements" json:"improvements"`
	Narrative    string    `bson:"narrative" json:"narrative"`
}

// Dashboard bundles every derived metric for a scope. Nil members mean no data.
type Dashboard struct {
	Query         Query                       `json:"query"`
	Meals         map[MealType]*MealBreakdown `json:"meals"`
	MEQ           *MEQBreakdown               `json:"meq"`
	Revenue       *RevenueBreakdown           `json:"revenue"`
	Waste         *WasteMetrics               `json:"waste"`
	Enrollment    *EnrollmentBreakdown        `json:"enrollment"`
	ProgramAccess *ProgramAccessSummary       `json:"programAccess"`
}
