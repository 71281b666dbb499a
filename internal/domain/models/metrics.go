package models

import (
	"strings"
	"time"
)

// UnknownSchoolName is displayed when a record carries no school name.
const UnknownSchoolName = "Unknown School"

// DailyMetricRecord captures one school's nutrition program metrics for one calendar day.
type DailyMetricRecord struct {
	Date       time.Time `bson:"date" json:"date"`
	DistrictID string    `bson:"district_id" json:"districtId"`
	SchoolID   string    `bson:"school_id" json:"schoolId"`
	SchoolName string    `bson:"school_name,omitempty" json:"schoolName,omitempty"`

	BreakfastCount int `bson:"breakfast_count" json:"breakfastCount"`
	LunchCount     int `bson:"lunch_count" json:"lunchCount"`
	SnackCount     int `bson:"snack_count" json:"snackCount"`
	SupperCount    int `bson:"supper_count" json:"supperCount"`

	FreeMealBreakfast    int `bson:"free_meal_breakfast" json:"free_meal_breakfast"`
	ReducedMealBreakfast int `bson:"reduced_meal_breakfast" json:"reduced_meal_breakfast"`
	PaidMealBreakfast    int `bson:"paid_meal_breakfast" json:"paid_meal_breakfast"`
	FreeMealLunch        int `bson:"free_meal_lunch" json:"free_meal_lunch"`
	ReducedMealLunch     int `bson:"reduced_meal_lunch" json:"reduced_meal_lunch"`
	PaidMealLunch        int `bson:"paid_meal_lunch" json:"paid_meal_lunch"`
	FreeMealSnack        int `bson:"free_meal_snack" json:"free_meal_snack"`
	ReducedMealSnack     int `bson:"reduced_meal_snack" json:"reduced_meal_snack"`
	PaidMealSnack        int `bson:"paid_meal_snack" json:"paid_meal_snack"`
	FreeMealSupper       int `bson:"free_meal_supper" json:"free_meal_supper"`
	ReducedMealSupper    int `bson:"reduced_meal_supper" json:"reduced_meal_supper"`
	PaidMealSupper       int `bson:"paid_meal_supper" json:"paid_meal_supper"`

	// Enrollment snapshot. Paid enrollment is never stored, see PaidCount.
	TotalEnrollment int `bson:"total_enrollment" json:"totalEnrollment"`
	FreeCount       int `bson:"free_count" json:"freeCount"`
	ReducedCount    int `bson:"reduced_count" json:"reducedCount"`

	ALCRevenue                 float64 `bson:"alc_revenue" json:"alcRevenue"`
	ReimbursementAmount        float64 `bson:"reimbursement_amount" json:"reimbursementAmount"`
	MPLH                       float64 `bson:"mplh" json:"mplh"`
	ProgramAccessRate          float64 `bson:"program_access_rate" json:"programAccessRate"`
	BreakfastParticipationRate float64 `bson:"breakfast_participation_rate" json:"breakfastParticipationRate"`
	LunchParticipationRate     float64 `bson:"lunch_participation_rate" json:"lunchParticipationRate"`
	EODTasksCompleted          bool    `bson:"eod_tasks_completed" json:"eodTasksCompleted"`
}

// DisplayName returns the school name or the "Unknown School" fallback.
func (r DailyMetricRecord) DisplayName() string {
	if strings.TrimSpace(r.SchoolName) == "" {
		return UnknownSchoolName
	}
	return r.SchoolName
}

// PaidCount derives paid enrollment from the snapshot. It may be negative
// when the upstream counts are inconsistent.
func (r DailyMetricRecord) PaidCount() int {
	return r.TotalEnrollment - (r.FreeCount + r.ReducedCount)
}

// MealCount returns the served count for the meal type.
func (r DailyMetricRecord) MealCount(mt MealType) int {
	switch mt {
	case MealBreakfast:
		return r.BreakfastCount
	case MealLunch:
		return r.LunchCount
	case MealSnack:
		return r.SnackCount
	case MealSupper:
		return r.SupperCount
	default:
		return 0
	}
}

// Eligibility returns the free, reduced and paid meal split for the meal type.
func (r DailyMetricRecord) Eligibility(mt MealType) (free, reduced, paid int) {
	switch mt {
	case MealBreakfast:
		return r.FreeMealBreakfast, r.ReducedMealBreakfast, r.PaidMealBreakfast
	case MealLunch:
		return r.FreeMealLunch, r.ReducedMealLunch, r.PaidMealLunch
	case MealSnack:
		return r.FreeMealSnack, r.ReducedMealSnack, r.PaidMealSnack
	case MealSupper:
		return r.FreeMealSupper, r.ReducedMealSupper, r.PaidMealSupper
	default:
		return 0, 0, 0
	}
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
