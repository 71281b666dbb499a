package models

import "time"

// KPISnapshot represents the weekly district digest stored in MongoDB.
type KPISnapshot struct {
	ID          string             `bson:"_id" json:"id"`
	DistrictID  string             `bson:"district_id" json:"districtId"`
	PeriodStart time.Time          `bson:"period_start" json:"periodStart"`
	PeriodEnd   time.Time          `bson:"period_end" json:"periodEnd"`
	MealsServed map[MealType]int   `bson:"meals_served" json:"mealsServed"`
	TotalMEQ    int                `bson:"total_meq" json:"totalMeq"`
	Revenue     float64            `bson:"revenue" json:"revenue"`
	WasteImpact float64            `bson:"waste_impact" json:"wasteImpact"`
	HighWaste   bool               `bson:"high_waste" json:"highWaste"`
	Enrollment  int                `bson:"enrollment" json:"enrollment"`
	Grades      []PerformanceGrade `bson:"grades" json:"grades"`
	Digest      string             `bson:"digest" json:"digest"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}
