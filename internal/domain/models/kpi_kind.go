package models

import "strings"

// KPIKind enumerates the closed set of KPI detail views.
type KPIKind string

const (
	KPILunch         KPIKind = "lunch"
	KPIBreakfast     KPIKind = "breakfast"
	KPISnack         KPIKind = "snack"
	KPISupper        KPIKind = "supper"
	KPIMEQ           KPIKind = "meq"
	KPIRevenue       KPIKind = "revenue"
	KPIWaste         KPIKind = "waste"
	KPIEnrollment    KPIKind = "enrollment"
	KPIProgramAccess KPIKind = "program_access"
	KPIPerformance   KPIKind = "performance"
	KPIUnknown       KPIKind = "unknown"
)

// KPIKinds lists every known kind in dashboard order.
var KPIKinds = []KPIKind{
	KPILunch,
	KPIBreakfast,
	KPISnack,
	KPISupper,
	KPIMEQ,
	KPIRevenue,
	KPIWaste,
	KPIEnrollment,
	KPIProgramAccess,
	KPIPerformance,
}

// ParseKPIKind resolves a stable KPI identifier. Separators and case are
// normalized so "program-access" and "Program_Access" resolve alike.
func ParseKPIKind(identifier string) KPIKind {
	normalized := strings.ToLower(strings.TrimSpace(identifier))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	for _, kind := range KPIKinds {
		if string(kind) == normalized {
			return kind
		}
	}
	return KPIUnknown
}

// MealType returns the meal type a meal KPI reports on.
func (k KPIKind) MealType() (MealType, bool) {
	switch k {
	case KPILunch:
		return MealLunch, true
	case KPIBreakfast:
		return MealBreakfast, true
	case KPISnack:
		return MealSnack, true
	case KPISupper:
		return MealSupper, true
	default:
		return "", false
	}
}
