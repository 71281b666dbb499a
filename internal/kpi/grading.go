package kpi

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/dallastaras/nutrikpi/internal/domain/models"
)

// Picker returns an index in [0, n). It selects the closing suggestion.
type Picker func(n int) int

type criterion struct {
	points     int
	met        func(models.DailyMetricRecord) bool
	strength   string
	weakness   string
	suggestion string
}

var criteria = []criterion{
	{
		points:     20,
		met:        func(r models.DailyMetricRecord) bool { return r.ProgramAccessRate >= 50 },
		strength:   "strong program access",
		weakness:   "program access",
		suggestion: "Promote meal program enrollment during family outreach events to raise program access.",
	},
	{
		points:     15,
		met:        func(r models.DailyMetricRecord) bool { return r.BreakfastParticipationRate >= 35 },
		strength:   "healthy breakfast participation",
		weakness:   "breakfast participation",
		suggestion: "Try breakfast in the classroom or grab-and-go carts to lift breakfast participation.",
	},
	{
		points:     15,
		met:        func(r models.DailyMetricRecord) bool { return r.LunchParticipationRate >= 75 },
		strength:   "high lunch participation",
		weakness:   "lunch participation",
		suggestion: "Gather student taste-test feedback on the lunch menu to bring more students to the line.",
	},
	{
		points:     20,
		met:        func(r models.DailyMetricRecord) bool { return r.MPLH >= 15 },
		strength:   "efficient meals per labor hour",
		weakness:   "meals per labor hour",
		suggestion: "Review production schedules and station staffing to improve meals per labor hour.",
	},
	{
		points:     15,
		met:        func(r models.DailyMetricRecord) bool { return r.ReimbursementAmount > 0 },
		strength:   "claimed reimbursements",
		weakness:   "reimbursement claims",
		suggestion: "Submit daily meal counts on time so reimbursement claims are not missed.",
	},
	{
		points:     5,
		met:        func(r models.DailyMetricRecord) bool { return r.ALCRevenue > 0 },
		strength:   "a la carte sales",
		weakness:   "a la carte revenue",
		suggestion: "Introduce a small a la carte line with compliant snacks to add nonprogram revenue.",
	},
	{
		points:     10,
		met:        func(r models.DailyMetricRecord) bool { return r.EODTasksCompleted },
		strength:   "completed end-of-day tasks",
		weakness:   "end-of-day task completion",
		suggestion: "Use an end-of-day checklist so counts and temperature logs are closed out every day.",
	},
}

var gradeBands = []struct {
	min   int
	grade string
}{
	{95, "A+"},
	{90, "A"},
	{85, "A-"},
	{80, "B+"},
	{75, "B"},
	{70, "B-"},
	{65, "C+"},
	{60, "C"},
	{55, "C-"},
}

// Opening clauses of the narrative, keyed by the grade's leading letter.
const (
	OpeningA     = "Outstanding work!"
	OpeningB     = "Solid performance."
	OpeningC     = "Fair performance."
	OpeningOther = "Needs attention."
)

// LetterGrade maps a score to its grade band. There are no D grades.
func LetterGrade(score int) string {
	for _, band := range gradeBands {
		if score >= band.min {
			return band.grade
		}
	}
	return "F"
}

// Grade scores a school's metric snapshot out of 100 and writes a short
// narrative. The closing suggestion is picked at random among unmet criteria,
// so the narrative varies between calls; a nil pick uses math/rand.
func Grade(record models.DailyMetricRecord, pick Picker) models.PerformanceGrade {
	if pick == nil {
		pick = rand.Intn
	}

	result := models.PerformanceGrade{
		SchoolID:     record.SchoolID,
		SchoolName:   record.DisplayName(),
		AsOf:         models.Day(record.Date),
		Strengths:    []string{},
		Improvements: []string{},
	}

	var suggestions []string
	for _, c := range criteria {
		if c.met(record) {
			result.Score += c.points
			result.Strengths = append(result.Strengths, c.strength)
			continue
		}
		result.Improvements = append(result.Improvements, c.weakness)
		suggestions = append(suggestions, c.suggestion)
	}
	result.Grade = LetterGrade(result.Score)
	result.Narrative = narrative(result, suggestions, pick)

	return result
}

func narrative(g models.PerformanceGrade, suggestions []string, pick Picker) string {
	var b strings.Builder

	switch g.Grade[0] {
	case 'A':
		fmt.Fprintf(&b, "%s %s is performing at an exemplary level with a score of %d.", OpeningA, g.SchoolName, g.Score)
	case 'B':
		fmt.Fprintf(&b, "%s %s is meeting most program targets with a score of %d.", OpeningB, g.SchoolName, g.Score)
	case 'C':
		fmt.Fprintf(&b, "%s %s is meeting some program targets with a score of %d.", OpeningC, g.SchoolName, g.Score)
	default:
		fmt.Fprintf(&b, "%s %s scored %d and is missing several program targets.", OpeningOther, g.SchoolName, g.Score)
	}

	if len(g.Strengths) > 0 {
		fmt.Fprintf(&b, " Strengths include %s.", strings.Join(g.Strengths, ", "))
	}
	if len(g.Improvements) > 0 {
		fmt.Fprintf(&b, " Areas to improve: %s.", strings.Join(g.Improvements, ", "))
	}

	if len(suggestions) == 0 {
		b.WriteString(" Keep up the great work across every program area.")
		return b.String()
	}
	fmt.Fprintf(&b, " Suggestion: %s", suggestions[pick(len(suggestions))])

	return b.String()
}
