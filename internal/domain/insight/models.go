package insight

import "time"

// Kind is the closed set of insight flavors. Anything that produces insights
// must emit one of these; renderers rely on the set being total.
type Kind string

const (
	KindTrend          Kind = "trend"
	KindAnomaly        Kind = "anomaly"
	KindRecommendation Kind = "recommendation"
	KindPattern        Kind = "pattern"
	KindAlert          Kind = "alert"
	KindPositive       Kind = "positive"
)

// Kinds lists every insight kind.
func Kinds() []Kind {
	return []Kind{KindTrend, KindAnomaly, KindRecommendation, KindPattern, KindAlert, KindPositive}
}

// IsValid reports whether k is a known insight kind.
func IsValid(k Kind) bool {
	switch k {
	case KindTrend, KindAnomaly, KindRecommendation, KindPattern, KindAlert, KindPositive:
		return true
	}
	return false
}

// presentation maps each kind to its display metadata. Total over Kinds():
// an unmapped kind is a bug, not a runtime fallback.
var presentation = map[Kind]struct {
	label string
	icon  string
}{
	KindTrend:          {"Spending Trend", "trending-up"},
	KindAnomaly:        {"Unusual Activity", "alert-circle"},
	KindRecommendation: {"Recommendation", "lightbulb"},
	KindPattern:        {"Spending Pattern", "repeat"},
	KindAlert:          {"Budget Alert", "bell"},
	KindPositive:       {"Good News", "thumbs-up"},
}

// Label returns the display label for a kind.
func (k Kind) Label() string { return presentation[k].label }

// Icon returns the icon slug for a kind.
func (k Kind) Icon() string { return presentation[k].icon }

// Insight is one generated observation about the user's finances.
type Insight struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"` // spending category the insight is about
	Amount      float64   `json:"amount,omitempty"`
	ChangePct   float64   `json:"changePct,omitempty"` // month-over-month delta, percent
	GeneratedAt time.Time `json:"generatedAt"`
}
