package elicit

import (
	"fmt"
	"strings"
)

// Tier is the textual outcome band of a texture score.
type Tier string

const (
	TierPremium  Tier = "premium"
	TierStandard Tier = "standard"
	TierWeak     Tier = "weak"
	TierFailure  Tier = "failure"
)

// TierFor bands a score. Every boundary is strict: 80 is standard, 60 is
// weak, 40 is failure.
func TierFor(score float64) Tier {
	switch {
	case score > 80:
		return TierPremium
	case score > 60:
		return TierStandard
	case score > 40:
		return TierWeak
	default:
		return TierFailure
	}
}

// Legend is the score key shown with results.
const Legend = "80-100: Premium/Thick\n40-79: Standard/Pourable\n0-39: Defect/Watery"

var tierText = map[Tier]string{
	TierPremium: "Outcome: Premium Structure.\nThe model predicts a highly stable, cohesive gel network. " +
		"Protein concentration and pH line up for a spoonable texture close to Greek dairy yogurt. Syneresis risk is minimal.",
	TierStandard: "Outcome: Standard Viscosity.\nLikely a pourable liquid such as a drinkable yogurt or smoothie. " +
		"The matrix is stable but lacks the strength of a set gel. Good mouthfeel expected.",
	TierWeak: "Outcome: Weak Network.\nThe structure is fragile and may show a water layer after 24 hours. " +
		"Consider raising the stabilizer or the protein concentration.",
	TierFailure: "Outcome: Formulation Failure.\nHigh probability of protein precipitation (grittiness) or complete separation. " +
		"The pH may sit too close to the isoelectric point without enough stabilizer.",
}

// Profile is the four-axis summary of a formulation, each axis in [0, 100].
type Profile struct {
	Texture   float64 `json:"texture"`
	Stability float64 `json:"stability"`
	Cost      float64 `json:"cost"`
	Nutrition float64 `json:"nutrition"`
}

// ProfileFor derives the profile from a score and the stabilizer and
// protein percentages.
func ProfileFor(score, stab, conc float64) Profile {
	stability := score * 0.7
	if stab > 0.4 {
		stability = score * 1.1
	}
	return Profile{
		Texture:   score,
		Stability: min(100, stability),
		Cost:      max(0, 100-conc*5),
		Nutrition: min(100, conc*8),
	}
}

// Report is the result of a finished formulation.
type Report struct {
	RecordID      string  `json:"record_id"`
	Name          string  `json:"name"`
	Source        string  `json:"source"`
	Score         float64 `json:"score"`
	Tier          Tier    `json:"tier"`
	Profile       Profile `json:"profile"`
	ModelVersion  uint64  `json:"model_version,omitempty"`
	UnknownSource bool    `json:"unknown_source,omitempty"`
	Untrained     bool    `json:"untrained,omitempty"`
}

// Text renders the report as a chat message.
func (r Report) Text() string {
	var b strings.Builder
	b.WriteString("Final Rheological Analysis\n\n")
	fmt.Fprintf(&b, "Predicted Texture Score: %.2f / 100\n\n", r.Score)
	b.WriteString(tierText[r.Tier])
	if r.Untrained {
		b.WriteString("\n\nNote: the model has not been trained yet, so the score is a placeholder.")
	}
	if r.UnknownSource {
		fmt.Fprintf(&b, "\n\nNote: %s is newer than the serving model; it was scored without an ingredient profile.", r.Source)
	}
	fmt.Fprintf(&b, "\n\nProfile: texture %.0f, stability %.0f, cost %.0f, nutrition %.0f",
		r.Profile.Texture, r.Profile.Stability, r.Profile.Cost, r.Profile.Nutrition)
	fmt.Fprintf(&b, "\n\nData archived to Lab Notebook as %q (id %s).", r.Name, r.RecordID)
	return b.String()
}
