// Package scoring derives a feature snapshot, a recommendation and a
// completion metric from the assessment form.
//
// Every function here is pure and total: no I/O, no panics, same input gives
// the same output. They are cheap enough to run on every keystroke.
package scoring

import (
	"fmt"
	"strings"

	"github.com/okian/devbasics/internal/domain/survey"
)

// Affinity constants for the work focus rule.
const (
	affinityMatch      = 1.0
	dataAffinityOther  = 0.6
	peopleFocusOther   = 0.4
	percentScale       = 100.0
	progressTextWeight = 60.0
	progressAreaWeight = 5.0
	progressCap        = 100.0
)

// Recommendation wording.
const (
	BranchData     = "Инженерия данных"
	BranchProduct  = "Продуктовая роль"
	FallbackMotive = "рост"
)

// Feature names, in snapshot order.
const (
	FeatureDataAffinity = "data_affinity"
	FeaturePeopleFocus  = "people_focus"
	FeatureAutonomy     = "autonomy"
	FeatureStability    = "stability"
	FeatureCreativity   = "creativity"
	FeatureImpact       = "impact"
	FeatureIncome       = "income"
)

// FeatureSnapshot is the normalized [0,1] summary sent along with a
// submitted assessment.
type FeatureSnapshot struct {
	DataAffinity float64 `json:"data_affinity"`
	PeopleFocus  float64 `json:"people_focus"`
	Autonomy     float64 `json:"autonomy"`
	Stability    float64 `json:"stability"`
	Creativity   float64 `json:"creativity"`
	Impact       float64 `json:"impact"`
	Income       float64 `json:"income"`
}

// Feature is a single named snapshot value.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Features returns the snapshot as ordered name/value pairs.
func (s FeatureSnapshot) Features() []Feature {
	return []Feature{
		{FeatureDataAffinity, s.DataAffinity},
		{FeaturePeopleFocus, s.PeopleFocus},
		{FeatureAutonomy, s.Autonomy},
		{FeatureStability, s.Stability},
		{FeatureCreativity, s.Creativity},
		{FeatureImpact, s.Impact},
		{FeatureIncome, s.Income},
	}
}

// Get returns the value of the named feature.
func (s FeatureSnapshot) Get(name string) (float64, bool) {
	for _, f := range s.Features() {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// ComputeFeatureSnapshot applies the focus rule and scales motivation values.
// Missing motivation keys count as 0.
func ComputeFeatureSnapshot(st survey.State) FeatureSnapshot {
	snap := FeatureSnapshot{
		DataAffinity: dataAffinityOther,
		PeopleFocus:  peopleFocusOther,
	}
	switch st.WorkFocus {
	case survey.FocusData:
		snap.DataAffinity = affinityMatch
	case survey.FocusPeople:
		snap.PeopleFocus = affinityMatch
	}
	snap.Autonomy = scaled(st.Values, survey.ValueAutonomy)
	snap.Stability = scaled(st.Values, survey.ValueStability)
	snap.Creativity = scaled(st.Values, survey.ValueCreativity)
	snap.Impact = scaled(st.Values, survey.ValueImpact)
	snap.Income = scaled(st.Values, survey.ValueIncome)
	return snap
}

func scaled(v survey.Values, k survey.ValueKey) float64 {
	n, _ := v.Lookup(k)
	return float64(n) / percentScale
}

// TopMotive returns the motivation key with the highest value. Ties go to the
// key that comes first in survey.ValueKeys. ok is false when no key is set.
func TopMotive(v survey.Values) (key survey.ValueKey, ok bool) {
	best := 0
	for _, k := range survey.ValueKeys {
		n, present := v.Lookup(k)
		if !present {
			continue
		}
		if !ok || n > best {
			key, best, ok = k, n, true
		}
	}
	return key, ok
}

// ComputeRecommendation builds the one-line recommendation shown next to the form.
func ComputeRecommendation(st survey.State) string {
	branch := BranchProduct
	if st.WorkFocus == survey.FocusData {
		branch = BranchData
	}
	motive := FallbackMotive
	if k, ok := TopMotive(st.Values); ok {
		motive = string(k)
	}
	return fmt.Sprintf("%s · главный мотив — %s.", branch, motive)
}

// FilledFields counts the non-blank free-text fields (0..6).
func FilledFields(st survey.State) int {
	fields := [...]string{
		st.Profile.Name,
		st.Profile.Email,
		st.Profile.Level,
		st.Skills,
		st.LearningPlan,
		st.FreeText,
	}
	n := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			n++
		}
	}
	return n
}

// textFieldCount is the number of fields FilledFields inspects.
const textFieldCount = 6

// ComputeProgress returns completion in [0,100]. Text fields contribute up to
// 60 points; every selected area adds 5; the sum is capped at 100.
func ComputeProgress(st survey.State) float64 {
	p := float64(FilledFields(st))*progressTextWeight/textFieldCount + float64(len(st.Areas))*progressAreaWeight
	if p > progressCap {
		return progressCap
	}
	return p
}

// Preview bundles everything the form shows live.
type Preview struct {
	FeatureSnapshot FeatureSnapshot `json:"featureSnapshot"`
	Recommendation  string          `json:"recommendation"`
	Progress        float64         `json:"progress"`
	Details         string          `json:"details"`
}

// Evaluate computes the full live preview for st.
func Evaluate(st survey.State) Preview {
	return Preview{
		FeatureSnapshot: ComputeFeatureSnapshot(st),
		Recommendation:  ComputeRecommendation(st),
		Progress:        ComputeProgress(st),
		Details:         fmt.Sprintf("Рабочий формат: %s. Темп обучения: %s.", st.WorkStyle, st.StudyDepth),
	}
}
