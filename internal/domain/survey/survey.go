// Package survey contains the assessment form state and its closed vocabularies.
//
// Enum-like fields keep whatever the caller supplied. Unknown values are not
// rejected; Known reports whether a value belongs to the vocabulary so callers
// can take a fallback branch.
package survey

import "strings"

// WorkFocus is the primary work focus picked on the screening step.
type WorkFocus string

// Work focus vocabulary.
const (
	FocusData     WorkFocus = "данные"
	FocusPeople   WorkFocus = "люди"
	FocusHardware WorkFocus = "оборудование"
)

// Known reports whether f is part of the work focus vocabulary.
func (f WorkFocus) Known() bool {
	switch f {
	case FocusData, FocusPeople, FocusHardware:
		return true
	}
	return false
}

// WorkStyle is the preferred work format. Display only.
type WorkStyle string

// Work style vocabulary.
const (
	StyleOffice WorkStyle = "офис"
	StyleHybrid WorkStyle = "гибрид"
	StyleRemote WorkStyle = "удалённо"
	StyleField  WorkStyle = "полевой"
)

// Known reports whether s is part of the work style vocabulary.
func (s WorkStyle) Known() bool {
	switch s {
	case StyleOffice, StyleHybrid, StyleRemote, StyleField:
		return true
	}
	return false
}

// StudyDepth is the preferred learning pace. Display only.
type StudyDepth string

// Study depth vocabulary.
const (
	DepthQuickStart StudyDepth = "быстрый старт"
	DepthLongStudy  StudyDepth = "долгая учёба"
	DepthFlexible   StudyDepth = "гибко"
)

// Known reports whether d is part of the study depth vocabulary.
func (d StudyDepth) Known() bool {
	switch d {
	case DepthQuickStart, DepthLongStudy, DepthFlexible:
		return true
	}
	return false
}

// ValueKey names one of the motivation sliders.
type ValueKey string

// Motivation keys.
const (
	ValueAutonomy   ValueKey = "autonomy"
	ValueStability  ValueKey = "stability"
	ValueImpact     ValueKey = "impact"
	ValueIncome     ValueKey = "income"
	ValueCreativity ValueKey = "creativity"
)

// ValueKeys is the fixed iteration order of motivation keys. Tie-breaks in
// scoring depend on it.
var ValueKeys = []ValueKey{ValueAutonomy, ValueStability, ValueImpact, ValueIncome, ValueCreativity}

var valueLabels = map[ValueKey]string{
	ValueAutonomy:   "Независимость",
	ValueStability:  "Стабильность",
	ValueImpact:     "Польза",
	ValueIncome:     "Доход",
	ValueCreativity: "Креативность",
}

// Label returns the display label for k, or the key itself when unknown.
func (k ValueKey) Label() string {
	if l, ok := valueLabels[k]; ok {
		return l
	}
	return string(k)
}

// Values maps motivation keys to percentages. Ranges are not validated.
type Values map[ValueKey]int

// Lookup returns the percentage for k and whether it was present.
func (v Values) Lookup(k ValueKey) (int, bool) {
	if v == nil {
		return 0, false
	}
	n, ok := v[k]
	return n, ok
}

// Areas lists the interest areas offered by the form.
var Areas = []string{
	"IT / Data / AI",
	"Медицина",
	"Экономика",
	"Инжиниринг",
	"Креатив",
	"Образование",
	"Экология",
	"Новые роли",
}

// Profile is free-form contact info. No validation at this layer.
type Profile struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Level string `json:"level" yaml:"level"`
}

// State is the full assessment form as edited by the user.
type State struct {
	Profile      Profile    `json:"profile" yaml:"profile"`
	Areas        []string   `json:"selectedAreas" yaml:"selected_areas"`
	WorkFocus    WorkFocus  `json:"workFocus" yaml:"work_focus"`
	WorkStyle    WorkStyle  `json:"workStyle" yaml:"work_style"`
	StudyDepth   StudyDepth `json:"studyDepth" yaml:"study_depth"`
	Values       Values     `json:"values" yaml:"values"`
	Skills       string     `json:"skills" yaml:"skills"`
	LearningPlan string     `json:"learningPlan" yaml:"learning_plan"`
	FreeText     string     `json:"freeText" yaml:"free_text"`
}

// DefaultState returns the answers the form starts with.
func DefaultState() State {
	return State{
		Areas:      []string{Areas[0]},
		WorkFocus:  FocusData,
		WorkStyle:  StyleRemote,
		StudyDepth: DepthQuickStart,
		Values: Values{
			ValueAutonomy:   60,
			ValueStability:  55,
			ValueImpact:     65,
			ValueIncome:     70,
			ValueCreativity: 75,
		},
		Skills:       "SQL, Python, Аналитика",
		LearningPlan: "SQL → Python → портфолио",
		FreeText:     "Хочу работать с продуктами и данными",
	}
}

// Separators used by the list-valued text fields.
const (
	SkillsSeparator = ","
	PlanSeparator   = "→"
)

// ParseSkills splits a comma separated skills line. Segments are trimmed,
// empty ones dropped, order kept.
func ParseSkills(s string) []string {
	return splitList(s, SkillsSeparator)
}

// ParseLearningPlan splits an arrow separated plan the same way as ParseSkills.
func ParseLearningPlan(s string) []string {
	return splitList(s, PlanSeparator)
}

func splitList(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
