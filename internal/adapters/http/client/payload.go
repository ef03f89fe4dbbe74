package client

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/okian/devbasics/internal/domain/chat"
	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/internal/domain/scoring"
	"github.com/okian/devbasics/internal/domain/survey"
)

// RemoteID is a server-issued identifier. The API may encode it as a JSON
// number or a string.
type RemoteID string

// UnmarshalJSON accepts a number or a string.
func (id *RemoteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RemoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = RemoteID(n.String())
	return nil
}

func (id RemoteID) String() string { return string(id) }

// Int64 returns the identifier as a number when it is one.
func (id RemoteID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// Screening is the first form section.
type Screening struct {
	Areas      []string          `json:"areas"`
	WorkFocus  survey.WorkFocus  `json:"workFocus"`
	WorkStyle  survey.WorkStyle  `json:"workStyle"`
	StudyDepth survey.StudyDepth `json:"studyDepth"`
}

// Motivations is the second form section with list fields already parsed.
type Motivations struct {
	Values       survey.Values `json:"values"`
	Skills       []string      `json:"skills"`
	LearningPlan []string      `json:"learningPlan"`
	FreeText     string        `json:"freeText"`
}

// AssessmentRequest is the body of POST /api/assessments.
type AssessmentRequest struct {
	Profile         survey.Profile          `json:"profile"`
	Screening       Screening               `json:"screening"`
	Motivations     Motivations             `json:"motivations"`
	FeatureSnapshot scoring.FeatureSnapshot `json:"featureSnapshot"`
}

// NewAssessmentRequest packages a survey state for submission. st is read,
// never modified.
func NewAssessmentRequest(st survey.State) AssessmentRequest { //nolint:gocritic // hugeParam: State is read by value on purpose
	areas := append([]string{}, st.Areas...)
	values := make(survey.Values, len(st.Values))
	for k, v := range st.Values {
		values[k] = v
	}
	return AssessmentRequest{
		Profile: st.Profile,
		Screening: Screening{
			Areas:      areas,
			WorkFocus:  st.WorkFocus,
			WorkStyle:  st.WorkStyle,
			StudyDepth: st.StudyDepth,
		},
		Motivations: Motivations{
			Values:       values,
			Skills:       survey.ParseSkills(st.Skills),
			LearningPlan: survey.ParseLearningPlan(st.LearningPlan),
			FreeText:     st.FreeText,
		},
		FeatureSnapshot: scoring.ComputeFeatureSnapshot(st),
	}
}

type assessmentResponse struct {
	Assessment *struct {
		ID RemoteID `json:"id"`
	} `json:"assessment"`
}

// AuthRequest is the body of the login and register endpoints.
type AuthRequest = model.Credentials

// AuthResponse is the success body of the login and register endpoints.
type AuthResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Transcript []chat.Message `json:"transcript"`
	Summary    string         `json:"summary"`
}

type chatResponse struct {
	Chat *struct {
		ID RemoteID `json:"id"`
	} `json:"chat"`
}

type errorBody struct {
	Error string `json:"error"`
}
