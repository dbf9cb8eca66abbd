package analyses

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// CareerAnalysis is the normalized response schema returned by the API.
// After Normalize, every collection is non-nil (possibly empty) and every
// sub-object is present.
type CareerAnalysis struct {
	CurrentProfile     CurrentProfile     `json:"currentProfile"`
	CareerPaths        []CareerPath       `json:"careerPaths"`
	RecommendedCourses RecommendedCourses `json:"recommendedCourses"`
	Certifications     []Certification    `json:"certifications"`
	LearningRoadmap    LearningRoadmap    `json:"learningRoadmap"`
	CareerTimeline     []TimelineEntry    `json:"careerTimeline"`
}

type CurrentProfile struct {
	CurrentRole     Text  `json:"currentRole"`
	YearsExperience Years `json:"yearsExperience"`
	SalaryRange     Text  `json:"salaryRange"`
	KeyStrengths    List  `json:"keyStrengths"`
	TechnicalSkills List  `json:"technicalSkills"`
	Education       Text  `json:"education"`
}

type CareerPath struct {
	Role              Text     `json:"role"`
	Priority          Priority `json:"priority"`
	Difficulty        Text     `json:"difficulty"`
	Timeframe         Text     `json:"timeframe"`
	SalaryRange       Text     `json:"salaryRange"`
	SeniorSalaryRange Text     `json:"seniorSalaryRange"`
	FitReason         Text     `json:"fitReason"`
	RequiredSkills    List     `json:"requiredSkills"`
}

// RecommendedCourses groups courses by horizon.
type RecommendedCourses struct {
	Immediate []Course `json:"immediate"`
	ShortTerm []Course `json:"shortTerm"`
	LongTerm  []Course `json:"longTerm"`
}

type Course struct {
	Name     Text `json:"name"`
	Platform Text `json:"platform"`
	Duration Text `json:"duration"`
	Cost     Text `json:"cost"`
	Priority Text `json:"priority"`
	Reason   Text `json:"reason"`
	Skills   List `json:"skills"`
	URL      Text `json:"url"`
}

type Certification struct {
	Name           Text `json:"name"`
	Provider       Text `json:"provider"`
	Cost           Text `json:"cost"`
	Difficulty     Text `json:"difficulty"`
	TimeToComplete Text `json:"timeToComplete"`
	Priority       Text `json:"priority"`
	Reason         Text `json:"reason"`
	SalaryImpact   Text `json:"salaryImpact"`
}

type LearningRoadmap struct {
	Phase1 RoadmapPhase `json:"phase1"`
	Phase2 RoadmapPhase `json:"phase2"`
	Phase3 RoadmapPhase `json:"phase3"`
}

type RoadmapPhase struct {
	Title           Text `json:"title"`
	Duration        Text `json:"duration"`
	Focus           Text `json:"focus"`
	ExpectedOutcome Text `json:"expectedOutcome"`
	Items           List `json:"items"`
}

type TimelineEntry struct {
	Timeframe    Text `json:"timeframe"`
	Role         Text `json:"role"`
	Salary       Text `json:"salary"`
	Requirements List `json:"requirements"`
}

// Priority is the career path ranking: High, Medium or Low.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority maps loose model output ("high", "Highest", "LOW") to the
// enum. Anything unrecognized, including the template echo "High/Medium/Low",
// becomes Medium.
func ParsePriority(raw string) Priority {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "/"):
		return PriorityMedium
	case strings.HasPrefix(s, "high"), s == "critical", s == "urgent":
		return PriorityHigh
	case strings.HasPrefix(s, "low"):
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var t Text
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	*p = ParsePriority(string(t))
	return nil
}

// Text is a string that also accepts numbers, booleans, arrays and null
// from the model.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case '[':
		var items List
		if err := items.UnmarshalJSON(data); err != nil {
			return err
		}
		*t = Text(strings.Join(items, ", "))
	case '{':
		*t = ""
	default:
		*t = Text(strings.TrimSpace(string(data)))
	}
	return nil
}

// List is a string sequence that encodes as [] rather than null and accepts
// a bare string as a single element.
type List []string

func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *List) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = List{}
		return nil
	}
	if data[0] != '[' {
		var t Text
		if err := t.UnmarshalJSON(data); err != nil {
			return err
		}
		if t == "" {
			*l = List{}
		} else {
			*l = List{string(t)}
		}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(List, 0, len(raw))
	for _, item := range raw {
		var t Text
		if err := t.UnmarshalJSON(item); err != nil {
			return err
		}
		if t != "" {
			out = append(out, string(t))
		}
	}
	*l = out
	return nil
}

// Years is the experience figure. Models sometimes answer "5+" or
// "3-5 years"; the first number found is used.
type Years float64

var firstNumber = regexp.MustCompile(`\d+(\.\d+)?`)

func (y *Years) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}
	if data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			*y = 0
			return nil
		}
		*y = Years(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	match := firstNumber.FindString(s)
	if match == "" {
		*y = 0
		return nil
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		*y = 0
		return nil
	}
	*y = Years(f)
	return nil
}
