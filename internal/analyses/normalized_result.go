package analyses

import (
	"encoding/json"
	"strings"

	"career-backend/internal/shared/telemetry"
)

const fence = "```"

// StripFences removes a leading ```lang line and a trailing ``` marker.
// Content without fences is returned unchanged.
func StripFences(s string) string {
	out := s
	for {
		trimmed := strings.TrimSpace(out)
		changed := false
		if strings.HasPrefix(trimmed, fence) {
			if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
				trimmed = trimmed[nl+1:]
			} else {
				trimmed = strings.TrimLeft(trimmed, "`")
			}
			changed = true
		}
		if strings.HasSuffix(trimmed, fence) {
			trimmed = strings.TrimSuffix(trimmed, fence)
			changed = true
		}
		if !changed {
			return out
		}
		out = strings.TrimSpace(trimmed)
	}
}

// ExtractObject scans s for balanced {...} spans, ignoring braces inside
// JSON strings, and returns the first one that parses as a JSON object.
// An unclosed brace is skipped and the scan resumes at the next one.
func ExtractObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		resume := start + 1
		if end := matchBrace(s, start); end >= 0 {
			candidate := s[start : end+1]
			if isJSONObject(candidate) {
				return candidate, true
			}
			resume = end + 1
		}
		next := strings.IndexByte(s[resume:], '{')
		if next < 0 {
			return "", false
		}
		start = resume + next
	}
	return "", false
}

// matchBrace returns the index of the brace closing s[start], or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isJSONObject(s string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil && obj != nil
}

// Normalize turns a raw model reply into a CareerAnalysis. It strips
// fences, parses directly or falls back to the first balanced object,
// checks the required top-level shape and fills absent optional sections
// with empty values.
func Normalize(raw string) (CareerAnalysis, error) {
	candidate := strings.TrimSpace(StripFences(raw))
	if candidate == "" {
		return CareerAnalysis{}, malformed(raw, "empty reply", nil)
	}
	if !isJSONObject(candidate) {
		extracted, ok := ExtractObject(candidate)
		if !ok {
			return CareerAnalysis{}, malformed(raw, "no JSON object found", nil)
		}
		candidate = extracted
	}

	if err := validateShape([]byte(candidate)); err != nil {
		return CareerAnalysis{}, malformed(raw, "schema mismatch", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &top); err != nil {
		return CareerAnalysis{}, malformed(raw, "invalid JSON", err)
	}

	var out CareerAnalysis
	if err := json.Unmarshal(top["currentProfile"], &out.CurrentProfile); err != nil {
		return CareerAnalysis{}, malformed(raw, "currentProfile", err)
	}
	if err := json.Unmarshal(top["careerPaths"], &out.CareerPaths); err != nil {
		return CareerAnalysis{}, malformed(raw, "careerPaths", err)
	}
	decodeOptional(top, "recommendedCourses", &out.RecommendedCourses)
	decodeOptional(top, "certifications", &out.Certifications)
	decodeOptional(top, "learningRoadmap", &out.LearningRoadmap)
	decodeOptional(top, "careerTimeline", &out.CareerTimeline)

	fillDefaults(&out)
	return out, nil
}

// decodeOptional leaves *dst at its zero value when the section is absent
// or any part of it has the wrong shape. Partial decodes are discarded.
func decodeOptional[T any](top map[string]json.RawMessage, key string, dst *T) {
	section, ok := top[key]
	if !ok {
		return
	}
	var decoded T
	if err := json.Unmarshal(section, &decoded); err != nil {
		telemetry.Warn("analysis.section_dropped", map[string]any{
			"section": key,
			"error":   err,
		})
		return
	}
	*dst = decoded
}

func fillDefaults(a *CareerAnalysis) {
	p := &a.CurrentProfile
	p.KeyStrengths = nonNil(p.KeyStrengths)
	p.TechnicalSkills = nonNil(p.TechnicalSkills)

	if a.CareerPaths == nil {
		a.CareerPaths = []CareerPath{}
	}
	for i := range a.CareerPaths {
		cp := &a.CareerPaths[i]
		if cp.Priority == "" {
			cp.Priority = PriorityMedium
		}
		cp.RequiredSkills = nonNil(cp.RequiredSkills)
	}

	rc := &a.RecommendedCourses
	rc.Immediate = fillCourses(rc.Immediate)
	rc.ShortTerm = fillCourses(rc.ShortTerm)
	rc.LongTerm = fillCourses(rc.LongTerm)

	if a.Certifications == nil {
		a.Certifications = []Certification{}
	}

	for _, phase := range []*RoadmapPhase{&a.LearningRoadmap.Phase1, &a.LearningRoadmap.Phase2, &a.LearningRoadmap.Phase3} {
		phase.Items = nonNil(phase.Items)
	}

	if a.CareerTimeline == nil {
		a.CareerTimeline = []TimelineEntry{}
	}
	for i := range a.CareerTimeline {
		a.CareerTimeline[i].Requirements = nonNil(a.CareerTimeline[i].Requirements)
	}
}

func fillCourses(courses []Course) []Course {
	if courses == nil {
		return []Course{}
	}
	for i := range courses {
		courses[i].Skills = nonNil(courses[i].Skills)
	}
	return courses
}

func nonNil(l List) List {
	if l == nil {
		return List{}
	}
	return l
}
