package grading

import "strings"

// ParseKey splits a stored correct answer into an answer key. Text and
// numeric answers separate alternatives or tolerances with "|" ("их|они",
// "3.14|tol=0.01"); checkbox and match keys are comma lists ("0,2",
// "1,3,5"). An essay has no key beyond its raw text.
func ParseKey(qtype, raw string) []string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil
	case qtype == TypeTextarea:
		return []string{raw}
	case qtype == TypeCheckbox || qtype == TypeMatch:
		return splitTrim(raw, ",")
	default:
		return splitTrim(raw, "|")
	}
}

// answerList reads a list answer. The form posts "0,2"; JSON clients send an
// array.
func answerList(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return splitTrim(t, ","), true
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out, true
	}
	return nil, false
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
