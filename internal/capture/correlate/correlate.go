// Package correlate matches status polls to captured submissions.
//
// The judge site reports verdicts in several response dialects. Each dialect
// is an explicit predicate evaluated in priority order; the first match
// decides acceptance. No match means the verdict is not yet decided and the
// pending entry is left untouched for a future poll.
package correlate

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// acceptedStatusCode is the judge's numeric code for an accepted verdict.
const acceptedStatusCode = 10

// Poll URL shapes carrying the submission id, first match wins.
var (
	reDetailCheck  = regexp.MustCompile(`/submissions/detail/(\d+)/check`)
	reSubmissionID = regexp.MustCompile(`/submissions/(\d+)/?$`)
	reCheckID      = regexp.MustCompile(`/check/(\d+)`)
)

// PollID extracts the polled submission id from a status-poll call. URL
// shapes are tried first, then the structured body's query variables.
func PollID(rawURL string, body []byte) (string, bool) {
	u, err := url.Parse(rawURL)
	if err == nil {
		for _, re := range []*regexp.Regexp{reDetailCheck, reSubmissionID, reCheckID} {
			if m := re.FindStringSubmatch(u.Path); m != nil {
				return m[1], true
			}
		}
		q := u.Query()
		for _, key := range []string{"submission_id", "submissionId"} {
			if v := q.Get(key); v != "" {
				return v, true
			}
		}
	}

	// Query-style polls carry the id in variables.
	var probe struct {
		Variables map[string]interface{} `json:"variables"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Variables != nil {
		if id := stringField(probe.Variables, "submissionId", "submission_id", "id"); id != "" {
			return id, true
		}
	}
	return "", false
}

// Verdict is the outcome read from a poll response.
type Verdict struct {
	Accepted bool
	Runtime  string
	Memory   string
}

// dialect pairs a name with an acceptance predicate over one response shape.
type dialect struct {
	name     string
	accepted func(obj map[string]interface{}) bool
}

// dialects in priority order; the first matching predicate decides.
var dialects = []dialect{
	{name: "status_msg", accepted: func(obj map[string]interface{}) bool {
		return stringField(obj, "status_msg", "statusDisplay") == "Accepted"
	}},
	{name: "status_code", accepted: func(obj map[string]interface{}) bool {
		n, ok := intField(obj, "status_code", "statusCode")
		return ok && n == acceptedStatusCode
	}},
	{name: "state", accepted: func(obj map[string]interface{}) bool {
		return stringField(obj, "state", "judgeResult") == "SUCCESS"
	}},
	{name: "status", accepted: func(obj map[string]interface{}) bool {
		return stringField(obj, "status") == "Accepted"
	}},
}

// Evaluate inspects a poll response body. The same predicates run against the
// top-level object and one nested submission-details level.
func Evaluate(body []byte) Verdict {
	obj, ok := parseObject(body)
	if !ok {
		return Verdict{}
	}
	for _, candidate := range candidates(obj) {
		for _, d := range dialects {
			if d.accepted(candidate) {
				return Verdict{
					Accepted: true,
					Runtime:  stringField(candidate, "status_runtime", "statusRuntime", "runtime"),
					Memory:   stringField(candidate, "status_memory", "statusMemory", "memory"),
				}
			}
		}
	}
	return Verdict{}
}

// candidates returns the response objects to probe: the root first, then the
// known submission-details nesting levels.
func candidates(obj map[string]interface{}) []map[string]interface{} {
	out := []map[string]interface{}{obj}
	for _, key := range []string{"submissionDetails", "submission_details", "data"} {
		nested, ok := obj[key].(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, nested)
		if deep, ok := nested["submissionDetails"].(map[string]interface{}); ok {
			out = append(out, deep)
		}
	}
	return out
}

func parseObject(body []byte) (map[string]interface{}, bool) {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func stringField(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return ""
}

// intField reads a numeric field, tolerating both JSON numbers and numeric
// strings; judge responses are observed in both forms.
func intField(obj map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case float64:
			return int(val), true
		case string:
			if n, err := strconv.Atoi(val); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
