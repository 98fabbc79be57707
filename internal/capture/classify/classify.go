// Package classify decides what an outbound call is before it leaves the page.
//
// Classification is a pure shape check over (method, URL, body). It has no
// side effects, adds no latency beyond the check itself, and never panics
// outward: any internal failure degrades to Passthrough so user traffic is
// never blocked by a capture bug.
package classify

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

// Kind is the classification of an outbound call.
type Kind string

const (
	// Passthrough is traffic the capture pipeline does not touch.
	Passthrough Kind = "passthrough"
	// Submission is a call submitting code for judging.
	Submission Kind = "submission"
	// StatusPoll is a follow-up call checking a judging verdict.
	StatusPoll Kind = "statusPoll"
)

// Poll URL shapes, first match wins.
var (
	reDetailCheck  = regexp.MustCompile(`/submissions/detail/(\d+)/check`)
	reSubmissionID = regexp.MustCompile(`/submissions/(\d+)/?$`)
	reCheckID      = regexp.MustCompile(`/check/(\d+)`)
)

// Classify returns the kind of an outbound call.
func Classify(method, rawURL string, body []byte) (kind Kind) {
	// Fail open: a classification bug must not block the call.
	defer func() {
		if recover() != nil {
			kind = Passthrough
		}
	}()

	u, err := url.Parse(rawURL)
	if err != nil {
		return Passthrough
	}
	path := u.Path

	if isGraphQLPath(path) {
		// Generic query-style endpoint: the body decides.
		if len(body) > 0 && referencesSubmissionDetails(body) {
			return StatusPoll
		}
		if isMutating(method) && len(body) > 0 {
			return Submission
		}
		return Passthrough
	}

	if isMutating(method) && len(body) > 0 && isSubmissionPath(path) {
		return Submission
	}

	if isPollShape(u) {
		return StatusPoll
	}

	return Passthrough
}

// isMutating reports whether the method is a mutating verb.
func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case "POST", "PUT", "PATCH":
		return true
	default:
		return false
	}
}

// isSubmissionPath matches /submit, /submissions/ and /problems/<id>/submit
// shaped targets via their path segments.
func isSubmissionPath(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if seg == "submit" || seg == "submissions" {
			return true
		}
	}
	return false
}

func isGraphQLPath(path string) bool {
	return strings.HasSuffix(strings.TrimSuffix(path, "/"), "graphql")
}

// isPollShape matches detail/check paths carrying a numeric id and query
// parameters resembling a submission id.
func isPollShape(u *url.URL) bool {
	path := u.Path
	if reDetailCheck.MatchString(path) || reSubmissionID.MatchString(path) || reCheckID.MatchString(path) {
		return true
	}
	q := u.Query()
	for _, key := range []string{"submission_id", "submissionId"} {
		if q.Get(key) != "" {
			return true
		}
	}
	return false
}

// referencesSubmissionDetails reports whether a query-style body asks for a
// submission details operation.
func referencesSubmissionDetails(body []byte) bool {
	var probe struct {
		OperationName string `json:"operationName"`
		Query         string `json:"query"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	hay := strings.ToLower(probe.OperationName + " " + probe.Query)
	return strings.Contains(hay, "submissiondetails")
}
