package classify_test

import (
	"testing"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/classify"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifySubmission(t *testing.T) {
	Convey("Given submission-shaped calls", t, func() {
		body := []byte(`{"lang":"python3"}`)

		Convey("Then mutating calls to submit paths should classify as submission", func() {
			So(classify.Classify("POST", "https://judge.example.com/problems/two-sum/submit/", body), ShouldEqual, classify.Submission)
			So(classify.Classify("POST", "https://judge.example.com/submit", body), ShouldEqual, classify.Submission)
			So(classify.Classify("PUT", "https://judge.example.com/api/submissions/", body), ShouldEqual, classify.Submission)
		})

		Convey("And a query-style endpoint with a mutating body should too", func() {
			gql := []byte(`{"operationName":"submitCode","variables":{"lang":"go"}}`)
			So(classify.Classify("POST", "https://judge.example.com/graphql", gql), ShouldEqual, classify.Submission)
			So(classify.Classify("POST", "https://judge.example.com/graphql/", gql), ShouldEqual, classify.Submission)
		})

		Convey("But a submit path without a body should not", func() {
			So(classify.Classify("POST", "https://judge.example.com/submit", nil), ShouldEqual, classify.Passthrough)
		})

		Convey("And a non-mutating verb should not", func() {
			So(classify.Classify("GET", "https://judge.example.com/problems/two-sum/submit/", body), ShouldEqual, classify.Passthrough)
		})
	})
}

func TestClassifyStatusPoll(t *testing.T) {
	Convey("Given poll-shaped calls", t, func() {
		Convey("Then all four URL shapes should classify as status polls", func() {
			So(classify.Classify("GET", "https://judge.example.com/submissions/detail/12345/check/", nil), ShouldEqual, classify.StatusPoll)
			So(classify.Classify("GET", "https://judge.example.com/api/submissions/12345", nil), ShouldEqual, classify.StatusPoll)
			So(classify.Classify("GET", "https://judge.example.com/judge/check/12345", nil), ShouldEqual, classify.StatusPoll)
			So(classify.Classify("GET", "https://judge.example.com/status?submission_id=12345", nil), ShouldEqual, classify.StatusPoll)
		})

		Convey("And a query-style body referencing submission details should too", func() {
			gql := []byte(`{"operationName":"submissionDetails","variables":{"submissionId":12345}}`)
			So(classify.Classify("POST", "https://judge.example.com/graphql", gql), ShouldEqual, classify.StatusPoll)
		})
	})
}

func TestClassifyPassthrough(t *testing.T) {
	Convey("Given unrelated traffic", t, func() {
		Convey("Then it should pass through untouched", func() {
			So(classify.Classify("GET", "https://judge.example.com/problems/", nil), ShouldEqual, classify.Passthrough)
			So(classify.Classify("POST", "https://judge.example.com/api/login", []byte(`{}`)), ShouldEqual, classify.Passthrough)
			So(classify.Classify("GET", "https://cdn.example.com/bundle.js", nil), ShouldEqual, classify.Passthrough)
		})

		Convey("And malformed input should never panic", func() {
			So(func() {
				classify.Classify("POST", "://not a url", []byte("{broken"))
			}, ShouldNotPanic)
			So(classify.Classify("POST", "://not a url", []byte("{broken")), ShouldEqual, classify.Passthrough)
		})

		Convey("And a submissions path with a slug id is not a poll", func() {
			So(classify.Classify("GET", "https://judge.example.com/submissions/latest", nil), ShouldEqual, classify.Passthrough)
		})
	})
}
