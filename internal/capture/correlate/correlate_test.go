package correlate_test

import (
	"testing"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/correlate"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPollID(t *testing.T) {
	Convey("Given the four status-poll URL shapes", t, func() {
		cases := []string{
			"https://judge.example.com/submissions/detail/12345/check/",
			"https://judge.example.com/api/submissions/12345",
			"https://judge.example.com/judge/check/12345",
			"https://judge.example.com/status?submission_id=12345",
		}

		Convey("Then each should yield the same submission id", func() {
			for _, raw := range cases {
				id, ok := correlate.PollID(raw, nil)
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, "12345")
			}
		})

		Convey("When the id travels in query variables instead", func() {
			body := []byte(`{"operationName":"submissionDetails","variables":{"submissionId":12345}}`)
			id, ok := correlate.PollID("https://judge.example.com/graphql", body)

			Convey("Then the body fallback should find it", func() {
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, "12345")
			})
		})

		Convey("When no shape matches", func() {
			_, ok := correlate.PollID("https://judge.example.com/problems/", nil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given the known verdict dialects", t, func() {
		Convey("Then each accepted shape should be recognized", func() {
			accepted := []string{
				`{"status_msg":"Accepted","status_runtime":"4 ms"}`,
				`{"statusDisplay":"Accepted"}`,
				`{"status_code":10}`,
				`{"statusCode":"10"}`,
				`{"state":"SUCCESS"}`,
				`{"judgeResult":"SUCCESS"}`,
				`{"status":"Accepted"}`,
				`{"data":{"submissionDetails":{"statusDisplay":"Accepted","runtime":"52 ms"}}}`,
				`{"submissionDetails":{"status_code":10}}`,
			}
			for _, body := range accepted {
				So(correlate.Evaluate([]byte(body)).Accepted, ShouldBeTrue)
			}
		})

		Convey("Then undecided or failed shapes should not be accepted", func() {
			undecided := []string{
				`{"state":"PENDING"}`,
				`{"status_msg":"Wrong Answer","status_code":11}`,
				`{"statusCode":20}`,
				`{"status":"Queued"}`,
				`{}`,
				`not json`,
			}
			for _, body := range undecided {
				So(correlate.Evaluate([]byte(body)).Accepted, ShouldBeFalse)
			}
		})

		Convey("When the verdict carries runtime and memory", func() {
			v := correlate.Evaluate([]byte(`{"status_code":10,"status_runtime":"4 ms","status_memory":"14.2 MB"}`))

			Convey("Then the metadata should ride along", func() {
				So(v.Accepted, ShouldBeTrue)
				So(v.Runtime, ShouldEqual, "4 ms")
				So(v.Memory, ShouldEqual, "14.2 MB")
			})
		})

		Convey("When metadata is nested one level down", func() {
			v := correlate.Evaluate([]byte(`{"data":{"submissionDetails":{"statusDisplay":"Accepted","runtime":"52 ms","memory":"9.1 MB"}}}`))
			So(v.Accepted, ShouldBeTrue)
			So(v.Runtime, ShouldEqual, "52 ms")
			So(v.Memory, ShouldEqual, "9.1 MB")
		})
	})
}
