package extract_test

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/extract"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeEditor struct {
	code    string
	present bool
}

func (f *fakeEditor) CurrentCode() (string, bool) { return f.code, f.present }

func multipartBody(fields map[string]string) (string, []byte) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	_ = w.Close()
	return w.FormDataContentType(), buf.Bytes()
}

func TestSubmissionEncodings(t *testing.T) {
	Convey("Given the five payload encodings", t, func() {
		Convey("When the body is multipart/form", func() {
			ct, body := multipartBody(map[string]string{
				"lang":        "python3",
				"typed_code":  "def f(): pass",
				"question_id": "42",
			})
			p := extract.Submission(ct, body, nil)

			Convey("Then all fields should be recovered", func() {
				So(p.Language, ShouldEqual, "python3")
				So(p.Code, ShouldEqual, "def f(): pass")
				So(p.ProblemID, ShouldEqual, "42")
			})
		})

		Convey("When the body is a URL-encoded form", func() {
			body := []byte("lang=golang&code=package+main&questionId=7")
			p := extract.Submission("application/x-www-form-urlencoded", body, nil)

			Convey("Then alias fields should be recovered", func() {
				So(p.Language, ShouldEqual, "golang")
				So(p.Code, ShouldEqual, "package main")
				So(p.ProblemID, ShouldEqual, "7")
			})
		})

		Convey("When the body is a query-style submission operation", func() {
			body := []byte(`{"operationName":"submitCode","variables":{"languageSlug":"cpp","typedCode":"int main(){}","titleSlug":"two-sum"}}`)
			p := extract.Submission("application/json", body, nil)

			Convey("Then variables should be read", func() {
				So(p.Language, ShouldEqual, "cpp")
				So(p.Code, ShouldEqual, "int main(){}")
				So(p.ProblemID, ShouldEqual, "two-sum")
			})
		})

		Convey("When the body is plain JSON", func() {
			body := []byte(`{"language":"rust","submission_code":"fn main(){}","question_id":99}`)
			p := extract.Submission("application/json", body, nil)

			Convey("Then top-level aliases should be read and ids stringified", func() {
				So(p.Language, ShouldEqual, "rust")
				So(p.Code, ShouldEqual, "fn main(){}")
				So(p.ProblemID, ShouldEqual, "99")
			})
		})

		Convey("When no encoding carries code but an editor is present", func() {
			body := []byte(`{"lang":"java","question_id":"5"}`)
			p := extract.Submission("application/json", body, &fakeEditor{code: "class A {}", present: true})

			Convey("Then the editor buffer should supply the code", func() {
				So(p.Code, ShouldEqual, "class A {}")
				So(p.Language, ShouldEqual, "java")
				So(p.ProblemID, ShouldEqual, "5")
			})
		})
	})
}

func TestSubmissionMissingFields(t *testing.T) {
	Convey("Given fixtures with absent fields", t, func() {
		Convey("When a multipart body lacks question_id", func() {
			ct, body := multipartBody(map[string]string{"lang": "python3", "typed_code": "x = 1"})
			p := extract.Submission(ct, body, nil)

			Convey("Then the missing field is simply empty", func() {
				So(p.Language, ShouldEqual, "python3")
				So(p.ProblemID, ShouldEqual, "")
			})
		})

		Convey("When the body is unparseable garbage", func() {
			p := extract.Submission("application/json", []byte("{{{nope"), nil)

			Convey("Then extraction degrades to an empty payload without error", func() {
				So(p, ShouldResemble, extract.Payload{})
			})
		})

		Convey("When the editor has no buffer either", func() {
			p := extract.Submission("application/json", []byte(`{"lang":"go"}`), &fakeEditor{present: false})
			So(p.Code, ShouldEqual, "")
			So(p.Language, ShouldEqual, "go")
		})
	})
}

func TestSubmissionID(t *testing.T) {
	Convey("Given submit response shapes", t, func() {
		Convey("Then each identifier alias should be found in priority order", func() {
			cases := map[string]string{
				`{"submission_id": 12345}`:                 "12345",
				`{"submissionId": "67890"}`:                "67890",
				`{"data":{"submitCode":{"id":"111"}}}`:     "111",
				`{"result":{"submissionId":222}}`:          "222",
				`{"interpret_id":"interpret_333"}`:         "interpret_333",
				`{"submission_id":"1","submissionId":"2"}`: "1",
			}
			for body, want := range cases {
				id, ok := extract.SubmissionID([]byte(body))
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, want)
			}
		})

		Convey("When no identifier is present", func() {
			id, ok := extract.SubmissionID([]byte(`{"state":"STARTED"}`))

			Convey("Then it reports absence, not an error", func() {
				So(ok, ShouldBeFalse)
				So(id, ShouldEqual, "")
			})
		})

		Convey("When the body is not JSON", func() {
			_, ok := extract.SubmissionID([]byte("<html>"))
			So(ok, ShouldBeFalse)
		})
	})
}
