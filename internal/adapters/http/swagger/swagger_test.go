package swagger_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/http/swagger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegister(t *testing.T) {
	Convey("Given the docs routes are registered", t, func() {
		mux := http.NewServeMux()
		swagger.Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("The spec is served as YAML", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "yaml")
			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(body), ShouldContainSubstring, "/track")
			So(string(body), ShouldContainSubstring, "/offline-sync")
		})

		Convey("The docs page is served as HTML", func() {
			resp, err := http.Get(srv.URL + "/api-docs")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "text/html")
		})
	})

	Convey("Registering on a nil mux panics", t, func() {
		So(func() { swagger.Register(context.Background(), nil) }, ShouldPanic)
	})
}
