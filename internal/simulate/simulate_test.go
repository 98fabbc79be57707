package simulate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/http/api"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/repository"
	service "github.com/Ayush-Panwar/dsa-tracker-sub001/internal/app"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/simulate"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
)

const testSecret = "sim-secret"

func init() {
	logger.Init()
}

func TestRun(t *testing.T) {
	Convey("Given a running ingestion API", t, func() {
		store := repository.NewMemStore()
		svc := service.New(service.WithStore(store))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, api.NewJWTValidator(testSecret), "").Register(context.Background(), mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, api.Claims{
			Sub: "simulator",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := token.SignedString([]byte(testSecret))
		So(err, ShouldBeNil)

		Convey("When a deterministic simulation runs", func() {
			stats, err := simulate.Run(context.Background(), &simulate.Config{
				BaseURL:          ts.URL,
				Token:            signed,
				Submissions:      20,
				AcceptRate:       0.5,
				Timeout:          5 * time.Second,
				Seed:             42,
				PendingTTL:       time.Minute,
				SweepInterval:    time.Second,
				BusCapacity:      64,
				ForwardBatchSize: 2,
			})

			Convey("Then every accepted submission is delivered", func() {
				So(err, ShouldBeNil)
				So(stats.Submitted, ShouldEqual, 20)
				So(stats.Accepted+stats.Rejected, ShouldEqual, 20)
				So(stats.Undelivered, ShouldEqual, 0)
				So(stats.Delivered, ShouldEqual, stats.Accepted)
			})

			Convey("And the delivered events are visible in the store", func() {
				So(err, ShouldBeNil)
				solved := 0
				_ = store.InTx(context.Background(), "simulator", func(tx repository.Tx) error {
					stats2, err := tx.Statistics()
					So(err, ShouldBeNil)
					solved = stats2.TotalSolved
					return nil
				})
				So(solved, ShouldEqual, stats.Accepted)
			})
		})

		Convey("When the API is unreachable", func() {
			_, err := simulate.Run(context.Background(), &simulate.Config{
				BaseURL:     "http://127.0.0.1:1",
				Token:       signed,
				Submissions: 1,
				AcceptRate:  1,
				Timeout:     time.Second,
			})

			Convey("Then the health check fails fast", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})
}
