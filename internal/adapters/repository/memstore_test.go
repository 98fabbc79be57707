package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/repository"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStoreBasics(t *testing.T) {
	Convey("Given an empty in-memory store", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()

		Convey("When a problem and submission are created in one transaction", func() {
			err := store.InTx(ctx, "alice", func(tx repository.Tx) error {
				p, err := tx.CreateProblem(model.Problem{
					PlatformID: "42",
					Title:      "Problem 42",
					Difficulty: model.DifficultyMedium,
					Status:     model.StatusSolved,
				})
				if err != nil {
					return err
				}
				_, err = tx.CreateSubmission(model.Submission{
					ProblemID:  p.ID,
					ExternalID: "12345",
					Status:     "Accepted",
					Language:   "python3",
				})
				return err
			})
			So(err, ShouldBeNil)

			Convey("Then a later transaction sees both records", func() {
				err := store.InTx(ctx, "alice", func(tx repository.Tx) error {
					p, err := tx.ProblemByPlatformID("42")
					So(err, ShouldBeNil)
					So(p.Title, ShouldEqual, "Problem 42")
					s, err := tx.SubmissionByExternalID(p.ID, "12345")
					So(err, ShouldBeNil)
					So(s.Language, ShouldEqual, "python3")
					return nil
				})
				So(err, ShouldBeNil)
			})

			Convey("And another owner sees nothing", func() {
				err := store.InTx(ctx, "bob", func(tx repository.Tx) error {
					_, err := tx.ProblemByPlatformID("42")
					So(err, ShouldEqual, repository.ErrNotFound)
					return nil
				})
				So(err, ShouldBeNil)
			})
		})

		Convey("When a transaction returns an error", func() {
			boom := repository.ErrNotFound
			err := store.InTx(ctx, "alice", func(tx repository.Tx) error {
				_, _ = tx.CreateProblem(model.Problem{PlatformID: "7", Title: "x"})
				return boom
			})

			Convey("Then nothing is committed", func() {
				So(err, ShouldEqual, boom)
				_ = store.InTx(ctx, "alice", func(tx repository.Tx) error {
					_, err := tx.ProblemByPlatformID("7")
					So(err, ShouldEqual, repository.ErrNotFound)
					return nil
				})
			})
		})
	})
}

func TestMemStoreLazyRows(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()
		day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

		Convey("Statistics and activity rows appear zeroed on first access", func() {
			err := store.InTx(ctx, "alice", func(tx repository.Tx) error {
				stats, err := tx.Statistics()
				So(err, ShouldBeNil)
				So(stats.TotalSolved, ShouldEqual, 0)

				stats.TotalSolved = 1
				stats.Streak = 1
				So(tx.SaveStatistics(stats), ShouldBeNil)

				act, err := tx.ActivityOn(day)
				So(err, ShouldBeNil)
				So(act.ProblemsSolved, ShouldEqual, 0)
				act.ProblemsSolved++
				return tx.SaveActivity(act)
			})
			So(err, ShouldBeNil)

			err = store.InTx(ctx, "alice", func(tx repository.Tx) error {
				stats, err := tx.Statistics()
				So(err, ShouldBeNil)
				So(stats.TotalSolved, ShouldEqual, 1)
				act, err := tx.ActivityOn(day)
				So(err, ShouldBeNil)
				So(act.ProblemsSolved, ShouldEqual, 1)
				return nil
			})
			So(err, ShouldBeNil)
		})

		Convey("EnsureTags creates missing tags once", func() {
			err := store.InTx(ctx, "alice", func(tx repository.Tx) error {
				first, err := tx.EnsureTags([]string{"array", "dp"})
				So(err, ShouldBeNil)
				So(first, ShouldHaveLength, 2)
				second, err := tx.EnsureTags([]string{"dp", "graph"})
				So(err, ShouldBeNil)
				So(second, ShouldHaveLength, 2)
				So(second[0].ID, ShouldEqual, first[1].ID)
				return nil
			})
			So(err, ShouldBeNil)
		})
	})
}

func TestMemStoreConflicts(t *testing.T) {
	Convey("Given two transactions racing on the same owner", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()

		release := make(chan struct{})
		started := make(chan struct{})
		var slowErr error
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			slowErr = store.InTx(ctx, "alice", func(tx repository.Tx) error {
				close(started)
				<-release
				_, err := tx.CreateProblem(model.Problem{PlatformID: "slow", Title: "slow"})
				return err
			})
		}()

		<-started
		fastErr := store.InTx(ctx, "alice", func(tx repository.Tx) error {
			_, err := tx.CreateProblem(model.Problem{PlatformID: "fast", Title: "fast"})
			return err
		})
		close(release)
		wg.Wait()

		Convey("Then the first committer wins and the loser gets ErrConflict", func() {
			So(fastErr, ShouldBeNil)
			So(slowErr, ShouldEqual, repository.ErrConflict)
		})

		Convey("And transactions for different owners never conflict", func() {
			So(store.InTx(ctx, "bob", func(tx repository.Tx) error {
				_, err := tx.CreateProblem(model.Problem{PlatformID: "b1", Title: "b"})
				return err
			}), ShouldBeNil)
		})
	})
}

func TestMemStoreDeleteProblem(t *testing.T) {
	Convey("Given a problem with submissions", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()
		So(store.InTx(ctx, "alice", func(tx repository.Tx) error {
			p, err := tx.CreateProblem(model.Problem{PlatformID: "42", Title: "t"})
			if err != nil {
				return err
			}
			_, err = tx.CreateSubmission(model.Submission{ProblemID: p.ID, ExternalID: "1"})
			return err
		}), ShouldBeNil)

		Convey("When the problem is deleted by platform id", func() {
			So(store.InTx(ctx, "alice", func(tx repository.Tx) error {
				return tx.DeleteProblem("42")
			}), ShouldBeNil)

			Convey("Then the problem and its submissions are gone", func() {
				_ = store.InTx(ctx, "alice", func(tx repository.Tx) error {
					_, err := tx.ProblemByPlatformID("42")
					So(err, ShouldEqual, repository.ErrNotFound)
					return nil
				})
			})
		})

		Convey("When deleting an unknown problem", func() {
			err := store.InTx(ctx, "alice", func(tx repository.Tx) error {
				return tx.DeleteProblem("nope")
			})
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}
