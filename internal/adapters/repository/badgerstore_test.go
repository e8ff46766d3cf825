package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/steamcompass/compass/internal/adapters/repository"
	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func game(id int64, name string, stars float64) model.GameMetrics {
	return model.GameMetrics{ExternalID: id, Name: name, StarRating: stars, QualityScore: 50}
}

func TestBadgerStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		ctx := context.Background()
		store, err := repository.NewBadgerStore(ctx)
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		Convey("When metrics are upserted", func() {
			So(store.Upsert(ctx, "alice", game(620, "Portal 2", 4.6)), ShouldBeNil)
			So(store.Upsert(ctx, "alice", game(70, "Half-Life", 4.1)), ShouldBeNil)
			So(store.Upsert(ctx, "alice", game(400, "Portal", 4.6)), ShouldBeNil)
			So(store.Upsert(ctx, "bob", game(620, "Portal 2", 3.0)), ShouldBeNil)

			Convey("Then each user sees only their games by star rating then id", func() {
				list, err := store.ListByUser(ctx, "alice")
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 3)
				So(list[0].ExternalID, ShouldEqual, 400)
				So(list[1].ExternalID, ShouldEqual, 620)
				So(list[2].ExternalID, ShouldEqual, 70)

				bob, err := store.ListByUser(ctx, "bob")
				So(err, ShouldBeNil)
				So(bob, ShouldHaveLength, 1)
				So(bob[0].StarRating, ShouldEqual, 3.0)
				So(store.Count(ctx), ShouldEqual, 4)
			})

			Convey("Then a second upsert replaces the record", func() {
				So(store.Upsert(ctx, "alice", game(620, "Portal 2", 4.7)), ShouldBeNil)
				got, err := store.Get(ctx, "alice", 620)
				So(err, ShouldBeNil)
				So(got.StarRating, ShouldEqual, 4.7)
				So(got.Name, ShouldEqual, "Portal 2")
				So(store.Count(ctx), ShouldEqual, 4)
			})
		})

		Convey("When reading a game that was never stored", func() {
			_, err := store.Get(ctx, "alice", 1)

			Convey("Then it should return ErrNotFound", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing an unknown user", func() {
			list, err := store.ListByUser(ctx, "nobody")

			Convey("Then the list is empty, not nil", func() {
				So(err, ShouldBeNil)
				So(list, ShouldNotBeNil)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When the input is invalid", func() {
			Convey("Then a blank or separator user id is rejected", func() {
				So(errors.Is(store.Upsert(ctx, "", game(1, "x", 1)), repository.ErrInvalidUser), ShouldBeTrue)
				So(errors.Is(store.Upsert(ctx, "a:b", game(1, "x", 1)), repository.ErrInvalidUser), ShouldBeTrue)
			})

			Convey("Then a non-positive game id is rejected", func() {
				So(errors.Is(store.Upsert(ctx, "alice", game(0, "x", 1)), repository.ErrInvalidGame), ShouldBeTrue)
			})
		})

		Convey("When degraded metrics round trip", func() {
			m := game(5, "Obscure", 2.5)
			m.Unavailable = map[model.Source]string{model.SourceScores: "no match"}
			So(store.Upsert(ctx, "alice", m), ShouldBeNil)
			got, err := store.Get(ctx, "alice", 5)

			Convey("Then unavailable reasons survive", func() {
				So(err, ShouldBeNil)
				So(got.Degraded(), ShouldBeTrue)
				So(got.Unavailable[model.SourceScores], ShouldEqual, "no match")
			})
		})

		Convey("When writing concurrently", func() {
			var wg sync.WaitGroup
			for i := 1; i <= 50; i++ {
				wg.Add(1)
				go func(id int64) {
					defer wg.Done()
					_ = store.Upsert(ctx, "carol", game(id, "g", float64(id%5)))
				}(int64(i))
			}
			wg.Wait()

			Convey("Then every record is counted once", func() {
				So(store.Count(ctx), ShouldEqual, 50)
				list, _ := store.ListByUser(ctx, "carol")
				So(list, ShouldHaveLength, 50)
			})
		})

		Convey("When the store is closed", func() {
			So(store.Close(), ShouldBeNil)

			Convey("Then operations fail with ErrClosed", func() {
				So(errors.Is(store.Upsert(ctx, "alice", game(1, "x", 1)), repository.ErrClosed), ShouldBeTrue)
				So(store.Close(), ShouldBeNil)
			})
		})
	})
}

func TestBadgerStoreJobs(t *testing.T) {
	Convey("Given a store", t, func() {
		ctx := context.Background()
		store, err := repository.NewBadgerStore(ctx)
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		Convey("When a job is saved", func() {
			job := model.SyncJob{ID: "job-1", UserID: "alice", Status: model.JobRunning, CreatedAt: time.Unix(100, 0).UTC()}
			So(store.SaveJob(ctx, job), ShouldBeNil)
			job.Status = model.JobDone
			job.Games = 3
			So(store.SaveJob(ctx, job), ShouldBeNil)

			Convey("Then the latest state is returned", func() {
				got, err := store.Job(ctx, "job-1")
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.JobDone)
				So(got.Games, ShouldEqual, 3)
				So(got.CreatedAt.Equal(job.CreatedAt), ShouldBeTrue)
			})
		})

		Convey("When a job is unknown", func() {
			_, err := store.Job(ctx, "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestBadgerStoreOnDisk(t *testing.T) {
	Convey("Given a store on disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		store, err := repository.NewBadgerStore(ctx, repository.WithDir(dir), repository.WithGCInterval(time.Hour))
		So(err, ShouldBeNil)
		So(store.Upsert(ctx, "alice", game(620, "Portal 2", 4.6)), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("When it is reopened", func() {
			reopened, err := repository.NewBadgerStore(ctx, repository.WithDir(dir))
			So(err, ShouldBeNil)
			defer func() { _ = reopened.Close() }()

			Convey("Then records and the count survive", func() {
				So(reopened.Count(ctx), ShouldEqual, 1)
				got, err := reopened.Get(ctx, "alice", 620)
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "Portal 2")
			})
		})
	})
}
