package model_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/steamcompass/compass/internal/domain/model"
)

func TestSignal(t *testing.T) {
	Convey("Given signal outcomes", t, func() {
		Convey("When a value was fetched", func() {
			s := model.Success(42)

			Convey("Then it should expose the value", func() {
				v, ok := s.Value()
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 42)
				So(s.OK(), ShouldBeTrue)
				So(s.Reason(), ShouldBeEmpty)
				So(s.OrElse(7), ShouldEqual, 42)
			})
		})

		Convey("When the source had nothing", func() {
			s := model.Unavailable[model.Scores]("no match")

			Convey("Then it should carry the reason and fall back", func() {
				So(s.OK(), ShouldBeFalse)
				So(s.Reason(), ShouldEqual, "no match")
				So(s.OrElse(model.Scores{}).Empty(), ShouldBeTrue)
			})
		})

		Convey("When no reason is given", func() {
			s := model.Unavailable[int]("")

			Convey("Then a generic reason should be recorded", func() {
				So(s.Reason(), ShouldEqual, "unavailable")
			})
		})
	})
}

func TestReviewSentiment(t *testing.T) {
	Convey("Given review counts", t, func() {
		Convey("When there are reviews", func() {
			r := model.ReviewSentiment{Positive: 98, Negative: 2}

			Convey("Then the percentage should be the positive share", func() {
				pct, ok := r.Percentage()
				So(ok, ShouldBeTrue)
				So(pct, ShouldEqual, 98.0)
				So(r.Total(), ShouldEqual, 100)
			})
		})

		Convey("When there are no reviews", func() {
			r := model.ReviewSentiment{}

			Convey("Then there should be no percentage", func() {
				_, ok := r.Percentage()
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestCompletionHours(t *testing.T) {
	Convey("Given completion estimates", t, func() {
		zero := 0.0
		eight := 8.0

		So(model.CompletionHours{}.Empty(), ShouldBeTrue)
		So(model.CompletionHours{Main: &zero}.Empty(), ShouldBeTrue)
		So(model.CompletionHours{Completionist: &eight}.Empty(), ShouldBeFalse)
	})
}

func TestGameMetrics(t *testing.T) {
	Convey("Given computed metrics", t, func() {
		Convey("When every signal was sourced", func() {
			m := model.GameMetrics{
				ExternalID:     620,
				Name:           "Portal 2",
				ReviewPositive: 3,
				ReviewNegative: 1,
				Completeness:   model.Completeness{CriticScore: true, UserScore: true, Reviews: true, CompletionHours: true},
			}

			Convey("Then it should not be degraded", func() {
				So(m.Degraded(), ShouldBeFalse)
				So(m.Completeness.Full(), ShouldBeTrue)
				So(m.PositivePercentage(), ShouldEqual, 75)
			})
		})

		Convey("When a source was unavailable", func() {
			m := model.GameMetrics{Unavailable: map[model.Source]string{model.SourceReviews: "timeout"}}

			Convey("Then it should be degraded with a zero percentage", func() {
				So(m.Degraded(), ShouldBeTrue)
				So(m.PositivePercentage(), ShouldEqual, 0)
			})
		})
	})
}

func TestGameIdentity(t *testing.T) {
	Convey("Given an owned game", t, func() {
		So(model.GameIdentity{OwnedPlaytimeMinutes: 150}.PlaytimeHours(), ShouldEqual, 3.0)
		So(model.GameIdentity{OwnedPlaytimeMinutes: 0}.PlaytimeHours(), ShouldEqual, 0.0)
	})
}

func TestBatchResultAndJob(t *testing.T) {
	Convey("Given run bookkeeping", t, func() {
		start := time.Now()
		r := model.BatchResult{StartedAt: start, FinishedAt: start.Add(3 * time.Second)}
		So(r.Duration(), ShouldEqual, 3*time.Second)
		So(model.BatchResult{StartedAt: start, FinishedAt: start.Add(-time.Second)}.Duration(), ShouldEqual, time.Duration(0))

		So(model.SyncJob{Status: model.JobQueued}.Finished(), ShouldBeFalse)
		So(model.SyncJob{Status: model.JobDone}.Finished(), ShouldBeTrue)
		So(model.SyncJob{Status: model.JobFailed}.Finished(), ShouldBeTrue)
	})
}
