package scoring_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/scoring"
)

func TestPriority(t *testing.T) {
	Convey("Given stored metrics", t, func() {
		Convey("When a short highly rated game is unplayed", func() {
			m := model.GameMetrics{StarRating: 4.0, EstimatedHours: 8, HoursSource: model.HoursMain}

			Convey("Then priority should cap at 100", func() {
				So(scoring.Priority(m), ShouldEqual, 100)
			})
		})

		Convey("When a medium game is partly played", func() {
			m := model.GameMetrics{StarRating: 3.0, EstimatedHours: 20, HoursSource: model.HoursMain, PlaytimeMinutes: 300}

			Convey("Then it should get the in-progress bonus", func() {
				So(scoring.Priority(m), ShouldEqual, 90)
			})
		})

		Convey("When hours only come from playtime", func() {
			m := model.GameMetrics{StarRating: 2.0, EstimatedHours: 1, HoursSource: model.HoursPlaytime, PlaytimeMinutes: 60}

			Convey("Then no length bonus should apply", func() {
				So(scoring.Priority(m), ShouldEqual, 40)
			})
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given a small collection", t, func() {
		games := []model.GameMetrics{
			{
				ExternalID: 620, Name: "Portal 2", PlaytimeMinutes: 600,
				CriticScore: intPtr(95), ReviewPositive: 10,
				EstimatedHours: 8, HoursSource: model.HoursMain,
				StarRating: 4.7, QualityScore: 95,
			},
			{
				ExternalID: 10, Name: "Counter-Strike", PlaytimeMinutes: 0,
				EstimatedHours: 0, HoursSource: model.HoursPlaytime,
				StarRating: 4.1, QualityScore: 50,
				Unavailable: map[model.Source]string{model.SourceScores: "no match"},
			},
		}

		Convey("When summarized", func() {
			stats := scoring.Summarize(games)

			Convey("Then totals and averages should be computed", func() {
				So(stats.TotalGames, ShouldEqual, 2)
				So(stats.PlayedHours, ShouldEqual, 10)
				So(stats.EstimatedHours, ShouldEqual, 8)
				So(stats.CompletedGames, ShouldEqual, 1)
				So(stats.CompletionRate, ShouldEqual, 50)
				So(stats.UnplayedGames, ShouldEqual, 1)
				So(stats.AverageStars, ShouldEqual, 4.4)
				So(stats.AverageQuality, ShouldEqual, 72.5)
				So(stats.WithCriticScore, ShouldEqual, 1)
				So(stats.WithReviews, ShouldEqual, 1)
				So(stats.DegradedGames, ShouldEqual, 1)
			})

			Convey("And the top lists should be ordered", func() {
				So(stats.TopRated, ShouldHaveLength, 2)
				So(stats.TopRated[0].ExternalID, ShouldEqual, 620)
				So(stats.PlayNext[0].ExternalID, ShouldEqual, 10)
			})
		})

		Convey("When the collection is empty", func() {
			stats := scoring.Summarize(nil)

			Convey("Then it should not divide by zero", func() {
				So(stats.TotalGames, ShouldEqual, 0)
				So(stats.AverageStars, ShouldEqual, 0)
			})
		})
	})
}
