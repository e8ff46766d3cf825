package types_test

import (
	"testing"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"
	types "github.com/steamcompass/compass/internal/domain/types"
)

func TestCollectionStatsEncoding(t *testing.T) {
	Convey("Given collection stats", t, func() {
		stats := types.CollectionStats{
			TotalGames:   2,
			AverageStars: 4.5,
			TopRated:     []types.RatedGame{{ExternalID: 620, Name: "Portal 2", StarRating: 4.7}},
		}

		Convey("When encoded as JSON", func() {
			b, err := json.Marshal(stats)

			Convey("Then it should use snake case keys", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldContainSubstring, `"total_games":2`)
				So(string(b), ShouldContainSubstring, `"average_stars":4.5`)
				So(string(b), ShouldContainSubstring, `"appid":620`)
				So(string(b), ShouldContainSubstring, `"play_next":null`)
			})
		})

		Convey("When zero valued", func() {
			var empty types.CollectionStats

			Convey("Then it should have no entries", func() {
				So(empty.TotalGames, ShouldEqual, 0)
				So(empty.TopRated, ShouldBeEmpty)
			})
		})
	})
}
