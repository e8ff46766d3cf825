package sources

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBestMatch(t *testing.T) {
	Convey("Given search results", t, func() {
		entries := []hltbEntry{
			{GameName: "Hades II", CompMain: 0},
			{GameName: "Hades", CompMain: 80000},
			{GameName: "Hades: Battle Out of Hell", CompMain: 100},
		}

		Convey("Then the part before a colon matches a base title", func() {
			e, ok := bestMatch("Hades: Deluxe Edition", entries)
			So(ok, ShouldBeTrue)
			So(e.GameName, ShouldEqual, "Hades")
		})

		Convey("Then a close containing name is accepted", func() {
			e, ok := bestMatch("hades i", entries)
			So(ok, ShouldBeTrue)
			So(e.GameName, ShouldEqual, "Hades II")
		})

		Convey("Then the first timed entry is the last resort", func() {
			e, ok := bestMatch("Something Else", entries)
			So(ok, ShouldBeTrue)
			So(e.GameName, ShouldEqual, "Hades")
		})

		Convey("Then nothing matches an empty list", func() {
			_, ok := bestMatch("Hades", nil)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a time in seconds", t, func() {
		So(hours(0), ShouldBeNil)
		So(*hours(5400), ShouldEqual, 1.5)
	})
}
