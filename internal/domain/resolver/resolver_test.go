package resolver_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/steamcompass/compass/internal/domain/resolver"
	"github.com/steamcompass/compass/internal/domain/signal"
	"github.com/steamcompass/compass/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// recordingFetch answers from a table and remembers every candidate asked.
type recordingFetch struct {
	mu      sync.Mutex
	answers map[string]int
	calls   []string
}

func (f *recordingFetch) fetch(_ context.Context, candidate string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, candidate)
	if v, ok := f.answers[candidate]; ok {
		return v, nil
	}
	return 0, signal.ErrNoMatch
}

func TestCandidates(t *testing.T) {
	Convey("Given display names", t, func() {
		Convey("When the name has a subtitle", func() {
			got := resolver.Candidates("Foo: Bar Edition")

			Convey("Then the subtitle-free name should follow the full name", func() {
				So(got, ShouldResemble, []string{"Foo: Bar Edition", "Foo", "foo:baredition"})
			})
		})

		Convey("When the name has glyphs and a roman numeral", func() {
			got := resolver.Candidates("DARK SOULS™  III")

			Convey("Then glyphs should be stripped and the numeral converted last", func() {
				So(got, ShouldResemble, []string{"DARK SOULS III", "darksoulsiii", "DARK SOULS 3"})
			})
		})

		Convey("When the name has parenthesized and bracketed segments", func() {
			got := resolver.Candidates("Half-Life 2 (Classic) [Beta]")

			Convey("Then the segments should be removed in one candidate", func() {
				So(got, ShouldResemble, []string{
					"Half-Life 2 (Classic) [Beta]",
					"Half-Life 2",
					"Half-Life (Classic) [Beta]",
					"half-life2(classic)[beta]",
				})
			})
		})

		Convey("When the name has digits", func() {
			got := resolver.Candidates("Portal 2")

			Convey("Then the digit-free name should be included", func() {
				So(got, ShouldResemble, []string{"Portal 2", "Portal", "portal2"})
			})
		})

		Convey("When every variant is too short", func() {
			Convey("Then no candidates should be produced", func() {
				So(resolver.Candidates("Ys"), ShouldBeEmpty)
				So(resolver.Candidates("  "), ShouldBeEmpty)
			})
		})

		Convey("When the name is only digits", func() {
			Convey("Then the empty digit-free variant should be skipped", func() {
				So(resolver.Candidates("1979"), ShouldResemble, []string{"1979"})
			})
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Given a resolver without pacing", t, func() {
		r := resolver.New(resolver.WithDelay(0))
		ctx := context.Background()

		Convey("When the second candidate matches", func() {
			f := &recordingFetch{answers: map[string]int{"Foo": 42}}
			sig := resolver.Resolve(ctx, r, []string{"Foo: Bar Edition", "Foo", "foo"}, f.fetch)

			Convey("Then it should return the second result and stop", func() {
				v, ok := sig.Value()
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 42)
				So(f.calls, ShouldResemble, []string{"Foo: Bar Edition", "Foo"})
			})
		})

		Convey("When nothing matches", func() {
			f := &recordingFetch{}
			sig := resolver.Resolve(ctx, r, []string{"abc", "abd"}, f.fetch)

			Convey("Then it should be unavailable after trying all", func() {
				So(sig.OK(), ShouldBeFalse)
				So(sig.Reason(), ShouldContainSubstring, "2 candidates exhausted")
				So(sig.Reason(), ShouldContainSubstring, "no match")
				So(f.calls, ShouldHaveLength, 2)
			})
		})

		Convey("When there are no candidates", func() {
			f := &recordingFetch{}
			sig := resolver.Resolve(ctx, r, nil, f.fetch)

			Convey("Then it should be unavailable without calls", func() {
				So(sig.Reason(), ShouldEqual, resolver.ReasonNoCandidates)
				So(f.calls, ShouldBeEmpty)
			})
		})

		Convey("When a single attempt stalls", func() {
			r := resolver.New(resolver.WithDelay(0), resolver.WithAttemptTimeout(20*time.Millisecond))
			calls := 0
			stall := func(ctx context.Context, candidate string) (string, error) {
				calls++
				if candidate == "slow" {
					<-ctx.Done()
					return "", ctx.Err()
				}
				return "fast hit", nil
			}
			sig := resolver.Resolve(ctx, r, []string{"slow", "fast"}, stall)

			Convey("Then the next candidate should still be tried", func() {
				So(sig.OrElse(""), ShouldEqual, "fast hit")
				So(calls, ShouldEqual, 2)
			})
		})
	})

	Convey("Given a resolver with a politeness delay", t, func() {
		r := resolver.New(resolver.WithDelay(30 * time.Millisecond))

		Convey("When two candidates are tried", func() {
			f := &recordingFetch{answers: map[string]int{"second": 1}}
			start := time.Now()
			sig := resolver.Resolve(context.Background(), r, []string{"first", "second"}, f.fetch)

			Convey("Then the attempts should be separated by the delay", func() {
				So(sig.OK(), ShouldBeTrue)
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 30*time.Millisecond)
			})
		})

		Convey("When the context is canceled during the pause", func() {
			ctx, cancel := context.WithCancel(context.Background())
			f := &recordingFetch{}
			errFetch := func(ctx context.Context, c string) (int, error) {
				cancel()
				return f.fetch(ctx, c)
			}
			sig := resolver.Resolve(ctx, r, []string{"first", "second"}, errFetch)

			Convey("Then it should stop early as unavailable", func() {
				So(sig.OK(), ShouldBeFalse)
				So(errors.Is(ctx.Err(), context.Canceled), ShouldBeTrue)
				So(f.calls, ShouldResemble, []string{"first"})
			})
		})
	})
}
