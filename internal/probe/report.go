package probe

import (
	"fmt"
	"io"
	"sort"

	"github.com/steamcompass/compass/internal/domain/model"
)

// PrintReport writes a human readable summary of r.
func PrintReport(w io.Writer, r *Report, top int, verbose bool) {
	fmt.Fprintln(w, "Compass probe summary")
	fmt.Fprintln(w, "=====================")

	if b := r.Batch; b != nil {
		fmt.Fprintf(w, "Batch %s: %d games in %d chunks, %d succeeded, %d failed, %d degraded (%s)\n",
			b.RunID, b.Total, b.Chunks, len(b.Succeeded), b.FailedCount, b.Degraded, b.Duration())
		games := append([]model.GameMetrics(nil), b.Succeeded...)
		sort.SliceStable(games, func(i, j int) bool { return games[i].StarRating > games[j].StarRating })
		n := len(games)
		if !verbose && n > top {
			n = top
		}
		for i := 0; i < n; i++ {
			g := games[i]
			fmt.Fprintf(w, "  %2d. %-40s %.1f stars  %5.1fh  value %.2f%s\n",
				i+1, g.Name, g.StarRating, g.EstimatedHours, g.ValueRating, degradedMark(g))
		}
		for _, e := range b.Errors {
			fmt.Fprintf(w, "  error: %s\n", e)
		}
	}

	if j := r.Job; j != nil {
		fmt.Fprintf(w, "Sync %s: %s, %d games, %d succeeded, %d failed, %d degraded\n",
			j.ID, j.Status, j.Games, j.Succeeded, j.Failed, j.Degraded)
		if j.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", j.Error)
		}
	}

	if s := r.Stats; s != nil {
		fmt.Fprintf(w, "Collection: %d games, %.1f stars average, %.0f%% completed, %d unplayed, %.0fh played of %.0fh estimated\n",
			s.TotalGames, s.AverageStars, s.CompletionRate, s.UnplayedGames, s.PlayedHours, s.EstimatedHours)
		for i, g := range s.PlayNext {
			if i >= top {
				break
			}
			fmt.Fprintf(w, "  play next: %s (%.1f stars)\n", g.Name, g.StarRating)
		}
	}

	if r.Duration > 0 {
		fmt.Fprintf(w, "Finished in %s\n", r.Duration)
	}
}

func degradedMark(g model.GameMetrics) string {
	if g.Degraded() {
		return "  (partial)"
	}
	return ""
}
