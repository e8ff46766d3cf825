package sources

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/signal"
)

// SourceHLTB names the completion-time source.
const SourceHLTB = "hltb"

// nameSlack bounds how much longer a contained match may be than the query.
const nameSlack = 20

type hltbSearchRequest struct {
	SearchType  string   `json:"searchType"`
	SearchTerms []string `json:"searchTerms"`
	SearchPage  int      `json:"searchPage"`
	Size        int      `json:"size"`
}

type hltbSearchResponse struct {
	Data []hltbEntry `json:"data"`
}

// hltbEntry carries completion times in seconds.
type hltbEntry struct {
	GameName string `json:"game_name"`
	CompMain int    `json:"comp_main"`
	CompPlus int    `json:"comp_plus"`
	Comp100  int    `json:"comp_100"`
}

// HLTB searches the completion-time site and picks the best matching entry.
type HLTB struct {
	client *client
}

// NewHLTB creates a completion provider rooted at baseURL.
func NewHLTB(baseURL string, opts ...Option) *HLTB {
	return &HLTB{client: newClient(SourceHLTB, strings.TrimRight(baseURL, "/"), opts...)}
}

// FetchCompletion implements signal.CompletionProvider.
func (h *HLTB) FetchCompletion(ctx context.Context, name string) (model.CompletionHours, error) {
	terms := strings.Fields(name)
	if len(terms) == 0 {
		return model.CompletionHours{}, signal.ErrNoMatch
	}

	req, err := json.Marshal(hltbSearchRequest{SearchType: "games", SearchTerms: terms, SearchPage: 1, Size: 20})
	if err != nil {
		return model.CompletionHours{}, err
	}
	body, err := h.client.post(ctx, "/api/search", "application/json", req)
	if err != nil {
		return model.CompletionHours{}, err
	}

	var resp hltbSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.CompletionHours{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	entry, ok := bestMatch(name, resp.Data)
	if !ok {
		return model.CompletionHours{}, signal.ErrNoMatch
	}
	out := model.CompletionHours{
		Main:          hours(entry.CompMain),
		MainPlusExtra: hours(entry.CompPlus),
		Completionist: hours(entry.Comp100),
	}
	if out.Empty() {
		return model.CompletionHours{}, signal.ErrNoData
	}
	return out, nil
}

// bestMatch prefers an exact name, then an entry equal to the part before a
// colon, then a close containing name, then the first entry with any time.
func bestMatch(query string, entries []hltbEntry) (hltbEntry, bool) {
	if len(entries) == 0 {
		return hltbEntry{}, false
	}
	q := strings.ToLower(strings.TrimSpace(query))
	base := q
	if i := strings.Index(q, ":"); i >= 0 {
		base = strings.TrimSpace(q[:i])
	}

	for _, e := range entries {
		if strings.ToLower(strings.TrimSpace(e.GameName)) == q {
			return e, true
		}
	}
	for _, e := range entries {
		if strings.ToLower(strings.TrimSpace(e.GameName)) == base {
			return e, true
		}
	}
	for _, e := range entries {
		n := strings.ToLower(e.GameName)
		if strings.Contains(n, q) && len(n) < len(q)+nameSlack {
			return e, true
		}
	}
	for _, e := range entries {
		if e.CompMain > 0 || e.CompPlus > 0 {
			return e, true
		}
	}
	return hltbEntry{}, false
}

// hours converts seconds to hours with one decimal; zero means unknown.
func hours(seconds int) *float64 {
	if seconds <= 0 {
		return nil
	}
	h := math.Round(float64(seconds)/3600*10) / 10
	return &h
}
