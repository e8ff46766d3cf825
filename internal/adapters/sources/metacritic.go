package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/signal"
)

// SourceMetacritic names the score source in logs, metrics and breaker state.
const SourceMetacritic = "metacritic"

var (
	slugTrademarks = strings.NewReplacer("™", "", "®", "", "©", "")
	slugBrackets   = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces     = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-{2,}`)
)

// Metacritic reads critic and user scores from a game's review page.
type Metacritic struct {
	client *client
}

// NewMetacritic creates a score provider rooted at baseURL.
func NewMetacritic(baseURL string, opts ...Option) *Metacritic {
	return &Metacritic{client: newClient(SourceMetacritic, strings.TrimRight(baseURL, "/"), opts...)}
}

// FetchScores implements signal.ScoreProvider.
func (m *Metacritic) FetchScores(ctx context.Context, name string) (model.Scores, error) {
	slug := Slug(name)
	if slug == "" {
		return model.Scores{}, signal.ErrNoMatch
	}

	body, err := m.client.get(ctx, "/game/pc/"+slug, nil)
	if err != nil {
		return model.Scores{}, err
	}

	scores, err := ParseScores(body)
	if err != nil {
		return model.Scores{}, err
	}
	if scores.Empty() {
		return model.Scores{}, signal.ErrNoData
	}
	return scores, nil
}

// Slug converts a game name into the page path segment used by the score site.
func Slug(name string) string {
	s := strings.ToLower(slugTrademarks.Replace(name))
	s = slugBrackets.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ":", "")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ParseScores extracts the critic (0-100) and user (0-10) scores from a review
// page. Values that are missing or out of range are left nil.
func ParseScores(page []byte) (model.Scores, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return model.Scores{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var out model.Scores
	if n := findNode(doc, isCriticScore); n != nil {
		if v, err := strconv.Atoi(textContent(n)); err == nil && v >= 0 && v <= 100 {
			out.Critic = &v
		}
	}
	if n := findNode(doc, isUserScore); n != nil {
		if v, ok := parseUserScore(textContent(n)); ok {
			out.User = &v
		}
	}
	return out, nil
}

// parseUserScore reads "7.9" style values. Pages that print the user score on
// a 0-100 scale are scaled down; "tbd" is not a score.
func parseUserScore(s string) (float64, bool) {
	if s == "" || strings.EqualFold(s, "tbd") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	if v > 10 && v <= 100 {
		v /= 10
	}
	if v > 10 {
		return 0, false
	}
	return v, true
}

func isCriticScore(n *html.Node) bool {
	switch attr(n, "data-testid") {
	case "critic-score", "meta-score":
		return true
	}
	class := attr(n, "class")
	return strings.Contains(class, "c-siteReviewScore_background-critic") ||
		strings.Contains(class, "metascore_w")
}

func isUserScore(n *html.Node) bool {
	if attr(n, "data-testid") == "user-score" {
		return true
	}
	class := attr(n, "class")
	return strings.Contains(class, "c-siteReviewScore_background-user") ||
		strings.Contains(class, "userscore_w")
}

// findNode walks the tree depth first and returns the first element match.
func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
