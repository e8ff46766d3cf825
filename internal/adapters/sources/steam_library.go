package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/steamcompass/compass/internal/domain/model"
)

// SourceSteamLibrary names the owned-games source.
const SourceSteamLibrary = "steam_library"

type ownedGamesResponse struct {
	Response struct {
		GameCount int `json:"game_count"`
		Games     []struct {
			AppID           int64  `json:"appid"`
			Name            string `json:"name"`
			PlaytimeForever int    `json:"playtime_forever"`
		} `json:"games"`
	} `json:"response"`
}

// SteamLibrary enumerates the games owned by a Steam account.
type SteamLibrary struct {
	client *client
	apiKey string
}

// NewSteamLibrary creates a library provider rooted at the Web API base URL.
func NewSteamLibrary(baseURL, apiKey string, opts ...Option) *SteamLibrary {
	return &SteamLibrary{
		client: newClient(SourceSteamLibrary, strings.TrimRight(baseURL, "/"), opts...),
		apiKey: apiKey,
	}
}

// OwnedGames implements signal.LibraryProvider.
func (s *SteamLibrary) OwnedGames(ctx context.Context, steamID string) ([]model.GameIdentity, error) {
	q := url.Values{}
	q.Set("key", s.apiKey)
	q.Set("steamid", steamID)
	q.Set("format", "json")
	q.Set("include_appinfo", "true")
	q.Set("include_played_free_games", "true")

	body, err := s.client.get(ctx, "/IPlayerService/GetOwnedGames/v0001/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp ownedGamesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(resp.Response.Games) == 0 {
		return nil, ErrPrivateLibrary
	}

	games := make([]model.GameIdentity, 0, len(resp.Response.Games))
	for _, g := range resp.Response.Games {
		if g.AppID <= 0 {
			continue
		}
		games = append(games, model.GameIdentity{
			ExternalID:           g.AppID,
			DisplayName:          g.Name,
			OwnedPlaytimeMinutes: g.PlaytimeForever,
		})
	}
	return games, nil
}
