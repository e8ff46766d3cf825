package api_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/steamcompass/compass/internal/adapters/http/api"
	"github.com/steamcompass/compass/internal/adapters/repository"
	service "github.com/steamcompass/compass/internal/app"
	"github.com/steamcompass/compass/internal/domain/model"
	"github.com/steamcompass/compass/internal/domain/types"
	"github.com/steamcompass/compass/pkg/logger"
)

func init() {
	_ = logger.Init()
}

type batchCall struct {
	userID      string
	games       []model.GameIdentity
	concurrency int
	delay       time.Duration
}

type fakeDeps struct {
	mu        sync.Mutex
	ready     bool
	lastBatch batchCall
	syncErr   error
	jobs      map[string]model.SyncJob
	games     map[string][]model.GameMetrics
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		ready: true,
		jobs:  map[string]model.SyncJob{"job-1": {ID: "job-1", UserID: "alice", Status: model.JobDone, Games: 2}},
		games: map[string][]model.GameMetrics{
			"alice": {{ExternalID: 620, Name: "Portal 2", StarRating: 4.6}},
		},
	}
}

func (f *fakeDeps) Ready() bool { return f.ready }

func (f *fakeDeps) Aggregate(_ context.Context, id model.GameIdentity) (model.GameMetrics, error) {
	return model.GameMetrics{ExternalID: id.ExternalID, Name: id.DisplayName, PlaytimeMinutes: id.OwnedPlaytimeMinutes, StarRating: 3.5}, nil
}

func (f *fakeDeps) RunBatch(_ context.Context, userID string, games []model.GameIdentity, concurrency int, delay time.Duration) (model.BatchResult, error) {
	f.mu.Lock()
	f.lastBatch = batchCall{userID: userID, games: games, concurrency: concurrency, delay: delay}
	f.mu.Unlock()
	return model.BatchResult{RunID: "run-1", Total: len(games), Chunks: 1}, nil
}

func (f *fakeDeps) Sync(_ context.Context, userID, steamID string) (model.SyncJob, error) {
	if f.syncErr != nil {
		return model.SyncJob{}, f.syncErr
	}
	return model.SyncJob{ID: "job-2", UserID: userID, SteamID: steamID, Status: model.JobQueued}, nil
}

func (f *fakeDeps) Job(_ context.Context, id string) (model.SyncJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return model.SyncJob{}, service.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeDeps) Games(_ context.Context, userID string) ([]model.GameMetrics, error) {
	if userID == "bad:id" {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidUser, userID)
	}
	return f.games[userID], nil
}

func (f *fakeDeps) UserStats(ctx context.Context, userID string) (types.CollectionStats, error) {
	games, err := f.Games(ctx, userID)
	return types.CollectionStats{TotalGames: len(games)}, err
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "workerCount": 2}
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := newFakeDeps()
		h := api.NewServer(deps, fakeStats{}).Router()

		Convey("When health is requested", func() {
			rec := do(h, http.MethodGet, "/healthz", "")

			Convey("Then it reports ok and readiness", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
				So(rec.Body.String(), ShouldContainSubstring, `"ready":true`)
			})
		})

		Convey("When stats are requested", func() {
			rec := do(h, http.MethodGet, "/stats", "")
			var stats map[string]any
			So(decode(rec, &stats), ShouldBeNil)

			Convey("Then the provider stats are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When metrics are scraped after a request", func() {
			_ = do(h, http.MethodGet, "/healthz", "")
			rec := do(h, http.MethodGet, "/metrics", "")

			Convey("Then the HTTP counters are exposed by route pattern", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "compass_")
				So(rec.Body.String(), ShouldContainSubstring, `endpoint="/healthz"`)
			})
		})

		Convey("When an unknown route is requested", func() {
			rec := do(h, http.MethodGet, "/nope", "")

			Convey("Then a JSON 404 is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
				So(rec.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
			})
		})

		Convey("When a route is called with the wrong method", func() {
			rec := do(h, http.MethodDelete, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestGameMetrics(t *testing.T) {
	Convey("Given the API router", t, func() {
		h := api.NewServer(newFakeDeps(), fakeStats{}).Router()

		Convey("When a game is aggregated live", func() {
			rec := do(h, http.MethodGet, "/games/620/metrics?name=Portal%202&playtime_minutes=90", "")
			var m model.GameMetrics
			So(decode(rec, &m), ShouldBeNil)

			Convey("Then the metrics are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(m.ExternalID, ShouldEqual, 620)
				So(m.Name, ShouldEqual, "Portal 2")
				So(m.PlaytimeMinutes, ShouldEqual, 90)
			})
		})

		Convey("When the request is malformed", func() {
			So(do(h, http.MethodGet, "/games/abc/metrics?name=x", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/games/0/metrics?name=x", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/games/620/metrics", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/games/620/metrics?name=x&playtime_minutes=-1", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestBatches(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := newFakeDeps()
		h := api.NewServer(deps, fakeStats{}).Router()

		Convey("When a batch is posted with explicit pacing", func() {
			rec := do(h, http.MethodPost, "/batches",
				`{"user_id":"alice","games":[{"appid":620,"name":"Portal 2","playtime_minutes":10},{"appid":70,"name":"Half-Life"}],"concurrency":3,"delay_ms":250}`)

			Convey("Then the run is forwarded and its result returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"run_id":"run-1"`)
				So(deps.lastBatch.userID, ShouldEqual, "alice")
				So(deps.lastBatch.games, ShouldHaveLength, 2)
				So(deps.lastBatch.games[0].OwnedPlaytimeMinutes, ShouldEqual, 10)
				So(deps.lastBatch.concurrency, ShouldEqual, 3)
				So(deps.lastBatch.delay, ShouldEqual, 250*time.Millisecond)
			})
		})

		Convey("When delay_ms is omitted", func() {
			rec := do(h, http.MethodPost, "/batches", `{"games":[{"appid":620,"name":"Portal 2"}]}`)

			Convey("Then the default pause is requested", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastBatch.delay, ShouldEqual, time.Duration(-1))
				So(deps.lastBatch.userID, ShouldBeEmpty)
			})
		})

		Convey("When the body is invalid", func() {
			cases := []string{
				`not json`,
				`{"games":[]}`,
				`{"games":[{"appid":0,"name":"x"}]}`,
				`{"games":[{"appid":1,"name":""}]}`,
				`{"games":[{"appid":1,"name":"x"}],"delay_ms":-5}`,
				`{"games":[{"appid":1,"name":"x"}],"concurrency":-1}`,
				`{"games":[{"appid":1,"name":"x"}],"user_id":"a:b"}`,
				`{"games":[{"appid":1,"name":"x"}],"extra":true}`,
			}

			Convey("Then each is rejected with 400", func() {
				for _, body := range cases {
					rec := do(h, http.MethodPost, "/batches", body)
					So(rec.Code, ShouldEqual, http.StatusBadRequest)
					So(rec.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
				}
			})
		})
	})
}

func TestSyncAndUsers(t *testing.T) {
	Convey("Given the API router", t, func() {
		deps := newFakeDeps()
		h := api.NewServer(deps, fakeStats{}).Router()

		Convey("When a sync is requested", func() {
			rec := do(h, http.MethodPost, "/users/alice/sync", `{"steam_id":"76561198000000000"}`)
			var job model.SyncJob
			So(decode(rec, &job), ShouldBeNil)

			Convey("Then it is accepted with the job", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(rec.Header().Get("Location"), ShouldEqual, "/jobs/job-2")
				So(job.UserID, ShouldEqual, "alice")
				So(job.Status, ShouldEqual, model.JobQueued)
			})
		})

		Convey("When the service refuses a sync", func() {
			statuses := map[error]int{
				service.ErrSyncInProgress: http.StatusConflict,
				service.ErrQueueFull:      http.StatusTooManyRequests,
				service.ErrNotStarted:     http.StatusServiceUnavailable,
				errors.New("boom"):        http.StatusInternalServerError,
			}

			Convey("Then each error maps to its status", func() {
				for err, status := range statuses {
					deps.syncErr = err
					rec := do(h, http.MethodPost, "/users/alice/sync", `{"steam_id":"1"}`)
					So(rec.Code, ShouldEqual, status)
				}
			})
		})

		Convey("When the steam id is invalid", func() {
			So(do(h, http.MethodPost, "/users/alice/sync", `{"steam_id":"abc"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/users/alice/sync", `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When jobs are looked up", func() {
			So(do(h, http.MethodGet, "/jobs/job-1", "").Code, ShouldEqual, http.StatusOK)
			So(do(h, http.MethodGet, "/jobs/missing", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When stored games are listed", func() {
			rec := do(h, http.MethodGet, "/users/alice/games", "")

			Convey("Then they are wrapped with the user and count", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"user_id":"alice"`)
				So(rec.Body.String(), ShouldContainSubstring, `"count":1`)
				So(rec.Body.String(), ShouldContainSubstring, `"appid":620`)
			})
		})

		Convey("When collection stats are requested", func() {
			rec := do(h, http.MethodGet, "/users/alice/stats", "")
			var stats types.CollectionStats
			So(decode(rec, &stats), ShouldBeNil)
			So(stats.TotalGames, ShouldEqual, 1)
		})

		Convey("When the user id is rejected by the store", func() {
			So(do(h, http.MethodGet, "/users/bad:id/games", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
