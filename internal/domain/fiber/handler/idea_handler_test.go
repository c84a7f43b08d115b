package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/nucleushq/nucleus/internal/analysis"
	"github.com/nucleushq/nucleus/internal/middleware"
	"github.com/nucleushq/nucleus/internal/model"
	"github.com/nucleushq/nucleus/internal/repository"
	"github.com/nucleushq/nucleus/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const handlerAnalysisJSON = `{
  "one_sentence": "Plausible wedge.",
  "market_signals": ["demand visible"],
  "rubric": {
    "market_size": 4,
    "competition_intensity": 1,
    "novelty": 4,
    "execution_complexity": 1,
    "monetization_clarity": 4
  }
}`

type fixedProvider struct{}

func (fixedProvider) Name() string { return "fixed" }

func (fixedProvider) Complete(context.Context, string) (string, error) {
	return handlerAnalysisJSON, nil
}

// One fake identity provider for the whole package: the auth config loader
// caches the first URL it sees, so the server must be up before the first
// Authenticator is built.
var (
	userinfoOnce sync.Once
	userinfoSrv  *httptest.Server
)

func testAuthenticator() *middleware.Authenticator {
	userinfoOnce.Do(func() {
		userinfoSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Header.Get("Authorization") {
			case "Bearer token-user-1":
				_, _ = w.Write([]byte(`{"sub":"user-1","name":"Ada","picture":"https://example.com/ada.png"}`))
			case "Bearer token-user-2":
				_, _ = w.Write([]byte(`{"sub":"user-2","name":"Grace"}`))
			default:
				w.WriteHeader(http.StatusUnauthorized)
			}
		}))
		os.Setenv("AUTH_USERINFO_URL", userinfoSrv.URL)
	})
	return middleware.NewAuthenticator()
}

func newTestApp(t *testing.T) (*fiber.App, *usecase.IdeaUsecase, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Idea{}, &model.SubmissionQuota{}))

	ideaRepo := repository.NewIdeaRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	uc := usecase.NewIdeaUsecase(ideaRepo, quotaRepo, analysis.NewAnalyzer(fixedProvider{}), nil, time.UTC, 3)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return ctx.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	NewIdeaHandler(uc, testAuthenticator()).RegisterRoutes(app)
	return app, uc, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func submitIdea(t *testing.T, app *fiber.App, token, title string) string {
	t.Helper()
	resp, body := doJSON(t, app, fiber.MethodPost, "/api/ideas", token, fiber.Map{
		"title":       title,
		"description": "A described idea.",
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode, body)
	return gjson.Get(body, "data.id").String()
}

// runPipeline drains the queue synchronously, the way the worker would.
func runPipeline(t *testing.T, uc *usecase.IdeaUsecase) {
	t.Helper()
	for {
		idea, err := uc.ClaimNext()
		require.NoError(t, err)
		if idea == nil {
			return
		}
		require.NoError(t, uc.Analyze(context.Background(), idea))
	}
}

func TestSubmitRequiresAuth(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/ideas", "", fiber.Map{
		"title": "t", "description": "d",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/ideas", "bogus-token", fiber.Map{
		"title": "t", "description": "d",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitReturnsAccepted(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/ideas", "token-user-1", fiber.Map{
		"title": "Vending machines for plants", "description": "Sell succulents in offices.",
	})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "queued", gjson.Get(body, "data.status").String())
	assert.NotEmpty(t, gjson.Get(body, "data.id").String())
}

func TestSubmitValidationError(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/ideas", "token-user-1", fiber.Map{
		"title": "", "description": "d",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, gjson.Get(body, "success").Bool())
}

func TestSubmitDailyLimit(t *testing.T) {
	app, _, _ := newTestApp(t)

	for i := 0; i < 3; i++ {
		submitIdea(t, app, "token-user-1", fmt.Sprintf("idea %d", i))
	}
	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/ideas", "token-user-1", fiber.Map{
		"title": "over quota", "description": "d",
	})
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestGetIdeaAnalysisVisibility(t *testing.T) {
	app, uc, _ := newTestApp(t)

	id := submitIdea(t, app, "token-user-1", "visibility test")
	runPipeline(t, uc)

	_, ownerBody := doJSON(t, app, fiber.MethodGet, "/api/ideas/"+id, "token-user-1", nil)
	assert.NotEmpty(t, gjson.Get(ownerBody, "data.analysis").String())

	_, viewerBody := doJSON(t, app, fiber.MethodGet, "/api/ideas/"+id, "token-user-2", nil)
	assert.Empty(t, gjson.Get(viewerBody, "data.analysis").String())

	_, anonBody := doJSON(t, app, fiber.MethodGet, "/api/ideas/"+id, "", nil)
	assert.Empty(t, gjson.Get(anonBody, "data.analysis").String())
	assert.Equal(t, "scored", gjson.Get(anonBody, "data.status").String())
}

func TestGetIdeaNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)
	resp, _ := doJSON(t, app, fiber.MethodGet, "/api/ideas/"+uuid.NewString(), "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardCapAndShape(t *testing.T) {
	app, _, db := newTestApp(t)

	for i := 0; i < 105; i++ {
		score := i % 100
		require.NoError(t, db.Create(&model.Idea{
			ID:      uuid.New(),
			OwnerID: "seed-owner",
			Title:   fmt.Sprintf("seed %d", i),
			Status:  model.StatusScored,
			Score:   &score,
			Summary: "seeded",
		}).Error)
	}

	_, body := doJSON(t, app, fiber.MethodGet, "/api/leaderboard?limit=500", "", nil)
	items := gjson.Get(body, "data.items").Array()
	assert.Len(t, items, 100)
	assert.Equal(t, int64(105), gjson.Get(body, "data.totalItems").Int())
	// Public projection never carries the raw analysis.
	assert.False(t, gjson.Get(body, "data.items.0.analysis").Exists())
}

func TestLeaderboardEmpty(t *testing.T) {
	app, _, _ := newTestApp(t)
	resp, body := doJSON(t, app, fiber.MethodGet, "/api/leaderboard", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, gjson.Get(body, "data.items").Array(), 0)
}

func TestBestOfDay(t *testing.T) {
	app, uc, _ := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/best-of-day", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, gjson.Null, gjson.Get(body, "data.bestIdea").Type)

	id := submitIdea(t, app, "token-user-1", "today's best")
	runPipeline(t, uc)

	_, body = doJSON(t, app, fiber.MethodGet, "/api/best-of-day", "", nil)
	assert.Equal(t, id, gjson.Get(body, "data.bestIdea.id").String())

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/best-of-day?tz=Not%2FAZone", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSimilarIdeasDegradesToEmpty(t *testing.T) {
	app, uc, _ := newTestApp(t)

	id := submitIdea(t, app, "token-user-1", "similar test")
	runPipeline(t, uc)

	// No embedder is wired, so the idea has no embedding and the route
	// returns an empty list rather than an error.
	resp, body := doJSON(t, app, fiber.MethodGet, "/api/ideas/"+id+"/similar", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, gjson.Get(body, "data.items").Array(), 0)

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/ideas/"+uuid.NewString()+"/similar", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMyIdeas(t *testing.T) {
	app, uc, _ := newTestApp(t)

	submitIdea(t, app, "token-user-1", "mine")
	runPipeline(t, uc)

	resp, _ := doJSON(t, app, fiber.MethodGet, "/api/me/ideas", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	_, body := doJSON(t, app, fiber.MethodGet, "/api/me/ideas", "token-user-1", nil)
	items := gjson.Get(body, "data.items").Array()
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].Get("analysis").String())

	_, otherBody := doJSON(t, app, fiber.MethodGet, "/api/me/ideas", "token-user-2", nil)
	assert.Len(t, gjson.Get(otherBody, "data.items").Array(), 0)
}
