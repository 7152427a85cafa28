package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatshot/internal/browser"
	"chatshot/internal/browser/browsertest"
	"chatshot/internal/config"
	"chatshot/internal/httpapi"
	"chatshot/internal/pkg/logger"
	"chatshot/internal/render"
	"chatshot/internal/sink"
)

func testRouter(t *testing.T, hook func(p *browsertest.FakePage)) http.Handler {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	cfg := &config.Config{
		ChatAppURL:     "http://localhost:8089",
		MaxConcurrent:  5,
		MaxPooled:      3,
		BrowserTimeout: time.Second,
		DefaultHeight:  1920,
		DefaultWidth:   1080,
		OutputDir:      t.TempDir(),
	}
	engine := &browsertest.FakeEngine{PageHook: hook}
	pool := browser.NewPool(engine, cfg.MaxPooled, log)
	snk := sink.New(nil, false, log)
	svc := render.NewService(cfg,
		render.NewAdmission(cfg.MaxConcurrent),
		pool,
		render.NewRenderer(log),
		snk,
		log,
	)
	return httpapi.NewRouter(httpapi.Deps{Service: svc, Sink: snk, Log: log})
}

func threeBubbles() []browser.MessageRect {
	return []browser.MessageRect{
		{Y: 10, Height: 50, Width: 240, Sender: "Ana", Text: "Oi, tudo bem?", IsMine: false},
		{Y: 68, Height: 50, Width: 240, Sender: "Bruno", Text: "Tudo sim! E com você?", IsMine: true},
		{Y: 126, Height: 50, Width: 240, Sender: "Ana", Text: "Também, obrigada!", IsMine: false},
	}
}

func generateBody() map[string]any {
	return map[string]any{
		"messages": []map[string]string{
			{"sender": "Ana", "text": "Oi, tudo bem?"},
			{"sender": "Bruno", "text": "Tudo sim! E com você?"},
			{"sender": "Ana", "text": "Também, obrigada!"},
		},
		"participants": []string{"Ana", "Bruno"},
		"img_size":     []int{1920, 1080},
	}
}

func postGenerate(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/generate-screenshots", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerateScreenshotsSuccess(t *testing.T) {
	h := testRouter(t, func(p *browsertest.FakePage) {
		p.Rects = threeBubbles()
	})

	rec := postGenerate(t, h, generateBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success            bool     `json:"success"`
		ImagePaths         []string `json:"imagePaths"`
		MessageCoordinates []struct {
			Index  int    `json:"index"`
			Y      int    `json:"y"`
			Height int    `json:"height"`
			Sender string `json:"sender"`
			IsMine bool   `json:"isMine"`
		} `json:"messageCoordinates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.True(t, resp.Success)
	require.Len(t, resp.ImagePaths, 1)
	require.Len(t, resp.MessageCoordinates, 3)
	require.Equal(t, 0, resp.MessageCoordinates[0].Index)
	require.Equal(t, 10, resp.MessageCoordinates[0].Y)
	require.True(t, resp.MessageCoordinates[1].IsMine)
}

func TestGenerateScreenshotsEmptyMessages(t *testing.T) {
	h := testRouter(t, nil)

	body := generateBody()
	body["messages"] = []map[string]string{}
	rec := postGenerate(t, h, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "VALIDATION_ERROR", resp.Code)
	require.NotEmpty(t, resp.Error)
}

func TestGenerateScreenshotsParticipantCount(t *testing.T) {
	h := testRouter(t, nil)

	body := generateBody()
	body["participants"] = []string{"Ana"}
	rec := postGenerate(t, h, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateScreenshotsBadImgSize(t *testing.T) {
	h := testRouter(t, nil)

	body := generateBody()
	body["img_size"] = []int{1920}
	rec := postGenerate(t, h, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateScreenshotsTimeout(t *testing.T) {
	h := testRouter(t, func(p *browsertest.FakePage) {
		p.WaitErr = http.ErrHandlerTimeout
	})

	rec := postGenerate(t, h, generateBody())
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "RENDER_TIMEOUT", resp.Code)
}

func TestHealth(t *testing.T) {
	h := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Queue  struct {
			Running int `json:"running"`
			Queued  int `json:"queued"`
			Cap     int `json:"cap"`
		} `json:"queue"`
		BrowserPool struct {
			Idle      int `json:"idle"`
			MaxPooled int `json:"maxPooled"`
		} `json:"browserPool"`
		Storage struct {
			Provider string `json:"provider"`
		} `json:"storage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, 5, resp.Queue.Cap)
	require.Equal(t, 3, resp.BrowserPool.MaxPooled)
	require.Equal(t, "none", resp.Storage.Provider)
}
