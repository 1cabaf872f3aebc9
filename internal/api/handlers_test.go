package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"menulens.app/menu-digitalizer/internal/core"
)

// Fake vision client used only in tests. It plays back a canned model
// reply instead of calling the real endpoint.
type fakeVisionClient struct {
	reply string
	err   error
}

func (f *fakeVisionClient) ExtractMenuText(ctx context.Context, mediaType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func setupAnalyzeRouter(vision core.VisionClient) http.Handler {
	service := core.NewMenuService(nil, vision, nil)
	handler := NewAPIHandler(service)
	return NewRouter(handler)
}

func validImageBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func postAnalyze(t *testing.T, router http.Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/analyze-menu", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeMenuSuccess(t *testing.T) {
	reply := "Here is the menu:\n```json\n{\"restaurant_name\":\"Cafe X\",\"items\":[{\"name\":\"Tea\",\"price\":\"$2\"}]}\n```"
	router := setupAnalyzeRouter(&fakeVisionClient{reply: reply})

	w := postAnalyze(t, router, AnalyzeMenuRequest{Image: validImageBase64(t), MediaType: "image/png"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp AnalyzeMenuResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Menu.RestaurantName != "Cafe X" {
		t.Fatalf("expected Cafe X, got %q", resp.Menu.RestaurantName)
	}
	if len(resp.Menu.Items) != 1 || resp.Menu.Items[0].Name != "Tea" || resp.Menu.Items[0].Price != "$2" {
		t.Fatalf("wrong items: %+v", resp.Menu.Items)
	}
	if resp.SessionID != "" {
		t.Fatalf("anonymous request must not be auto-saved, got session %q", resp.SessionID)
	}
}

func TestAnalyzeMenuNoImage(t *testing.T) {
	router := setupAnalyzeRouter(&fakeVisionClient{reply: "{}"})

	w := postAnalyze(t, router, AnalyzeMenuRequest{MediaType: "image/png"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Error != "No image provided" {
		t.Fatalf("wrong error message: %q", resp.Error)
	}
}

func TestAnalyzeMenuUnreadableImage(t *testing.T) {
	router := setupAnalyzeRouter(&fakeVisionClient{reply: "{}"})

	garbage := base64.StdEncoding.EncodeToString([]byte("not an image"))
	w := postAnalyze(t, router, AnalyzeMenuRequest{Image: garbage, MediaType: "image/png"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Error != "Could not read image" {
		t.Fatalf("wrong error message: %q", resp.Error)
	}
}

func TestAnalyzeMenuParseFailureCarriesRawReply(t *testing.T) {
	reply := "Sorry, I cannot see a menu in this image."
	router := setupAnalyzeRouter(&fakeVisionClient{reply: reply})

	w := postAnalyze(t, router, AnalyzeMenuRequest{Image: validImageBase64(t), MediaType: "image/png"})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Error != "Failed to parse menu data" {
		t.Fatalf("wrong error message: %q", resp.Error)
	}
	if resp.Details != reply {
		t.Fatalf("raw model reply not preserved in details: %q", resp.Details)
	}
}

func TestAnalyzeMenuModelFailure(t *testing.T) {
	router := setupAnalyzeRouter(&fakeVisionClient{err: errors.New("upstream unavailable")})

	w := postAnalyze(t, router, AnalyzeMenuRequest{Image: validImageBase64(t), MediaType: "image/png"})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Error != "Failed to analyze menu" {
		t.Fatalf("wrong error message: %q", resp.Error)
	}
}

func TestMenusRequireAuth(t *testing.T) {
	router := setupAnalyzeRouter(&fakeVisionClient{reply: "{}"})

	req := httptest.NewRequest("GET", "/api/menus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
