package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/clipforge/backend/internal/storage"
)

type fakeSigner struct {
	lastKey         string
	lastContentType string
	err             error
}

func (s *fakeSigner) PresignUpload(_ context.Context, key, contentType string) (storage.PresignedUpload, error) {
	s.lastKey = key
	s.lastContentType = contentType
	if s.err != nil {
		return storage.PresignedUpload{}, s.err
	}
	return storage.PresignedUpload{
		URL:   "https://store.example/" + key + "?X-Amz-Signature=sig",
		Token: "sig",
		Path:  key,
	}, nil
}

func postPresign(t *testing.T, handler UploadHandler, payload presignedURLRequest, accessToken string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/storage/presigned-url", bytes.NewReader(body))
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	rec := httptest.NewRecorder()
	handler.PresignedURL(rec, req)
	return rec
}

func TestPresignedURLRequiresFilename(t *testing.T) {
	handler := UploadHandler{Sessions: newTestManager(), Signer: &fakeSigner{}}

	rec := postPresign(t, handler, presignedURLRequest{Filename: "  "}, "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestPresignedURLAuthenticatedPath(t *testing.T) {
	manager := newTestManager()
	signer := &fakeSigner{}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	handler := UploadHandler{
		Sessions: manager,
		Signer:   signer,
		NowFunc:  func() time.Time { return at },
	}

	token := issueAccessToken(t, manager, "user-1")
	rec := postPresign(t, handler, presignedURLRequest{Filename: "clip.mp4", ContentType: "video/mp4", Folder: "drafts"}, token)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp presignedURLResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	want := fmt.Sprintf("user-1/drafts/%d-clip.mp4", at.UnixMilli())
	if resp.StoragePath != want {
		t.Fatalf("expected path %q, got %q", want, resp.StoragePath)
	}
	if signer.lastContentType != "video/mp4" {
		t.Fatalf("expected content type to pass through, got %q", signer.lastContentType)
	}
	if resp.UploadURL == "" || resp.Token == "" {
		t.Fatalf("expected signed URL and token, got %+v", resp)
	}
}

func TestPresignedURLDefaultsFolder(t *testing.T) {
	manager := newTestManager()
	signer := &fakeSigner{}
	handler := UploadHandler{Sessions: manager, Signer: signer}

	token := issueAccessToken(t, manager, "user-1")
	rec := postPresign(t, handler, presignedURLRequest{Filename: "clip.mp4"}, token)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	parts := strings.Split(signer.lastKey, "/")
	if len(parts) != 3 || parts[1] != "transcribe" {
		t.Fatalf("expected default transcribe folder, got %q", signer.lastKey)
	}
}

func TestPresignedURLSanitizesFilename(t *testing.T) {
	manager := newTestManager()
	signer := &fakeSigner{}
	handler := UploadHandler{Sessions: manager, Signer: signer}

	token := issueAccessToken(t, manager, "user-1")
	rec := postPresign(t, handler, presignedURLRequest{Filename: "../../evil file!.mp4"}, token)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	parts := strings.Split(signer.lastKey, "/")
	if len(parts) != 3 {
		t.Fatalf("expected userId/folder/name, got %q", signer.lastKey)
	}

	name := parts[2]
	if !regexp.MustCompile(`^[A-Za-z0-9._-]+$`).MatchString(name) {
		t.Fatalf("filename segment %q contains unsanitized characters", name)
	}
	if strings.Contains(name, "/") || strings.Contains(name, " ") || strings.Contains(name, "!") {
		t.Fatalf("filename segment %q was not sanitized", name)
	}
}

func TestPresignedURLAnonymousPath(t *testing.T) {
	signer := &fakeSigner{}
	handler := UploadHandler{Sessions: newTestManager(), Signer: signer}

	seen := make(map[string]bool)
	for i := 0; i < 2; i++ {
		rec := postPresign(t, handler, presignedURLRequest{Filename: "clip.mp4"}, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
		}

		var resp presignedURLResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}

		if !strings.HasPrefix(resp.StoragePath, "anonymous/") {
			t.Fatalf("expected anonymous prefix, got %q", resp.StoragePath)
		}
		parts := strings.Split(resp.StoragePath, "/")
		if len(parts) != 3 || parts[2] != "clip.mp4" {
			t.Fatalf("expected anonymous/<request>/<name>, got %q", resp.StoragePath)
		}
		if seen[parts[1]] {
			t.Fatalf("expected a unique per-request directory, got repeat %q", parts[1])
		}
		seen[parts[1]] = true
	}
}

func TestPresignedURLSigningFailureIncludesDetail(t *testing.T) {
	signer := &fakeSigner{err: errors.New("bucket policy rejected request")}
	handler := UploadHandler{Sessions: newTestManager(), Signer: signer}

	rec := postPresign(t, handler, presignedURLRequest{Filename: "clip.mp4"}, "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp["error"], "bucket policy rejected request") {
		t.Fatalf("expected provider detail in error, got %q", resp["error"])
	}
}

func TestPresignedURLRateLimited(t *testing.T) {
	handler := UploadHandler{Sessions: newTestManager(), Signer: &fakeSigner{}, Limiter: denyLimiter{}}

	rec := postPresign(t, handler, presignedURLRequest{Filename: "clip.mp4"}, "")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
}
