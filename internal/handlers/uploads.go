package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/backend/internal/logging"
)

const defaultUploadFolder = "transcribe"

// unsafePathChars matches everything that may not appear in a stored path
// segment. Rejected characters are replaced with underscores.
var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// UploadHandler issues presigned upload URLs so browsers can PUT media
// straight into the object store. Anonymous uploads are allowed; they land
// under a collision-free anonymous prefix.
type UploadHandler struct {
	Sessions SessionResolver
	Signer   UploadSigner
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// PresignedURL handles POST /storage/presigned-url requests.
func (h UploadHandler) PresignedURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Signer == nil {
		logger.Error("upload signer unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "upload service unavailable"})
		return
	}

	if !allowRequest(h.Limiter, r, "presign") {
		logger.Warn("presign rate limited", "ip", clientIP(r))
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	var req presignedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid presign payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Filename = strings.TrimSpace(req.Filename)
	if req.Filename == "" {
		logger.Warn("presign missing filename")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "filename is required"})
		return
	}

	name := sanitizeSegment(req.Filename)
	folder := sanitizeSegment(strings.TrimSpace(req.Folder))
	if folder == "" {
		folder = defaultUploadFolder
	}

	millis := h.now().UnixMilli()
	userID := currentUser(r, h.Sessions)

	var path string
	if userID != "" {
		path = fmt.Sprintf("%s/%s/%d-%s", userID, folder, millis, name)
	} else {
		// The random per-request directory keeps anonymous uploads from
		// colliding on identical filenames.
		path = fmt.Sprintf("anonymous/%d-%s/%s", millis, uuid.NewString(), name)
	}

	upload, err := h.Signer.PresignUpload(ctx, path, req.ContentType)
	if err != nil {
		logger.Error("presign upload failed", "error", err, "path", path)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{
			"error": fmt.Sprintf("unable to create upload url: %v", err),
		})
		return
	}

	respondJSON(ctx, w, http.StatusOK, presignedURLResponse{
		UploadURL:   upload.URL,
		Token:       upload.Token,
		StoragePath: upload.Path,
	})
}

func (h UploadHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func sanitizeSegment(segment string) string {
	return unsafePathChars.ReplaceAllString(segment, "_")
}

type presignedURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Folder      string `json:"folder"`
}

type presignedURLResponse struct {
	UploadURL   string `json:"uploadUrl"`
	Token       string `json:"token"`
	StoragePath string `json:"storagePath"`
}
