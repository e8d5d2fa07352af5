package upload

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/imaging"
)

func authedRequest(t *testing.T, body *bytes.Buffer, contentType string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New())
	return req.WithContext(ctx)
}

func multipartImage(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, img, nil); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("form file failed: %v", err)
	}
	if _, err := fw.Write(encoded.Bytes()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestUploadUnauthenticated(t *testing.T) {
	h := NewHandler(nil, imaging.NewProcessor(imaging.DefaultConfig()))

	req := httptest.NewRequest(http.MethodPost, "/uploads", nil)
	rr := httptest.NewRecorder()
	h.Upload(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestUploadWithoutStorageReturns503(t *testing.T) {
	h := NewHandler(nil, imaging.NewProcessor(imaging.DefaultConfig()))

	body, contentType := multipartImage(t, "file", "photo.jpg")
	req := authedRequest(t, body, contentType)
	rr := httptest.NewRecorder()
	h.Upload(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestValidateTypeRejectsNonImages(t *testing.T) {
	for _, name := range []string{"malware.exe", "notes.txt", "archive.zip", "photo"} {
		if imaging.ValidateType(name) {
			t.Fatalf("expected %q rejected", name)
		}
	}
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp", "e.gif"} {
		if !imaging.ValidateType(name) {
			t.Fatalf("expected %q accepted", name)
		}
	}
}
