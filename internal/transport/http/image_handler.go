package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"quizzie-service/internal/app"
	"quizzie-service/internal/domain"

	"github.com/google/uuid"
)

const maxImageSize = 5 << 20

// imageExtensions lists the accepted sniffed types. SVG and anything else that a
// browser could run as a document is refused.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type imageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// ImageHandler accepts option images and hands them to an ImageStore.
type ImageHandler struct {
	store app.ImageStore
}

func NewImageHandler(store app.ImageStore) *ImageHandler {
	return &ImageHandler{store: store}
}

func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1024)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, domain.BadRequest("Image must be at most 5 MB"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, domain.BadRequest("Image file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		writeError(w, domain.BadRequest("Image must be at most 5 MB"))
		return
	}
	// The declared part type is ignored; only the content decides.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, domain.BadRequest("Image file is required"))
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		writeError(w, domain.BadRequest("Only PNG, JPEG, GIF and WebP images are allowed"))
		return
	}

	owner := identityFrom(r.Context()).ID
	key := "quiz-images/" + owner + "/" + uuid.NewString() + ext
	body := io.MultiReader(bytes.NewReader(head), file)
	url, err := h.store.Put(r.Context(), key, body, contentType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, imageResponse{ImageURL: url}, "Image uploaded successfully")
}
