package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/worldcup/services"
)

type BucketHandler struct {
	bucketService services.BucketService
}

func NewBucketHandler(bucketService services.BucketService) *BucketHandler {
	return &BucketHandler{bucketService: bucketService}
}

// PresignedURLs выдаёт ссылки для прямой загрузки картинок в бакет.
func (h *BucketHandler) PresignedURLs(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ContentTypes []string `json:"content_types"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.ContentTypes) == 0 {
		badRequestResponse(w, r, errors.New("content_types must not be empty"))
		return
	}

	uploads, err := h.bucketService.PresignUploads(r.Context(), input.ContentTypes)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"uploads": uploads}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
