package httphandler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
)

// GET /v1/downloads/{verificationId} (streams the purchased file)

type DownloadsHandler struct {
	opener port.AssetOpener
}

func RegisterDownloads(mux *http.ServeMux, opener port.AssetOpener) {
	h := DownloadsHandler{opener}
	mux.HandleFunc("GET /v1/downloads/{verificationId}", h.GetAsset)
}

func (h DownloadsHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	const op = "DownloadsHandler.GetAsset"
	log := slog.With("op", op)

	verificationID := r.PathValue("verificationId")

	p, rc, err := h.opener.OpenAsset(r.Context(), verificationID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "download not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrVerificationExpired):
			http.Error(w, "download link expired", http.StatusGone)
		default:
			http.Error(
				w, "failed to open download", http.StatusInternalServerError,
			)
			log.Error("failed to open asset",
				"verificationID", verificationID, "err", err,
			)
		}
		return
	}
	defer rc.Close()

	filename := p.Name + filepath.Ext(p.FileKey)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filename),
	)

	if _, err := io.Copy(w, rc); err != nil {
		log.Error("failed to stream asset", "productID", p.ID, "err", err)
		return
	}

	log.Info("asset downloaded", "productID", p.ID)
}
