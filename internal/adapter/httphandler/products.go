package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
)

const maxUploadMemory = 32 << 20

// POST   /v1/admin/products (multipart: name, description, price_cents, file, image)
// PUT    /v1/admin/products/{id} (multipart, file and image optional)
// PATCH  /v1/admin/products/{id}/availability JSON {"available" bool}
// DELETE /v1/admin/products/{id}

type AdminProductsHandler struct {
	catalog port.CatalogManager
}

func RegisterAdminProducts(mux *http.ServeMux, catalog port.CatalogManager) {
	h := AdminProductsHandler{catalog}
	mux.HandleFunc("POST /v1/admin/products", h.PostProduct)
	mux.HandleFunc("PUT /v1/admin/products/{id}", h.PutProduct)
	mux.HandleFunc("PATCH /v1/admin/products/{id}/availability", h.PatchAvailability)
	mux.HandleFunc("DELETE /v1/admin/products/{id}", h.DeleteProduct)
}

func (h AdminProductsHandler) PostProduct(
	w http.ResponseWriter, r *http.Request,
) {
	const op = "AdminProductsHandler.PostProduct"
	log := slog.With("op", op)

	draft, err := parseProductForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Warn("invalid product form", "err", err)
		return
	}

	file, closeFile, err := requireFormFile(r, "file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer closeFile()

	image, closeImage, err := requireFormFile(r, "image")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer closeImage()

	p, err := h.catalog.AddProduct(r.Context(), draft, file, image)
	if err != nil {
		http.Error(w, "failed to create product", http.StatusInternalServerError)
		log.Error("failed to create product", "err", err)
		return
	}

	writeProduct(w, p, http.StatusCreated, log)
	log.Info("product created", "productID", p.ID)
}

func (h AdminProductsHandler) PutProduct(
	w http.ResponseWriter, r *http.Request,
) {
	const op = "AdminProductsHandler.PutProduct"
	log := slog.With("op", op)

	id := r.PathValue("id")

	draft, err := parseProductForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Warn("invalid product form", "err", err)
		return
	}
	patch := domain.ProductPatch{
		Name:        draft.Name,
		Description: draft.Description,
		PriceCents:  draft.PriceCents,
	}

	file, closeFile := optionalFormFile(r, "file")
	defer closeFile()
	image, closeImage := optionalFormFile(r, "image")
	defer closeImage()

	p, err := h.catalog.EditProduct(r.Context(), id, patch, file, image)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update product", http.StatusInternalServerError)
		log.Error("failed to update product", "productID", id, "err", err)
		return
	}

	writeProduct(w, p, http.StatusOK, log)
	log.Info("product updated", "productID", p.ID)
}

func (h AdminProductsHandler) PatchAvailability(
	w http.ResponseWriter, r *http.Request,
) {
	const op = "AdminProductsHandler.PatchAvailability"
	log := slog.With("op", op)

	id := r.PathValue("id")

	var rule AvailabilityRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if rule.Available == nil {
		http.Error(w, "available field is required", http.StatusBadRequest)
		return
	}

	err := h.catalog.SetAvailability(r.Context(), id, *rule.Available)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update product", http.StatusInternalServerError)
		log.Error("failed to toggle availability", "productID", id, "err", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error("failed to write response body", "err", err)
		return
	}

	log.Info("availability updated", "productID", id, "available", *rule.Available)
}

func (h AdminProductsHandler) DeleteProduct(
	w http.ResponseWriter, r *http.Request,
) {
	const op = "AdminProductsHandler.DeleteProduct"
	log := slog.With("op", op)

	id := r.PathValue("id")

	if err := h.catalog.RemoveProduct(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete product", http.StatusInternalServerError)
		log.Error("failed to delete product", "productID", id, "err", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	log.Info("product deleted", "productID", id)
}

// GET /v1/products/{id} (purchase page data, available products only)

type ProductsHandler struct {
	catalog port.CatalogManager
}

func RegisterProducts(mux *http.ServeMux, catalog port.CatalogManager) {
	h := ProductsHandler{catalog}
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
}

func (h ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProduct"
	log := slog.With("op", op)

	id := r.PathValue("id")

	p, err := h.catalog.ProductForPurchase(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read product", http.StatusInternalServerError)
		log.Error("failed to read product", "productID", id, "err", err)
		return
	}

	writeProduct(w, p, http.StatusOK, log)
}

func parseProductForm(r *http.Request) (domain.ProductDraft, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return domain.ProductDraft{}, errors.New("invalid multipart form")
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	priceCents, err := strconv.ParseInt(r.FormValue("price_cents"), 10, 64)

	switch {
	case name == "":
		return domain.ProductDraft{}, errors.New("name is required")
	case description == "":
		return domain.ProductDraft{}, errors.New("description is required")
	case err != nil || priceCents < 1:
		return domain.ProductDraft{}, errors.New("price_cents must be a positive integer")
	}

	return domain.ProductDraft{
		Name:        name,
		Description: description,
		PriceCents:  priceCents,
	}, nil
}

func requireFormFile(
	r *http.Request, field string,
) (port.FileUpload, func(), error) {
	f, fh, err := r.FormFile(field)
	if err != nil {
		return port.FileUpload{}, nil, fmt.Errorf("%s is required", field)
	}
	return port.FileUpload{Name: fh.Filename, Body: f}, func() { f.Close() }, nil
}

func optionalFormFile(
	r *http.Request, field string,
) (*port.FileUpload, func()) {
	f, fh, err := r.FormFile(field)
	if err != nil {
		return nil, func() {}
	}
	return &port.FileUpload{Name: fh.Filename, Body: f}, func() { f.Close() }
}

func writeProduct(
	w http.ResponseWriter, p domain.Product, status int, log *slog.Logger,
) {
	v := Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Available:   p.Available,
		CreatedAt:   p.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}
