package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"restaurant-manager/core/upstream"
)

func urlParam(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

func pathID(r *http.Request) upstream.ID {
	return upstream.ID(urlParam(r, "id"))
}
