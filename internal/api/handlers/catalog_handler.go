package handlers

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"movie-api/internal/logger"

	"github.com/sirupsen/logrus"
)

// NewCatalogProxy forwards admitted requests to the catalog service
// unchanged, minus the caller's API key.
func NewCatalogProxy(upstream *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(upstream)

	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Header.Del("Authorization")
		r.Header.Del("X-API-Key")
		r.Host = upstream.Host
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.LogEvent(logrus.ErrorLevel, "Catalog upstream failed", logrus.Fields{
			"url":   r.URL.Path,
			"error": err.Error(),
		})
		respondWithJSON(w, http.StatusBadGateway, errorResponse{Error: "Catalog service unavailable", Code: "UPSTREAM_ERROR"})
	}
	return proxy
}
