package handler

import (
	"net/http"

	"tablebook/internal/locations/service"
	httputil "tablebook/pkg/http"
	"tablebook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type LocationHandler struct {
	service service.LocationService
	log     *logger.Logger
}

func NewLocationHandler(service service.LocationService, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		service: service,
		log:     log,
	}
}

func (h *LocationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locations, err := h.service.GetAll(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	body := make([]map[string]any, 0, len(locations))
	for _, l := range locations {
		body = append(body, l.Fields("id", "name", "max_party_size"))
	}
	if err := httputil.WriteSuccess(w, body); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LocationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/locations", h.GetAll)
}
