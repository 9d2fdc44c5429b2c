package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"triage-service/internal/metrics"
	"triage-service/internal/models"
	"triage-service/internal/service"
)

const (
	errNotJSON            = "Request must be JSON"
	errMissingDescription = "Missing 'description' in request body"
	errTooLarge           = "Request body too large"
	errInternal           = "Internal server error"
)

type Handler struct {
	triageService *service.TriageService
	maxBodyBytes  int64
}

func NewHandler(triageService *service.TriageService, maxBodyBytes int64) *Handler {
	return &Handler{
		triageService: triageService,
		maxBodyBytes:  maxBodyBytes,
	}
}

func (h *Handler) Triage(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r.Header.Get("Content-Type")) {
		h.reject(w, http.StatusBadRequest, metrics.OutcomeInvalidJSON, errNotJSON)
		return
	}

	payload, err := h.decodeBody(w, r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.reject(w, http.StatusRequestEntityTooLarge, metrics.OutcomeTooLarge, errTooLarge)
			return
		}

		h.reject(w, http.StatusBadRequest, metrics.OutcomeInvalidJSON, errNotJSON)
		return
	}

	description, ok := getDescription(payload)
	if !ok {
		h.reject(w, http.StatusBadRequest, metrics.OutcomeMissingDescription, errMissingDescription)
		return
	}

	result := h.triageService.Triage(r.Context(), description)

	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) reject(w http.ResponseWriter, status int, outcome, message string) {
	h.triageService.Reject(outcome)
	respondWithError(w, status, message)
}

// decodeBody Читает ровно одно JSON-значение, лишние данные после него считаются ошибкой
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (any, error) {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	decoder := json.NewDecoder(body)

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}

	var extra json.RawMessage
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("unexpected data after JSON value")
		}
		return nil, err
	}

	return payload, nil
}

// isJSON Принимает application/json и application/*+json
func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	if mediaType == "application/json" {
		return true
	}

	return strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}

// getDescription Извлекает непустое строковое поле description из тела запроса
func getDescription(payload any) (string, bool) {
	fields, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}

	description, ok := fields["description"].(string)
	if !ok || strings.TrimSpace(description) == "" {
		return "", false
	}

	return description, true
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, models.ErrorResponse{Error: message})
}
