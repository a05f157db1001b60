package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
)

type errorBody struct {
	Error   string               `json:"error"`
	Message string               `json:"message"`
	Fields  []service.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

func writeValidation(w http.ResponseWriter, fields []service.FieldError) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		Error:   "validation_failed",
		Message: "request failed validation",
		Fields:  fields,
	})
}
