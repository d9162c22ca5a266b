// Package jsonutil provides helper functions for JSON API responses.
//
// Every handler in the service speaks JSON; these helpers keep the
// Content-Type header and error envelope consistent across features.
package jsonutil

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response with the given status code.
//
// Usage:
//
//	jsonutil.JSON(w, http.StatusOK, map[string]any{
//	    "success": true,
//	    "files":   entries,
//	})
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK writes a 200 OK JSON response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created JSON response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error writes an error response with the given status code.
// The response body is {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 Unauthorized error response.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// UnsupportedMediaType writes a 415 Unsupported Media Type error response.
// Used by the upload handler when a file's MIME type is outside the
// accepted set.
func UnsupportedMediaType(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnsupportedMediaType, message)
}

// InternalError writes a 500 Internal Server Error response.
// Do not expose internal details to clients - log the actual error
// separately.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// BadGateway writes a 502 Bad Gateway error response. Used when the
// upstream media provider fails during an operation the client asked for.
func BadGateway(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadGateway, message)
}

// Decode reads and decodes JSON from the request body into v.
// Returns an error that can be passed to BadRequest if decoding fails.
//
// Usage:
//
//	var input createFolderInput
//	if err := jsonutil.Decode(r, &input); err != nil {
//	    jsonutil.BadRequest(w, err.Error())
//	    return
//	}
func Decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
