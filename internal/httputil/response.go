package httputil

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Error codes used across the API
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// If encoding fails, we can't do much - headers already sent
			// Log would be useful here in production
			return
		}
	}
}

// WriteError writes an error response in the standard envelope:
// {"error": {"code": "ERROR_CODE", "message": "Human readable message"}}
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	response := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
	WriteJSON(w, status, response)
}

// Common error response helpers

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteBadRequestWithCode writes a 400 Bad Request error with a custom code
func WriteBadRequestWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusBadRequest, code, message)
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// WriteUnauthorizedWithCode writes a 401 Unauthorized error with a custom code
func WriteUnauthorizedWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusUnauthorized, code, message)
}

// WriteForbidden writes a 403 Forbidden error
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteConflict writes a 409 Conflict error
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, ErrCodeConflict, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// Flash cookie names read by form front-ends after a redirect.
const (
	FlashSuccessCookie = "flash_success"
	FlashErrorCookie   = "flash_error"
)

// WantsJSON reports whether the client expects a JSON body rather than a
// redirect. JSON is the default; only classic form submissions (HTML accepted,
// form-encoded body, no JSON preference) get the redirect flow.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	ct := r.Header.Get("Content-Type")
	if strings.Contains(accept, "text/html") && (ct == "" || strings.Contains(ct, "application/x-www-form-urlencoded") || strings.Contains(ct, "multipart/form-data")) {
		return false
	}
	return true
}

// WriteSeeOther redirects a form client back where it came from with a flash
// cookie carrying the outcome message. 303 forces the follow-up to be a GET.
func WriteSeeOther(w http.ResponseWriter, r *http.Request, cookieName, message string) {
	location := r.Header.Get("Referer")
	if location == "" {
		location = "/"
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    url.QueryEscape(message),
		Path:     "/",
		MaxAge:   30,
		HttpOnly: false, // front-end scripts read and clear the flash
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// WriteMutationResult answers a successful mutation in the mode the client
// asked for: JSON body for API clients, redirect-with-flash for forms.
func WriteMutationResult(w http.ResponseWriter, r *http.Request, status int, data interface{}, flashMessage string) {
	if WantsJSON(r) {
		WriteJSON(w, status, data)
		return
	}
	WriteSeeOther(w, r, FlashSuccessCookie, flashMessage)
}

// WriteMutationError answers a failed mutation in the mode the client asked
// for. Form clients get redirected back with the message in an error flash.
func WriteMutationError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if WantsJSON(r) {
		WriteError(w, status, code, message)
		return
	}
	WriteSeeOther(w, r, FlashErrorCookie, message)
}
