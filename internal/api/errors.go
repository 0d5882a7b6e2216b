package api

import (
	"encoding/json"
	"net/http"
)

// Error kinds carried in the "code" field.
const (
	CodeAuthentication  = "AuthenticationError"
	CodeAuthorization   = "AuthorizationError"
	CodeNotFound        = "NotFound"
	CodeValidation      = "ValidationError"
	CodeBadRequest      = "BadRequest"
	CodeConflict        = "Conflict"
	CodePayloadTooLarge = "PayloadTooLarge"
	CodeTooManyRequests = "TooManyRequests"
	CodeServer          = "ServerError"
)

// Messages shared by more than one handler.
const (
	msgNoToken          = "Access denied, no token provided."
	msgAccessExpired    = "Access token expired, request a new one with refresh token."
	msgAccessInvalid    = "Invalid access token, please login again."
	msgForbidden        = "Access denied, you are not authorized to access this resource."
	msgUserNotFound     = "User not found."
	msgBlogNotFound     = "Blog not found."
	msgBadCredentials   = "User email or password is invalid."
	msgInternal         = "Internal server error."
	msgValidationFailed = "Validation failed."
	msgRateLimited      = "Too many requests, please try again later."
)

// APIError is a failure rendered as the error envelope.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func errAuthentication(msg string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: CodeAuthentication, Message: msg}
}

func errAuthorization(msg string) *APIError {
	return &APIError{Status: http.StatusForbidden, Code: CodeAuthorization, Message: msg}
}

func errNotFound(msg string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func errValidation(msg string, fields map[string]string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: CodeValidation, Message: msg, Errors: fields}
}

func errBadRequest(msg string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: msg}
}

func errConflict(msg string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: CodeConflict, Message: msg}
}

func errPayloadTooLarge(msg string) *APIError {
	return &APIError{Status: http.StatusRequestEntityTooLarge, Code: CodePayloadTooLarge, Message: msg}
}

func errTooManyRequests() *APIError {
	return &APIError{Status: http.StatusTooManyRequests, Code: CodeTooManyRequests, Message: msgRateLimited}
}

func errServer() *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: CodeServer, Message: msgInternal}
}

// envelope is the body of every successful response that carries content.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeSuccess writes the success envelope.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, e *APIError) {
	writeJSON(w, e.Status, e)
}

// serverError logs err with the operation and caller, then writes a 500.
// Internal detail never reaches the client.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error("request failed",
		"op", op,
		"error", err,
		"user_id", subjectFromContext(r.Context()),
		"request_id", r.Context().Value(ctxKeyRequestID),
	)
	writeError(w, errServer())
}
