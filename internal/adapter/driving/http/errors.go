package httphandler

import (
	"errors"
	"net/http"

	"github.com/ericfisherdev/krishiai/internal/application"
	"github.com/ericfisherdev/krishiai/internal/domain/port/driven"
	"github.com/ericfisherdev/krishiai/internal/keyring"
)

// RetryAfterSeconds is advertised when every AI key is rate limited.
const RetryAfterSeconds = "60"

// ErrorStatus maps application and port errors to an HTTP status and a
// message that is safe to show to the user. Validation errors echo their
// message; anything unexpected is reported as a generic 500.
func ErrorStatus(err error) (int, string) {
	switch {
	case keyring.IsExhausted(err):
		return http.StatusTooManyRequests, "the AI service is busy on every configured API key, try again shortly"
	case errors.Is(err, keyring.ErrNoCredentials):
		return http.StatusServiceUnavailable, "the AI service is not configured"
	case errors.Is(err, driven.ErrAIRequestFailed):
		return http.StatusBadGateway, "the AI service could not process the request"

	case errors.Is(err, application.ErrInvalidImage),
		errors.Is(err, application.ErrInvalidMessage),
		errors.Is(err, application.ErrInvalidCrop),
		errors.Is(err, application.ErrInvalidProfitRequest),
		errors.Is(err, application.ErrInvalidLocation),
		errors.Is(err, application.ErrInvalidRegistration):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid identifier or password"
	case errors.Is(err, driven.ErrUserExists):
		return http.StatusConflict, "an account with this phone number or email already exists"
	case errors.Is(err, driven.ErrDiagnosisNotFound):
		return http.StatusNotFound, "diagnosis not found"
	case errors.Is(err, application.ErrNoPrices):
		return http.StatusNotFound, "no market prices found for this commodity"
	}
	return http.StatusInternalServerError, "internal server error"
}

// writeServiceError writes the ErrorStatus response for err and logs the
// failures an operator should see.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	status, msg := ErrorStatus(err)
	switch status {
	case http.StatusTooManyRequests:
		h.logger.Warn("ai keys exhausted", "op", op, "error", err)
		w.Header().Set("Retry-After", RetryAfterSeconds)
	case http.StatusBadGateway, http.StatusInternalServerError:
		h.logger.Error("request failed", "op", op, "error", err)
	}
	writeError(w, status, msg)
}
