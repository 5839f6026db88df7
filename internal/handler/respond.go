package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/aryan0dhankhar/formativa/internal/domain"
	"github.com/aryan0dhankhar/formativa/internal/security/audit"
)

const (
	msgInternal     = "erro interno"
	msgInvalidInput = "Dados inválidos."
	msgMalformed    = "JSON malformado."
	msgWrongType    = "Tipo de dado inválido."
	msgDateFormat   = "Formato inválido para data. Use um dos formatos a seguir: YYYY-MM-DD."
	maxBodyBytes    = 1 << 20
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// DetailResponse confirms a deletion.
type DetailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError maps a service error onto its HTTP status and body. Unknown
// errors are logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		validation *domain.ValidationError
		conflict   *domain.ConflictError
		forbidden  *domain.ForbiddenError
		notFound   *domain.NotFoundError
	)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: rootMessage(err)})
	case errors.As(err, &forbidden):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Message: forbidden.Message})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: notFound.Message})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: domain.ConflictMessage,
			Errors:  map[string]string{"non_field_errors": domain.ConflictMessage},
		})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: msgInvalidInput, Errors: validation.Fields})
	default:
		log.Error("request failed",
			slog.String("request_id", audit.RequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: msgInternal})
	}
}

// rootMessage returns the message of the authentication sentinel in err.
func rootMessage(err error) string {
	for _, sentinel := range []error{domain.ErrUnauthenticated, domain.ErrInvalidCredentials, domain.ErrInvalidToken} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// decodeJSON reads a JSON object into v. Decoding problems come back as
// *domain.ValidationError.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return domain.NewValidationError("non_field_errors", msgMalformed)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return domain.NewValidationError(lastSegment(typeErr.Field), msgWrongType)
	case errors.As(err, &syntaxErr):
		return domain.NewValidationError("non_field_errors", msgMalformed)
	case errors.Is(err, domain.ErrInvalidDate) || strings.Contains(err.Error(), domain.ErrInvalidDate.Error()):
		return domain.NewValidationError("non_field_errors", msgDateFormat)
	default:
		return domain.NewValidationError("non_field_errors", msgMalformed)
	}
}

func lastSegment(field string) string {
	if i := strings.LastIndex(field, "."); i >= 0 {
		return field[i+1:]
	}
	return field
}

// pathID parses the {id} wildcard. A non-numeric id is reported with the
// entity's not-found message.
func pathID(r *http.Request, notFound string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewNotFound(notFound)
	}
	return id, nil
}

// queryID parses an optional numeric query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError(name, "Insira um número inteiro válido.")
	}
	return &id, nil
}
