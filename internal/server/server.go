package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/investment-optimizer/internal/investments"
	"github.com/iwvelando/investment-optimizer/internal/metrics"
	"github.com/iwvelando/investment-optimizer/pkg/constants"
	"go.uber.org/zap"
)

// Upload form fields, in order of preference.
var uploadFields = []string{"excel_file", "file"}

// Options configures NewHandler.
type Options struct {
	Service *investments.Service
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// SecretKey is compared with the access-token header. An empty key
	// disables authentication.
	SecretKey     string
	APIPrefix     string
	MaxUploadSize int64
	Version       string
}

type handler struct {
	service       *investments.Service
	logger        *zap.Logger
	metrics       *metrics.Metrics
	secretKey     []byte
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the investments API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	prefix := strings.TrimRight(opts.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/" + constants.DefaultAPIVersion
	}

	h := &handler{
		service:       opts.Service,
		logger:        logger,
		metrics:       opts.Metrics,
		secretKey:     []byte(opts.SecretKey),
		maxUploadSize: maxUploadSize,
		version:       version,
	}

	mux := http.NewServeMux()

	mux.Handle("POST "+prefix+"/upload_file/{$}", h.authorize(h.handleUpload))
	mux.Handle("POST "+prefix+"/upload_file", h.authorize(h.handleUpload))
	mux.Handle("GET "+prefix+"/last_investment/{$}", h.authorize(h.handleLast))
	mux.Handle("GET "+prefix+"/last_investment", h.authorize(h.handleLast))
	mux.Handle("GET "+prefix+"/investments/{$}", h.authorize(h.handleList))
	mux.Handle("GET "+prefix+"/investments", h.authorize(h.handleList))
	mux.Handle("GET "+prefix+"/investments/{id}", h.authorize(h.handleGet))
	mux.Handle("PUT "+prefix+"/investments/{id}", h.authorize(h.handleReplace))
	mux.Handle("DELETE "+prefix+"/investments/{id}", h.authorize(h.handleDelete))

	mux.HandleFunc("GET /api/version", h.handleVersion)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	return h.instrument(cors(mux))
}

func (h *handler) authorize(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(h.secretKey) > 0 {
			token := []byte(r.Header.Get(constants.AccessTokenHeader))
			if subtle.ConstantTimeCompare(token, h.secretKey) != 1 {
				h.respondErrorWithOp(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing access token", "server.authorize")
				return
			}
		}
		next(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type, "+constants.AccessTokenHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		// The mux records the matched pattern on the request.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		h.metrics.ObserveRequest(route, r.Method, rec.status, elapsed)
		h.logger.Debug("request served",
			zap.String("op", "server.ServeHTTP"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"

	h.withUpload(w, r, op, func(fileName string, file multipart.File) {
		submission, err := h.service.Submit(r.Context(), fileName, file)
		if err != nil {
			h.respondUploadError(w, err, op)
			return
		}

		w.Header().Set("Location", strings.TrimSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/upload_file")+"/investments/"+submission.Record.ID.String())
		h.writeJSON(w, http.StatusOK, submission.Result)
	})
}

func (h *handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReplace"

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "bad_input", fmt.Sprintf("invalid result id %q", r.PathValue("id")), op)
		return
	}

	h.withUpload(w, r, op, func(fileName string, file multipart.File) {
		submission, err := h.service.Update(r.Context(), id, fileName, file)
		if err != nil {
			h.respondUploadError(w, err, op)
			return
		}
		h.writeJSON(w, http.StatusOK, submission.Result)
	})
}

// withUpload parses a size-bounded multipart body and passes the uploaded
// file to fn. Parse failures are answered here.
func (h *handler) withUpload(w http.ResponseWriter, r *http.Request, op string, fn func(fileName string, file multipart.File)) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		if isTooLarge(err) {
			h.respondTooLarge(w, op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, "bad_input", fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := formFile(r)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "bad_input", "missing upload file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	fn(header.Filename, file)
}

func (h *handler) respondUploadError(w http.ResponseWriter, err error, op string) {
	if isTooLarge(err) {
		h.respondTooLarge(w, op)
		return
	}
	h.respondServiceError(w, err, op)
}

func formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	var lastErr error
	for _, field := range uploadFields {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func (h *handler) handleLast(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Last(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "server.handleLast")
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *handler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "server.handleList")
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *handler) handleGet(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGet"

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "bad_input", fmt.Sprintf("invalid result id %q", r.PathValue("id")), op)
		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDelete"

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "bad_input", fmt.Sprintf("invalid result id %q", r.PathValue("id")), op)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *handler) respondTooLarge(w http.ResponseWriter, op string) {
	h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge, "too_large",
		fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
}

func (h *handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch kind := investments.Kind(err); kind {
	case investments.KindBadInput:
		h.respondErrorWithOp(w, http.StatusBadRequest, kind.String(), err.Error(), op)
	case investments.KindNotFound:
		h.respondErrorWithOp(w, http.StatusNotFound, kind.String(), "investment result not found", op)
	default:
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", http.StatusInternalServerError),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   kind.String(),
			"message": "internal server error",
		})
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, code, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Info("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": code, "message": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
