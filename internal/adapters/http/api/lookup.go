package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/eve-telescope/telescope-app/internal/adapters/esi"
	service "github.com/eve-telescope/telescope-app/internal/app"
	"github.com/eve-telescope/telescope-app/pkg/logger"
)

const maxBodyBytes = 1 << 20

// lookupRequest accepts names either as one multi-line string or as a list.
type lookupRequest struct {
	Names json.RawMessage `json:"names"`
}

func (req lookupRequest) text() (string, error) {
	if len(req.Names) == 0 {
		return "", errors.New("missing names")
	}
	var text string
	if err := json.Unmarshal(req.Names, &text); err == nil {
		return text, nil
	}
	var list []string
	if err := json.Unmarshal(req.Names, &list); err == nil {
		return strings.Join(list, "\n"), nil
	}
	return "", errors.New("names must be a string or an array of strings")
}

// readNames extracts the names text from a JSON or plain-text body.
func readNames(w http.ResponseWriter, r *http.Request) (string, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req lookupRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return "", fmt.Errorf("decode body: %w", err)
		}
		return req.text()
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(raw), nil
}

// LookupHandler handles pilot lookup requests.
type LookupHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(deps Dependencies, l logger.Logger) *LookupHandler {
	return &LookupHandler{deps: deps, logger: l}
}

// HandleLookup handles POST /api/lookup requests.
func (h *LookupHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	const op = "api.lookup"
	text, err := readNames(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// lookups outlive the server's default write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	res, err := h.deps.Lookup(r.Context(), text)
	if err != nil {
		h.writeLookupError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleLookupStream handles POST /api/lookup/stream requests as server-sent events.
func (h *LookupHandler) HandleLookupStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.lookup_stream"
	text, err := readNames(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	sink := &sseSink{w: w, rc: rc}

	if _, err := h.deps.LookupStream(r.Context(), text, sink); err != nil && !sink.opened {
		h.writeLookupError(r.Context(), w, op, err)
	}
}

func (h *LookupHandler) writeLookupError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrTooManyNames):
		writeError(w, http.StatusBadRequest, "too_many_names", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, esi.ErrResolve):
		writeError(w, http.StatusBadGateway, "upstream_error", WrapKind(op, ErrUpstream, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Debug(ctx, "lookup abandoned by client", logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "cancelled", WrapKind(op, ErrUnavailable, err))
	default:
		h.logger.Error(ctx, "lookup failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

// sseSink writes lookup events as server-sent events. Headers are sent on
// the first event so early failures can still be answered with a status.
type sseSink struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	opened bool
}

func (s *sseSink) Emit(ctx context.Context, event string, payload any) {
	if ctx.Err() != nil {
		return
	}
	if !s.opened {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
		s.opened = true
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = io.WriteString(s.w, "event: "+sanitizeEventName(event)+"\n")
	_, _ = io.WriteString(s.w, "data: ")
	_, _ = s.w.Write(b)
	_, _ = io.WriteString(s.w, "\n\n")
	_ = s.rc.Flush()
}

func sanitizeEventName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return "message"
	}
	n = strings.ReplaceAll(n, "\n", "")
	return strings.ReplaceAll(n, "\r", "")
}
