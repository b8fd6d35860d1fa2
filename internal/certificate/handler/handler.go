package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"certdesk/internal/certificate/archive"
	"certdesk/internal/certificate/service"
	"certdesk/pkg/domain"
	dErrors "certdesk/pkg/domain-errors"
	"certdesk/pkg/platform/httputil"
	"certdesk/pkg/requestcontext"
)

const contentTypeZip = "application/zip"

// Service defines the interface for certificate generation.
type Service interface {
	Generate(ctx context.Context, req service.Request) (*service.Outcome, error)
}

// Handler serves the archive download endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register registers the generation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/generate", h.handleGenerate)
	r.Get("/generate-workshop", h.handleGenerateWorkshop)
	r.Get("/generate-workshop-batch/{batch}", h.handleGenerateWorkshopBatch)
}

// handleGenerate serves the conference archive by default. The profile and
// batch query parameters select another profile or a single batch.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	q := &GenerateQuery{
		Profile: r.URL.Query().Get("profile"),
		Batch:   r.URL.Query().Get("batch"),
	}
	if !httputil.Prepare(w, q, h.logger, ctx, requestID) {
		return
	}
	req, err := q.Request()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.generate(w, r, req)
}

func (h *Handler) handleGenerateWorkshop(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, service.Request{Profile: domain.ProfileWorkshop})
}

func (h *Handler) handleGenerateWorkshopBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := parseBatch(chi.URLParam(r, "batch"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid batch index",
			"request_id", requestcontext.RequestID(r.Context()),
			"batch", chi.URLParam(r, "batch"),
		)
		httputil.WriteError(w, err)
		return
	}
	h.generate(w, r, service.Request{Profile: domain.ProfileWorkshop, Batch: &batch})
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, req service.Request) {
	ctx := r.Context()
	outcome, err := h.service.Generate(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate certificates",
			"request_id", requestcontext.RequestID(ctx),
			"profile", req.Profile.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if outcome.Empty() {
		httputil.WriteText(w, http.StatusOK, outcome.Message)
		return
	}
	writeArchive(w, outcome.Archive)
}

func writeArchive(w http.ResponseWriter, res *archive.Result) {
	w.Header().Set("Content-Type", contentTypeZip)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data) //nolint:errcheck // headers already sent
}

func parseBatch(raw string) (int, error) {
	batch, err := strconv.Atoi(raw)
	if err != nil || batch < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "batch must be a non-negative integer")
	}
	return batch, nil
}
