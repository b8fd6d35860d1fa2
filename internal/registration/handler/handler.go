package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certdesk/pkg/domain"
	dErrors "certdesk/pkg/domain-errors"
	"certdesk/pkg/platform/httputil"
	"certdesk/pkg/requestcontext"
)

const (
	// FormPath is where browsers are sent back after a form submission.
	FormPath = "/form"

	maxMultipartMemory = 1 << 20
)

// Service defines the interface for registration operations.
type Service interface {
	Submit(ctx context.Context, profile domain.ProfileName, rec domain.Record) (*domain.Record, error)
	List(ctx context.Context, profile domain.ProfileName) ([]domain.Record, error)
}

// Handler handles registration endpoints.
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

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/submit", h.HandleSubmit)
	r.Get("/students", h.listHandler(domain.ProfileConference))
	r.Get("/workshop-students", h.listHandler(domain.ProfileWorkshop))
}

// HandleSubmit stores one registration. Form posts are redirected back to
// the form; JSON posts receive the stored record.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	isJSON := mediaType(r) == "application/json"

	var req *SubmitRequest
	if isJSON {
		var ok bool
		if req, ok = httputil.DecodeJSON[SubmitRequest](w, r, h.logger, ctx, requestID); !ok {
			return
		}
	} else {
		var err error
		if req, err = decodeForm(r); err != nil {
			h.logger.WarnContext(ctx, "failed to parse submit form",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
			return
		}
	}
	if !httputil.Prepare(w, req, h.logger, ctx, requestID) {
		return
	}

	rec, err := h.service.Submit(ctx, req.ProfileName(), req.Record())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to submit registration",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if isJSON {
		httputil.WriteJSON(w, http.StatusCreated, rec)
		return
	}
	http.Redirect(w, r, FormPath, http.StatusSeeOther)
}

func (h *Handler) listHandler(profile domain.ProfileName) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		records, err := h.service.List(ctx, profile)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to list registrations",
				"request_id", requestcontext.RequestID(ctx),
				"profile", profile.String(),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, records)
	}
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// decodeForm reads a urlencoded or multipart form. The profile may also be
// given as a query parameter.
func decodeForm(r *http.Request) (*SubmitRequest, error) {
	if mediaType(r) == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &SubmitRequest{
		Name:       r.PostFormValue("name"),
		College:    r.PostFormValue("college"),
		PaperTitle: r.PostFormValue("paper_title"),
		Email:      r.PostFormValue("email"),
		Profile:    r.FormValue("profile"),
	}, nil
}
