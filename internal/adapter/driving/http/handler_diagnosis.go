package httphandler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/krishiai/internal/application"
	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// multipartOverhead leaves room for form fields around the image part.
const multipartOverhead = 1 << 20

// readImage reads the "image" part of a multipart upload. It writes the
// error response itself and returns ok=false on failure.
func readImage(w http.ResponseWriter, r *http.Request) (data []byte, mime string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, application.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(application.MaxImageBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image must be at most 8 MiB")
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form with an image field")
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err = io.ReadAll(io.LimitReader(file, application.MaxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read image")
		return nil, "", false
	}
	return data, header.Header.Get("Content-Type"), true
}

// CreateDiagnosis diagnoses an uploaded plant photo.
func (h *Handler) CreateDiagnosis(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	data, mime, ok := readImage(w, r)
	if !ok {
		return
	}

	lang := user.Language
	if v := r.FormValue("language"); v != "" {
		lang = model.ParseLanguage(v)
	}

	d, err := h.svc.Diagnoses.Diagnose(r.Context(), user.ID, data, mime, lang)
	if err != nil {
		h.writeServiceError(w, "create diagnosis", err)
		return
	}

	writeJSON(w, http.StatusCreated, toDiagnosisResponse(*d))
}

// ListDiagnoses returns the user's recent diagnoses, newest first.
func (h *Handler) ListDiagnoses(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	diagnoses, err := h.svc.Diagnoses.List(r.Context(), user.ID, limit)
	if err != nil {
		h.writeServiceError(w, "list diagnoses", err)
		return
	}

	resp := make([]DiagnosisResponse, 0, len(diagnoses))
	for _, d := range diagnoses {
		resp = append(resp, toDiagnosisResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDiagnosis returns one of the user's diagnoses.
func (h *Handler) GetDiagnosis(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	d, err := h.svc.Diagnoses.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "get diagnosis", err)
		return
	}
	writeJSON(w, http.StatusOK, toDiagnosisResponse(*d))
}

// AskChat answers a follow-up question about a diagnosis.
func (h *Handler) AskChat(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, err := h.svc.Chat.Ask(r.Context(), user.ID, r.PathValue("id"), req.Message)
	if err != nil {
		h.writeServiceError(w, "ask chat", err)
		return
	}
	writeJSON(w, http.StatusOK, toChatMessageResponse(reply))
}

// ChatHistory returns the conversation about a diagnosis.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	msgs, err := h.svc.Chat.History(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "chat history", err)
		return
	}

	resp := make([]ChatMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toChatMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// AutofillCrop fills crop record fields from a photo.
func (h *Handler) AutofillCrop(w http.ResponseWriter, r *http.Request) {
	data, mime, ok := readImage(w, r)
	if !ok {
		return
	}

	details, err := h.svc.Crops.Autofill(r.Context(), data, mime)
	if err != nil {
		h.writeServiceError(w, "autofill crop", err)
		return
	}
	writeJSON(w, http.StatusOK, CropDetailsResponse(details))
}
