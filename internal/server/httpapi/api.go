package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/yearbook/internal/models"
	"github.com/dmitrijs2005/yearbook/internal/server/entries"
)

// Form field names shared by the browser form and the API.
const (
	fieldName  = "name"
	fieldQuote = "quote"
	fieldImage = "image"
)

var errTooLarge = errors.New("upload too large")

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	list := s.gateway.List(r.Context())
	if list == nil {
		list = []models.Entry{}
	}
	if err := JSONResponse(w, http.StatusOK, list); err != nil {
		s.logger.Error(r.Context(), "failed to encode JSON response", "error", err)
	}
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	res, status := s.submit(w, r)
	if err := JSONResponse(w, status, res); err != nil {
		s.logger.Error(r.Context(), "failed to encode JSON response", "error", err)
	}
}

// submit reads the multipart form and hands it to the gateway.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) (models.Result, int) {
	sub, err := s.readSubmission(w, r)
	if err != nil {
		s.logger.Warn(r.Context(), "bad submission", "error", err)
		if errors.Is(err, errTooLarge) {
			return models.Result{Success: false, Message: entries.MsgUploadFailed}, http.StatusRequestEntityTooLarge
		}
		return models.Result{Success: false, Message: entries.MsgMissingFields}, http.StatusBadRequest
	}

	res := s.gateway.Create(r.Context(), sub)
	return res, statusFor(res)
}

func statusFor(res models.Result) int {
	switch {
	case res.Success:
		return http.StatusCreated
	case res.Message == entries.MsgMissingFields:
		return http.StatusBadRequest
	case res.Message == entries.MsgUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// readSubmission parses name, quote and the optional image part.
func (s *Server) readSubmission(w http.ResponseWriter, r *http.Request) (models.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.Submission{}, fmt.Errorf("%w: %w", errTooLarge, err)
		}
		return models.Submission{}, err
	}
	defer r.MultipartForm.RemoveAll()

	sub := models.Submission{
		Name:  r.FormValue(fieldName),
		Quote: r.FormValue(fieldQuote),
	}

	file, hdr, err := r.FormFile(fieldImage)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return sub, nil
	case err != nil:
		return models.Submission{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return models.Submission{}, err
	}
	if len(data) > 0 {
		sub.Image = &models.Image{
			Filename:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Data:        data,
		}
	}
	return sub, nil
}
