package files

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/filegate/service/internal/response"
	"github.com/filegate/service/internal/session"
	"github.com/filegate/service/internal/storage"
)

const (
	// multipartOverhead is the slack allowed above the file ceiling for form boundaries and headers.
	multipartOverhead = 1 << 20
	// multipartMemory is how much of a form is kept in memory before spilling to temp files.
	multipartMemory = 32 << 20
)

type deleteResult struct {
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
}

// Handler holds HTTP handlers for file endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new files Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List godoc
//
//	@Summary		List files
//	@Description	Returns every stored file, newest first. The catalog is read from the backend on every call.
//	@Tags			files
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Entry}
//	@Failure		401	{object}	response.Envelope
//	@Failure		503	{object}	response.Envelope
//	@Router			/files [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context(), principal(r))
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, entries)
}

// Stats godoc
//
//	@Summary		Storage statistics
//	@Description	Returns the number of files, their total size in MB and the storage target label.
//	@Tags			files
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=Stats}
//	@Failure		401	{object}	response.Envelope
//	@Failure		503	{object}	response.Envelope
//	@Router			/files/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), principal(r))
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, stats)
}

// Upload godoc
//
//	@Summary		Upload a file
//	@Description	Stores the multipart field "file". The extension must be on the allow-list and the size within the limit.
//	@Tags			files
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"File to upload"
//	@Success		201		{object}	response.Envelope{data=UploadResult}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/files [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p.IsZero() {
		response.Unauthorized(w, "login required")
		return
	}

	limit := h.svc.MaxUploadBytes() + multipartOverhead
	if r.ContentLength > limit {
		response.PayloadTooLarge(w, "upload exceeds the "+humanize.IBytes(uint64(h.svc.MaxUploadBytes()))+" limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			response.PayloadTooLarge(w, "upload exceeds the "+humanize.IBytes(uint64(h.svc.MaxUploadBytes()))+" limit")
			return
		}
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "no file selected")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		response.BadRequest(w, "no file selected")
		return
	}

	result, err := h.svc.Upload(r.Context(), p, UploadRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
		Size:        header.Size,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, result)
}

// Download godoc
//
//	@Summary		Download a file
//	@Description	Redirects to a presigned URL valid for one hour, or streams the file when the backend is the local filesystem.
//	@Tags			files
//	@Produce		octet-stream
//	@Security		BearerAuth
//	@Param			key	path	string	true	"Storage key"
//	@Success		200	{file}		file
//	@Success		302	{string}	string	"Redirect to the presigned URL"
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		503	{object}	response.Envelope
//	@Router			/files/{key}/download [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	d, err := h.svc.Download(r.Context(), principal(r), key)
	if err != nil {
		writeError(w, err)
		return
	}
	if d.URL != "" {
		http.Redirect(w, r, d.URL, http.StatusFound)
		return
	}
	defer d.Body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename}))
	if rs, ok := d.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, d.Filename, d.Object.LastModified, rs)
		return
	}
	w.Header().Set("Content-Length", strconv.FormatInt(d.Object.Size, 10))
	if _, err := io.Copy(w, d.Body); err != nil {
		log.Warnf("files: stream %q: %v", key, err)
	}
}

// Share godoc
//
//	@Summary		Share a file
//	@Description	Returns a presigned URL valid for seven days. Not available with local storage.
//	@Tags			files
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key	path		string	true	"Storage key"
//	@Success		200	{object}	response.Envelope{data=ShareLink}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		501	{object}	response.Envelope
//	@Failure		503	{object}	response.Envelope
//	@Router			/files/{key}/share [get]
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	link, err := h.svc.Share(r.Context(), principal(r), key)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, link)
}

// Delete godoc
//
//	@Summary		Delete a file
//	@Description	Removes the file. Deleting a key that does not exist succeeds.
//	@Tags			files
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key	path		string	true	"Storage key"
//	@Success		200	{object}	response.Envelope{data=deleteResult}
//	@Failure		401	{object}	response.Envelope
//	@Failure		503	{object}	response.Envelope
//	@Router			/files/{key} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	key, ok := keyParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), principal(r), key); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, deleteResult{Key: key, Deleted: true})
}

func principal(r *http.Request) session.Principal {
	p, _ := session.FromContext(r.Context())
	return p
}

// keyParam returns the decoded {key} segment. chi routes on r.URL.RawPath when
// it is set, so the value is only still escaped in that case.
func keyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath != "" {
		var err error
		if key, err = url.PathUnescape(key); err != nil {
			key = ""
		}
	}
	if key == "" {
		response.BadRequest(w, "invalid file key")
		return "", false
	}
	return key, true
}

// writeError maps service errors onto responses.
func writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		if verr.TooLarge {
			response.PayloadTooLarge(w, verr.Reason)
			return
		}
		response.BadRequest(w, verr.Reason)
	case errors.Is(err, ErrInvalidFilename):
		response.BadRequest(w, "invalid filename")
	case errors.Is(err, session.ErrUnauthenticated):
		response.Unauthorized(w, "login required")
	case errors.Is(err, storage.ErrInvalidKey):
		response.BadRequest(w, "invalid file key")
	case errors.Is(err, storage.ErrNotFound):
		response.NotFound(w, "file not found")
	case errors.Is(err, storage.ErrUnsupportedOperation):
		response.NotImplemented(w, "sharing is only available with object storage")
	case errors.Is(err, storage.ErrBackendUnavailable):
		log.Warnf("files: %v", err)
		response.ServiceUnavailable(w, "storage backend unavailable, try again later")
	default:
		log.Errorf("files: %v", err)
		response.InternalError(w)
	}
}
