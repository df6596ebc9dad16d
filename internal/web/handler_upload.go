package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vbonduro/actreport/internal/domain"
	"github.com/vbonduro/actreport/internal/draft"
	"github.com/vbonduro/actreport/internal/filestore"
	"github.com/vbonduro/actreport/internal/service"
	"github.com/vbonduro/actreport/internal/validate"
)

const maxUploadMemory = 10 << 20

// uploadSection is the section that shows files of each kind.
var uploadSection = map[domain.FileKind]domain.Section{
	domain.FileActivityPhoto:  domain.SectionActivityPhotos,
	domain.FileSpeakerProfile: domain.SectionSpeakerProfile,
	domain.FileSignature:      domain.SectionReportPreparedBy,
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	draftID := r.PathValue("draft")
	kind := domain.FileKind(r.PathValue("kind"))
	section, ok := uploadSection[kind]
	if !ok {
		http.Error(w, "unknown upload kind", http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, kind.MaxBytes()+maxUploadMemory)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	index := 0
	if v := r.FormValue("index"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid index", http.StatusBadRequest)
			return
		}
		index = n
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	// One byte past the limit is enough for the size check to reject it.
	data, err := io.ReadAll(io.LimitReader(file, kind.MaxBytes()+1))
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		s.logger.Error("read upload failed", "draft_id", draftID, "error", err)
		return
	}

	var res validate.Result
	d, err := s.service.AttachFile(r.Context(), draftID, kind, index, data)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		res = verr.Result
		if d, err = s.service.Draft(draftID); err != nil {
			s.serviceError(w, err, "failed to load draft")
			return
		}
	case err != nil:
		s.serviceError(w, err, "failed to store upload")
		return
	}

	page := s.newSectionPage(d, section, res)
	if res.Valid() {
		page.Message = "Uploaded"
	}
	if err := s.renderPartial(w, "partials/section_form.html", page); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	reader, mimeType, err := s.service.OpenFile(r.Context(), key)
	if err != nil {
		if !errors.Is(err, filestore.ErrNotFound) {
			s.logger.Warn("open file failed", "key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "file reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write file failed", "key", key, "error", err)
	}
}

// captionInput is the data for the caption input partial.
type captionInput struct {
	Index   int
	Caption string
	Error   string
}

func (s *Server) handleSuggestCaption(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid photo index", http.StatusBadRequest)
		return
	}

	data := captionInput{Index: index, Caption: r.FormValue("photo_caption")}
	text, err := s.service.SuggestCaption(r.Context(), r.PathValue("draft"), index)
	switch {
	case err == nil:
		data.Caption = text
	case errors.Is(err, service.ErrCaptionsDisabled),
		errors.Is(err, service.ErrIndexOutOfRange),
		errors.Is(err, draft.ErrDraftNotFound):
		s.serviceError(w, err, "")
		return
	default:
		s.logger.Warn("caption suggestion failed", "photo", index+1, "error", err)
		data.Error = "No suggestion available"
	}

	if err := s.renderPartial(w, "partials/caption_input.html", data); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
