package httpadapter

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

const multipartMemory = 8 << 20

// upload accepts multipart fields files[] and issue_type_ids[] (the
// bracketless names are accepted too) and answers with the batch report.
func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isMaxBytesError(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload exceeds size limit"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := formFiles(r.MultipartForm, "files[]", "files")
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no files uploaded"})
		return
	}

	rawIDs := formValues(r.MultipartForm, "issue_type_ids[]", "issue_type_ids")
	ids := make([]int64, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid issue type id " + strconv.Quote(raw)})
			return
		}
		ids = append(ids, id)
	}

	files := make([]domain.UploadFile, 0, len(headers))
	for _, header := range headers {
		files = append(files, domain.UploadFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Open:        openPart(header),
		})
	}

	report, err := rt.deps.Uploader.ProcessBatch(r.Context(), files, ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) activeIssueTypes(w http.ResponseWriter, r *http.Request) {
	items, err := rt.deps.IssueTypes.ListActive(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.IssueType{}
	}
	writeJSON(w, http.StatusOK, items)
}

func openPart(header *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return header.Open()
	}
}

func formFiles(form *multipart.Form, names ...string) []*multipart.FileHeader {
	for _, name := range names {
		if files := form.File[name]; len(files) > 0 {
			return files
		}
	}
	return nil
}

func formValues(form *multipart.Form, names ...string) []string {
	for _, name := range names {
		if values := form.Value[name]; len(values) > 0 {
			return values
		}
	}
	return nil
}
