package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/dgallion1/yamloutline/internal/parser"
	"github.com/dgallion1/yamloutline/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type outlineResponse struct {
	Filename    string             `json:"filename"`
	Title       string             `json:"title"`
	ContentHash string             `json:"content_hash"`
	Cached      bool               `json:"cached"`
	Segments    int                `json:"segments"`
	Keys        int                `json:"keys"`
	Entries     []doctree.Entry    `json:"entries"`
	Roots       []*doctree.DocNode `json:"roots,omitempty"`
}

// handleOutline outlines one document synchronously. The document is either
// the multipart "file" field or the raw request body named by ?filename=.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	var (
		filename string
		data     []byte
		err      error
	)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		filename = sanitizeFilename(header.Filename)
		data, err = s.readLimited(file)
		if err != nil {
			s.uploadError(w, err)
			return
		}
	} else {
		filename = r.URL.Query().Get("filename")
		if filename == "" {
			jsonError(w, "filename query parameter is required for raw uploads", http.StatusBadRequest)
			return
		}
		filename = sanitizeFilename(filename)
		data, err = s.readLimited(r.Body)
		if err != nil {
			s.uploadError(w, err)
			return
		}
	}

	res, err := s.orchestrator.Analyzer().Analyze(r.Context(), filename, data)
	if errors.Is(err, parser.ErrUnsupported) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		s.log.Error("outline failed", "filename", filename, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	resp := outlineResponse{
		Filename:    filename,
		Title:       res.Tree.Title,
		ContentHash: res.ContentHash,
		Cached:      res.Cached,
		Segments:    res.Segments,
		Keys:        len(res.Tree.Entries),
		Entries:     res.Tree.Entries,
	}
	if wantTree(r) {
		resp.Roots = nested(res.Tree)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatchOutline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID := r.FormValue("user_id")
	if userID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}
		data, err := s.readLimited(f)
		f.Close()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}
		if !parser.IsSupportedExtension(filename) && !parser.IsYAML(filename, data) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		job := pipeline.NewJob(userID, "", filename, "", data)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"doc_id":   job.DocID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/outline/%s", job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

// handleJobStatus reports a batch job. Finished jobs include their entries.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	resp := map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"filename": snap.Filename,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	}
	if snap.ContentHash != "" {
		resp["content_hash"] = snap.ContentHash
	}
	if tree := job.Outline(); tree != nil && snap.Status.Done() {
		resp["title"] = tree.Title
		resp["entries"] = tree.Entries
		if wantTree(r) {
			resp["roots"] = nested(tree)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	a := s.orchestrator.Analyzer()
	writeJSON(w, http.StatusOK, map[string]any{
		"dedent_policy": a.Policy().String(),
		"queue_depth":   s.orchestrator.QueueDepth(),
		"publishing":    s.orchestrator.Publisher() != nil,
		"analysis":      a.Stats().Snapshot(),
	})
}

var errTooLarge = errors.New("file too large")

func (s *Server) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errTooLarge
		}
		return nil, err
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, errTooLarge
	}
	return data, nil
}

func (s *Server) uploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooLarge) {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "failed to read file", http.StatusInternalServerError)
}

// nested builds the nested view on a copy so shared trees stay untouched.
func nested(tree *doctree.DocTree) []*doctree.DocNode {
	view := &doctree.DocTree{Title: tree.Title, Entries: tree.Entries}
	view.Nest()
	return view.Roots
}

func wantTree(r *http.Request) bool {
	return r.URL.Query().Get("tree") == "true"
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mt, "multipart/")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
