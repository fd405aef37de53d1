package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/matzehuels/canvaslayout/pkg/buildinfo"
	"github.com/matzehuels/canvaslayout/pkg/errors"
	"github.com/matzehuels/canvaslayout/pkg/graph"
	"github.com/matzehuels/canvaslayout/pkg/pipeline"
)

// Response headers set by the layout and render endpoints.
const (
	CacheHeader    = "X-Cache"
	RepairedHeader = "X-Repaired-Blocks"
)

var contentTypes = map[string]string{
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatJSON: "application/json",
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version, Commit: buildinfo.Commit})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, pipeline.FormatJSON)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	s.serve(w, r, format)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, format string) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	opts := s.base
	opts.Formats = []string{format}
	opts.Overrides = nil
	opts.Logger = s.logger.With("request_id", RequestID(r.Context()))

	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	format = res.Formats()[0]
	if res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit {
		w.Header().Set(CacheHeader, "hit")
	} else {
		w.Header().Set(CacheHeader, "miss")
	}
	if len(res.Repaired) > 0 {
		w.Header().Set(RepairedHeader, strings.Join(res.Repaired, ","))
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (graph.Document, error) {
	format := graph.FormatJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return graph.Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "content type")
		}
		switch mt {
		case "application/json":
		case "application/yaml", "application/x-yaml", "text/yaml":
			format = graph.FormatYAML
		default:
			return graph.Document{}, errors.New(errors.ErrCodeInvalidInput, "unsupported content type %q", mt)
		}
	}
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer body.Close()
	return graph.ReadDocument(body, format)
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorStatus(w, r, errors.HTTPStatus(err), err)
}

func writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{
		Error:     errorBody{Code: code, Message: errors.UserMessage(err)},
		RequestID: RequestID(r.Context()),
	})
}

func notFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}

func methodNotAllowed(method, path string) error {
	return errors.New(errors.ErrCodeUnsupported, "%s not allowed on %s", method, path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
