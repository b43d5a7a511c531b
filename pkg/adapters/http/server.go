package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds request bodies unless WithMaxBodyBytes says otherwise.
const DefaultMaxBodyBytes = 1 << 20

// Server exposes actions over HTTP.
//
//	POST /actions/{name}          input from the body
//	POST /actions/{name}/a/b      a and b become positional binds
//	GET  /actions                 action descriptions
type Server struct {
	actions  map[string]*pipeline.Action
	logger   *slog.Logger
	maxBytes int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBytes = n
	}
}

// NewServer indexes actions by name. Unnamed actions are skipped.
func NewServer(actions []*pipeline.Action, opts ...Option) *Server {
	s := &Server{
		actions:  make(map[string]*pipeline.Action, len(actions)),
		logger:   slog.Default(),
		maxBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, a := range actions {
		if a.Name() == "" {
			s.logger.Warn("Skipping unnamed action")
			continue
		}
		s.actions[a.Name()] = a
	}
	return s
}

// Router returns a chi router with every route mounted, so callers can add
// their own (e.g. /metrics).
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/actions", s.ListActions)
	r.Post("/actions/{name}", s.InvokeAction)
	r.Post("/actions/{name}/*", s.InvokeAction)
	return r
}

// NewHandler creates a new HTTP handler for actions.
func NewHandler(actions []*pipeline.Action, opts ...Option) http.Handler {
	return NewServer(actions, opts...).Router()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// InvokeAction handles POST /actions/{name}.
func (s *Server) InvokeAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	action, ok := s.actions[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, &pipeline.Response{
			Error: domain.Serialize(domain.NewServerError(domain.CodeNotFound, fmt.Sprintf("action %q not found", name))),
		})
		return
	}

	input, err := s.readInput(r)
	if err != nil {
		s.logger.Warn("InvokeAction: Invalid request body", "action", name, "error", err)
		code := domain.CodeBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = domain.CodePayloadTooLarge
		}
		serr := domain.NewServerError(code, err.Error())
		writeJSON(w, serr.Status, &pipeline.Response{Error: domain.Serialize(serr)})
		return
	}

	res, err := action.Invoke(r.Context(), Arguments(action.BindGroups(), pathBinds(r), input)...)
	if err != nil {
		s.handleSignal(w, r, err)
		return
	}

	writeJSON(w, StatusOf(res), res)
}

// handleSignal translates host signals into HTTP responses.
func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request, err error) {
	var sig *domain.Signal
	if !errors.As(err, &sig) {
		s.logger.Error("InvokeAction: unexpected error", "error", err)
		writeJSON(w, http.StatusInternalServerError, &pipeline.Response{Error: domain.Serialize(err)})
		return
	}

	switch p := sig.Payload.(type) {
	case domain.RedirectPayload:
		http.Redirect(w, r, p.URL, p.Status)
	case domain.NotFoundPayload:
		http.NotFound(w, r)
	default:
		s.logger.Error("InvokeAction: unsupported signal", "signal", sig)
		writeJSON(w, http.StatusInternalServerError, &pipeline.Response{Error: domain.Serialize(domain.DefaultServerError(sig))})
	}
}

// readInput decodes JSON bodies into plain values and form bodies into url.Values.
func (s *Server) readInput(r *http.Request) (any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, s.maxBytes)

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		var err error
		mediaType, _, err = mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("%w: content type: %v", domain.ErrInvalidArguments, err)
		}
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.maxBytes); err != nil {
			return nil, err
		}
		return url.Values(r.MultipartForm.Value), nil
	default:
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var input any
		if err := dec.Decode(&input); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
		}
		return input, nil
	}
}

func pathBinds(r *http.Request) []string {
	rest := strings.Trim(chi.URLParam(r, "*"), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// Arguments lays out invocation arguments for an action expecting groups
// positional binds. Without declared groups, binds are only passed along
// with form input, which is how such actions tell binds from input.
func Arguments(groups int, binds []string, input any) []any {
	args := make([]any, 0, len(binds)+1)
	if groups > 0 {
		for i := 0; i < groups; i++ {
			if i < len(binds) {
				args = append(args, binds[i])
			} else {
				args = append(args, nil)
			}
		}
		return append(args, input)
	}
	if _, isForm := input.(url.Values); isForm {
		for _, b := range binds {
			args = append(args, b)
		}
	}
	return append(args, input)
}

// StatusOf maps a response onto an HTTP status.
func StatusOf(res *pipeline.Response) int {
	switch {
	case res.OK:
		return http.StatusOK
	case res.Error == nil:
		return http.StatusInternalServerError
	case res.Error.Status != 0:
		return res.Error.Status
	case res.Error.Name == domain.KindValidation.String():
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ListActions handles GET /actions.
func (s *Server) ListActions(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.actions))
	for name := range s.actions {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]pipeline.Description, len(names))
	for i, name := range names {
		out[i] = s.actions[name].Describe()
	}
	writeJSON(w, http.StatusOK, out)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":     "lattice-http",
		"version": strings.TrimSpace(lattice.Version),
		"actions": len(s.actions),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}
