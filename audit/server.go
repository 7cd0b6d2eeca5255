// Package audit exposes a registry's trust policy over HTTP so operators can
// inspect which modules each kind of session receives.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoCodeAlone/capreg"
)

// maxBodyBytes bounds assemble request bodies.
const maxBodyBytes = 1 << 20

// DescriptorView is the JSON form of one descriptor row.
type DescriptorView struct {
	Kind       capreg.ModuleKind `json:"kind" yaml:"kind"`
	Doc        string            `json:"doc,omitempty" yaml:"doc,omitempty"`
	Kernel     bool              `json:"kernel" yaml:"kernel"`
	Verified   bool              `json:"verified" yaml:"verified"`
	Unverified bool              `json:"unverified" yaml:"unverified"`
}

// ModuleView is the JSON form of one assembled module.
type ModuleView struct {
	Kind capreg.ModuleKind `json:"kind" yaml:"kind"`
	Name string            `json:"name" yaml:"name"`
}

// AssemblyView is the JSON form of an assembly result.
type AssemblyView struct {
	Mode          string       `json:"mode" yaml:"mode"`
	Verified      bool         `json:"verified" yaml:"verified"`
	NativeModules []ModuleView `json:"nativeModules" yaml:"nativeModules"`
	ScriptModules int          `json:"scriptModules" yaml:"scriptModules"`
	ViewManagers  int          `json:"viewManagers" yaml:"viewManagers"`
}

// AssembleRequest is the body of POST /assemble.
type AssembleRequest struct {
	Mode       string                `json:"mode" yaml:"mode"`
	Manifest   capreg.Manifest       `json:"manifest" yaml:"manifest"`
	Properties capreg.TaskProperties `json:"properties" yaml:"properties"`
}

type errorView struct {
	Error string            `json:"error" yaml:"error"`
	Kind  capreg.ModuleKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// Server serves the audit endpoints for one registry.
type Server struct {
	registry *capreg.ModuleRegistry
	config   *capreg.RuntimeConfig
	logger   capreg.Logger
}

// NewServer creates an audit server. cfg configures the runtime context of
// assemblies run through POST /assemble.
func NewServer(reg *capreg.ModuleRegistry, cfg *capreg.RuntimeConfig, logger capreg.Logger) *Server {
	return &Server{registry: reg, config: cfg, logger: logger}
}

// Router returns the chi router serving:
//
//	GET  /descriptors               the descriptor table with per-trust eligibility
//	GET  /plan?mode=&verified=      the kinds a session would receive
//	POST /assemble                  run an assembly for a manifest
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/descriptors", s.handleDescriptors)
	r.Get("/plan", s.handlePlan)
	r.Post("/assemble", s.handleAssemble)
	return r
}

func (s *Server) handleDescriptors(w http.ResponseWriter, _ *http.Request) {
	descs := s.registry.Descriptors()
	views := make([]DescriptorView, 0, len(descs))
	for _, d := range descs {
		views = append(views, DescriptorView{
			Kind:       d.Kind,
			Doc:        d.Doc,
			Kernel:     d.Eligible(capreg.Trust{Mode: capreg.KernelMode}),
			Verified:   d.Eligible(capreg.Trust{Mode: capreg.TaskMode, Verified: true}),
			Unverified: d.Eligible(capreg.Trust{Mode: capreg.TaskMode}),
		})
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	rc, err := contextFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	kinds, err := s.registry.Plan(rc)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, kinds)
}

func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req AssembleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	rc, err := contextFromRequest(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	set, err := s.registry.Assemble(capreg.NewRuntimeContext(s.config, s.logger), rc)
	if err != nil {
		var mce *capreg.ModuleConstructionError
		if errors.As(err, &mce) {
			s.writeJSON(w, http.StatusUnprocessableEntity, errorView{Error: err.Error(), Kind: mce.Kind})
			return
		}
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, View(rc, set))
}

// View renders an assembly result.
func View(rc capreg.RegistrationContext, set *capreg.AssembledModuleSet) AssemblyView {
	v := AssemblyView{
		Mode:          rc.Mode().String(),
		NativeModules: make([]ModuleView, 0, set.Len()),
		ScriptModules: len(set.ScriptModules),
		ViewManagers:  len(set.ViewManagers),
	}
	switch tc := rc.(type) {
	case capreg.TaskContext:
		v.Verified = tc.Manifest.IsVerified()
	case *capreg.TaskContext:
		if tc != nil {
			v.Verified = tc.Manifest.IsVerified()
		}
	}
	for i, k := range set.Kinds() {
		v.NativeModules = append(v.NativeModules, ModuleView{Kind: k, Name: set.NativeModules[i].Name()})
	}
	return v
}

func contextFromQuery(r *http.Request) (capreg.RegistrationContext, error) {
	mode, err := capreg.ParseTrustMode(r.URL.Query().Get("mode"))
	if err != nil {
		return nil, err
	}
	if mode == capreg.KernelMode {
		return capreg.KernelContext{}, nil
	}
	verified := false
	if raw := r.URL.Query().Get("verified"); raw != "" {
		if verified, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("%w: verified=%q", capreg.ErrInvalidContext, raw)
		}
	}
	return capreg.NewTaskContext(nil, capreg.Manifest{capreg.ManifestVerifiedKey: verified}), nil
}

func contextFromRequest(req AssembleRequest) (capreg.RegistrationContext, error) {
	mode, err := capreg.ParseTrustMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if mode == capreg.KernelMode {
		if req.Manifest != nil || req.Properties != nil {
			return nil, fmt.Errorf("%w: kernel sessions take no manifest or properties", capreg.ErrInvalidContext)
		}
		return capreg.KernelContext{}, nil
	}
	return capreg.NewTaskContext(req.Properties, req.Manifest), nil
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorView{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}
