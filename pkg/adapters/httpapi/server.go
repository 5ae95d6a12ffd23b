// Package httpapi exposes the bot over HTTP: a message webhook for channel
// integrations, CRUD for flow definitions, the operator roster and an SSE
// event stream for the monitoring UI.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atendo/atendo/internal/logging"
	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/handler"
	"github.com/atendo/atendo/pkg/operator"
	"github.com/atendo/atendo/pkg/ports"
	"github.com/atendo/atendo/pkg/schema"
	"github.com/atendo/atendo/pkg/session"
)

// Server holds the API dependencies.
type Server struct {
	handler   *handler.Handler
	sessions  *session.Manager
	flows     ports.FlowStore
	operators *operator.Registry
	streams   *StreamManager
	logger    *slog.Logger
	version   string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates the API server.
func NewServer(h *handler.Handler, sessions *session.Manager, flows ports.FlowStore, operators *operator.Registry, opts ...Option) *Server {
	s := &Server{
		handler:   h,
		sessions:  sessions,
		flows:     flows,
		operators: operators,
		streams:   NewStreamManager(),
		logger:    logging.NewNop(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Streams exposes the SSE broadcaster so lifecycle hooks can publish events.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/conversations/{conversationID}/messages", s.postMessage)
		r.Get("/conversations", s.listConversations)
		r.Get("/conversations/{conversationID}/context", s.getContext)
		r.Delete("/conversations/{conversationID}/context", s.deleteContext)

		r.Get("/flows", s.listFlows)
		r.Post("/flows", s.createFlow)
		r.Get("/flows/active", s.getActiveFlow)
		r.Get("/flows/{flowID}", s.getFlow)
		r.Put("/flows/{flowID}", s.updateFlow)
		r.Delete("/flows/{flowID}", s.deleteFlow)
		r.Post("/flows/{flowID}/activate", s.activateFlow)

		r.Get("/operators", s.listOperators)
		r.Post("/operators", s.createOperator)
		r.Delete("/operators/{operatorID}", s.deactivateOperator)
		r.Post("/operators/{operatorID}/release", s.releaseOperator)

		r.Get("/events", s.subscribeEvents)
	})

	r.Get("/healthz", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// -- Conversations --

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Reply           string `json:"reply,omitempty"`
	Silent          bool   `json:"silent,omitempty"`
	Stage           string `json:"stage"`
	TransferToHuman bool   `json:"transferToHuman,omitempty"`
	Department      string `json:"department,omitempty"`
	EndConversation bool   `json:"endConversation,omitempty"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.handler.HandleMessage(r.Context(), conversationID, body.Text)
	if err != nil {
		s.logger.Error("failed to process message",
			"conversation_id", conversationID, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	resp := messageResponse{
		Reply:           res.Reply,
		Silent:          res.Silent(),
		Stage:           res.Context.Stage,
		TransferToHuman: res.TransferToHuman,
		Department:      res.Department,
		EndConversation: res.EndConversation,
	}
	if payload, err := json.Marshal(resp); err == nil {
		s.streams.Broadcast(conversationID, string(payload))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server) getContext(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	conv, err := s.sessions.Load(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrContextNotFound) {
			s.writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	s.writeJSON(w, http.StatusOK, conv)
}

func (s *Server) deleteContext(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	if err := s.sessions.Delete(r.Context(), conversationID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Flows --

type flowSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"isActive"`
	Nodes  int    `json:"nodes"`
}

type flowSaveResponse struct {
	ID       string   `json:"id"`
	Warnings []string `json:"warnings,omitempty"`
}

func lintStrings(graph *domain.FlowGraph) []string {
	warnings := schema.Lint(graph)
	out := make([]string, 0, len(warnings))
	for _, wn := range warnings {
		out = append(out, wn.String())
	}
	return out
}

func (s *Server) listFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := s.flows.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list flows")
		return
	}

	out := make([]flowSummary, 0, len(flows))
	for _, f := range flows {
		out = append(out, flowSummary{ID: f.ID, Name: f.Name, Active: f.Active, Nodes: len(f.Nodes)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) createFlow(w http.ResponseWriter, r *http.Request) {
	graph, ok := s.decodeFlow(w, r)
	if !ok {
		return
	}
	if graph.ID == "" {
		graph.ID = uuid.NewString()
	}

	if err := s.flows.Save(r.Context(), graph); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save flow")
		return
	}
	s.writeJSON(w, http.StatusCreated, flowSaveResponse{ID: graph.ID, Warnings: lintStrings(graph)})
}

func (s *Server) updateFlow(w http.ResponseWriter, r *http.Request) {
	graph, ok := s.decodeFlow(w, r)
	if !ok {
		return
	}
	graph.ID = chi.URLParam(r, "flowID")

	if err := s.flows.Save(r.Context(), graph); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save flow")
		return
	}
	s.writeJSON(w, http.StatusOK, flowSaveResponse{ID: graph.ID, Warnings: lintStrings(graph)})
}

func (s *Server) decodeFlow(w http.ResponseWriter, r *http.Request) (*domain.FlowGraph, bool) {
	var buf json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&buf); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	graph, err := schema.Decode(buf)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid flow definition: "+err.Error())
		return nil, false
	}
	return graph, true
}

func (s *Server) writeFlow(w http.ResponseWriter, graph *domain.FlowGraph) {
	data, err := schema.Encode(graph)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to encode flow")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	graph, err := s.flows.Get(r.Context(), chi.URLParam(r, "flowID"))
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			s.writeError(w, http.StatusNotFound, "flow not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load flow")
		return
	}
	s.writeFlow(w, graph)
}

func (s *Server) getActiveFlow(w http.ResponseWriter, r *http.Request) {
	graph, err := s.flows.ActiveFlow(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveFlow) {
			s.writeError(w, http.StatusNotFound, "no active flow")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load active flow")
		return
	}
	s.writeFlow(w, graph)
}

func (s *Server) activateFlow(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")

	if err := s.flows.Activate(r.Context(), flowID); err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			s.writeError(w, http.StatusNotFound, "flow not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to activate flow")
		return
	}
	s.logger.Info("flow activated", "flow_id", flowID)
	s.writeJSON(w, http.StatusOK, map[string]string{"active": flowID})
}

func (s *Server) deleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.flows.Delete(r.Context(), chi.URLParam(r, "flowID")); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to delete flow")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Operators --

func (s *Server) listOperators(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.operators.List())
}

func (s *Server) createOperator(w http.ResponseWriter, r *http.Request) {
	var op ports.Operator
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if op.Name == "" {
		s.writeError(w, http.StatusBadRequest, "operator name is required")
		return
	}
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	op.Active = true
	op.Load = 0

	s.operators.Register(op)
	s.writeJSON(w, http.StatusCreated, op)
}

func (s *Server) deactivateOperator(w http.ResponseWriter, r *http.Request) {
	if !s.operators.Deactivate(chi.URLParam(r, "operatorID")) {
		s.writeError(w, http.StatusNotFound, "operator not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) releaseOperator(w http.ResponseWriter, r *http.Request) {
	s.operators.Release(chi.URLParam(r, "operatorID"))
	w.WriteHeader(http.StatusNoContent)
}

// -- Misc --

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "atendo",
		"version": s.version,
	})
}
