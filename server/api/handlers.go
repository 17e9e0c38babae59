// Package api implements the HTTP handlers for witness generation, proving
// and verification.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mailproof/mailproof/mailer"
	"github.com/mailproof/mailproof/pipeline"
	"github.com/mailproof/mailproof/prover"
	"github.com/mailproof/mailproof/witness"
)

// Server handles HTTP requests for the email witness pipeline.
type Server struct {
	registry *prover.Registry
	pipeline *pipeline.Pipeline
	mailer   mailer.Mailer // optional notification channel
}

func NewServer(registry *prover.Registry, p *pipeline.Pipeline, m mailer.Mailer) *Server {
	return &Server{registry: registry, pipeline: p, mailer: m}
}

// ==== Request/Response Types ====

// WitnessOptions mirror the pipeline configuration surface.
type WitnessOptions struct {
	MaxHeaderLength       int    `json:"maxHeaderLength"`
	MaxBodyLength         int    `json:"maxBodyLength"`
	EnableBodyParsing     bool   `json:"enableBodyParsing"`
	IgnoreBodyHashCheck   bool   `json:"ignoreBodyHashCheck"`
	DecodeQuotedPrintable bool   `json:"decodeQuotedPrintable"`
	SelectorRule          string `json:"selectorRule,omitempty"`
}

// WitnessRequest carries a raw email and the account binding.
type WitnessRequest struct {
	Email       string         `json:"email"`
	AccountCode string         `json:"accountCode"`
	Options     WitnessOptions `json:"options"`
	NotifyTo    string         `json:"notifyTo,omitempty"`
}

// WitnessResponse returns the assembled circuit input.
type WitnessResponse struct {
	Circuit   string                `json:"circuit"`
	Witness   *witness.CircuitInput `json:"witness"`
	Timestamp time.Time             `json:"timestamp"`
}

// ProveResponse returns the witness together with its proof artifact.
type ProveResponse struct {
	Circuit       string                `json:"circuit"`
	Witness       *witness.CircuitInput `json:"witness"`
	Proof         prover.Proof          `json:"proof"`
	PublicSignals []string              `json:"publicSignals"`
	Timestamp     time.Time             `json:"timestamp"`
}

// VerifyRequest carries a witness (public fields populated) and a proof.
type VerifyRequest struct {
	Witness *witness.CircuitInput `json:"witness"`
	Proof   prover.Proof          `json:"proof"`
}

// VerifyResponse reports the verification outcome.
type VerifyResponse struct {
	Valid     bool      `json:"valid"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the uniform error shape.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CircuitListResponse lists loaded circuits.
type CircuitListResponse struct {
	Circuits []string `json:"circuits"`
	Count    int      `json:"count"`
}

// ==== Handlers ====

// HandleHealth handles health check requests.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// HandleListCircuits lists the loaded circuits.
func (s *Server) HandleListCircuits(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	respondJSON(w, http.StatusOK, CircuitListResponse{Circuits: names, Count: len(names)})
}

// HandleWitness generates a circuit input from a raw email.
func (s *Server) HandleWitness(w http.ResponseWriter, r *http.Request) {
	req, cfg, ok := s.decodeWitnessRequest(w, r)
	if !ok {
		return
	}

	in, err := s.pipeline.Generate(r.Context(), []byte(req.Email), req.AccountCode, cfg)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, WitnessResponse{
		Circuit:   pipeline.CircuitName(cfg),
		Witness:   in,
		Timestamp: time.Now(),
	})
}

// HandleProve generates a circuit input and proves it.
func (s *Server) HandleProve(w http.ResponseWriter, r *http.Request) {
	req, cfg, ok := s.decodeWitnessRequest(w, r)
	if !ok {
		return
	}
	circuitName := pipeline.CircuitName(cfg)
	s.notifyAck(r.Context(), req, circuitName)

	in, err := s.pipeline.Generate(r.Context(), []byte(req.Email), req.AccountCode, cfg)
	if err != nil {
		s.notifyError(r.Context(), req, err)
		respondPipelineError(w, err)
		return
	}

	driver := prover.NewGnarkDriver(s.registry, circuitName, nil)
	artifact, err := driver.Prove(r.Context(), in)
	if err != nil {
		s.notifyError(r.Context(), req, err)
		respondError(w, http.StatusInternalServerError, "proof_generation_failed", err.Error())
		return
	}

	s.notifyCompletion(r.Context(), req)
	respondJSON(w, http.StatusOK, ProveResponse{
		Circuit:       circuitName,
		Witness:       in,
		Proof:         artifact.Proof,
		PublicSignals: artifact.PublicSignals,
		Timestamp:     time.Now(),
	})
}

// HandleVerify verifies a proof against the public part of a witness.
func (s *Server) HandleVerify(w http.ResponseWriter, r *http.Request) {
	circuitName := chi.URLParam(r, "circuit")
	if _, err := s.registry.Get(circuitName); err != nil {
		respondError(w, http.StatusNotFound, "circuit_not_found", err.Error())
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", fmt.Sprintf("failed to parse request: %v", err))
		return
	}
	if req.Witness == nil || req.Proof.Proof == "" {
		respondError(w, http.StatusBadRequest, "missing_input", "both witness and proof are required")
		return
	}

	driver := prover.NewGnarkDriver(s.registry, circuitName, nil)
	if err := driver.Verify(req.Witness, &req.Proof); err != nil {
		respondJSON(w, http.StatusOK, VerifyResponse{Valid: false, Message: err.Error(), Timestamp: time.Now()})
		return
	}
	respondJSON(w, http.StatusOK, VerifyResponse{Valid: true, Timestamp: time.Now()})
}

// ==== Helpers ====

func (s *Server) decodeWitnessRequest(w http.ResponseWriter, r *http.Request) (*WitnessRequest, pipeline.Config, bool) {
	var req WitnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json", fmt.Sprintf("failed to parse request: %v", err))
		return nil, nil, false
	}
	if req.Email == "" || req.AccountCode == "" {
		respondError(w, http.StatusBadRequest, "missing_input", "both email and accountCode are required")
		return nil, nil, false
	}

	cfg := toConfig(req.Options)
	if _, err := s.registry.Get(pipeline.CircuitName(cfg)); err != nil {
		respondError(w, http.StatusServiceUnavailable, "circuit_not_loaded", err.Error())
		return nil, nil, false
	}
	return &req, cfg, true
}

func toConfig(o WitnessOptions) pipeline.Config {
	maxHeader := o.MaxHeaderLength
	if maxHeader == 0 {
		maxHeader = prover.MaxHeaderLength
	}
	if !o.EnableBodyParsing {
		return pipeline.HeaderOnlyConfig{
			MaxHeaderLength:     maxHeader,
			IgnoreBodyHashCheck: o.IgnoreBodyHashCheck,
		}
	}
	maxBody := o.MaxBodyLength
	if maxBody == 0 {
		maxBody = prover.MaxBodyLength
	}
	return pipeline.HeaderAndBodyConfig{
		MaxHeaderLength:       maxHeader,
		MaxBodyLength:         maxBody,
		IgnoreBodyHashCheck:   o.IgnoreBodyHashCheck,
		DecodeQuotedPrintable: o.DecodeQuotedPrintable,
		SelectorRule:          o.SelectorRule,
	}
}

// notifyAck confirms receipt of a proof request before the long-running
// work starts, mirroring the acknowledgement the relayer sends when it picks
// an email up.
func (s *Server) notifyAck(ctx context.Context, req *WitnessRequest, circuit string) {
	if s.mailer == nil || req.NotifyTo == "" {
		return
	}
	msg, err := mailer.Acknowledgement(req.NotifyTo, circuit, "Proof request", "")
	if err != nil {
		return
	}
	s.mailer.Send(ctx, msg)
}

func (s *Server) notifyCompletion(ctx context.Context, req *WitnessRequest) {
	if s.mailer == nil || req.NotifyTo == "" {
		return
	}
	msg, err := mailer.Completion(req.NotifyTo, "proof request", "Proof request", "")
	if err != nil {
		return
	}
	// Notification failures never fail the request.
	s.mailer.Send(ctx, msg)
}

func (s *Server) notifyError(ctx context.Context, req *WitnessRequest, cause error) {
	if s.mailer == nil || req.NotifyTo == "" {
		return
	}
	msg, err := mailer.ErrorNotice(req.NotifyTo, cause.Error(), "Proof request")
	if err != nil {
		return
	}
	s.mailer.Send(ctx, msg)
}
