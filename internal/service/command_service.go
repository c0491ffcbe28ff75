package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/rosterpilot/internal/audit"
	"github.com/yourorg/rosterpilot/internal/domain"
	"github.com/yourorg/rosterpilot/internal/observability/metrics"
	"github.com/yourorg/rosterpilot/internal/proposal"
	"github.com/yourorg/rosterpilot/internal/resolver"
	"github.com/yourorg/rosterpilot/internal/translator"
)

// Response type discriminators for Query.
const (
	ResponseClarification = "clarification"
	ResponseResult        = "result"
	ResponseProposal      = "proposal"
)

const defaultClarification = "Koennen Sie die Anfrage bitte praezisieren?"

// CommandService is the engine entry point: it interprets a free-text
// command and either executes it read-only or issues a write proposal,
// and it commits previously issued proposals. No state is held between
// requests; everything lives in the store or inside the token.
type CommandService struct {
	parser     translator.Parser
	resolver   *resolver.Resolver
	roster     domain.RosterStore
	audit      *audit.Recorder
	codec      proposal.Codec
	markers    domain.TokenMarkerStore
	dispatcher *Dispatcher
	// minConfidence below which the translator's clarification
	// question is returned instead of acting.
	minConfidence float64
	logger        *slog.Logger
}

// NewCommandService creates a new command service
func NewCommandService(
	parser translator.Parser,
	res *resolver.Resolver,
	roster domain.RosterStore,
	auditRecorder *audit.Recorder,
	codec proposal.Codec,
	markers domain.TokenMarkerStore,
	dispatcher *Dispatcher,
	minConfidence float64,
	logger *slog.Logger,
) *CommandService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandService{
		parser:        parser,
		resolver:      res,
		roster:        roster,
		audit:         auditRecorder,
		codec:         codec,
		markers:       markers,
		dispatcher:    dispatcher,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// QueryRequest is one free-text command with its execution context.
type QueryRequest struct {
	Command string                  `json:"command"`
	Context domain.ExecutionContext `json:"context"`
}

// QueryResponse is one of clarification, result or proposal.
type QueryResponse struct {
	Type     string                `json:"type"`
	State    RequestState          `json:"state"`
	Intent   domain.Intent         `json:"intent,omitempty"`
	Question string                `json:"question,omitempty"`
	Data     any                   `json:"data,omitempty"`
	Token    string                `json:"token,omitempty"`
	Summary  string                `json:"summary,omitempty"`
	Parsed   *domain.ParsedCommand `json:"parsed,omitempty"`
}

// Query interprets a command. Read intents execute immediately; write
// intents are validated eagerly and answered with a signed proposal,
// never applied here.
func (s *CommandService) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	parsed, err := s.parser.Parse(ctx, req.Command)
	if err != nil {
		return nil, err
	}

	if parsed.NeedsClarification || parsed.Confidence < s.minConfidence {
		question := parsed.ClarificationQuestion
		if question == "" {
			question = defaultClarification
		}
		// Nothing was attempted against the store, so nothing is
		// audited.
		return &QueryResponse{
			Type:     ResponseClarification,
			State:    StateNeedsClarification,
			Intent:   parsed.Intent,
			Question: question,
			Parsed:   parsed,
		}, nil
	}

	switch {
	case parsed.Intent.IsRead():
		return s.executeRead(ctx, req, parsed)
	case parsed.Intent.IsWrite():
		return s.propose(ctx, req, parsed)
	default:
		metrics.ObserveCommand(string(parsed.Intent), "rejected")
		return nil, domain.NewValidationError("Befehl nicht verstanden")
	}
}

// propose validates a write intent and issues the proposal token.
// Validation and resolution failures abort before any store write and
// before any audit entry, since nothing was attempted against a plan.
func (s *CommandService) propose(ctx context.Context, req QueryRequest, parsed *domain.ParsedCommand) (*QueryResponse, error) {
	execCtx := req.Context

	cmd, err := s.dispatcher.ValidateWrite(parsed, execCtx)
	if err != nil {
		metrics.ObserveCommand(string(parsed.Intent), "invalid")
		return nil, err
	}
	if err := s.resolveWriteTargets(ctx, cmd); err != nil {
		metrics.ObserveCommand(string(parsed.Intent), "invalid")
		return nil, err
	}

	summary := cmd.Summary()
	payload := &proposal.Payload{
		Intent:  parsed.Intent,
		Fields:  parsed.Fields,
		Context: execCtx,
		Summary: summary,
	}
	token, err := s.codec.Issue(payload)
	if err != nil {
		return nil, err
	}

	s.audit.RecordResult(ctx, domain.AuditEntry{
		Site:       execCtx.Site,
		Command:    req.Command,
		Action:     string(parsed.Intent),
		TargetPlan: targetPlanOf(cmd),
		PlanYear:   targetYearOf(cmd),
		Status:     domain.AuditStatusProposed,
	}, map[string]any{"summary": summary})

	metrics.ObserveCommand(string(parsed.Intent), "proposed")
	metrics.ObserveProposalIssued()

	return &QueryResponse{
		Type:    ResponseProposal,
		State:   StateProposalIssued,
		Intent:  parsed.Intent,
		Token:   token,
		Summary: summary,
		Parsed:  parsed,
	}, nil
}

// resolveWriteTargets re-checks that every referenced entity exists.
// Used identically at propose and commit time; resolution is never
// cached across the two phases.
func (s *CommandService) resolveWriteTargets(ctx context.Context, cmd WriteCommand) error {
	switch c := cmd.(type) {
	case AdjustCommand:
		if _, err := s.resolver.ResolveUnit(ctx, c.Department); err != nil {
			return err
		}
		if _, err := s.resolver.ResolveEmployee(ctx, c.Employee); err != nil {
			return err
		}
	case TransferCommand:
		if _, err := s.resolver.ResolveUnit(ctx, c.FromUnit); err != nil {
			return err
		}
		if _, err := s.resolver.ResolveUnit(ctx, c.ToUnit); err != nil {
			return err
		}
		if _, err := s.resolver.ResolveEmployee(ctx, c.Employee); err != nil {
			return err
		}
	}
	return nil
}

// CommitRequest carries a proposal token plus optional context
// overrides.
type CommitRequest struct {
	Token   string                  `json:"token"`
	Context domain.ExecutionContext `json:"context"`
}

// CommitResponse reports an applied write.
type CommitResponse struct {
	State   RequestState `json:"state"`
	Intent  domain.Intent `json:"intent"`
	Summary string       `json:"summary"`
	Result  any          `json:"result"`
}

// Commit verifies a proposal token, enforces single use, re-resolves
// every entity fresh and applies exactly the action the token encodes.
// Every commit attempt is audited, whatever the outcome.
func (s *CommandService) Commit(ctx context.Context, req CommitRequest) (*CommitResponse, error) {
	payload, err := s.codec.Verify(req.Token)
	if err != nil {
		metrics.ObserveCommit("invalid_token")
		s.audit.RecordResult(ctx, domain.AuditEntry{
			Site:   req.Context.Site,
			Action: "commit",
			Status: domain.AuditStatusError,
		}, map[string]any{"error": domain.MessageOf(err)})
		return nil, err
	}

	execCtx := payload.Context.Merge(req.Context)

	first, err := s.markers.MarkConsumed(ctx, proposal.TokenHash(req.Token))
	if err != nil {
		// Fail closed: without the marker there is no single-use
		// guarantee.
		return nil, s.failCommit(ctx, payload, execCtx, err)
	}
	if !first {
		err := domain.NewTokenError("Vorschlag wurde bereits ausgefuehrt")
		return nil, s.failCommit(ctx, payload, execCtx, err)
	}

	parsed := &domain.ParsedCommand{Intent: payload.Intent, Fields: payload.Fields}
	cmd, err := s.dispatcher.ValidateWrite(parsed, execCtx)
	if err != nil {
		s.releaseMarker(ctx, req.Token)
		return nil, s.failCommit(ctx, payload, execCtx, err)
	}

	result, err := s.executeWrite(ctx, execCtx, cmd)
	if err != nil {
		// Nothing was written, so the proposal may be retried.
		s.releaseMarker(ctx, req.Token)
		return nil, s.failCommit(ctx, payload, execCtx, err)
	}

	s.audit.RecordResult(ctx, domain.AuditEntry{
		Site:       execCtx.Site,
		Command:    payload.Summary,
		Action:     string(payload.Intent),
		TargetPlan: targetPlanOf(cmd),
		PlanYear:   targetYearOf(cmd),
		Status:     domain.AuditStatusOK,
	}, result)

	metrics.ObserveCommit("ok")
	return &CommitResponse{
		State:   StateWriteCommitted,
		Intent:  payload.Intent,
		Summary: payload.Summary,
		Result:  result,
	}, nil
}

// releaseMarker gives a failed commit its single-use marker back. A
// failed release only costs the caller a retry inside the token TTL.
func (s *CommandService) releaseMarker(ctx context.Context, token string) {
	if err := s.markers.Release(ctx, proposal.TokenHash(token)); err != nil {
		s.logger.Warn("failed to release proposal token marker", slog.String("error", err.Error()))
	}
}

func (s *CommandService) failCommit(ctx context.Context, payload *proposal.Payload, execCtx domain.ExecutionContext, cause error) error {
	metrics.ObserveCommit("error")
	s.audit.RecordResult(ctx, domain.AuditEntry{
		Site:     execCtx.Site,
		Command:  payload.Summary,
		Action:   string(payload.Intent),
		PlanYear: payload.Fields.Year,
		Status:   domain.AuditStatusError,
	}, map[string]any{"error": domain.MessageOf(cause)})
	return cause
}

func targetPlanOf(cmd WriteCommand) string {
	switch c := cmd.(type) {
	case AdjustCommand:
		return c.Department
	case TransferCommand:
		return c.ToUnit
	}
	return ""
}

func targetYearOf(cmd WriteCommand) int {
	switch c := cmd.(type) {
	case AdjustCommand:
		return c.Year
	case TransferCommand:
		return c.Year
	}
	return 0
}
