package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/lwgate/internal/catalog"
	"github.com/roach88/lwgate/internal/gate"
	"github.com/roach88/lwgate/internal/metrics"
)

// User-facing verification notices.
const (
	MessageVerified = "授权成功"
	MessageInvalid  = "授权码无效，请检查机器码与授权码"
)

func (s *Server) registerActions() {
	s.dispatcher.Register(ActionContact, func(ctx context.Context, req Request) (Outcome, error) {
		return Outcome{Prompt: true, State: req.Gate.State(ctx)}, nil
	})
	s.dispatcher.Register(ActionClose, func(ctx context.Context, req Request) (Outcome, error) {
		return Outcome{State: req.Gate.State(ctx)}, nil
	})
	s.dispatcher.Register(ActionGatedLink, s.followLink)
	s.dispatcher.Register(ActionVerify, s.verify)
}

// followLink redirects to a configured link when unlocked and opens the gate
// prompt otherwise.
func (s *Server) followLink(ctx context.Context, req Request) (Outcome, error) {
	st := req.Gate.State(ctx)
	link, ok := s.cfg.Link(req.Form.Get("link"))
	if st.Authorized && ok {
		return Outcome{Redirect: link.Href, State: st}, nil
	}
	return Outcome{Prompt: true, State: st}, nil
}

// verify runs the gate transition with the submitted machine id and code.
// A success re-fetches the catalog once so the cards reflect the new state.
func (s *Server) verify(ctx context.Context, req Request) (Outcome, error) {
	mc := req.Form.Get("mc")
	st, err := req.Gate.Verify(ctx, mc, req.Form.Get("lic"))

	var verr *gate.VerifyError
	switch {
	case err == nil:
		s.metrics.ObserveVerify(true)
		s.recordAttempt(ctx, req.SessionID, mc, true, "")
		return Outcome{
			Verified: true,
			Message:  MessageVerified,
			State:    st,
			Items:    s.loadCatalog(ctx),
		}, nil
	case errors.As(err, &verr):
		s.metrics.ObserveVerify(false)
		s.recordAttempt(ctx, req.SessionID, mc, false, string(verr.Reason))
		return Outcome{Prompt: true, Message: MessageInvalid, State: st}, nil
	default:
		s.metrics.Verifications.WithLabelValues(metrics.ResultError).Inc()
		return Outcome{}, err
	}
}

func (s *Server) recordAttempt(ctx context.Context, sessionID, mc string, ok bool, reason string) {
	rec, isRecorder := s.stores.(AttemptRecorder)
	if !isRecorder {
		return
	}
	if err := rec.RecordAttempt(ctx, sessionID, mc, ok, reason); err != nil {
		s.logger.Warn("failed to record verification attempt", "session_id", sessionID, "error", err)
	}
}

// handlePage runs the page-load hook before anything gated is rendered.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	g, _, err := s.gateFor(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}
	st, err := g.Load(r.Context(), NavigationFromRequest(r))
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.renderPage(w, r, Outcome{State: st})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	s.dispatch(w, r, r.PathValue("id"))
}

func (s *Server) handleGo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	r.Form.Set("link", r.PathValue("link"))
	s.dispatch(w, r, ActionGatedLink)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, id string) {
	g, sid, err := s.gateFor(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}

	out, err := s.dispatcher.Dispatch(r.Context(), id, Request{SessionID: sid, Gate: g, Form: r.Form})
	switch {
	case errors.Is(err, ErrUnknownAction):
		http.NotFound(w, r)
		return
	case err != nil:
		s.internalError(w, err)
		return
	}

	if out.Redirect != "" {
		http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
		return
	}
	s.renderPage(w, r, out)
}

type machineCodeResponse struct {
	MachineCode string `json:"machine_code"`
}

func (s *Server) handleMachineCode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, machineCodeResponse{MachineCode: machineID(r)})
}

type stateResponse struct {
	Status    string `json:"status"`
	MachineID string `json:"machine_id,omitempty"`
}

func newStateResponse(st gate.State) stateResponse {
	return stateResponse{Status: st.Status().String(), MachineID: st.MachineID}
}

type verifyResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	State   stateResponse  `json:"state"`
	Cards   []catalog.Card `json:"cards,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form"})
		return
	}
	g, sid, err := s.gateFor(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}

	out, err := s.dispatcher.Dispatch(r.Context(), ActionVerify, Request{SessionID: sid, Gate: g, Form: r.Form})
	if err != nil {
		s.internalError(w, err)
		return
	}

	resp := verifyResponse{Message: out.Message, State: newStateResponse(out.State)}
	if !out.Verified {
		resp.Status = "invalid"
		writeJSON(w, http.StatusForbidden, resp)
		return
	}
	resp.Status = "ok"
	resp.Cards = catalog.Cards(out.Items, true, promptForm)
	writeJSON(w, http.StatusOK, resp)
}

type catalogResponse struct {
	State stateResponse  `json:"state"`
	Cards []catalog.Card `json:"cards"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	g, _, err := s.gateFor(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}
	st := g.State(r.Context())
	writeJSON(w, http.StatusOK, catalogResponse{
		State: newStateResponse(st),
		Cards: catalog.Cards(s.loadCatalog(r.Context()), st.Authorized, promptForm),
	})
}

type carouselResponse struct {
	Index  int    `json:"index"`
	Count  int    `json:"count"`
	Offset string `json:"offset"`
	Title  string `json:"title,omitempty"`
}

func (s *Server) handleCarousel(w http.ResponseWriter, r *http.Request) {
	resp := carouselResponse{
		Index:  s.carousel.Index(),
		Count:  s.carousel.Len(),
		Offset: s.carousel.Offset(),
	}
	if slide, ok := s.carousel.Current(); ok {
		resp.Title = slide.Title
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
