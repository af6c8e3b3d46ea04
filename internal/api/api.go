package api

import (
	"encoding/json"
	"net/http"

	"github.com/vmunix/felscan/internal/capability"
	"github.com/vmunix/felscan/internal/config"
)

// Server is the Core → UI boundary's HTTP server.
type Server struct {
	deps ServerDeps
}

// New creates an API Server. All of deps.Store, deps.Scheduler, and
// deps.Policy are required; deps.Approvals may be nil.
func New(deps ServerDeps) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Server{deps: deps}, nil
}

// RegisterRoutes registers every Core → UI operation on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("POST /api/v1/scan", s.triggerScan)
	mux.HandleFunc("POST /api/v1/verify", s.triggerVerify)

	mux.HandleFunc("GET /api/v1/pending", s.listPending)
	mux.HandleFunc("POST /api/v1/pending/{request_id}/approve", s.requireApprovals(s.approvePending))
	mux.HandleFunc("POST /api/v1/pending/{request_id}/decline", s.requireApprovals(s.declinePending))

	mux.HandleFunc("GET /api/v1/history", s.listHistory)

	mux.HandleFunc("GET /api/v1/policy", s.getPolicy)
	mux.HandleFunc("PUT /api/v1/policy", s.updatePolicy)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Scheduler.Snapshot()
	writeJSON(w, http.StatusOK, statusResponse{
		Mode:       string(snap.Mode),
		NextScanAt: snap.NextScanAt,
		IsScanning: snap.IsScanning,
	})
}

func (s *Server) triggerScan(w http.ResponseWriter, r *http.Request) {
	go s.deps.Scheduler.TriggerScan(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scan started"})
}

func (s *Server) triggerVerify(w http.ResponseWriter, r *http.Request) {
	results := s.deps.Scheduler.TriggerVerify(r.Context())
	resp := verifyResponse{Collections: make([]verifyCollectionResult, 0, len(results))}
	for _, res := range results {
		resp.Collections = append(resp.Collections, verifyCollectionResult{
			Collection: res.Collection,
			Added:      len(res.Added),
			Removed:    len(res.Removed),
			Failed:     len(res.Failures),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listPending(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Store.ListPending("")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	resp := listPendingResponse{Items: make([]pendingResponse, 0, len(items))}
	for _, p := range items {
		resp.Items = append(resp.Items, pendingResponse{
			RequestID:   p.RequestID,
			MovieTitle:  p.MovieTitle,
			Year:        p.Year,
			QualityType: string(p.QualityType),
			Status:      string(p.Status),
			CreatedAt:   p.CreatedAt,
			ExpiresAt:   p.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) approvePending(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("request_id")
	status, reason, err := s.deps.Approvals.Approve(r.Context(), requestID)
	if err != nil {
		if err == capability.ErrNotFound {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no such pending download")
			return
		}
		writeError(w, http.StatusInternalServerError, "APPROVAL_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, approvalResponse{Status: status, Reason: reason})
}

func (s *Server) declinePending(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("request_id")
	status, reason, err := s.deps.Approvals.Decline(r.Context(), requestID)
	if err != nil {
		if err == capability.ErrNotFound {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no such pending download")
			return
		}
		writeError(w, http.StatusInternalServerError, "APPROVAL_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, approvalResponse{Status: status, Reason: reason})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			limit = n
		}
	}
	entries, err := s.deps.Store.RecentHistory(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	resp := listHistoryResponse{Items: make([]historyResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Items = append(resp.Items, historyResponse{
			RequestID:  e.RequestID,
			MovieTitle: e.MovieTitle,
			Year:       e.Year,
			Outcome:    e.Outcome,
			Detail:     e.Detail,
			RecordedAt: e.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Policy.Get())
}

func (s *Server) updatePolicy(w http.ResponseWriter, r *http.Request) {
	var p config.UpgradePolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid policy payload: "+err.Error())
		return
	}

	s.deps.Policy.Set(p)
	writeJSON(w, http.StatusOK, s.deps.Policy.Get())
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}
