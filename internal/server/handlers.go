package server

import (
	"encoding/json"
	"errors"
	"net/http"

	engerr "github.com/askveeva/deepsearch/internal/errors"
	"github.com/askveeva/deepsearch/internal/search"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Health(r.Context()))
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	info, err := s.engine.Reindex(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reindexResponse{
		OK:    true,
		Docs:  info.Docs,
		Spans: info.Spans,
		Secs:  info.Secs,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, engerr.New(engerr.ErrCodeInvalidInput, "malformed request body", err))
		return
	}

	k := s.cfg.TopKDefault
	if req.K != nil {
		k = *req.K
	}

	res, err := s.engine.Search(r.Context(), search.Query{
		Text:      req.Query,
		K:         clampK(k),
		Role:      req.Role,
		Sector:    req.Sector,
		Rerank:    req.Rerank,
		Deep:      req.Deep,
		NextTerms: req.NextTerms,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if res.Items == nil {
		res.Items = []search.Candidate{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		OK:               true,
		AnticipatedTerms: res.AnticipatedTerms,
		Items:            res.Items,
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, engerr.New(engerr.ErrCodeInvalidInput, "malformed request body", err))
		return
	}

	kpc := 0
	if req.KPerCrit != nil {
		kpc = *req.KPerCrit
	}

	res, err := s.engine.Compare(r.Context(), search.CompareRequest{
		Topic:    req.Topic,
		DocIDs:   req.DocIDs,
		Criteria: req.Criteria,
		KPerCrit: kpc,
		Role:     req.Role,
		Sector:   req.Sector,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{
		OK:            true,
		Topic:         res.Topic,
		Criteria:      res.Criteria,
		Matrix:        res.Matrix,
		Answerability: res.Answerability,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps engine error codes onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var code string
	var ee *engerr.EngineError
	if errors.As(err, &ee) {
		code = ee.Code
		switch ee.Code {
		case engerr.ErrCodeInvalidInput:
			status = http.StatusBadRequest
		case engerr.ErrCodeStoreUnconfigured, engerr.ErrCodeStoreUnreachable, engerr.ErrCodeStoreTransient:
			status = http.StatusServiceUnavailable
		case engerr.ErrCodeOracleUnavailable:
			status = http.StatusBadGateway
		}
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{OK: false, Error: err.Error(), Code: code})
}
