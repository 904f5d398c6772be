package api

import "net/http"

type thresholdRequest struct {
	Threshold *float64 `json:"threshold" validate:"required"`
}

func (s *Server) handleGetThreshold(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"threshold": s.thresholds.Get()})
}

// handlePutThreshold clamps the submitted value into the editable range and
// stores it.
func (s *Server) handlePutThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored := s.thresholds.Edit(*req.Threshold)
	s.metrics.SetThreshold(stored)
	s.logger.Info("threshold updated", "requested", *req.Threshold, "stored", stored)

	writeJSON(w, http.StatusOK, map[string]float64{"threshold": stored})
}
