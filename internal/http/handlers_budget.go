package http

import (
	"net/http"

	"budgetwatch/internal/log"
)

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Monitor.Evaluate(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Budget evaluation failed",
			log.FieldOperation, log.OpEvaluate, log.FieldError, err)
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Body(toStatusJSON(report, s.deps.Monitor.IsMonitoring())).Send(w)
}

// handleBudgetCheck queues an immediate pass. Alerts go to the configured
// notifiers, not to the response.
func (s *Server) handleBudgetCheck(w http.ResponseWriter, r *http.Request) {
	h, err := s.deps.Monitor.CheckNow()
	if err != nil {
		ErrorResponse(err).Send(w)
		return
	}
	NewJSONResponse().Status(http.StatusAccepted).Body(map[string]string{
		"task_id":   h.ID(),
		"task_name": h.Name(),
	}).Send(w)
}
