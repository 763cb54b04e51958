// Package goals handles the FI goal and the projection assumptions.
package goals

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dreslan/tapfi/internal/services/tracker"
	"github.com/dreslan/tapfi/internal/web"
)

var manager *tracker.Manager

// Initialize sets up the goals package with required dependencies
func Initialize(m *tracker.Manager) {
	manager = m
}

// RegisterRoutes registers all goal routes
func RegisterRoutes(r chi.Router) {
	r.Post("/api/goal", handleSaveGoal)
	r.Put("/api/goal/assumptions", handleUpdateAssumptions)
}

type goalRequest struct {
	FITarget       float64 `json:"fiTarget"`
	WithdrawalRate float64 `json:"withdrawalRate"`
	AnnualExpenses float64 `json:"annualExpenses"`
}

func handleSaveGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}

	data, err := manager.SaveGoal(req.FITarget, req.WithdrawalRate, req.AnnualExpenses)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{
		"assumptions": data.Assumptions,
	})
}

func handleUpdateAssumptions(w http.ResponseWriter, r *http.Request) {
	var req tracker.AssumptionUpdates
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}

	data, err := manager.UpdateAssumptions(req)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{
		"assumptions": data.Assumptions,
	})
}
