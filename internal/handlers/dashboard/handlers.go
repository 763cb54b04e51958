// Package dashboard serves the read side of the API: the summary with
// derived FI metrics, the allocation and holdings breakdowns, the
// projection series, and the net-worth history.
package dashboard

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dreslan/tapfi/internal/models"
	"github.com/dreslan/tapfi/internal/services/networth"
	"github.com/dreslan/tapfi/internal/services/projection"
	"github.com/dreslan/tapfi/internal/services/tracker"
	"github.com/dreslan/tapfi/internal/web"
)

var manager *tracker.Manager

// Initialize sets up the dashboard package with required dependencies
func Initialize(m *tracker.Manager) {
	manager = m
}

// RegisterRoutes registers all dashboard routes
func RegisterRoutes(r chi.Router) {
	r.Get("/api/dashboard/summary", handleSummary)
	r.Get("/api/dashboard/allocation", handleAllocation)
	r.Get("/api/dashboard/holdings", handleHoldings)
	r.Get("/api/dashboard/projection", handleProjection)
	r.Get("/api/dashboard/history", handleHistory)
	r.Post("/api/history", handleAddHistory)
	r.Delete("/api/history/{date}", handleDeleteHistory)
}

type summaryResponse struct {
	Accounts    []models.Account   `json:"accounts"`
	Metrics     projection.Metrics `json:"metrics"`
	Assumptions models.Assumptions `json:"assumptions"`
	LastUpdated time.Time          `json:"lastUpdated"`
}

func handleSummary(w http.ResponseWriter, r *http.Request) {
	data, err := manager.Load()
	if err != nil {
		web.Error(w, err)
		return
	}

	total := networth.Total(data.Accounts)

	// Loading the dashboard doubles as the daily observation.
	today := time.Now().Format("2006-01-02")
	if err := manager.RecordSnapshot(today, total); err != nil {
		log.Printf("Error recording history snapshot: %v", err)
	}

	web.JSON(w, http.StatusOK, summaryResponse{
		Accounts:    data.Accounts,
		Metrics:     projection.ComputeMetrics(total, data.Assumptions),
		Assumptions: data.Assumptions,
		LastUpdated: data.LastUpdated,
	})
}

func handleAllocation(w http.ResponseWriter, r *http.Request) {
	data, err := manager.Load()
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{
		"total":      networth.Total(data.Accounts),
		"allocation": networth.ByType(data.Accounts),
	})
}

func handleHoldings(w http.ResponseWriter, r *http.Request) {
	data, err := manager.Load()
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{
		"total":    networth.Total(data.Accounts),
		"holdings": networth.ByHolding(data.Accounts),
	})
}

func handleProjection(w http.ResponseWriter, r *http.Request) {
	data, err := manager.Load()
	if err != nil {
		web.Error(w, err)
		return
	}

	total := networth.Total(data.Accounts)
	series := projection.ComputeSeries(total, data.Assumptions, time.Now().Year())
	web.JSON(w, http.StatusOK, series)
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	data, err := manager.Load()
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{
		"history": data.History,
	})
}

type historyRequest struct {
	Date     string  `json:"date"`
	NetWorth float64 `json:"netWorth"`
}

func handleAddHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}

	data, err := manager.UpsertHistory(req.Date, req.NetWorth)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]interface{}{
		"history": data.History,
	})
}

func handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if err := manager.DeleteHistory(date); err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
