// Package accounts handles account creation, deletion, and statement
// imports.
package accounts

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dreslan/tapfi/internal/models"
	"github.com/dreslan/tapfi/internal/services/tracker"
	"github.com/dreslan/tapfi/internal/web"
)

// Statement uploads are small CSV exports; anything past this is not one.
const maxStatementSize = 10 << 20

var manager *tracker.Manager

// Initialize sets up the accounts package with required dependencies
func Initialize(m *tracker.Manager) {
	manager = m
}

// RegisterRoutes registers all account routes
func RegisterRoutes(r chi.Router) {
	r.Post("/api/accounts/manual", handleAddManual)
	r.Post("/api/accounts/bitcoin", handleAddBitcoin)
	r.Delete("/api/accounts/{id}", handleDelete)
	r.Post("/api/accounts/import", handleImport)
}

type manualRequest struct {
	Name    string             `json:"name"`
	Type    models.AccountType `json:"type"`
	Balance float64            `json:"balance"`
}

func handleAddManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}

	account, err := manager.AddManualAccount(req.Name, req.Type, req.Balance)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusCreated, account)
}

type bitcoinRequest struct {
	Amount float64 `json:"amount"`
	Price  float64 `json:"price"`
}

func handleAddBitcoin(w http.ResponseWriter, r *http.Request) {
	var req bitcoinRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, err)
		return
	}

	account, err := manager.AddBitcoinAccount(req.Amount, req.Price)
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusCreated, account)
}

func handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := manager.DeleteAccount(id); err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxStatementSize); err != nil {
		web.Error(w, &models.ValidationError{Field: "file", Message: "upload too large"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		web.Error(w, &models.ValidationError{Field: "file", Message: "statement file is required"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		web.Error(w, err)
		return
	}

	result, err := manager.ImportStatement(string(content))
	if err != nil {
		web.Error(w, err)
		return
	}

	web.JSON(w, http.StatusOK, result)
}
