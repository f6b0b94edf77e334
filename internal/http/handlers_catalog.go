package http

import (
	"net/http"

	"ledger/internal/core"
)

type accountRequest struct {
	AccountType string `json:"account_type"`
}

type adjustRequest struct {
	Delta *float64 `json:"delta"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type budgetRequest struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Amount     Amount `json:"amount"`
}

type budgetAmountRequest struct {
	Amount Amount `json:"amount"`
}

type settingsRequest struct {
	Currency string `json:"currency"`
}

func (s *Server) handleListAccounts(r *http.Request, user core.User) *ResponseBuilder {
	accounts, err := s.svc.Accounts.ListAccounts(r.Context(), user.ID)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newAccountViews(accounts))
}

func (s *Server) handleCreateAccount(r *http.Request, user core.User) *ResponseBuilder {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	acc, err := s.svc.Accounts.CreateAccount(r.Context(), user.ID, sanitizeInput(req.AccountType))
	if err != nil {
		return s.fail(r, err)
	}
	return Created(newAccountView(acc))
}

func (s *Server) handleRenameAccount(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	acc, err := s.svc.Accounts.RenameAccount(r.Context(), user.ID, id, sanitizeInput(req.AccountType))
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newAccountView(acc))
}

func (s *Server) handleDeleteAccount(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	if err := s.svc.Accounts.DeleteAccount(r.Context(), user.ID, id); err != nil {
		return s.fail(r, err)
	}
	return OK(nil)
}

func (s *Server) handleAdjustBalance(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	if req.Delta == nil {
		return BadRequestError("delta is required")
	}
	acc, err := s.svc.Ledger.ApplyDelta(r.Context(), user.ID, id, *req.Delta)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newAccountView(acc))
}

func (s *Server) handleReconcile(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	rec, err := s.svc.Ledger.Reconcile(r.Context(), user.ID, id)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(reconciliationView{
		Account:       newAccountView(rec.Account),
		Contributions: rec.Contributions,
		Drift:         rec.Drift,
	})
}

func (s *Server) handleListCategories(r *http.Request, user core.User) *ResponseBuilder {
	list, err := s.svc.Categories.ListCategories(r.Context(), user.ID)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newCategoryListView(list))
}

func (s *Server) handleCreateCategory(r *http.Request, user core.User) *ResponseBuilder {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	ct, err := core.ParseCategoryType(req.Type)
	if err != nil {
		return s.fail(r, err)
	}
	cat, err := s.svc.Categories.CreateCategory(r.Context(), user.ID, sanitizeInput(req.Name), ct)
	if err != nil {
		return s.fail(r, err)
	}
	return Created(newCategoryView(cat))
}

func (s *Server) handleRenameCategory(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	cat, err := s.svc.Categories.RenameCategory(r.Context(), user.ID, id, sanitizeInput(req.Name))
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newCategoryView(cat))
}

func (s *Server) handleDeleteCategory(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	if err := s.svc.Categories.DeleteCategory(r.Context(), user.ID, id); err != nil {
		return s.fail(r, err)
	}
	return OK(nil)
}

func (s *Server) handleListBudgets(r *http.Request, user core.User) *ResponseBuilder {
	budgets, err := s.svc.Budgets.ListBudgets(r.Context(), user.ID)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newBudgetViews(budgets))
}

func (s *Server) handleCreateBudget(r *http.Request, user core.User) *ResponseBuilder {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	b, err := s.svc.Budgets.CreateBudget(r.Context(), user.ID, req.CategoryID, sanitizeInput(req.Name), float64(req.Amount))
	if err != nil {
		return s.fail(r, err)
	}
	return Created(newBudgetView(b))
}

func (s *Server) handleUpdateBudget(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	var req budgetAmountRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	b, err := s.svc.Budgets.UpdateBudgetAmount(r.Context(), user.ID, id, float64(req.Amount))
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newBudgetView(b))
}

func (s *Server) handleDeleteBudget(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	if err := s.svc.Budgets.DeleteBudget(r.Context(), user.ID, id); err != nil {
		return s.fail(r, err)
	}
	return OK(nil)
}

func (s *Server) handleGetSettings(r *http.Request, user core.User) *ResponseBuilder {
	setting, err := s.svc.Settings.GetSettings(r.Context(), user.ID)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(settingView{Currency: setting.Currency})
}

func (s *Server) handleUpdateSettings(r *http.Request, user core.User) *ResponseBuilder {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	setting, err := s.svc.Settings.UpdateCurrency(r.Context(), user.ID, req.Currency)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(settingView{Currency: setting.Currency})
}
