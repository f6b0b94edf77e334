package http

import (
	"context"
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/services"
)

type recordRequest struct {
	AccountID   int64   `json:"account_id"`
	CategoryID  int64   `json:"category_id"`
	Type        string  `json:"type"`
	Amount      *Amount `json:"amount"`
	DateRange   string  `json:"date_range"`
	Description string  `json:"description"`
}

type amountRequest struct {
	Amount *Amount `json:"amount"`
}

type analysisRequest struct {
	Granularity string `json:"granularity"`
}

// input converts the request; an empty type defers to the category.
func (req recordRequest) input() (services.RecordInput, error) {
	if req.Amount == nil {
		return services.RecordInput{}, core.ErrMissingAmount
	}
	in := services.RecordInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      float64(*req.Amount),
		DateRange:   sanitizeInput(req.DateRange),
		Description: sanitizeInput(req.Description),
	}
	if strings.TrimSpace(req.Type) != "" {
		ct, err := core.ParseCategoryType(req.Type)
		if err != nil {
			return services.RecordInput{}, err
		}
		in.Type = ct
	}
	return in, nil
}

func (s *Server) handleListRecords(r *http.Request, user core.User) *ResponseBuilder {
	records, err := s.svc.Ledger.ListRecords(r.Context(), user.ID)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newRecordDetailViews(records))
}

func (s *Server) handleCreateRecord(r *http.Request, user core.User) *ResponseBuilder {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	in, err := req.input()
	if err != nil {
		return s.fail(r, err)
	}
	rec, err := s.svc.Ledger.CreateRecord(r.Context(), user.ID, in)
	if err != nil {
		return s.fail(r, err)
	}
	return Created(newRecordView(rec))
}

func (s *Server) handleGetRecord(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	rec, err := s.svc.Ledger.GetRecord(r.Context(), user.ID, id)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newRecordView(rec))
}

func (s *Server) handleUpdateRecord(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	in, err := req.input()
	if err != nil {
		return s.fail(r, err)
	}
	rec, err := s.svc.Ledger.UpdateRecord(r.Context(), user.ID, id, in)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newRecordView(rec))
}

func (s *Server) handleDeleteRecord(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	if err := s.svc.Ledger.DeleteRecord(r.Context(), user.ID, id); err != nil {
		return s.fail(r, err)
	}
	return OK(nil)
}

// handleAmount serves the add and replace endpoints for one side of a record.
func (s *Server) handleAmount(op func(ctx context.Context, userID, recordID int64, amount float64) (core.Record, error)) authedHandler {
	return func(r *http.Request, user core.User) *ResponseBuilder {
		id, err := pathID(r, "id")
		if err != nil {
			return s.fail(r, err)
		}
		var req amountRequest
		if err := decodeJSON(r, &req); err != nil {
			return s.fail(r, err)
		}
		if req.Amount == nil {
			return BadRequestError("amount is required")
		}
		rec, err := op(r.Context(), user.ID, id, float64(*req.Amount))
		if err != nil {
			return s.fail(r, err)
		}
		return OK(newRecordView(rec))
	}
}

func (s *Server) handleSummary(r *http.Request, user core.User) *ResponseBuilder {
	sum, err := s.svc.Ledger.Summarize(r.Context(), user.ID)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(summaryView{
		TotalIncome:  sum.TotalIncome,
		TotalExpense: sum.TotalExpense,
		NetBalance:   sum.NetBalance,
	})
}

func (s *Server) handleListAnalyses(r *http.Request, user core.User) *ResponseBuilder {
	analyses, err := s.svc.Aggregator.ListAnalyses(r.Context(), user.ID)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newAnalysisViews(analyses))
}

func (s *Server) handleCreateAnalysis(r *http.Request, user core.User) *ResponseBuilder {
	var req analysisRequest
	if err := decodeJSON(r, &req); err != nil {
		return s.fail(r, err)
	}
	g := core.Granularity(strings.ToLower(strings.TrimSpace(req.Granularity)))
	a, err := s.svc.Aggregator.CreateAnalysis(r.Context(), user.ID, g)
	if err != nil {
		return s.fail(r, err)
	}
	return Created(newAnalysisView(a))
}

func (s *Server) handleGetAnalysis(r *http.Request, user core.User) *ResponseBuilder {
	id, err := pathID(r, "id")
	if err != nil {
		return s.fail(r, err)
	}
	a, err := s.svc.Aggregator.GetAnalysis(r.Context(), user.ID, id)
	if err != nil {
		return s.fail(r, err)
	}
	return OK(newAnalysisView(a))
}
