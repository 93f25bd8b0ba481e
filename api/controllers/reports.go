package controllers

import (
	"net/http"
	"time"

	"github.com/adiwirasena/koperasi-pos-backend/api/responses"
	"github.com/adiwirasena/koperasi-pos-backend/api/validators"
	reportsvc "github.com/adiwirasena/koperasi-pos-backend/internal/reports"
	pkgerrors "github.com/adiwirasena/koperasi-pos-backend/pkg/errors"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
)

// summaryRange resolves the range shortcut to a [from, to) window. An
// empty value means the caller passes explicit from/to bounds.
func summaryRange(name string, now time.Time) (time.Time, time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch name {
	case "today":
		return midnight, midnight.AddDate(0, 0, 1), true
	case "7d":
		return midnight.AddDate(0, 0, -6), midnight.AddDate(0, 0, 1), true
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), midnight.AddDate(0, 0, 1), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// SalesSummary aggregates revenue, profit and top products over a range.
// The window comes either from a range shortcut (today, 7d, month) or from
// explicit from/to bounds.
func SalesSummary(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		accountID, err := branchIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var start, end time.Time
		if rangeName := r.URL.Query().Get("range"); rangeName != "" && rangeName != "custom" {
			resolved, until, ok := summaryRange(rangeName, time.Now())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown report range"))
				return
			}
			start, end = resolved, until
		} else {
			from, err := validators.ParseQueryTime(r, "from")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			to, err := validators.ParseQueryTime(r, "to")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if from == nil || to == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "from and to are required"))
				return
			}
			start, end = *from, *to
		}

		summary, err := svc.Summary(r.Context(), accountID, start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// TodaySummary aggregates the current local day.
func TodaySummary(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		accountID, err := branchIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.TodaySummary(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
