package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"finpulse/internal/core"
)

// statsWindow resolves the date range for a stats request, defaulting to
// the first of the current month through today.
func statsWindow(r *http.Request) (from, to core.Date, err error) {
	now := time.Now().UTC()
	from = core.NewDate(now.Year(), int(now.Month()), 1)
	to = core.DateOf(now)

	if v := r.URL.Query().Get("startDate"); v != "" {
		from, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		to, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
	}
	return from, to, nil
}

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := statsWindow(r)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.serveCached(w, r, "stats:summary:"+from.Key()+":"+to.Key(), func(ctx context.Context) (any, error) {
		return s.stats.Summary(ctx, from, to)
	})
}

func (s *Server) handleStatsDaily(w http.ResponseWriter, r *http.Request) {
	from, to, err := statsWindow(r)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.serveCached(w, r, "stats:daily:"+from.Key()+":"+to.Key(), func(ctx context.Context) (any, error) {
		series, err := s.stats.Daily(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if series == nil {
			series = []core.DailyPoint{}
		}
		return map[string]any{"series": series}, nil
	})
}

func (s *Server) handleStatsBreakdown(w http.ResponseWriter, r *http.Request) {
	from, to, err := statsWindow(r)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	s.serveCached(w, r, "stats:breakdown:"+from.Key()+":"+to.Key(), func(ctx context.Context) (any, error) {
		entries, err := s.stats.Breakdown(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []core.BreakdownEntry{}
		}
		return map[string]any{"breakdown": entries}, nil
	})
}

func (s *Server) handleStatsComparison(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			respondError(r.Context(), w, http.StatusBadRequest, "malformed year")
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			respondError(r.Context(), w, http.StatusBadRequest, "malformed month")
			return
		}
		month = m
	}

	key := "stats:comparison:" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
	s.serveCached(w, r, key, func(ctx context.Context) (any, error) {
		return s.stats.MonthComparison(ctx, year, month)
	})
}
