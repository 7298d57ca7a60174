package http

import (
	"fmt"
	"net/http"
	"time"

	"rentroll/internal/alerts"
	"rentroll/internal/core"
	"rentroll/internal/log"
	"rentroll/internal/projection"
)

type alertsResponse struct {
	AsOf   core.Date               `json:"asOf"`
	Alerts []alerts.Alert          `json:"alerts"`
	Counts map[alerts.Priority]int `json:"counts"`
}

type leaseScheduleResponse struct {
	AsOf         core.Date                    `json:"asOf"`
	WithinMonths int                          `json:"withinMonths"`
	Upcoming     int                          `json:"upcoming"`
	Leases       []projection.LeaseExpiration `json:"leases"`
}

// GET /api/projection?months=&as_of=&escalations=
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r, "months", s.defaultMonths, 1, maxProjectionMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	escalations, err := boolParam(r, "escalations")
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := projectionKey(months, asOf, escalations)
	if res, ok := s.projections.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, res)
		return
	}

	res, err := s.svc.Projection(r.Context(), months, asOf, projection.Options{ApplyEscalations: escalations})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.projections.Set(key, res)
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, res)
}

// projectionKey buckets by calendar day, the finest grain a projection
// depends on.
func projectionKey(months int, asOf time.Time, escalations bool) string {
	return fmt.Sprintf("%d|%s|%t", months, core.DateOf(asOf).String(), escalations)
}

// GET /api/alerts?as_of=
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.Alerts(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []alerts.Alert{}
	}
	counts := alerts.CountByPriority(list)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Alerts scanned",
		log.FieldAsOf, core.DateOf(asOf).String(),
		log.FieldAlertCount, len(list))
	writeJSON(w, http.StatusOK, alertsResponse{AsOf: core.DateOf(asOf), Alerts: list, Counts: counts})
}

// GET /api/leases?as_of=&within_months=
func (s *Server) handleLeaseSchedule(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	within, err := intParam(r, "within_months", defaultLeaseWindow, 0, maxProjectionMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	leases, err := s.svc.LeaseSchedule(r.Context(), asOf, within)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if leases == nil {
		leases = []projection.LeaseExpiration{}
	}
	writeJSON(w, http.StatusOK, leaseScheduleResponse{
		AsOf:         core.DateOf(asOf),
		WithinMonths: within,
		Upcoming:     projection.CountUpcoming(leases),
		Leases:       leases,
	})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.svc.Balances(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleTenantMix(w http.ResponseWriter, r *http.Request) {
	mix, err := s.svc.TenantMix(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mix)
}

func (s *Server) handleGetAlertSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Store().AlertSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PUT /api/settings/alerts replaces the settings; omitted fields keep their
// stored values.
func (s *Server) handlePutAlertSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Store().AlertSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := decodeJSON(w, r, &settings); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.UpdateAlertSettings(r.Context(), settings); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
