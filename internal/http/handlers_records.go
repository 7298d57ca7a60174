package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rentroll/internal/core"
	"rentroll/internal/log"
)

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.svc.Store().ListTenants(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(tenants))
}

func (s *Server) handleSaveTenant(w http.ResponseWriter, r *http.Request) {
	var t core.Tenant
	if err := decodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Store().SaveTenant(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.InvalidateProjections()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Tenant saved",
		log.FieldTenantID, saved.ID,
		log.FieldOperation, log.OpCreate)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.svc.Store().DeleteTenant(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.InvalidateProjections()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Tenant deleted",
		log.FieldTenantID, id,
		log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.svc.Store().ListUnits(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(units))
}

func (s *Server) handleSaveUnit(w http.ResponseWriter, r *http.Request) {
	var u core.Unit
	if err := decodeJSON(w, r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Store().SaveUnit(r.Context(), u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.InvalidateProjections()
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.Store().ListDocuments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(docs))
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	var d core.Document
	if err := decodeJSON(w, r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Store().SaveDocument(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.svc.Store().ListPayments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(payments))
}

func (s *Server) handleSavePayment(w http.ResponseWriter, r *http.Request) {
	var p core.Payment
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Store().SavePayment(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// orEmpty keeps list endpoints rendering [] instead of null.
func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
