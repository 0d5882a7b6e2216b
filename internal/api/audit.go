package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/inkwell-core/internal/audit"
)

// handleListAuditLogs returns paginated audit log entries with optional filters.
//
// Query parameters:
//   - action: filter by action (create, update, delete, like, unlike, register, login, logout)
//   - entity_type: filter by entity type (blog, comment, user, session)
//   - entity_id: filter by specific entity ID
//   - user_id: filter by the acting user
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		UserID:     q.Get("user_id"),
	}

	f := fieldErrors{}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			f.add("limit", "Limit must be a positive integer.")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			f.add("offset", "Offset must be a positive integer.")
		}
		filter.Offset = n
	}
	if apiErr := f.err(); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.serverError(w, r, "list audit logs", err)
		return
	}
	if result.Logs == nil {
		result.Logs = []audit.AuditLog{}
	}

	writeSuccess(w, http.StatusOK, "", result)
}
