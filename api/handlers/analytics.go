package handlers

import (
	"net/http"

	"github.com/fixitnow/fixitnow-api/api"
	"github.com/fixitnow/fixitnow-api/issues"
)

// Analytics serves the admin dashboard
type Analytics struct {
	Aggregator *issues.Aggregator
}

// DashboardHandler returns issue totals, per category counts and the
// average resolution time
func (a Analytics) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Aggregator.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, stats)
}
