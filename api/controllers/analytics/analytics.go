package analytics

import (
	"net/http"
	"time"

	"github.com/tindago/tindago-backend/api/middleware"
	"github.com/tindago/tindago-backend/api/responses"
	"github.com/tindago/tindago-backend/api/validators"
	internalanalytics "github.com/tindago/tindago-backend/internal/analytics"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/logger"
)

const defaultDashboardWindow = 30 * 24 * time.Hour

// Dashboard returns daily order and revenue buckets for the actor's
// organization. Defaults to the trailing 30 days.
func Dashboard(svc internalanalytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

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

		now := time.Now().UTC()
		if to == nil {
			to = &now
		}
		if from == nil {
			start := to.Add(-defaultDashboardWindow)
			from = &start
		}

		dashboard, err := svc.Dashboard(r.Context(), actor.OrgID, *from, *to, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
