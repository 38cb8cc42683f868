// Package httptransport wires the HTTP surface: public health and metrics
// endpoints, and the authenticated /api routes, each behind its policy gate.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clientbooks/internal/platform/metrics"
	"clientbooks/internal/platform/middleware"
	"clientbooks/internal/policy"
	recordsHandler "clientbooks/internal/records/handler"
	reportHandler "clientbooks/internal/report/handler"
	"clientbooks/pkg/platform/httputil"
)

// Deps carries the collaborators the router wires together.
type Deps struct {
	Records   *recordsHandler.Handler
	Reports   *reportHandler.Handler
	Validator middleware.TokenValidator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// NewRouter builds the full route tree. Every /api route re-derives the
// principal from its bearer token and re-evaluates the policy matrix, so a
// demoted principal loses access on the very next call.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	var denied policy.Denied
	if d.Metrics != nil {
		denied = func(op policy.Operation) {
			d.Metrics.AuthzDenied.WithLabelValues(string(op)).Inc()
		}
	}
	gate := func(op policy.Operation) func(http.Handler) http.Handler {
		return policy.Require(op, denied)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireAuth(d.Validator, d.Logger))

		api.Route("/clients", func(clients chi.Router) {
			clients.With(gate(policy.OpRecordCreate)).Post("/", d.Records.HandleCreate)
			clients.With(gate(policy.OpRecordRead)).Get("/", d.Records.HandleList)

			clients.Route("/{id}", func(one chi.Router) {
				one.With(gate(policy.OpRecordRead)).Get("/", d.Records.HandleGet)
				one.With(gate(policy.OpRecordUpdate)).Put("/", d.Records.HandleUpdate)
				one.With(gate(policy.OpRecordDelete)).Delete("/", d.Records.HandleDelete)

				one.With(gate(policy.OpAttachmentUpload)).Post("/files", d.Records.HandleUploadAttachment)
				one.With(gate(policy.OpAttachmentDelete)).Delete("/files", d.Records.HandleRemoveAttachment)
				one.With(gate(policy.OpAttachmentRead)).Get("/files/signed-url", d.Records.HandleSignAttachment)
			})
		})

		api.With(gate(policy.OpSummaryRead)).Get("/dashboard/summary", d.Reports.HandleSummary)
		api.With(gate(policy.OpReportGenerate)).Get("/reports/clients.csv", d.Reports.HandleCSV)
		api.With(gate(policy.OpReportGenerate)).Get("/reports/clients.xlsx", d.Reports.HandleXLSX)
	})

	return r
}
