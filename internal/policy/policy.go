// Package policy is the access gate: a static operation → role-set matrix
// evaluated before any operation touches the record store. It is a pure
// function of (role, operation), independent of transport, so it is testable
// without constructing requests.
package policy

import (
	"net/http"

	dErrors "clientbooks/pkg/domain-errors"
	"clientbooks/pkg/platform/httputil"

	"clientbooks/internal/identity"
)

// Operation names a gated core entry point.
type Operation string

const (
	OpRecordCreate     Operation = "record:create"
	OpRecordRead       Operation = "record:read"
	OpRecordUpdate     Operation = "record:update"
	OpRecordDelete     Operation = "record:delete"
	OpSummaryRead      Operation = "summary:read"
	OpReportGenerate   Operation = "report:generate"
	OpAttachmentUpload Operation = "attachment:upload"
	OpAttachmentRead   Operation = "attachment:read"
	OpAttachmentDelete Operation = "attachment:delete"
)

var matrix = map[Operation][]identity.Role{
	OpRecordCreate:     {identity.RoleAdmin, identity.RoleAnalyst},
	OpRecordRead:       {identity.RoleAdmin, identity.RoleAnalyst, identity.RoleViewer},
	OpRecordUpdate:     {identity.RoleAdmin, identity.RoleAnalyst},
	OpRecordDelete:     {identity.RoleAdmin},
	OpSummaryRead:      {identity.RoleAdmin, identity.RoleAnalyst, identity.RoleViewer},
	OpReportGenerate:   {identity.RoleAdmin, identity.RoleAnalyst},
	OpAttachmentUpload: {identity.RoleAdmin, identity.RoleAnalyst},
	OpAttachmentRead:   {identity.RoleAdmin, identity.RoleAnalyst, identity.RoleViewer},
	OpAttachmentDelete: {identity.RoleAdmin},
}

// Allowed reports whether the role may perform the operation. Unknown
// operations are denied.
func Allowed(role identity.Role, op Operation) bool {
	for _, allowed := range matrix[op] {
		if role == allowed {
			return true
		}
	}
	return false
}

// Denied is an observer hook for authorization denials, wired by the router.
type Denied func(op Operation)

// Require denies the request before the handler runs unless the
// authenticated principal's role is in the operation's allowed set. The
// matrix is consulted on every request so a demoted principal loses access
// on the very next call.
func Require(op Operation, onDenied Denied) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := identity.FromContext(r.Context())
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no authenticated principal"))
				return
			}
			if !Allowed(principal.Role, op) {
				if onDenied != nil {
					onDenied(op)
				}
				httputil.WriteError(w, dErrors.Newf(dErrors.CodeForbidden, "role %s may not perform %s", principal.Role, op))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
