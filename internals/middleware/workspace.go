package middle

/**
- Work of this file -> Workspace package:
	- Reads the workspace id resolved by the API gateway
	- Stores it in context
	- Exposes a helper to retrieve it
**/

import (
	"context"
	"net/http"

	"watchpost/pkg/apperror"
	"watchpost/pkg/utils"

	"github.com/google/uuid"
)

type workspaceCtxKeyType struct{}

var workspaceCtxKey = workspaceCtxKeyType{}

// workspaceHeader carries the workspace id resolved upstream by the API
// key auth collaborator. The engine trusts it and does not re-validate
// credentials.
const workspaceHeader = "X-Workspace-ID"

func Workspace(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {

		raw := r.Header.Get(workspaceHeader)
		if raw == "" {
			utils.WriteError(w, http.StatusUnauthorized, "", apperror.Unauthorised, "missing workspace header")
			return
		}

		workspaceID, err := uuid.Parse(raw)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "", apperror.Unauthorised, "invalid workspace header")
			return
		}

		ctx := context.WithValue(r.Context(), workspaceCtxKey, workspaceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

func WorkspaceFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(workspaceCtxKey).(uuid.UUID)
	return id, ok
}
