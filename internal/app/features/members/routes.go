// internal/app/features/members/routes.go
package members

import "github.com/go-chi/chi/v5"

// Mount hangs the member routes off a /project/{id} subtree:
//
//	projects.Routes(ph, members.Mount(mh))
func Mount(h *Handler) func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/member/create", h.HandleCreate)
		r.Delete("/member/{userId}/remove", h.HandleRemove)
	}
}
