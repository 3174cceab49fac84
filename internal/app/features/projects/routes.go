// internal/app/features/projects/routes.go
package projects

import "github.com/go-chi/chi/v5"

// Routes is mounted under /project behind RequireSignedIn. extra lets the
// members feature hang its routes off the same /{id} subtree.
func Routes(h *Handler, extra ...func(r chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Post("/create", h.HandleCreate)
	r.Get("/list", h.ServeList)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/info", h.ServeInfo)
		r.Get("/users", h.ServeNonMembers)
		r.Put("/update", h.HandleUpdate)
		r.Delete("/remove", h.HandleRemove)
		for _, mount := range extra {
			mount(r)
		}
	})
	return r
}
