package app

import (
	"github.com/momentics/hioload-http/api"
	"github.com/momentics/hioload-http/internal/users"
)

// APIController exposes a small JSON API over the user store and the control plane.
type APIController struct {
	users   *users.Store
	control api.Control
}

func (c *APIController) Routes() []api.Route {
	return []api.Route{
		api.NewRoute(api.MethodGet, "/api/echo", c.echo),
		api.NewRoute(api.MethodGet, "/api/users", c.listUsers),
		api.NewRoute(api.MethodPost, "/api/users", c.createUser),
		api.NewRoute(api.MethodGet, "/api/stats", c.stats),
	}
}

func (c *APIController) echo(req *api.Request, tmpl *api.Response) *api.Response {
	return tmpl.Derive(api.WithJSON(map[string]string{"echo": query(req, "msg")}))
}

func (c *APIController) listUsers(req *api.Request, tmpl *api.Response) *api.Response {
	names := c.users.Names()
	if names == nil {
		names = []string{}
	}
	return tmpl.Derive(api.WithJSON(names))
}

// createUser accepts {"name": ...} or name=... and answers 201 with the new id.
func (c *APIController) createUser(req *api.Request, tmpl *api.Response) *api.Response {
	var name string
	switch {
	case req.IsJSON():
		name, _ = req.JSONValue("name")
	case req.IsForm():
		name = req.FormData()["name"]
	}
	if name == "" {
		return tmpl.Derive(api.WithStatus(400), api.WithJSON(map[string]string{"error": "name is required"}))
	}
	id := c.users.Add(name)
	return tmpl.Derive(api.WithStatus(201), api.WithJSON(map[string]string{"message": "User created", "id": id}))
}

func (c *APIController) stats(req *api.Request, tmpl *api.Response) *api.Response {
	if c.control == nil {
		return tmpl.Derive(api.WithJSON(map[string]any{}))
	}
	return tmpl.Derive(api.WithJSON(c.control.Stats()))
}
