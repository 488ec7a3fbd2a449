package app

import (
	"github.com/momentics/hioload-http/api"
	"github.com/momentics/hioload-http/internal/users"
)

// HelloController greets registered users and registers new ones.
type HelloController struct {
	users *users.Store
}

func (h *HelloController) Routes() []api.Route {
	return []api.Route{
		api.NewRoute(api.MethodGet, "/app/hello", h.greet),
		api.NewRoute(api.MethodPost, "/app/hello", h.register),
	}
}

func (h *HelloController) greet(req *api.Request, tmpl *api.Response) *api.Response {
	name := query(req, "name")
	if name == "" {
		return tmpl.Derive(api.WithStatus(400), api.WithBody(jsonField("message", "Parámetro inválido en la petición.")))
	}
	msg := "No estás registrado en el sistema."
	if h.users.ContainsName(name) {
		msg = "Hola " + name
	}
	return tmpl.Derive(api.WithBody(jsonField("message", msg)))
}

func (h *HelloController) register(req *api.Request, tmpl *api.Response) *api.Response {
	if !req.HasBody() {
		return tmpl.Derive(api.WithStatus(400), api.WithBody(jsonField("error", "Cuerpo de la petición requerido")))
	}
	if !req.IsJSON() {
		return tmpl.Derive(api.WithStatus(400), api.WithBody(jsonField("error", "Content-Type debe ser application/json")))
	}
	name, ok := req.JSONValue("name")
	if !ok || name == "" {
		return tmpl.Derive(api.WithStatus(400), api.WithBody(jsonField("error", "Nombre de usuario requerido en el campo 'name'")))
	}
	h.users.Add(name)
	return tmpl.Derive(api.WithBody(jsonField("message", "Hola "+name+" fuiste registrado exitosamente!")))
}
