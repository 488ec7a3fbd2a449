package app

import "github.com/momentics/hioload-http/api"

// GreetingController serves fixed and personalized greetings.
type GreetingController struct{}

func (GreetingController) Routes() []api.Route {
	return []api.Route{
		api.NewRoute(api.MethodGet, "/greeting", func(req *api.Request, tmpl *api.Response) *api.Response {
			return tmpl.Derive(api.WithBody("Hola Mundo!"))
		}),
		api.NewRoute(api.MethodGet, "/hello", func(req *api.Request, tmpl *api.Response) *api.Response {
			return tmpl.Derive(api.WithBody("Hola, " + query(req, "name") + "!"))
		}),
	}
}
