package app

import (
	"embed"
	"io/fs"

	json "github.com/goccy/go-json"

	"github.com/momentics/hioload-http/api"
	"github.com/momentics/hioload-http/internal/users"
)

//go:embed public
var public embed.FS

// Assets returns the bundled front-end rooted at its top directory.
func Assets() fs.FS {
	sub, err := fs.Sub(public, "public")
	if err != nil {
		panic(err)
	}
	return sub
}

// Providers returns every controller of the sample application.
func Providers(store *users.Store, ctrl api.Control) []api.RouteProvider {
	return []api.RouteProvider{
		GreetingController{},
		MathController{},
		&HelloController{users: store},
		&APIController{users: store, control: ctrl},
	}
}

// jsonField renders {"<key>": <quoted value>} with the spacing the front-end expects.
func jsonField(key, value string) string {
	k, _ := json.Marshal(key)
	v, _ := json.Marshal(value)
	return "{" + string(k) + ": " + string(v) + "}"
}

func query(req *api.Request, key string) string {
	v, _ := req.QueryParam(key)
	return v
}
