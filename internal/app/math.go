package app

import (
	"math"
	"strconv"

	"github.com/momentics/hioload-http/api"
)

// MathController serves integer addition and two constants.
type MathController struct{}

func (MathController) Routes() []api.Route {
	return api.Routes{
		api.NewRoute(api.MethodGet, "/add", add),
		api.NewRoute(api.MethodGet, "/pi", constant(math.Pi)),
		api.NewRoute(api.MethodGet, "/e", constant(math.E)),
	}
}

// add answers /add?a=&b= with the sum of two 32-bit integers.
func add(req *api.Request, tmpl *api.Response) *api.Response {
	a, errA := strconv.ParseInt(query(req, "a"), 10, 32)
	b, errB := strconv.ParseInt(query(req, "b"), 10, 32)
	if errA != nil || errB != nil {
		return tmpl.Derive(api.WithBody("Error: Invalid numbers"))
	}
	return tmpl.Derive(api.WithBody("Result: " + strconv.FormatInt(int64(int32(a+b)), 10)))
}

func constant(v float64) api.HandlerFunc {
	body := strconv.FormatFloat(v, 'g', -1, 64)
	return func(req *api.Request, tmpl *api.Response) *api.Response {
		return tmpl.Derive(api.WithContentType("text/plain"), api.WithBody(body))
	}
}
