package cmd

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andriiyaremenko/tinyioc"
	"github.com/andriiyaremenko/tinyioc/app"
	"github.com/andriiyaremenko/tinyioc/discovery"
	"github.com/andriiyaremenko/tinyioc/web"
)

type Greeter struct {
	Greeting string
}

func NewGreeter() *Greeter {
	return &Greeter{}
}

func (g *Greeter) Greet(name string) string {
	return fmt.Sprintf("%s, %s!", g.Greeting, name)
}

type GreetRoutes struct {
	greeter *Greeter
}

func NewGreetRoutes(greeter *Greeter) *GreetRoutes {
	return &GreetRoutes{greeter: greeter}
}

func (r *GreetRoutes) Mount(router chi.Router) {
	router.Get("/greet/{name}", r.greet)
}

func (r *GreetRoutes) greet(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, r.greeter.Greet(chi.URLParam(req, "name")))
}

// Modules of the demo app, selected with --modules.
func Modules() *discovery.Catalog {
	return discovery.NewCatalog().
		Add("services/greeter",
			tinyioc.NewSingleton(NewGreeter, "greeter").
				SetPropertyByConfig("Greeting", "greeter.greeting", "Hello"),
		).
		Add("web/routes/health",
			tinyioc.NewSingleton(web.NewHealthRoutes, "health").
				ConstructorParamByConfig(app.ContextNameKey, app.DefaultContextName),
		).
		Add("web/routes/greet",
			tinyioc.NewSingleton(NewGreetRoutes, "greetRoutes").
				ConstructorParamByRef("greeter"),
		)
}
