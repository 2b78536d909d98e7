// Package web adds an HTTP server to app.App.
//
// Plugin registers two definitions in the app Context:
// "router", a chi based Router mounting every definition of group "web.routes"
// (answering in XML under "web.xmlRoot" tag when it is set),
// and "httpServer", a non-lazy Server listening on "web.addr" between Context start and stop.
package web

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/andriiyaremenko/tinyioc"
	"github.com/andriiyaremenko/tinyioc/app"
)

const (
	RouterName  = "router"
	ServerName  = "httpServer"
	RoutesGroup = "web.routes"

	AddrKey     = "web.addr"
	DefaultAddr = ":8080"
	TimeoutsKey = "web.timeouts"
)

var routesInterface = reflect.TypeOf((*Routes)(nil)).Elem()

var _ app.WillStarter = new(Plugin)
var _ app.DidStarter = new(Plugin)

type Plugin struct {
	routes   []string
	discover bool
}

// NewPlugin returns Plugin adding definitions named routes to group RoutesGroup.
func NewPlugin(routes ...string) *Plugin {
	return &Plugin{routes: routes}
}

// DiscoverRoutes makes Plugin add every definition producing Routes to group RoutesGroup.
func (p *Plugin) DiscoverRoutes() *Plugin {
	p.discover = true
	return p
}

func (p *Plugin) Name() string {
	return "web"
}

func (p *Plugin) WillStart(_ context.Context, a *app.App) error {
	return p.Register(a.Context())
}

// Register adds router and server definitions to c and fills group RoutesGroup.
func (p *Plugin) Register(c *tinyioc.Context) error {
	if err := c.RegisterSingletons(
		tinyioc.NewSingleton(NewRouter, RouterName).
			ConstructorParamByRef(app.LoggerName).
			SetPropertyByConfig("XMLRoot", XMLRootKey, "").
			SetPropertyByGroup("Routes", RoutesGroup),
		tinyioc.NewSingleton(NewServer, ServerName).
			ConstructorParamByConfig(AddrKey, DefaultAddr).
			ConstructorParamByRef(RouterName).
			ConstructorParamByRef(app.LoggerName).
			SetPropertyByConfig("Timeouts", TimeoutsKey, Timeouts{}).
			StartFunction("Start").
			StopFunction("Stop").
			WithLazyLoading(false),
	); err != nil {
		return err
	}

	routes := slices.Clone(p.routes)
	if p.discover {
		for _, name := range c.DefinitionNames() {
			def, err := c.GetDefinitionByName(name)
			if err != nil {
				return err
			}

			if t := def.ProducedType(); t != nil && t.Implements(routesInterface) && !slices.Contains(routes, name) {
				routes = append(routes, name)
			}
		}
	}

	for _, name := range routes {
		if err := c.AddObjectNameToGroup(RoutesGroup, name); err != nil {
			return err
		}
	}

	return nil
}

// DidStart stores the address Server listens on in app.PluginContext under AddrKey.
func (p *Plugin) DidStart(ctx context.Context, a *app.App) error {
	srv, err := tinyioc.Get[*Server](ctx, a.Context(), ServerName)
	if err != nil {
		return fmt.Errorf("http server is not available: %w", err)
	}

	a.PluginContext().Store(AddrKey, srv.Addr())

	return nil
}
