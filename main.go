package main

import (
	"fmt"
	"os"

	"github.com/km-arc/go-injector/framework/app"
	"github.com/km-arc/go-injector/framework/console"
	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/routing"
)

func main() {
	if err := console.NewRootCmd(app.Version, &WelcomeServiceProvider{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Greeter is autowired; its greeting comes from GREETING in .env.
type Greeter struct {
	Greeting string `inject:"greeting" default:"Welcome to Injector!"`
}

// WelcomeServiceProvider registers the demo routes.
type WelcomeServiceProvider struct {
	container.BaseProvider
}

func (p *WelcomeServiceProvider) Register(app *container.Container) {
	app.Singleton("greeter", container.Class[*Greeter]())
	app.Alias(container.Key[Greeter](), "greeter")
}

func (p *WelcomeServiceProvider) Boot(app *container.Container) {
	r := container.MustResolve[*routing.Router](app, "router")

	r.Get("/", r.Action(func(g *Greeter) map[string]any {
		return map[string]any{"message": g.Greeting}
	}, "greeter"))

	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/hello/{name}", api.Action(func(name string, g *Greeter) map[string]any {
			return map[string]any{"message": g.Greeting, "name": name}
		}, "name", "greeter"))
	})
}
