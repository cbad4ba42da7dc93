// cmd/strataconvert/main.go
package main

import (
	"github.com/dalemusser/waffle/app"

	"github.com/dalemusser/strataconvert/internal/app/bootstrap"
)

// main hands control to WAFFLE, which drives the bootstrap hooks from
// config loading through serving and graceful shutdown.
func main() {
	app.Run(bootstrap.Hooks)
}
