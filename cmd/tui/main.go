package main

import "github.com/adanyl0v/todos/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadClientEnv()
	app.MustInitTUILogger()

	app.MustRunTUI()
}
