package main

import "github.com/adanyl0v/todos/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustConnectPostgres()
	defer app.DisconnectPostgres()
	app.MustMigratePostgres()

	app.MustInitEventBroker()

	app.MustListenAndServeHTTP()
}
