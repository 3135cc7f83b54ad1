package main

import "github.com/hitoshi/ticker/internal/app"

func main() {
	app.Main()
}
