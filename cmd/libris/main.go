package main

import (
	"github.com/librishq/libris/app"
)

func main() {
	app.New(nil).Run()
}
