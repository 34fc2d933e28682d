// Package main is the entry point for the query pipeline service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	pipelinesvc "github.com/kart-io/verdict-x/internal/pipeline"
)

func main() {
	pipelinesvc.NewApp().Run()
}
