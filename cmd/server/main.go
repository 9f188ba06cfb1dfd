// Command server runs the itemkeeper HTTP API.
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/itemkeeper/internal/server"
	"github.com/dmitrijs2005/itemkeeper/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("itemkeeper: init: %v", err)
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Printf("itemkeeper: %v", err)
		os.Exit(1)
	}
}
