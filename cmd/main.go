package main

import (
	"fmt"
	"os"

	"github.com/darzee/imagehub-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	addr := ":" + a.Cfg.Port
	a.Log.Info("Starting HTTP server", "addr", addr)
	if err := a.Run(addr); err != nil {
		a.Log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
