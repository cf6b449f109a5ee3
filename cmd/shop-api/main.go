package main

import (
	"fmt"
	"os"

	"github.com/snake-eaterr/Snake-Way-Server/cmd/shop-api/app"
)

func main() {
	if err := app.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "shop-api:", err)
		os.Exit(1)
	}
}
