package main

import (
	"context"
	"os"

	"github.com/PratikDhanave/water-history-service/internal/cli"
)

func main() {
	os.Exit(cli.Run(context.Background(), os.Args))
}
