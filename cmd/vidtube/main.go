// Command vidtube runs the VidTube API server and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vidtube/backend/internal/app"
)

const usage = "usage: vidtube serve | migrate [up|status] | seed <name>"

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "vidtube:", err)
		if len(os.Args) < 2 {
			fmt.Fprintln(os.Stderr, usage)
		}
		os.Exit(1)
	}
}
