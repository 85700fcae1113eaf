package main

import (
	"os"

	"github.com/seatwise/booking-engine/internal/app"
)

func main() {
	err := app.Run()
	if err != nil {
		os.Exit(1)
	}
}
