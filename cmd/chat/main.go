// Command chat runs one conversation in the terminal against in-memory
// collaborators.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/room4-2/lamaison/config"
	"github.com/room4-2/lamaison/dialog"
	"github.com/room4-2/lamaison/logging"
	"github.com/room4-2/lamaison/restaurant"
)

func main() {
	debug := flag.Bool("debug", false, "Log dialog state transitions")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := "warn"
	if *debug {
		level = "debug"
	}
	logger, err := logging.New(false, level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	info := restaurant.NewInfo(cfg.RestaurantName, cfg.ClosedDays)
	floor := restaurant.NewFloor(info, cfg.SeatsPerSlot, restaurant.NewMemoryLedger())

	engine := dialog.NewEngine(floor, restaurant.NewMenu(info, nil), dialog.Options{
		RestaurantName: info.Name,
		HoursText:      info.Hours(),
		Logger:         logger,
	})
	engine.OnConfirm = floor.Book
	engine.OnCancel = func(ctx context.Context, r dialog.Reservation) {
		if err := floor.Release(ctx, r); err != nil {
			logger.Error("❌ Failed to release booking", zap.Error(err))
		}
	}

	fmt.Printf("🤖 %s\n", engine.Greeting())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.TurnDeadline())
		reply := engine.ProcessMessage(ctx, line)
		cancel()

		fmt.Printf("🤖 %s\n", reply)
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Read error: %v", err)
	}
	fmt.Println("👋 Bye")
}
