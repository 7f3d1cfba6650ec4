package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/cornwall-collections/internal/calendar"
	"github.com/pfrederiksen/cornwall-collections/internal/collection"
)

func main() {
	// A fortnight of sample collections starting next week
	start := time.Now().AddDate(0, 0, 7)
	collections := []*collection.Collection{
		collection.New(start, collection.ShortFood),
		collection.New(start, collection.ShortRecycling),
		collection.New(start.AddDate(0, 0, 7), collection.ShortFood),
		collection.New(start.AddDate(0, 0, 7), collection.ShortRubbish),
		collection.New(start.AddDate(0, 0, 7), collection.ShortGarden),
	}

	reminder, err := calendar.ParseReminder("19:00", 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing reminder: %v\n", err)
		os.Exit(1)
	}

	icsContent := calendar.GenerateICS(collections, calendar.Options{Reminder: reminder})

	filename := "test-cornwall-collection.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
