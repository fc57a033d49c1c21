package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/mansoorceksport/hutraz/internal/app"
	"github.com/mansoorceksport/hutraz/internal/config"
	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/mansoorceksport/hutraz/internal/repository"
	"github.com/mansoorceksport/hutraz/internal/scheduler"
)

type exerciseKey struct {
	name string
	kind domain.ExerciseKind
}

func main() {
	exercise := flag.String("exercise", "", "Only show this exercise")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	hutraz, err := app.NewApp(app.AppDependencies{Store: store, Scheduler: scheduler.NewTickerScheduler()})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	defer hutraz.Close()
	if err := hutraz.Load(ctx); err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}

	history := hutraz.History()
	fmt.Printf("Scanning %d workouts...\n\n", len(history))

	seen := make(map[exerciseKey]bool)
	var keys []exerciseKey
	for _, w := range history {
		for _, ex := range w.Exercises {
			k := exerciseKey{name: ex.Name, kind: ex.Kind.Normalize()}
			if seen[k] || (*exercise != "" && k.name != *exercise) {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].kind < keys[j].kind
	})

	found := 0
	for _, k := range keys {
		best := hutraz.BestSet(k.name, k.kind)
		if best == nil {
			continue
		}
		found++
		fmt.Printf("%-28s %-16s %-20s %s\n", k.name, k.kind, best.Display, best.Date)
	}

	fmt.Println("\n========================================")
	fmt.Printf("Exercises: %d\n", len(keys))
	fmt.Printf("Records:   %d\n", found)
}
