package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mansoorceksport/hutraz/internal/app"
	"github.com/mansoorceksport/hutraz/internal/config"
	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/mansoorceksport/hutraz/internal/repository"
	"github.com/mansoorceksport/hutraz/internal/scheduler"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultSeed []byte

type seedFile struct {
	Folders []struct {
		Name      string `yaml:"name"`
		Templates []struct {
			Name      string `yaml:"name"`
			Exercises []struct {
				Name string `yaml:"name"`
				Sets int    `yaml:"sets"`
				Rest *int   `yaml:"rest"`
			} `yaml:"exercises"`
		} `yaml:"templates"`
	} `yaml:"folders"`
}

func main() {
	file := flag.String("file", "", "YAML seed file (defaults to the built-in starter programme)")
	dryRun := flag.Bool("dry-run", false, "Show what would be created without saving")
	flag.Parse()

	data := defaultSeed
	if *file != "" {
		b, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read seed file: %v", err)
		}
		data = b
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

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
	if err := hutraz.Load(ctx); err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}

	created := 0
	for _, f := range seed.Folders {
		folderID := findFolder(hutraz.Folders(), f.Name)
		if folderID == "" {
			if *dryRun {
				fmt.Printf("[dry-run] would create folder %s\n", f.Name)
			} else if folderID, err = hutraz.CreateFolder(f.Name); err != nil {
				log.Fatalf("Failed to create folder %s: %v", f.Name, err)
			}
		}

		for _, tpl := range f.Templates {
			if templateExists(hutraz.Folders(), tpl.Name) {
				fmt.Printf("Skipping %s: already exists\n", tpl.Name)
				continue
			}

			var exercises []domain.TemplateExercise
			for _, ex := range tpl.Exercises {
				libEx, ok := hutraz.Library().Find(ex.Name)
				if !ok {
					fmt.Printf("Warning: Exercise not found: %s\n", ex.Name)
					continue
				}
				exercises = append(exercises, domain.TemplateExercise{
					Name:                libEx.Name,
					Kind:                libEx.Kind,
					Sets:                make([]domain.Set, ex.Sets),
					RestOverrideSeconds: ex.Rest,
				})
			}

			if *dryRun {
				fmt.Printf("[dry-run] would create template %s / %s with %d exercises\n", f.Name, tpl.Name, len(exercises))
				continue
			}
			if _, err := hutraz.CreateTemplate(folderID, tpl.Name, exercises); err != nil {
				log.Printf("Error creating template %s: %v\n", tpl.Name, err)
				continue
			}
			created++
			fmt.Printf("Created Template: %s with %d exercises\n", tpl.Name, len(exercises))
		}
	}

	if err := hutraz.Close(); err != nil {
		log.Fatalf("Failed to save templates: %v", err)
	}
	fmt.Printf("\nDone. %d templates created.\n", created)
}

func findFolder(folders []domain.Folder, name string) string {
	for _, f := range folders {
		if f.Name == name {
			return f.ID
		}
	}
	return ""
}

func templateExists(folders []domain.Folder, name string) bool {
	for _, f := range folders {
		for _, t := range f.Templates {
			if t.Name == name {
				return true
			}
		}
	}
	return false
}
