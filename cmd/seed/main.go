// seed loads a YAML catalog file into the SQLite catalog store used by the
// server. Intended for admin-side catalog maintenance.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"habitquest/internal/config"
	"habitquest/internal/storage"
	"habitquest/pkg/types"
)

// catalogFile is the YAML shape of a catalog seed file
type catalogFile struct {
	Tasks []catalogTask `yaml:"tasks"`
}

// catalogTask is one task definition in the seed file
type catalogTask struct {
	ID             string                   `yaml:"id"`
	Title          string                   `yaml:"title"`
	Category       string                   `yaml:"category"`
	CategoryIcon   string                   `yaml:"category_icon"`
	DefaultPicture string                   `yaml:"default_picture"`
	Milestones     map[string]catalogReward `yaml:"milestones"`
}

// catalogReward is a milestone definition in the seed file
type catalogReward struct {
	Title string `yaml:"title"`
	Badge string `yaml:"badge"`
}

func main() {
	file := flag.String("file", "catalog.yaml", "path to the YAML catalog file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read catalog file: %v", err)
	}

	var parsed catalogFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		log.Fatalf("Failed to parse catalog file: %v", err)
	}
	if len(parsed.Tasks) == 0 {
		log.Fatalf("Catalog file %s contains no tasks", *file)
	}

	store, err := storage.NewSQLiteCatalogStore(cfg.Store.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to open catalog store: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	seeded := 0
	for i := range parsed.Tasks {
		entry := toEntry(&parsed.Tasks[i])
		if err := store.UpsertTask(ctx, entry); err != nil {
			_, _ = red.Fprintf(os.Stderr, "✗ %s: %v\n", entry.ID, err)
			continue
		}
		_, _ = green.Printf("✓ %s (%s)\n", entry.Title, entry.CategoryTitle)
		seeded++
	}

	fmt.Printf("Seeded %d/%d tasks into %s\n", seeded, len(parsed.Tasks), cfg.Store.CatalogPath)
	if seeded < len(parsed.Tasks) {
		os.Exit(1)
	}
}

func toEntry(task *catalogTask) *types.TaskCatalogEntry {
	entry := &types.TaskCatalogEntry{
		ID:                task.ID,
		Title:             task.Title,
		CategoryTitle:     task.Category,
		CategoryIcon:      task.CategoryIcon,
		DefaultPictureURL: task.DefaultPicture,
	}
	if len(task.Milestones) > 0 {
		entry.Milestones = make(map[string]types.Milestone, len(task.Milestones))
		for threshold, reward := range task.Milestones {
			entry.Milestones[threshold] = types.Milestone{Title: reward.Title, Badge: reward.Badge}
		}
	}
	return entry
}
