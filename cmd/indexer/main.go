package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-examprep-be/internal/bootstrap"
	"ai-examprep-be/internal/config"
	"ai-examprep-be/internal/constant"
	"ai-examprep-be/internal/dto"
	"ai-examprep-be/internal/tracer"
	"ai-examprep-be/pkg/database"
)

// The indexer bulk-ingests a directory of .txt corpus files: each file
// becomes one source material, queued through the in-process pipeline
// and indexed into the vector store. The command exits when every
// registered material has left the PENDING state or the wait budget is
// spent.
func main() {
	dir := flag.String("dir", "./corpus", "directory of .txt corpus files")
	defaultCategory := flag.String("category", constant.CategoryTextbook, "category for files without a Category header")
	wait := flag.Duration("wait", 5*time.Minute, "how long to wait for indexing to drain")
	flag.Parse()

	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.VectorIndex.Close()

	ctx := context.Background()
	if err := container.IndexerService.Consume(ctx); err != nil {
		log.Fatalf("Error: failed to start indexer consumer: %v", err)
	}

	files, err := corpusFiles(*dir)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("Error: no .txt files found under %s", *dir)
	}
	log.Printf("Found %d corpus files under %s", len(files), *dir)

	registered := 0
	for _, path := range files {
		req, err := parseCorpusFile(path, *defaultCategory)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}

		resp, err := container.MaterialService.Register(ctx, req)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				log.Printf("Material '%s' already registered, skipping...", req.Source)
				continue
			}
			log.Printf("Error registering %s: %v", path, err)
			continue
		}
		registered++
		log.Printf("Registered: %s (%s) -> %s", req.Title, req.Category, resp.Id)
	}

	if registered == 0 {
		log.Println("Nothing new to index.")
		return
	}

	log.Printf("Waiting for %d materials to be indexed...", registered)
	waitForDrain(ctx, container, *wait)

	indexed := countByStatus(ctx, container, constant.MaterialStatusIndexed)
	failed := countByStatus(ctx, container, constant.MaterialStatusFailed)
	pending := countByStatus(ctx, container, constant.MaterialStatusPending)
	log.Printf("✅ Indexing finished: %d indexed, %d failed, %d still pending", indexed, failed, pending)
	if failed > 0 || pending > 0 {
		os.Exit(1)
	}
}

func corpusFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".txt") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

// parseCorpusFile reads one corpus file. An optional header block of
// "Key: Value" lines (Title, Category, Source, Chapter, Section) ends at
// the first blank line; everything after it is content. Files without a
// header are all content, titled after the file name.
func parseCorpusFile(path, defaultCategory string) (*dto.RegisterMaterialRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	req := &dto.RegisterMaterialRequest{
		Title:    strings.ReplaceAll(stem, "_", " "),
		Category: defaultCategory,
		Source:   stem,
	}

	var content strings.Builder
	inHeader := true
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			if strings.TrimSpace(line) == "" {
				inHeader = false
				continue
			}
			key, value, ok := strings.Cut(line, ":")
			if ok && setHeaderField(req, strings.TrimSpace(key), strings.TrimSpace(value)) {
				continue
			}
			// Not a recognized header line, the file starts with content.
			inHeader = false
		}
		if content.Len() > 0 {
			content.WriteString("\n")
		}
		content.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	req.Content = strings.TrimSpace(content.String())
	if req.Content == "" {
		return nil, fmt.Errorf("file has no content")
	}
	if !constant.IsValidCategory(req.Category) {
		return nil, fmt.Errorf("unknown category %q", req.Category)
	}
	return req, nil
}

func setHeaderField(req *dto.RegisterMaterialRequest, key, value string) bool {
	switch strings.ToLower(key) {
	case "title":
		req.Title = value
	case "category":
		req.Category = strings.ToLower(value)
	case "source":
		req.Source = value
	case "chapter":
		req.Chapter = value
	case "section":
		req.Section = value
	default:
		return false
	}
	return true
}

func waitForDrain(ctx context.Context, container *bootstrap.Container, budget time.Duration) {
	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) {
		pending := countByStatus(ctx, container, constant.MaterialStatusPending)
		if pending == 0 {
			return
		}
		log.Printf("... %d materials still pending", pending)
		time.Sleep(2 * time.Second)
	}
	log.Printf("Warn: wait budget %s spent before indexing drained", budget)
}

func countByStatus(ctx context.Context, container *bootstrap.Container, status string) int {
	materials, err := container.MaterialService.List(ctx, &dto.ListMaterialsRequest{Status: status, Limit: 200})
	if err != nil {
		log.Printf("Warn: failed to list %s materials: %v", status, err)
		return 0
	}
	return len(materials)
}
