package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/gitsource"
	"github.com/conorfennell/studydeck/internal/note"
	"github.com/conorfennell/studydeck/internal/parser"
	"github.com/conorfennell/studydeck/internal/scheduler"
	"github.com/conorfennell/studydeck/internal/storage"
)

// RunSync iterates over all sources and reconciles them.
func RunSync(db *storage.DB, reposDir string) {
	slog.Info("Starting sync process for all sources...")
	sources, err := db.GetAllSources()
	if err != nil {
		slog.Error("Failed to get sources", "error", err)
		os.Exit(1)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with --add-source <path/or/url.git>")
		return
	}

	if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
		slog.Error("Failed to create repos directory", "error", err)
		os.Exit(1)
	}

	for _, source := range sources {
		slog.Info("Syncing source", "id", source.ID, "git", source.IsGit, "path", source.Path)

		sourceToReconcile := source

		if !source.IsGit {
			reconcileLocalSource(db, &sourceToReconcile)
			continue
		}

		localRepoPath, err := gitURLToLocalPath(reposDir, source.Path)
		if err != nil {
			slog.Error("Error determining local path for git repo", "url", source.Path, "error", err)
			continue
		}

		if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
			slog.Error("Error syncing git repo", "url", source.Path, "error", err)
			continue
		}

		sourceToReconcile.Path = localRepoPath
		reconcileLocalSource(db, &sourceToReconcile)
	}
	slog.Info("Sync process complete.")
}

// reconcileLocalSource walks a source directory for markdown files, inserts
// cards for notes it has not seen before, and deletes cards whose notes are
// gone. Existing cards keep their scheduling state untouched: a note edit
// changes its hash, so it shows up as one delete plus one fresh insert.
func reconcileLocalSource(db *storage.DB, source *storage.Source) {
	now := time.Now()
	var parsedNotes int
	var parseErrors []error
	foundCardIDs := make(map[string]bool)

	walkErr := filepath.WalkDir(source.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		fileNotes, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		deckName := deckNameFor(source.Path, path)

		for _, n := range fileNotes {
			n.DeckName = deckName
			parsedNotes++

			for _, card := range materialize(n, now) {
				foundCardIDs[card.ID] = true

				existing, findErr := db.FindCardByID(card.ID)
				if findErr != nil {
					parseErrors = append(parseErrors, fmt.Errorf("db check for %s: %w", card.ID, findErr))
					continue
				}
				if existing == nil {
					slog.Info("New card found, inserting...", "id", card.ID, "deck", deckName)
					if insertErr := db.InsertCard(card, source.ID); insertErr != nil {
						parseErrors = append(parseErrors, fmt.Errorf("db insert for %s: %w", card.ID, insertErr))
					}
				}
			}
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("Error walking directory", "path", source.Path, "error", walkErr)
		return
	}

	dbCardIDs, err := db.GetCardIDsBySourceID(source.ID)
	if err != nil {
		slog.Error("Error getting cards for source", "source_id", source.ID, "error", err)
		return
	}

	var orphanedCards int
	for _, id := range dbCardIDs {
		if !foundCardIDs[id] {
			slog.Info("Orphaned card, deleting", "id", id)
			orphanedCards++
			if err := db.DeleteCardByID(id); err != nil {
				slog.Warn("Failed to delete orphaned card", "id", id, "error", err)
			}
		}
	}

	if err := db.UpdateSourceLastScanned(source.ID, now); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"parsed_notes", parsedNotes,
		"orphaned_deleted", orphanedCards,
		"errors", len(parseErrors),
	)
}

// materialize turns one note into its sibling cards, seeded with the
// initial scheduling state. Ordinal 1 of a reversed note swaps front
// and back.
func materialize(n domain.Note, now time.Time) []domain.Card {
	noteID := note.Hash(n)
	cards := make([]domain.Card, 0, n.CardCount())
	for ordinal := 0; ordinal < n.CardCount(); ordinal++ {
		front, back := n.FrontText, n.BackText
		if ordinal == 1 {
			front, back = back, front
		}
		card := domain.Card{
			ID:          note.CardID(noteID, ordinal),
			NoteID:      noteID,
			CardOrdinal: ordinal,
			DeckName:    n.DeckName,
			Title:       n.Title,
			FrontText:   front,
			BackText:    back,
			CreatedAt:   now,
		}
		card.Apply(scheduler.CreateInitialReviewMeta(now), now)
		cards = append(cards, card)
	}
	return cards
}

// deckNameFor maps a markdown file to a deck: the top-level directory
// under the source root, or the file stem for files sitting at the root.
func deckNameFor(sourceRoot, filePath string) string {
	rel, err := filepath.Rel(sourceRoot, filePath)
	if err != nil {
		rel = filepath.Base(filePath)
	}
	rel = filepath.ToSlash(rel)
	if idx := strings.Index(rel, "/"); idx >= 0 {
		return rel[:idx]
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsGitURL reports whether a source path looks like a git remote rather
// than a local directory.
func IsGitURL(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
