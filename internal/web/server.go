package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	gosync "sync"
	"time"

	"github.com/conorfennell/studydeck/internal/daily"
	"github.com/conorfennell/studydeck/internal/day"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/options"
	"github.com/conorfennell/studydeck/internal/queue"
	"github.com/conorfennell/studydeck/internal/scheduler"
	"github.com/conorfennell/studydeck/internal/session"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server. It carries at most one
// live study session at a time, guarded by mu.
type Server struct {
	db        *storage.DB
	reposDir  string
	router    *http.ServeMux
	templates *template.Template

	mu      gosync.Mutex
	active  *session.State
	nowFunc func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, reposDir string) (*Server, error) {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		db:        db,
		reposDir:  reposDir,
		router:    http.NewServeMux(),
		templates: tpl,
		nowFunc:   time.Now,
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	// Embedded paths already carry the static/ prefix, so no StripPrefix.
	s.router.Handle("/static/", http.FileServer(http.FS(staticFiles)))

	s.router.HandleFunc("/", s.handleDecks())
	s.router.HandleFunc("/study", s.handleStartStudy())
	s.router.HandleFunc("/study/answer", s.handleShowAnswer())
	s.router.HandleFunc("/study/grade", s.handleGrade())
	s.router.HandleFunc("/study/bury", s.handleBury())
	s.router.HandleFunc("/study/suspend", s.handleSuspend())
	s.router.HandleFunc("/study/refresh", s.handleRefresh())
	s.router.HandleFunc("/options", s.handleDeckOptions())

	// Source management routes
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

type deckRow struct {
	Name   string
	Counts queue.OverviewCounts
}

// handleDecks renders the deck overview: every deck with its new, learning
// and due counts, plus the all-decks scope.
func (s *Server) handleDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		cards, err := s.db.GetAllCards()
		if err != nil {
			slog.Error("Error loading cards for deck view", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		names, err := s.db.ListDeckNames()
		if err != nil {
			slog.Error("Error listing decks", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		now := s.nowFunc()
		reviewedToday, err := s.db.CountReviewsSince(day.StartOfLocalDay(now))
		if err != nil {
			slog.Error("Error counting today's reviews", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		decks := make([]deckRow, 0, len(names))
		for _, name := range names {
			decks = append(decks, deckRow{Name: name, Counts: queue.Overview(cards, name, now)})
		}
		data := map[string]any{
			"Decks":         decks,
			"All":           queue.Overview(cards, "", now),
			"ReviewedToday": reviewedToday,
		}
		s.templates.ExecuteTemplate(w, "decks", data)
	}
}

// handleStartStudy opens a study session for a deck. Custom-study additions
// come in as query parameters (new, review, forgotten, ahead) and are
// credited to today's counters exactly once, at session start.
func (s *Server) handleStartStudy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckName := options.NormalizeDeckName(r.URL.Query().Get("deck"))
		custom := options.ParseCustomStudy(r.URL.Query())
		now := s.nowFunc()

		cards, opts, dailyState, err := s.loadDeckState(deckName, now)
		if err != nil {
			slog.Error("Error loading deck state", "deck", deckName, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if !custom.IsZero() {
			dailyState = daily.ApplyCustomOverrides(dailyState, custom)
			if err := s.db.SaveDailyState(dailyState); err != nil {
				slog.Error("Error saving custom study deltas", "deck", deckName, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}

		state := session.Create(session.CreateArgs{
			Cards:    cards,
			DeckName: deckName,
			Now:      now,
			Options:  opts,
			Custom:   custom,
			Daily:    dailyState,
		})

		s.mu.Lock()
		s.active = &state
		s.mu.Unlock()

		s.renderCurrent(w, state, cards)
	}
}

// handleShowAnswer renders the back of the current card.
func (s *Server) handleShowAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardID := r.URL.Query().Get("card")
		card, err := s.db.FindCardByID(cardID)
		if err != nil || card == nil {
			http.NotFound(w, r)
			return
		}
		s.templates.ExecuteTemplate(w, "card_back", card)
	}
}

// handleGrade processes one grading event: it reschedules the card, logs
// the review, advances the session, persists the counters, and renders the
// next card.
func (s *Server) handleGrade() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		cardID := r.PostFormValue("card")
		rating := domain.ReviewRating(r.PostFormValue("rating"))
		if !domain.IsValidReviewRating(string(rating)) {
			http.Error(w, "Invalid rating", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.active == nil {
			http.Error(w, "No active session", http.StatusConflict)
			return
		}
		state := *s.active

		card, err := s.db.FindCardByID(cardID)
		if err != nil || card == nil {
			http.NotFound(w, r)
			return
		}

		now := s.nowFunc()
		update, err := scheduler.ScheduleReview(*card, rating, now, state.Options)
		if err != nil {
			slog.Error("Error scheduling review", "card", cardID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if err := s.db.ApplyReviewUpdate(cardID, update, now); err != nil {
			slog.Error("Error persisting review", "card", cardID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if entry, ok := session.Current(state); ok && entry.CardID == cardID {
			if err := s.db.InsertReviewLog(domain.ReviewLog{
				CardID:     cardID,
				Rating:     rating,
				Lane:       entry.Lane,
				ReviewedAt: now,
			}); err != nil {
				slog.Warn("Failed to log review", "card", cardID, "error", err)
			}
		}

		cards, err := s.db.GetCardsByDeck(state.DeckName)
		if err != nil {
			slog.Error("Error reloading cards", "deck", state.DeckName, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		next := session.Advance(state, cards, cardID, rating, now)
		if err := s.db.SaveDailyState(next.Daily); err != nil {
			slog.Warn("Failed to save daily counters", "deck", next.DeckName, "error", err)
		}
		s.active = &next

		s.renderCurrent(w, next, cards)
	}
}

// handleBury hides the current card's card until tomorrow and moves on.
func (s *Server) handleBury() http.HandlerFunc {
	return s.handleCardAction(func(cardID string, now time.Time) error {
		today := day.ToLocalDayNumber(now)
		return s.db.SetCardBuriedUntil(cardID, &today, now)
	})
}

// handleSuspend takes the current card out of study entirely.
func (s *Server) handleSuspend() http.HandlerFunc {
	return s.handleCardAction(func(cardID string, now time.Time) error {
		return s.db.SetCardSuspended(cardID, true, now)
	})
}

// handleCardAction applies a card mutation, then rebuilds the session
// without crediting any counter.
func (s *Server) handleCardAction(apply func(cardID string, now time.Time) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cardID := r.PostFormValue("card")
		if cardID == "" {
			http.Error(w, "Missing card", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.active == nil {
			http.Error(w, "No active session", http.StatusConflict)
			return
		}

		now := s.nowFunc()
		if err := apply(cardID, now); err != nil {
			slog.Error("Error applying card action", "card", cardID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		cards, err := s.db.GetCardsByDeck(s.active.DeckName)
		if err != nil {
			slog.Error("Error reloading cards", "deck", s.active.DeckName, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		next := session.Refresh(*s.active, cards, now)
		s.active = &next
		s.renderCurrent(w, next, cards)
	}
}

// handleRefresh rebuilds the session queue; the session page polls it when
// the pending-learning timer fires.
func (s *Server) handleRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.active == nil {
			http.Error(w, "No active session", http.StatusConflict)
			return
		}

		now := s.nowFunc()
		cards, err := s.db.GetCardsByDeck(s.active.DeckName)
		if err != nil {
			slog.Error("Error reloading cards", "deck", s.active.DeckName, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		next := session.Refresh(*s.active, cards, now)
		s.active = &next
		s.renderCurrent(w, next, cards)
	}
}

// renderCurrent renders the front of the session's current card, or the
// done view when the queue is empty. The done view carries the wake-up
// instant so the page can schedule a refresh for a pending learning card.
func (s *Server) renderCurrent(w http.ResponseWriter, state session.State, cards []domain.Card) {
	entry, ok := session.Current(state)
	if !ok {
		data := map[string]any{
			"Reviewed":    state.ReviewedCount,
			"Streak":      state.Streak,
			"HasPending":  state.HasPendingLearning,
			"PendingInMS": s.pendingDelayMS(state),
		}
		s.templates.ExecuteTemplate(w, "session_done", data)
		return
	}

	for i := range cards {
		if cards[i].ID == entry.CardID {
			data := map[string]any{
				"Card":      cards[i],
				"Lane":      string(entry.Lane),
				"Remaining": len(state.Queue),
				"Reviewed":  state.ReviewedCount,
				"Streak":    state.Streak,
			}
			s.templates.ExecuteTemplate(w, "card_front", data)
			return
		}
	}
	// The entry points at a card the reload no longer has; treat as done.
	s.templates.ExecuteTemplate(w, "session_done", map[string]any{"Reviewed": state.ReviewedCount})
}

// handleDeckOptions renders and saves per-deck study options.
func (s *Server) handleDeckOptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.renderDeckOptions(w, r.URL.Query().Get("deck"))
		case http.MethodPost:
			s.saveDeckOptions(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) renderDeckOptions(w http.ResponseWriter, deckName string) {
	records, err := s.db.LoadDeckOptionRecords()
	if err != nil {
		slog.Error("Error loading deck options", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	opts := options.Resolve(records, deckName)
	data := map[string]any{
		"Deck":    options.NormalizeDeckName(deckName),
		"Options": opts,
	}
	s.templates.ExecuteTemplate(w, "deck_options", data)
}

func (s *Server) saveDeckOptions(w http.ResponseWriter, r *http.Request) {
	deckName := options.NormalizeDeckName(r.PostFormValue("deck"))
	defaults := options.Defaults()

	newPerDay := options.ParseLimitInput(r.PostFormValue("new_per_day"), defaults.NewPerDay)
	reviewPerDay := options.ParseLimitInput(r.PostFormValue("review_per_day"), defaults.ReviewPerDay)
	newOrder := r.PostFormValue("new_order")
	reviewOrder := r.PostFormValue("review_order")
	bury := r.PostFormValue("bury_siblings") != ""

	record := options.Record{
		DeckName:     &deckName,
		NewPerDay:    &newPerDay,
		ReviewPerDay: &reviewPerDay,
		NewOrder:     &newOrder,
		ReviewOrder:  &reviewOrder,
		BurySiblings: &bury,
	}
	if err := s.db.SaveDeckOptions(record); err != nil {
		slog.Error("Error saving deck options", "deck", deckName, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.renderDeckOptions(w, deckName)
}

// handlePostSync triggers a manual sync and re-renders the source list.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		sync.RunSync(s.db, s.reposDir) // Run in the foreground to make the user wait

		// Re-render the source list to be swapped by HTMX
		sources, err := s.db.GetAllSources()
		if err != nil {
			slog.Error("Error getting sources after sync", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "source_list", map[string]any{"Sources": sources})
	}
}

// handleSources handles both GET and POST for the sources page.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSources(w, r)
		case http.MethodPost:
			s.handlePostSource(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleGetSources renders the main sources management page.
func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("Error getting sources", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "sources", map[string]any{"Sources": sources})
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	path := r.PostFormValue("path")
	if path == "" {
		http.Error(w, "Path cannot be empty", http.StatusBadRequest)
		return
	}

	if _, err := s.db.InsertSource(path, sync.IsGitURL(path)); err != nil {
		slog.Error("Error inserting new source", "path", path, "error", err)
		http.Error(w, "Failed to add source", http.StatusInternalServerError)
		return
	}

	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("Error getting sources after add", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "source_list", map[string]any{"Sources": sources})
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}

		if err := s.db.DeleteSource(id); err != nil {
			slog.Error("Error deleting source", "id", id, "error", err)
			http.Error(w, "Failed to delete source", http.StatusInternalServerError)
			return
		}

		sources, err := s.db.GetAllSources()
		if err != nil {
			slog.Error("Error getting sources after delete", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "source_list", map[string]any{"Sources": sources})
	}
}

func (s *Server) loadDeckState(deckName string, now time.Time) ([]domain.Card, options.DeckStudyOptions, daily.State, error) {
	cards, err := s.db.GetCardsByDeck(deckName)
	if err != nil {
		return nil, options.DeckStudyOptions{}, daily.State{}, err
	}
	records, err := s.db.LoadDeckOptionRecords()
	if err != nil {
		return nil, options.DeckStudyOptions{}, daily.State{}, err
	}
	opts := options.Resolve(records, deckName)

	// Databases from before per-deck options may carry only the legacy
	// global limits row; blend its limits in when no options record covers
	// the studied scope.
	if !options.Has(records, deckName) {
		legacyRecord, err := s.db.LoadReviewSettingsRecord()
		if err != nil {
			return nil, options.DeckStudyOptions{}, daily.State{}, err
		}
		if legacyRecord != nil {
			legacy := options.ParseReviewSettings(legacyRecord)
			opts.NewPerDay = legacy.LearnNewCardsPerSession
			opts.ReviewPerDay = legacy.ReviewSessionLimit
		}
	}

	record, err := s.db.LoadDailyRecord(deckName)
	if err != nil {
		return nil, options.DeckStudyOptions{}, daily.State{}, err
	}
	return cards, opts, daily.Parse(record, deckName, now), nil
}

func (s *Server) pendingDelayMS(state session.State) int64 {
	if !state.HasPendingLearning {
		return 0
	}
	delay := state.NextPendingLearningDueAt.Sub(s.nowFunc())
	if delay < 0 {
		delay = 0
	}
	return delay.Milliseconds()
}
