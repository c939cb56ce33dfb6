package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/conorfennell/studydeck/internal/daily"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/options"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "studydeck.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCardRoundTrip(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	card := domain.Card{
		ID:          "abc:0",
		NoteID:      "abc",
		CardOrdinal: 0,
		DeckName:    "go",
		Title:       "language",
		FrontText:   "What is Go?",
		BackText:    "A programming language.",
		ReviewState: domain.StateNew,
		DueAt:       now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.InsertCard(card, 0); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	got, err := db.FindCardByID("abc:0")
	if err != nil {
		t.Fatalf("FindCardByID: %v", err)
	}
	if got == nil {
		t.Fatal("expected card, got nil")
	}
	if got.FrontText != card.FrontText || got.DeckName != "go" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Stability != nil || got.Difficulty != nil || got.LastReviewAt != nil {
		t.Error("unreviewed card should keep nil scheduling parameters")
	}
	if got.ReviewState != domain.StateNew {
		t.Errorf("state = %q, want new", got.ReviewState)
	}

	missing, err := db.FindCardByID("nope")
	if err != nil {
		t.Fatalf("FindCardByID(missing): %v", err)
	}
	if missing != nil {
		t.Error("missing card should return nil without error")
	}
}

func TestApplyReviewUpdate(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	card := domain.Card{
		ID: "abc:0", NoteID: "abc", FrontText: "Q", BackText: "A",
		ReviewState: domain.StateNew, DueAt: now, CreatedAt: now, UpdatedAt: now,
	}
	if err := db.InsertCard(card, 0); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	stability := 3.2
	difficulty := 5.1
	update := domain.ReviewUpdate{
		ReviewState:   domain.StateLearning,
		DueAt:         now.Add(10 * time.Minute),
		Stability:     &stability,
		Difficulty:    &difficulty,
		LearningSteps: 1,
		Reps:          1,
		LastReviewAt:  &now,
	}
	if err := db.ApplyReviewUpdate("abc:0", update, now); err != nil {
		t.Fatalf("ApplyReviewUpdate: %v", err)
	}

	got, err := db.FindCardByID("abc:0")
	if err != nil {
		t.Fatalf("FindCardByID: %v", err)
	}
	if got.ReviewState != domain.StateLearning || got.Reps != 1 || got.LearningSteps != 1 {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Stability == nil || *got.Stability != stability {
		t.Errorf("stability = %v, want %v", got.Stability, stability)
	}
	if got.LastReviewAt == nil || !got.LastReviewAt.Equal(now) {
		t.Errorf("last review = %v, want %v", got.LastReviewAt, now)
	}
}

func TestSuspendAndBury(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	card := domain.Card{
		ID: "abc:0", NoteID: "abc", FrontText: "Q",
		ReviewState: domain.StateNew, DueAt: now, CreatedAt: now, UpdatedAt: now,
	}
	if err := db.InsertCard(card, 0); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	if err := db.SetCardSuspended("abc:0", true, now); err != nil {
		t.Fatalf("SetCardSuspended: %v", err)
	}
	until := 20500
	if err := db.SetCardBuriedUntil("abc:0", &until, now); err != nil {
		t.Fatalf("SetCardBuriedUntil: %v", err)
	}

	got, err := db.FindCardByID("abc:0")
	if err != nil {
		t.Fatalf("FindCardByID: %v", err)
	}
	if !got.IsSuspended {
		t.Error("card should be suspended")
	}
	if got.BuriedUntilDay == nil || *got.BuriedUntilDay != until {
		t.Errorf("buried until = %v, want %d", got.BuriedUntilDay, until)
	}

	if err := db.SetCardBuriedUntil("abc:0", nil, now); err != nil {
		t.Fatalf("SetCardBuriedUntil(nil): %v", err)
	}
	got, _ = db.FindCardByID("abc:0")
	if got.BuriedUntilDay != nil {
		t.Error("bury horizon should be cleared")
	}
}

func TestDeckOptionsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	deck := "go"
	newPerDay := 5
	bury := false
	record := options.Record{
		DeckName:      &deck,
		NewPerDay:     &newPerDay,
		BurySiblings:  &bury,
		LearningSteps: []int{1, 10, 60},
	}
	if err := db.SaveDeckOptions(record); err != nil {
		t.Fatalf("SaveDeckOptions: %v", err)
	}

	records, err := db.LoadDeckOptionRecords()
	if err != nil {
		t.Fatalf("LoadDeckOptionRecords: %v", err)
	}
	opts := options.Resolve(records, "go")
	if opts.NewPerDay != 5 {
		t.Errorf("NewPerDay = %d, want 5", opts.NewPerDay)
	}
	if opts.BurySiblings {
		t.Error("BurySiblings should be false")
	}
	if len(opts.LearningSteps) != 3 || opts.LearningSteps[2] != 60 {
		t.Errorf("LearningSteps = %v", opts.LearningSteps)
	}
	// Unset fields fall back to defaults.
	if opts.ReviewPerDay != options.Defaults().ReviewPerDay {
		t.Errorf("ReviewPerDay = %d, want default", opts.ReviewPerDay)
	}

	// A second save for the same scope overwrites, not duplicates.
	newPerDay = 7
	if err := db.SaveDeckOptions(record); err != nil {
		t.Fatalf("SaveDeckOptions(update): %v", err)
	}
	records, _ = db.LoadDeckOptionRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(records))
	}
	if got := options.Resolve(records, "go").NewPerDay; got != 7 {
		t.Errorf("NewPerDay after upsert = %d, want 7", got)
	}
}

func TestReviewSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	record, err := db.LoadReviewSettingsRecord()
	if err != nil {
		t.Fatalf("LoadReviewSettingsRecord: %v", err)
	}
	if record != nil {
		t.Fatalf("expected no settings row in a fresh store, got %+v", record)
	}

	goal := 150
	perSession := 10
	if err := db.SaveReviewSettings(options.ReviewSettingsRecord{
		DailyReviewGoal:         &goal,
		LearnNewCardsPerSession: &perSession,
	}); err != nil {
		t.Fatalf("SaveReviewSettings: %v", err)
	}

	record, err = db.LoadReviewSettingsRecord()
	if err != nil {
		t.Fatalf("LoadReviewSettingsRecord: %v", err)
	}
	settings := options.ParseReviewSettings(record)
	if settings.DailyReviewGoal != 150 || settings.LearnNewCardsPerSession != 10 {
		t.Errorf("settings = %+v", settings)
	}
	// Unset fields keep their legacy defaults.
	if settings.ReviewSessionLimit != options.DefaultReviewSettings().ReviewSessionLimit {
		t.Errorf("ReviewSessionLimit = %d, want default", settings.ReviewSessionLimit)
	}

	// The row is a singleton; a second save overwrites it.
	goal = 300
	if err := db.SaveReviewSettings(options.ReviewSettingsRecord{DailyReviewGoal: &goal}); err != nil {
		t.Fatalf("SaveReviewSettings(update): %v", err)
	}
	record, _ = db.LoadReviewSettingsRecord()
	if got := options.ParseReviewSettings(record).DailyReviewGoal; got != 300 {
		t.Errorf("DailyReviewGoal after upsert = %d, want 300", got)
	}
}

func TestDailyStateRoundTrip(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	state := daily.Empty("go", now)
	state.NewShown = 3
	state.ReviewShown = 12
	if err := db.SaveDailyState(state); err != nil {
		t.Fatalf("SaveDailyState: %v", err)
	}

	record, err := db.LoadDailyRecord("go")
	if err != nil {
		t.Fatalf("LoadDailyRecord: %v", err)
	}
	if record == nil {
		t.Fatal("expected record, got nil")
	}
	parsed := daily.Parse(record, "go", now)
	if parsed.NewShown != 3 || parsed.ReviewShown != 12 {
		t.Errorf("parsed = %+v", parsed)
	}

	missing, err := db.LoadDailyRecord("other")
	if err != nil {
		t.Fatalf("LoadDailyRecord(missing): %v", err)
	}
	if missing != nil {
		t.Error("missing scope should return nil record")
	}
}

func TestSources(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	id, err := db.InsertSource("https://example.com/decks.git", true)
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero source id")
	}

	src, err := db.FindSourceByPath("https://example.com/decks.git")
	if err != nil {
		t.Fatalf("FindSourceByPath: %v", err)
	}
	if src == nil || !src.IsGit {
		t.Fatalf("source = %+v", src)
	}
	if src.LastScanned.Valid {
		t.Error("fresh source should have no last_scanned")
	}

	if err := db.UpdateSourceLastScanned(id, now); err != nil {
		t.Fatalf("UpdateSourceLastScanned: %v", err)
	}
	src, _ = db.FindSourceByPath("https://example.com/decks.git")
	if !src.LastScanned.Valid {
		t.Error("last_scanned should be set after update")
	}

	all, err := db.GetAllSources()
	if err != nil {
		t.Fatalf("GetAllSources: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 source, got %d", len(all))
	}
}

func TestGetCardsByDeckAndSourceCleanup(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	sourceID, err := db.InsertSource("/tmp/decks", false)
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}

	for _, c := range []domain.Card{
		{ID: "a:0", NoteID: "a", DeckName: "go", FrontText: "Q1", ReviewState: domain.StateNew, DueAt: now, CreatedAt: now, UpdatedAt: now},
		{ID: "b:0", NoteID: "b", DeckName: "web", FrontText: "Q2", ReviewState: domain.StateNew, DueAt: now, CreatedAt: now, UpdatedAt: now},
	} {
		if err := db.InsertCard(c, sourceID); err != nil {
			t.Fatalf("InsertCard(%s): %v", c.ID, err)
		}
	}

	goCards, err := db.GetCardsByDeck("go")
	if err != nil {
		t.Fatalf("GetCardsByDeck: %v", err)
	}
	if len(goCards) != 1 || goCards[0].ID != "a:0" {
		t.Errorf("go deck cards = %+v", goCards)
	}

	all, err := db.GetCardsByDeck("")
	if err != nil {
		t.Fatalf("GetCardsByDeck(all): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 cards, got %d", len(all))
	}

	names, err := db.ListDeckNames()
	if err != nil {
		t.Fatalf("ListDeckNames: %v", err)
	}
	if len(names) != 2 || names[0] != "go" || names[1] != "web" {
		t.Errorf("deck names = %v", names)
	}

	ids, err := db.GetCardIDsBySourceID(sourceID)
	if err != nil {
		t.Fatalf("GetCardIDsBySourceID: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 ids, got %v", ids)
	}

	if err := db.DeleteCardByID("a:0"); err != nil {
		t.Fatalf("DeleteCardByID: %v", err)
	}
	ids, _ = db.GetCardIDsBySourceID(sourceID)
	if len(ids) != 1 || ids[0] != "b:0" {
		t.Errorf("ids after delete = %v", ids)
	}
}
