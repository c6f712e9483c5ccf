package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/a1davida1/TPilot-sub011/app/rules"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatal(err)
	}

	return db
}

func intPtr(n int) *int { return &n }

func TestRuleSpecRoundTrip(t *testing.T) {
	repo := NewRuleRepository(setupTestDB(t))

	spec := rules.RuleSpec{
		Subreddit:      "testsub",
		BannedWords:    []string{"onlyfans", "fansly"},
		LinkPolicy:     rules.LinkPolicyNoLink,
		FlairRequired:  true,
		RequiredTags:   []string{"[F]"},
		MaxTitleLength: intPtr(120),
		ManualFlags: rules.ManualFlags{
			MinKarma:             intPtr(100),
			VerificationRequired: true,
		},
		WikiNotes: []string{"Minimum 100 karma required."},
		Source: rules.Source{
			FetchedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	if err := repo.UpsertRuleSpec("TestSub", spec); err != nil {
		t.Fatal(err)
	}

	// Lookup is case-insensitive
	got, err := repo.GetRuleSpec("TESTSUB")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("Expected stored spec")
	}

	if got.Subreddit != "testsub" {
		t.Errorf("Expected subreddit 'testsub', got '%s'", got.Subreddit)
	}
	if len(got.BannedWords) != 2 {
		t.Errorf("Expected 2 banned words, got %v", got.BannedWords)
	}
	if got.LinkPolicy != rules.LinkPolicyNoLink {
		t.Errorf("Expected link policy 'no-link', got '%s'", got.LinkPolicy)
	}
	if got.MaxTitleLength == nil || *got.MaxTitleLength != 120 {
		t.Errorf("Expected max title length 120, got %v", got.MaxTitleLength)
	}
	if got.ManualFlags.MinKarma == nil || *got.ManualFlags.MinKarma != 100 {
		t.Errorf("Expected min karma 100, got %v", got.ManualFlags.MinKarma)
	}
	if !got.Source.FetchedAt.Equal(spec.Source.FetchedAt) {
		t.Errorf("Expected fetchedAt %v, got %v", spec.Source.FetchedAt, got.Source.FetchedAt)
	}
}

func TestGetRuleSpecUnknownCommunity(t *testing.T) {
	repo := NewRuleRepository(setupTestDB(t))

	spec, err := repo.GetRuleSpec("nope")
	if err != nil {
		t.Fatal(err)
	}
	if spec != nil {
		t.Error("Expected nil spec for unknown community")
	}
}

func TestGetRuleSpecRegisteredNeverSynced(t *testing.T) {
	repo := NewRuleRepository(setupTestDB(t))

	if err := repo.RegisterCommunity("newsub"); err != nil {
		t.Fatal(err)
	}

	// Registered but never synced communities have no rules on file
	spec, err := repo.GetRuleSpec("newsub")
	if err != nil {
		t.Fatal(err)
	}
	if spec != nil {
		t.Error("Expected nil spec before first sync")
	}
}

func TestUpsertRuleSpecOverwrites(t *testing.T) {
	repo := NewRuleRepository(setupTestDB(t))

	first := rules.RuleSpec{
		Subreddit:  "testsub",
		LinkPolicy: rules.LinkPolicyOK,
		Source:     rules.Source{FetchedAt: time.Now().UTC()},
	}
	if err := repo.UpsertRuleSpec("testsub", first); err != nil {
		t.Fatal(err)
	}

	second := first
	second.LinkPolicy = rules.LinkPolicyNoLink
	if err := repo.UpsertRuleSpec("testsub", second); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetRuleSpec("testsub")
	if err != nil {
		t.Fatal(err)
	}
	if got.LinkPolicy != rules.LinkPolicyNoLink {
		t.Errorf("Expected updated link policy 'no-link', got '%s'", got.LinkPolicy)
	}

	count, err := repo.GetCommunityCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected a single row after upsert, got %d", count)
	}
}

func TestRegisterCommunityIdempotent(t *testing.T) {
	repo := NewRuleRepository(setupTestDB(t))

	spec := rules.RuleSpec{
		Subreddit:  "testsub",
		LinkPolicy: rules.LinkPolicyOK,
		Source:     rules.Source{FetchedAt: time.Now().UTC()},
	}
	if err := repo.UpsertRuleSpec("testsub", spec); err != nil {
		t.Fatal(err)
	}

	// Re-registering must not clobber the synced spec
	if err := repo.RegisterCommunity("TestSub"); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetRuleSpec("testsub")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.LinkPolicy != rules.LinkPolicyOK {
		t.Error("Expected existing spec to survive re-registration")
	}
}

func TestGetCommunitiesDueForSync(t *testing.T) {
	repo := NewRuleRepository(setupTestDB(t))

	if err := repo.RegisterCommunity("due1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.RegisterCommunity("due2"); err != nil {
		t.Fatal(err)
	}
	if err := repo.RegisterCommunity("later"); err != nil {
		t.Fatal(err)
	}

	// due1 was synced and is due again, later is scheduled in the future,
	// due2 has never been scheduled
	if err := repo.UpdateNextSync("due1", time.Now().UTC().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateNextSync("later", time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	due, err := repo.GetCommunitiesDueForSync(10)
	if err != nil {
		t.Fatal(err)
	}

	if len(due) != 2 {
		t.Fatalf("Expected 2 due communities, got %v", due)
	}
	for _, name := range due {
		if name == "later" {
			t.Error("Future-scheduled community must not be due")
		}
	}
}

func TestListCommunities(t *testing.T) {
	repo := NewRuleRepository(setupTestDB(t))

	if err := repo.RegisterCommunity("bravo"); err != nil {
		t.Fatal(err)
	}
	if err := repo.RegisterCommunity("alpha"); err != nil {
		t.Fatal(err)
	}

	communities, err := repo.ListCommunities()
	if err != nil {
		t.Fatal(err)
	}

	if len(communities) != 2 {
		t.Fatalf("Expected 2 communities, got %d", len(communities))
	}
	if communities[0].Name != "alpha" || communities[1].Name != "bravo" {
		t.Errorf("Expected name-ordered listing, got %v", communities)
	}
	if communities[0].FetchedAt != nil {
		t.Error("Expected nil fetchedAt for never-synced community")
	}
}

func TestPreviewEventInsertAndCount(t *testing.T) {
	repo := NewEventRepository(setupTestDB(t))

	now := time.Now().UTC()
	events := []PreviewEvent{
		{UserID: "u1", Subreddit: "TestSub", PolicyState: rules.PolicyStateOK, CreatedAt: now.Add(-time.Hour)},
		{UserID: "u1", Subreddit: "testsub", PolicyState: rules.PolicyStateOK, CreatedAt: now.Add(-2 * time.Hour)},
		{UserID: "u1", Subreddit: "testsub", PolicyState: rules.PolicyStateBlocked, Warnings: []string{"Contains banned word 'spam'"}, CreatedAt: now.Add(-3 * time.Hour)},
		{UserID: "u1", Subreddit: "testsub", PolicyState: rules.PolicyStateOK, CreatedAt: now.Add(-20 * 24 * time.Hour)},
		{UserID: "u2", Subreddit: "testsub", PolicyState: rules.PolicyStateOK, CreatedAt: now.Add(-time.Hour)},
	}
	for _, ev := range events {
		if err := repo.InsertPreviewEvent(ev); err != nil {
			t.Fatal(err)
		}
	}

	since := now.Add(-14 * 24 * time.Hour)

	okCount, err := repo.CountPreviewEvents("u1", since, rules.PolicyStateOK)
	if err != nil {
		t.Fatal(err)
	}
	if okCount != 2 {
		t.Errorf("Expected 2 clean previews in window, got %d", okCount)
	}

	total, err := repo.CountPreviewEvents("u1", since, "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("Expected 3 total previews in window, got %d", total)
	}

	otherUser, err := repo.CountPreviewEvents("u2", since, rules.PolicyStateOK)
	if err != nil {
		t.Fatal(err)
	}
	if otherUser != 1 {
		t.Errorf("Expected 1 preview for u2, got %d", otherUser)
	}
}

func TestGetRecentEvents(t *testing.T) {
	repo := NewEventRepository(setupTestDB(t))

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		ev := PreviewEvent{
			UserID:       "u1",
			Subreddit:    "testsub",
			TitlePreview: "Title",
			PolicyState:  rules.PolicyStateWarn,
			Warnings:     []string{"Title is missing a required tag (one of [F])"},
			CreatedAt:    now.Add(-time.Duration(i) * time.Hour),
		}
		if err := repo.InsertPreviewEvent(ev); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := repo.GetRecentEvents("u1", 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(recent) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(recent))
	}
	if !recent[0].CreatedAt.After(recent[1].CreatedAt) {
		t.Error("Expected newest-first ordering")
	}
	if recent[0].PolicyState != rules.PolicyStateWarn {
		t.Errorf("Expected policy state 'warn', got '%s'", recent[0].PolicyState)
	}
	if len(recent[0].Warnings) != 1 {
		t.Errorf("Expected warnings decoded, got %v", recent[0].Warnings)
	}
}

func TestDeleteEventsBefore(t *testing.T) {
	repo := NewEventRepository(setupTestDB(t))

	now := time.Now().UTC()
	old := PreviewEvent{UserID: "u1", Subreddit: "testsub", PolicyState: rules.PolicyStateOK, CreatedAt: now.Add(-100 * 24 * time.Hour)}
	fresh := PreviewEvent{UserID: "u1", Subreddit: "testsub", PolicyState: rules.PolicyStateOK, CreatedAt: now.Add(-time.Hour)}

	if err := repo.InsertPreviewEvent(old); err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertPreviewEvent(fresh); err != nil {
		t.Fatal(err)
	}

	deleted, err := repo.DeleteEventsBefore(now.Add(-90 * 24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted event, got %d", deleted)
	}

	count, err := repo.GetEventCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 remaining event, got %d", count)
	}
}

func TestGetUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	_, err := db.Exec(`INSERT INTO users (id, tier, created_at) VALUES (?, ?, ?)`,
		"u1", "pro", time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}

	user, err := repo.GetUser("u1")
	if err != nil {
		t.Fatal(err)
	}
	if user == nil {
		t.Fatal("Expected user")
	}
	if user.Tier != "pro" {
		t.Errorf("Expected tier 'pro', got '%s'", user.Tier)
	}

	missing, err := repo.GetUser("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown user")
	}
}
