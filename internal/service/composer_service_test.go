package service

import (
	"testing"
	"time"

	"github.com/maheshrc27/composeflow/internal/models"
	"github.com/maheshrc27/composeflow/internal/transfer"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestOpenReturnsSameSession(t *testing.T) {
	svc := NewComposerService(instantUploader{})

	a := svc.Open("s1")
	a.Draft.Content = "sticky"
	b := svc.Open("s1")

	if a != b {
		t.Error("Open created a second composer for the same session")
	}
	if c := svc.Open("s2"); c == a {
		t.Error("sessions must not share composers")
	}
}

func TestToggleAccountKeepsOrderAndSwitchesTab(t *testing.T) {
	svc := NewComposerService(instantUploader{})
	cs := svc.Open("s1")

	ig := models.TargetAccount{ID: 1, Name: "insta", Platform: models.PlatformInstagram}
	li := models.TargetAccount{ID: 2, Name: "li", Platform: models.PlatformLinkedin}

	svc.ToggleAccount(cs, &transfer.AccountToggle{Account: ig, Selected: true})
	svc.ToggleAccount(cs, &transfer.AccountToggle{Account: li, Selected: true})
	// repeated select stays unique
	svc.ToggleAccount(cs, &transfer.AccountToggle{Account: ig, Selected: true})

	draft := cs.SnapshotDraft()
	if len(draft.TargetAccounts) != 2 {
		t.Fatalf("targets = %d, want 2", len(draft.TargetAccounts))
	}
	if draft.TargetAccounts[0].ID != 1 || draft.TargetAccounts[1].ID != 2 {
		t.Errorf("selection order broken: %+v", draft.TargetAccounts)
	}
	if cs.Tab() != models.PlatformInstagram {
		t.Errorf("tab = %s, want platform of most recently touched account", cs.Tab())
	}

	svc.ToggleAccount(cs, &transfer.AccountToggle{Account: li, Selected: false})
	draft = cs.SnapshotDraft()
	if len(draft.TargetAccounts) != 1 || draft.TargetAccounts[0].ID != 1 {
		t.Errorf("deselect failed: %+v", draft.TargetAccounts)
	}
	if cs.Tab() != models.PlatformLinkedin {
		t.Errorf("tab = %s, deselect also counts as touching", cs.Tab())
	}
}

func TestUpdateDraftIgnoresUnknownSubtype(t *testing.T) {
	svc := NewComposerService(instantUploader{})
	cs := svc.Open("s1")

	svc.UpdateDraft(cs, &transfer.DraftUpdate{Subtype: strPtr(models.SubtypeReel)})
	if cs.SnapshotDraft().Subtype != models.SubtypeReel {
		t.Error("valid subtype rejected")
	}

	svc.UpdateDraft(cs, &transfer.DraftUpdate{Subtype: strPtr("carousel")})
	if cs.SnapshotDraft().Subtype != models.SubtypeReel {
		t.Error("unknown subtype accepted")
	}
}

func TestMentionSuggestions(t *testing.T) {
	svc := NewComposerService(instantUploader{})
	cs := svc.Open("s1")

	svc.ToggleAccount(cs, &transfer.AccountToggle{Account: models.TargetAccount{ID: 1, Name: "acme_social", Platform: models.PlatformInstagram}, Selected: true})
	svc.ToggleAccount(cs, &transfer.AccountToggle{Account: models.TargetAccount{ID: 2, Name: "other_brand", Platform: models.PlatformFacebook}, Selected: true})

	content := "shoutout to @acm"
	svc.UpdateDraft(cs, &transfer.DraftUpdate{Content: strPtr(content), Cursor: intPtr(len(content))})

	got := svc.Suggestions(cs)
	if len(got) != 1 || got[0] != "acme_social" {
		t.Errorf("suggestions = %v", got)
	}

	svc.ApplyMention(cs, "acme_social")
	draft := cs.SnapshotDraft()
	if draft.Content != "shoutout to @acme_social " {
		t.Errorf("content after splice = %q", draft.Content)
	}

	// no trailing token, no suggestions
	content = "no mention here "
	svc.UpdateDraft(cs, &transfer.DraftUpdate{Content: strPtr(content), Cursor: intPtr(len(content))})
	if got := svc.Suggestions(cs); got != nil {
		t.Errorf("suggestions = %v, want none", got)
	}
}

func TestSweepDropsIdleSessionsOnly(t *testing.T) {
	svc := NewComposerService(instantUploader{})

	idle := svc.Open("idle")
	_ = idle
	busy := svc.Open("busy")
	busy.transition(PipelineIdle, PipelineSubmitting)

	time.Sleep(10 * time.Millisecond)
	removed := svc.Sweep(time.Nanosecond)

	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := svc.Get("idle"); ok {
		t.Error("idle session survived sweep")
	}
	if _, ok := svc.Get("busy"); !ok {
		t.Error("in-flight session was swept")
	}

	fresh := svc.Open("fresh")
	_ = fresh
	if removed := svc.Sweep(time.Hour); removed != 0 {
		t.Errorf("fresh session swept: removed = %d", removed)
	}
}

func TestDiscardDropsDraftAndMedia(t *testing.T) {
	svc := NewComposerService(instantUploader{})
	cs := svc.Open("s1")
	cs.Draft.Content = "gone"

	svc.Discard("s1")
	if _, ok := svc.Get("s1"); ok {
		t.Error("session still present after discard")
	}

	if again := svc.Open("s1"); again.SnapshotDraft().Content != "" {
		t.Error("draft survived discard")
	}
}
