package contactservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marloe/tend/internal/apperr"
	"github.com/marloe/tend/internal/domain"
	"github.com/marloe/tend/internal/store"
	"github.com/marloe/tend/internal/template"
	"github.com/marloe/tend/internal/testutil"
)

type testEnv struct {
	svc      *Service
	db       *store.DB
	registry *template.Registry
	now      time.Time
	events   []string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{now: testutil.Now}
	e.db = testutil.TestDB(t)
	e.registry = testutil.TestRegistry(t, e.db)
	e.svc = NewService(e.db, e.registry,
		WithClock(func() time.Time { return e.now }),
		WithChangeListener(func(event, _ string) { e.events = append(e.events, event) }),
	)
	return e
}

func (e *testEnv) createContact(t *testing.T, name string) *domain.Contact {
	t.Helper()
	c, err := e.svc.CreateContact(context.Background(), name, "", nil)
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	return c
}

func intp(v int) *int { return &v }

func TestCreateContact(t *testing.T) {
	e := newEnv(t)
	c, err := e.svc.CreateContact(context.Background(), "Ada Lovelace", "Ada", domain.Attributes{
		"work": {"company": "Analytical Engines"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := e.svc.GetContact(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Ada Lovelace" || got.FirstName != "Ada" {
		t.Errorf("name = %q/%q", got.Name, got.FirstName)
	}
	if got.Attributes["work"]["company"] != "Analytical Engines" {
		t.Errorf("attributes = %v", got.Attributes)
	}
	if got.LastContactAt != nil {
		t.Error("last_contact_at must start unset")
	}
}

func TestCreateContact_RejectsOffTemplateAttributes(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.CreateContact(context.Background(), "Ada", "", domain.Attributes{
		"work": {"salary": 100000},
	})
	if err == nil {
		t.Fatal("unknown field should fail")
	}
	if !apperr.IsValidation(err) {
		t.Errorf("kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestGetContact_NotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.GetContact(context.Background(), "no-such-id")
	if !apperr.IsNotFound(err) {
		t.Errorf("kind = %v, want not_found", apperr.KindOf(err))
	}
}

// Spec scenario: a fresh contact, one interaction tagged #mentor.
func TestRecordInteraction_NewTag(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")

	c, err := e.svc.RecordInteraction(context.Background(), ada.ID, e.now, "", []string{"#mentor"})
	if err != nil {
		t.Fatal(err)
	}

	if c.LastContactAt == nil || !c.LastContactAt.Equal(e.now) {
		t.Errorf("contact last_contact_at = %v, want %v", c.LastContactAt, e.now)
	}
	tag := c.Tag("#mentor")
	if tag == nil {
		t.Fatal("#mentor association should be created")
	}
	if tag.LastContact == nil || !tag.LastContact.Equal(e.now) {
		t.Errorf("tag last_contact = %v, want %v", tag.LastContact, e.now)
	}
	if tag.FrequencyDays != nil {
		t.Error("implicit tag should start untracked")
	}
	if got := tag.Status(e.now); got.Kind != domain.StatusNotTracked {
		t.Errorf("status = %s, want not_tracked", got.Kind)
	}

	// Round-trips through the store.
	stored, err := e.svc.GetContact(context.Background(), ada.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Tag("#mentor") == nil || stored.LastContactAt == nil {
		t.Error("interaction state should be persisted")
	}

	notes, err := e.svc.ListNotes(context.Background(), ada.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || !notes[0].IsInteraction {
		t.Fatalf("notes = %+v", notes)
	}
}

// Property: after N recordings in any order, last_contact equals the max
// recorded interaction date.
func TestRecordInteraction_MonotonicBackfill(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	ctx := context.Background()

	newest := e.now.Add(-24 * time.Hour)
	dates := []time.Time{
		e.now.Add(-72 * time.Hour),
		newest,
		e.now.Add(-240 * time.Hour), // backfill, oldest
		e.now.Add(-48 * time.Hour),
	}
	for _, d := range dates {
		if _, err := e.svc.RecordInteraction(ctx, ada.ID, d, "", []string{"#mentor"}); err != nil {
			t.Fatal(err)
		}
	}

	c, err := e.svc.GetContact(ctx, ada.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !c.LastContactAt.Equal(newest) {
		t.Errorf("contact last_contact_at = %v, want %v", c.LastContactAt, newest)
	}
	if !c.Tag("#mentor").LastContact.Equal(newest) {
		t.Errorf("tag last_contact = %v, want %v", c.Tag("#mentor").LastContact, newest)
	}
}

func TestRecordInteraction_SameDateIdempotent(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	ctx := context.Background()
	date := e.now.Add(-time.Hour)

	for i := 0; i < 2; i++ {
		if _, err := e.svc.RecordInteraction(ctx, ada.ID, date, "", []string{"#mentor"}); err != nil {
			t.Fatalf("recording %d: %v", i, err)
		}
	}
	c, _ := e.svc.GetContact(ctx, ada.ID)
	if !c.Tag("#mentor").LastContact.Equal(date) {
		t.Errorf("last_contact = %v, want %v", c.Tag("#mentor").LastContact, date)
	}
}

func TestRecordInteraction_NoTags(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")

	c, err := e.svc.RecordInteraction(context.Background(), ada.ID, e.now, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.LastContactAt == nil {
		t.Error("contact timestamp should still advance")
	}
	if len(c.Tags) != 0 {
		t.Errorf("tags = %d, want 0", len(c.Tags))
	}
}

func TestRecordInteraction_InlineTags(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")

	c, err := e.svc.RecordInteraction(context.Background(), ada.ID, e.now,
		"long call about #career plans", []string{"#mentor"})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"#mentor", "#career"} {
		tag := c.Tag(name)
		if tag == nil {
			t.Fatalf("%s association missing", name)
		}
		if tag.LastContact == nil {
			t.Errorf("%s last_contact should be set", name)
		}
	}
}

func TestRecordInteraction_FutureDateRejected(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")

	_, err := e.svc.RecordInteraction(context.Background(), ada.ID, e.now.Add(time.Hour), "", []string{"#mentor"})
	if !apperr.IsValidation(err) {
		t.Fatalf("kind = %v, want validation", apperr.KindOf(err))
	}

	// No side effects.
	c, _ := e.svc.GetContact(context.Background(), ada.ID)
	if c.LastContactAt != nil || len(c.Tags) != 0 {
		t.Error("failed recording must leave the contact untouched")
	}
}

// failingRepo delegates to the real store but makes SaveNote fail inside
// the transaction, to prove the whole unit rolls back.
type failingRepo struct {
	store.Repository
}

type failingUow struct {
	store.UnitOfWork
}

func (f *failingRepo) WithTx(ctx context.Context, fn func(store.UnitOfWork) error) error {
	return f.Repository.WithTx(ctx, func(uow store.UnitOfWork) error {
		return fn(&failingUow{UnitOfWork: uow})
	})
}

func (f *failingUow) SaveNote(_ *domain.Note) error {
	return errors.New("disk full")
}

func TestRecordInteraction_Atomicity(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	ctx := context.Background()

	broken := NewService(&failingRepo{Repository: e.db}, e.registry,
		WithClock(func() time.Time { return e.now }))

	if _, err := broken.RecordInteraction(ctx, ada.ID, e.now, "", []string{"#mentor"}); err == nil {
		t.Fatal("expected failure")
	}

	// Neither the contact timestamp nor the tag update survived.
	c, err := e.svc.GetContact(ctx, ada.ID)
	if err != nil {
		t.Fatal(err)
	}
	if c.LastContactAt != nil {
		t.Error("contact last_contact_at leaked from a rolled-back transaction")
	}
	if len(c.Tags) != 0 {
		t.Error("tag association leaked from a rolled-back transaction")
	}
	notes, _ := e.svc.ListNotes(ctx, ada.ID)
	if len(notes) != 0 {
		t.Error("note leaked from a rolled-back transaction")
	}
}

// Spec scenario: frequency set before any interaction, then an
// interaction, then eight quiet days.
func TestFrequencyLifecycle(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	ctx := context.Background()

	if _, err := e.svc.AddTags(ctx, ada.ID, []string{"#mentor"}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.SetTagFrequency(ctx, ada.ID, "#mentor", intp(7)); err != nil {
		t.Fatal(err)
	}

	statuses, err := e.svc.TagStatuses(ctx, ada.ID)
	if err != nil {
		t.Fatal(err)
	}
	if statuses[0].Status.Kind != domain.StatusNeverContacted {
		t.Errorf("status = %s, want never_contacted", statuses[0].Status.Kind)
	}

	if _, err := e.svc.RecordInteraction(ctx, ada.ID, e.now, "", []string{"#mentor"}); err != nil {
		t.Fatal(err)
	}
	statuses, _ = e.svc.TagStatuses(ctx, ada.ID)
	if statuses[0].Status.Kind != domain.StatusFresh {
		t.Errorf("status = %s, want fresh", statuses[0].Status.Kind)
	}

	e.now = e.now.Add(8 * 24 * time.Hour)
	statuses, _ = e.svc.TagStatuses(ctx, ada.ID)
	if statuses[0].Status.Kind != domain.StatusStale {
		t.Errorf("status = %s, want stale", statuses[0].Status.Kind)
	}
	if statuses[0].Status.OverdueDays != 1 {
		t.Errorf("overdue = %d, want 1", statuses[0].Status.OverdueDays)
	}
}

func TestSetTagFrequency_ClearKeepsHistory(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	ctx := context.Background()

	if _, err := e.svc.RecordInteraction(ctx, ada.ID, e.now, "", []string{"#mentor"}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.SetTagFrequency(ctx, ada.ID, "#mentor", intp(30)); err != nil {
		t.Fatal(err)
	}
	c, err := e.svc.SetTagFrequency(ctx, ada.ID, "#mentor", nil)
	if err != nil {
		t.Fatal(err)
	}
	tag := c.Tag("#mentor")
	if tag.FrequencyDays != nil {
		t.Error("tracking should be disabled")
	}
	if tag.LastContact == nil {
		t.Error("clearing frequency must keep last_contact")
	}
}

func TestUpdateAttributes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, err := e.svc.CreateContact(ctx, "Ada", "", domain.Attributes{
		"work": {"company": "Analytical Engines", "email": "ada@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := e.svc.UpdateAttributes(ctx, c.ID, domain.Attributes{
		"work":     {"company": "Babbage & Co"},
		"personal": {"city": "London"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Attributes["work"]["company"] != "Babbage & Co" {
		t.Error("patched field should change")
	}
	if got.Attributes["work"]["email"] != "ada@example.com" {
		t.Error("untouched field should survive")
	}
	if got.Attributes["personal"]["city"] != "London" {
		t.Error("new category should be added")
	}

	// Invalid patch is rejected and nothing changes.
	if _, err := e.svc.UpdateAttributes(ctx, c.ID, domain.Attributes{
		"work": {"email": "not-an-email"},
	}); !apperr.IsValidation(err) {
		t.Fatalf("kind = %v, want validation", apperr.KindOf(err))
	}
	stored, _ := e.svc.GetContact(ctx, c.ID)
	if stored.Attributes["work"]["email"] != "ada@example.com" {
		t.Error("failed update must not persist")
	}
}

// Publishing a new version that drops a field must not erase the stored
// value on existing contacts.
func TestTemplateEvolution_PreservesStoredValues(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, err := e.svc.CreateContact(ctx, "Ada", "", domain.Attributes{
		"personal": {"city": "London"},
	})
	if err != nil {
		t.Fatal(err)
	}

	cats := testutil.Categories()
	personal := cats["personal"]
	delete(personal.Fields, "city")
	cats["personal"] = personal
	v, err := e.registry.Publish(ctx, cats)
	if err != nil {
		t.Fatal(err)
	}
	if v.Version != 2 {
		t.Errorf("version = %d, want 2", v.Version)
	}

	stored, err := e.svc.GetContact(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Attributes["personal"]["city"] != "London" {
		t.Error("historical value must survive field removal")
	}

	// New writes to the removed field are rejected against the latest
	// version.
	if _, err := e.svc.UpdateAttributes(ctx, c.ID, domain.Attributes{
		"personal": {"city": "Paris"},
	}); !apperr.IsValidation(err) {
		t.Errorf("kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestContentNote_CreatesAssociations(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	ctx := context.Background()

	n, err := e.svc.CreateContentNote(ctx, ada.ID, "met through #friends", []string{"#mentor"})
	if err != nil {
		t.Fatal(err)
	}
	if n.IsInteraction {
		t.Error("content note must not be an interaction")
	}

	c, _ := e.svc.GetContact(ctx, ada.ID)
	if c.Tag("#mentor") == nil || c.Tag("#friends") == nil {
		t.Error("note tags should create contact associations")
	}
	// Content notes never touch timestamps.
	if c.LastContactAt != nil {
		t.Error("content note must not set last_contact_at")
	}
	if c.Tag("#mentor").LastContact != nil {
		t.Error("content note must not set tag last_contact")
	}
}

func TestContentNote_EmptyContentRejected(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	_, err := e.svc.CreateContentNote(context.Background(), ada.ID, "  ", nil)
	if !apperr.IsValidation(err) {
		t.Errorf("kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestUpdateNoteContent(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	ctx := context.Background()

	n, err := e.svc.CreateContentNote(ctx, ada.ID, "v1", nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := e.svc.UpdateNoteContent(ctx, n.ID, "v2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "v2" {
		t.Errorf("content = %q", got.Content)
	}
	if _, err := e.svc.UpdateNoteContent(ctx, n.ID, ""); !apperr.IsValidation(err) {
		t.Errorf("kind = %v, want validation", apperr.KindOf(err))
	}
}

// Forward-only history: deleting an interaction note does not recompute
// the timestamps it produced.
func TestDeleteNote_NoTimestampRecompute(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	ctx := context.Background()

	if _, err := e.svc.RecordInteraction(ctx, ada.ID, e.now, "", []string{"#mentor"}); err != nil {
		t.Fatal(err)
	}
	notes, _ := e.svc.ListNotes(ctx, ada.ID)
	if err := e.svc.DeleteNote(ctx, notes[0].ID); err != nil {
		t.Fatal(err)
	}

	c, _ := e.svc.GetContact(ctx, ada.ID)
	if c.LastContactAt == nil || !c.LastContactAt.Equal(e.now) {
		t.Error("contact timestamp must survive note deletion")
	}
	if c.Tag("#mentor").LastContact == nil {
		t.Error("tag timestamp must survive note deletion")
	}
}

func TestDeleteContact_Cascades(t *testing.T) {
	e := newEnv(t)
	ada := e.createContact(t, "Ada")
	ctx := context.Background()

	if _, err := e.svc.RecordInteraction(ctx, ada.ID, e.now, "call", []string{"#mentor"}); err != nil {
		t.Fatal(err)
	}
	notes, _ := e.svc.ListNotes(ctx, ada.ID)

	if err := e.svc.DeleteContact(ctx, ada.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.GetContact(ctx, ada.ID); !apperr.IsNotFound(err) {
		t.Error("contact should be gone")
	}
	if _, err := e.svc.UpdateNoteContent(ctx, notes[0].ID, "x"); !apperr.IsNotFound(err) {
		t.Error("notes should cascade")
	}
	if err := e.svc.DeleteContact(ctx, ada.ID); !apperr.IsNotFound(err) {
		t.Error("second delete should be not_found")
	}
}

func TestDueReport_Ordering(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := e.createContact(t, "Ada")
	bob := e.createContact(t, "Bob")

	// Ada: #mentor stale by 3 days, #friends fresh.
	if _, err := e.svc.RecordInteraction(ctx, ada.ID, e.now.Add(-10*24*time.Hour), "", []string{"#mentor"}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.RecordInteraction(ctx, ada.ID, e.now.Add(-24*time.Hour), "", []string{"#friends"}); err != nil {
		t.Fatal(err)
	}
	_, _ = e.svc.SetTagFrequency(ctx, ada.ID, "#mentor", intp(7))
	_, _ = e.svc.SetTagFrequency(ctx, ada.ID, "#friends", intp(30))

	// Bob: tracked but never contacted.
	_, _ = e.svc.AddTags(ctx, bob.ID, []string{"#family"})
	_, _ = e.svc.SetTagFrequency(ctx, bob.ID, "#family", intp(14))

	report, err := e.svc.DueReport(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(report) != 2 {
		t.Fatalf("report entries = %d, want 2", len(report))
	}
	if report[0].Status.Kind != domain.StatusNeverContacted || report[0].Tag != "#family" {
		t.Errorf("first entry = %+v, want never-contacted #family", report[0])
	}
	if report[1].Tag != "#mentor" || report[1].Status.OverdueDays != 3 {
		t.Errorf("second entry = %+v, want #mentor overdue 3", report[1])
	}
}

func TestListContacts_DueRollup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := e.createContact(t, "Ada")
	_, _ = e.svc.AddTags(ctx, ada.ID, []string{"#mentor", "#friends"})
	_, _ = e.svc.SetTagFrequency(ctx, ada.ID, "#mentor", intp(7))

	list, err := e.svc.ListContacts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("contacts = %d", len(list))
	}
	if list[0].DueTags != 1 {
		t.Errorf("due tags = %d, want 1 (never-contacted #mentor)", list[0].DueTags)
	}
}

func TestChangeEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := e.createContact(t, "Ada")
	if _, err := e.svc.RecordInteraction(ctx, ada.ID, e.now, "", nil); err != nil {
		t.Fatal(err)
	}

	want := []string{EventContactCreated, EventInteractionRecorded}
	if len(e.events) != len(want) {
		t.Fatalf("events = %v, want %v", e.events, want)
	}
	for i := range want {
		if e.events[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, e.events[i], want[i])
		}
	}
}
