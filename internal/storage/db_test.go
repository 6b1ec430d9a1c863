package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"bompick/internal"
	"bompick/internal/session"
	"bompick/internal/util"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bompick.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleSession() *session.Session {
	items := []internal.LineItem{
		{
			ID: 1,
			Fields: map[internal.FieldKey]string{
				internal.FieldMPN:     "RC0603FR-071KL",
				internal.FieldValue:   "1k",
				internal.FieldPackage: "0603",
			},
			RefDes:   []string{"R1", "R2"},
			Quantity: 2,
			Conflicts: []internal.MergeConflict{
				{Field: internal.FieldValue, Kept: "1k", Dropped: "1k0"},
			},
			SelectedCandidateID: util.StringPtr("603-RC0603"),
		},
		{
			ID:       2,
			Fields:   map[internal.FieldKey]string{internal.FieldValue: "100nF"},
			RefDes:   []string{"C1"},
			Quantity: 1,
		},
	}
	sess := session.New("rev-a", items)
	_ = sess.SetCandidates(1, []internal.Candidate{
		{
			ID:                 "603-RC0603",
			PartNumber:         "RC0603FR-071KL",
			SupplierPartNumber: "603-RC0603",
			Manufacturer:       "Yageo",
			Package:            "0603",
			Stock:              5000,
			UnitPrice:          0.01,
			PriceBreaks:        []internal.PriceBreak{{Quantity: 1, Price: 0.01, Currency: "USD"}},
			Lifecycle:          internal.LifecycleActive,
		},
		{
			ID:         "alt-1",
			PartNumber: "CRCW06031K00FKEA",
			Stock:      100,
			Lifecycle:  internal.LifecycleNRND,
		},
	})
	return sess
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	sess := sampleSession()

	if err := db.SaveSession(sess); err != nil {
		t.Fatal(err)
	}

	loaded, err := db.LoadSession("rev-a")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ID != sess.ID || loaded.Name != sess.Name {
		t.Fatalf("identity changed: %q/%q", loaded.ID, loaded.Name)
	}
	if !reflect.DeepEqual(loaded.Items, sess.Items) {
		t.Fatalf("items changed across roundtrip:\n got %+v\nwant %+v", loaded.Items, sess.Items)
	}
	if !reflect.DeepEqual(loaded.Candidates(1), sess.Candidates(1)) {
		t.Fatalf("candidates changed across roundtrip:\n got %+v\nwant %+v", loaded.Candidates(1), sess.Candidates(1))
	}

	selected, ok := loaded.Selected(1)
	if !ok || selected.ID != "603-RC0603" {
		t.Fatalf("selection lost: %+v ok=%v", selected, ok)
	}
}

func TestSaveSessionReplacesState(t *testing.T) {
	db := openTestDB(t)
	sess := sampleSession()
	if err := db.SaveSession(sess); err != nil {
		t.Fatal(err)
	}

	// Drop the candidate list and save again: the old rows must not leak.
	_ = sess.SetCandidates(1, nil)
	if err := db.SaveSession(sess); err != nil {
		t.Fatal(err)
	}

	loaded, err := db.LoadSession("rev-a")
	if err != nil {
		t.Fatal(err)
	}
	if got := loaded.Candidates(1); len(got) != 0 {
		t.Fatalf("stale candidates survived resave: %+v", got)
	}
}

func TestSaveSessionReplacesName(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveSession(sampleSession()); err != nil {
		t.Fatal(err)
	}

	// Reopening under the same name gets a fresh id; the old run goes away.
	fresh := session.New("rev-a", []internal.LineItem{
		{ID: 1, Fields: map[internal.FieldKey]string{internal.FieldMPN: "NE555DR"}, Quantity: 1},
	})
	if err := db.SaveSession(fresh); err != nil {
		t.Fatal(err)
	}

	loaded, err := db.LoadSession("rev-a")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ID != fresh.ID {
		t.Fatalf("loaded id = %q want %q", loaded.ID, fresh.ID)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Field(internal.FieldMPN) != "NE555DR" {
		t.Fatalf("old run survived rename: %+v", loaded.Items)
	}
}

func TestListAndDeleteSessions(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveSession(session.New("first", nil)); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveSession(session.New("second", nil)); err != nil {
		t.Fatal(err)
	}

	names, err := db.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("names = %v", names)
	}

	if err := db.DeleteSession("first"); err != nil {
		t.Fatal(err)
	}
	names, err = db.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "second" {
		t.Fatalf("names after delete = %v", names)
	}

	// Deleting a missing session is not an error.
	if err := db.DeleteSession("ghost"); err != nil {
		t.Fatal(err)
	}

	if _, err := db.LoadSession("first"); err == nil {
		t.Fatal("expected error loading a deleted session")
	}
}
