package userdict

import "testing"

func TestMergerPutCombinesExistingValue(t *testing.T) {
	store := newMemStore()
	store.Put("nihao", Value{Commits: 3, Dee: 1.0, Tick: 10}.Pack())
	store.MetaPut("/tick", "10")

	m := NewMerger(store, 10, "local-user")
	if err := m.MetaPut("/tick", "20"); err != nil {
		t.Fatal(err)
	}
	if err := m.Put("nihao", Value{Commits: 5, Dee: 2.0, Tick: 20}.Pack()); err != nil {
		t.Fatal(err)
	}
	if err := m.CloseMerge(); err != nil {
		t.Fatal(err)
	}

	got, ok := store.Get("nihao")
	if !ok {
		t.Fatal("expected merged entry to exist")
	}
	want := Value{Commits: 5, Dee: 1.0, Tick: 20}
	if Unpack(got) != want {
		t.Errorf("merged value = %+v, want %+v", Unpack(got), want)
	}

	tick, _ := store.MetaGet("/tick")
	if tick != "20" {
		t.Errorf("/tick = %q, want \"20\"", tick)
	}
	userID, _ := store.MetaGet("/user_id")
	if userID != "local-user" {
		t.Errorf("/user_id = %q, want local-user", userID)
	}
}

func TestMergerPutInsertsNewEntry(t *testing.T) {
	store := newMemStore()
	m := NewMerger(store, DefaultHalfLife, "u")
	if err := m.Put("newkey", Value{Commits: 1, Dee: 0.5, Tick: 3}.Pack()); err != nil {
		t.Fatal(err)
	}
	got, ok := store.Get("newkey")
	if !ok {
		t.Fatal("expected new entry")
	}
	if Unpack(got) != (Value{Commits: 1, Dee: 0.5, Tick: 3}) {
		t.Errorf("got %+v", Unpack(got))
	}
}

func TestImporterDeletesOnNegativeCommits(t *testing.T) {
	store := newMemStore()
	store.Put("word", Value{Commits: 2, Dee: 1, Tick: 1}.Pack())

	im := NewImporter(store)
	if err := im.Put("word", Value{Commits: -1, Dee: 0, Tick: 2}.Pack()); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get("word"); ok {
		t.Error("expected entry to be deleted by negative incoming commits")
	}
}

func TestImporterAccumulatesCommits(t *testing.T) {
	store := newMemStore()
	store.Put("word", Value{Commits: 2, Dee: 1, Tick: 1}.Pack())

	im := NewImporter(store)
	if err := im.Put("word", Value{Commits: 3, Dee: 9, Tick: 5}.Pack()); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Get("word")
	want := Value{Commits: 5, Dee: 9, Tick: 5}
	if Unpack(got) != want {
		t.Errorf("got %+v, want %+v", Unpack(got), want)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newMemStore()
	store.Put("nihao", Value{Commits: 1, Dee: 0.5, Tick: 1}.Pack())
	store.Put("hao", Value{Commits: 2, Dee: 1.5, Tick: 2}.Pack())
	store.MetaPut("/tick", "2")

	dump, err := WriteSnapshot(store, "test.userdb", "user-123")
	if err != nil {
		t.Fatal(err)
	}
	if !SnapshotFormatMatches(dump) {
		t.Fatal("expected our own dump to match its own format marker")
	}

	restored := newMemStore()
	if err := RestoreSnapshot(restored, dump); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"nihao", "hao"} {
		original, _ := store.Get(key)
		got, ok := restored.Get(key)
		if !ok || got != original {
			t.Errorf("restored[%s] = (%q,%v), want (%q,true)", key, got, ok, original)
		}
	}
}
