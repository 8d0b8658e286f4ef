package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/pfrederiksen/pfr-pbp/internal/pbp"
	"github.com/pfrederiksen/pfr-pbp/internal/storage"
)

func writeCSV(t *testing.T, store *storage.Storage, o pbp.Outcome, code, body string) {
	t.Helper()
	if err := os.WriteFile(store.ProcessedPath(o, code), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func seed(t *testing.T) *storage.Storage {
	t.Helper()
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	writeCSV(t, store, pbp.OutcomeAway, "202109120was",
		"1,895,1,10,1,25,0,0\n2,135,1,10,0,35,0,7\n4,3,1,10,1,44,24,17\n")
	writeCSV(t, store, pbp.OutcomeHome, "202109090tam",
		"1,900,1,10,0,25,0,0\n4,10,1,10,1,30,29,31\n")
	writeCSV(t, store, pbp.OutcomeHome, "202109120car",
		"1,900,1,10,0,25,0,0\n")
	writeCSV(t, store, pbp.OutcomeTie, "202111140lac",
		"5,0,1,10,1,20,27,27\n")
	return store
}

func TestAssemble(t *testing.T) {
	store := seed(t)

	ds, err := Assemble(store, nil)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if ds.MaxPlays != 3 {
		t.Errorf("MaxPlays = %d, want 3", ds.MaxPlays)
	}
	if ds.Width != pbp.RecordWidth {
		t.Errorf("Width = %d, want %d", ds.Width, pbp.RecordWidth)
	}

	var codes []string
	for _, g := range ds.Games {
		codes = append(codes, g.Code)
		if len(g.Plays) != ds.MaxPlays+1 {
			t.Errorf("game %s has %d rows, want %d", g.Code, len(g.Plays), ds.MaxPlays+1)
		}
	}
	// away first, then home; ties are not assembled
	if want := []string{"202109120was", "202109090tam", "202109120car"}; !reflect.DeepEqual(codes, want) {
		t.Errorf("codes = %v, want %v", codes, want)
	}

	car := ds.Games[2]
	want := [][]int{
		{-1, -1, -1, -1, -1, -1, -1, -1},
		{-1, -1, -1, -1, -1, -1, -1, -1},
		{1, 900, 1, 10, 0, 25, 0, 0},
		{1, 1, 1, 1, 1, 1, 1, 1},
	}
	if !reflect.DeepEqual(car.Plays, want) {
		t.Errorf("padded home game =\n%v\nwant\n%v", car.Plays, want)
	}

	was := ds.Games[0]
	if label := was.Plays[len(was.Plays)-1]; !reflect.DeepEqual(label, []int{0, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("away label = %v", label)
	}

	if err := ds.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestAssemble_TieHasNoLabel(t *testing.T) {
	store := seed(t)
	_, err := Assemble(store, []pbp.Outcome{pbp.OutcomeHome, pbp.OutcomeTie})
	if !errors.Is(err, ErrUnlabeledOutcome) {
		t.Errorf("Assemble() error = %v, want ErrUnlabeledOutcome", err)
	}
}

func TestAssemble_Empty(t *testing.T) {
	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Assemble(store, nil)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if ds.MaxPlays != 0 || len(ds.Games) != 0 {
		t.Errorf("expected empty dataset, got %+v", ds)
	}
}

func TestAssemble_BadCSV(t *testing.T) {
	store := seed(t)
	writeCSV(t, store, pbp.OutcomeAway, "202109120nyg", "1,2,3\n")
	if _, err := Assemble(store, nil); err == nil {
		t.Error("expected error for malformed CSV")
	}
}

func TestWrite_Idempotent(t *testing.T) {
	store := seed(t)
	path := store.Path(storage.DatasetFile)

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		ds, err := Assemble(store, nil)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		if err := ds.Write(path); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, data)
	}

	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("re-assembling unchanged input produced different bytes")
	}

	var decoded Dataset
	if err := json.Unmarshal(outputs[0], &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.MaxPlays != 3 || len(decoded.Games) != 3 {
		t.Errorf("decoded = max %d, %d games", decoded.MaxPlays, len(decoded.Games))
	}
}

func TestValidate_Errors(t *testing.T) {
	ds := &Dataset{MaxPlays: 2, Width: 8, Games: []Series{{Code: "x", Plays: [][]int{{0, 0, 0, 0, 0, 0, 0, 0}}}}}
	if err := ds.Validate(); err == nil {
		t.Error("expected error for short game")
	}

	ds = &Dataset{MaxPlays: 0, Width: 8, Games: []Series{{Code: "x", Plays: [][]int{{0, 0}}}}}
	if err := ds.Validate(); err == nil {
		t.Error("expected error for narrow row")
	}
}

func TestLabel(t *testing.T) {
	if l, err := Label(pbp.OutcomeHome); err != nil || l[0] != 1 || len(l) != 8 {
		t.Errorf("Label(home) = %v, %v", l, err)
	}
	if l, err := Label(pbp.OutcomeAway); err != nil || l[7] != 0 || len(l) != 8 {
		t.Errorf("Label(away) = %v, %v", l, err)
	}
	if _, err := Label(pbp.OutcomeTie); !errors.Is(err, ErrUnlabeledOutcome) {
		t.Errorf("Label(tie) error = %v", err)
	}
}

func TestBuildIndex(t *testing.T) {
	store := seed(t)

	idx, err := BuildIndex(store)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	if len(idx.Games) != 4 {
		t.Fatalf("expected 4 games, got %d", len(idx.Games))
	}
	wantCounts := map[pbp.Outcome]int{pbp.OutcomeHome: 2, pbp.OutcomeAway: 1, pbp.OutcomeTie: 1}
	if !reflect.DeepEqual(idx.Counts, wantCounts) {
		t.Errorf("Counts = %v, want %v", idx.Counts, wantCounts)
	}

	first := idx.Games[0]
	if first.Code != "202109090tam" || first.Outcome != pbp.OutcomeHome || first.Plays != 2 {
		t.Errorf("first entry = %+v", first)
	}
	if first.Path != "processed_games/home/202109090tam.csv" {
		t.Errorf("Path = %q, want relative path", first.Path)
	}

	if err := idx.Write(store.Path(storage.IndexFile)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !storage.Exists(store.Path(storage.IndexFile)) {
		t.Error("index not written")
	}
}
