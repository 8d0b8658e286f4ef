package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pfrederiksen/pfr-pbp/internal/pbp"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return s
}

func TestNew_CreatesLayout(t *testing.T) {
	s := newTestStorage(t)

	for _, dir := range []string{
		filepath.Join(s.DataDir(), "schedules"),
		filepath.Join(s.DataDir(), "games"),
		s.ProcessedDir(pbp.OutcomeHome),
		s.ProcessedDir(pbp.OutcomeAway),
		s.ProcessedDir(pbp.OutcomeTie),
	} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
}

func TestPaths(t *testing.T) {
	s := newTestStorage(t)

	tests := []struct {
		got  string
		want string
	}{
		{s.SchedulePath(2021), filepath.Join(s.DataDir(), "schedules", "2021.html")},
		{s.GamePagePath("202109120was"), filepath.Join(s.DataDir(), "games", "202109120was.html")},
		{s.ProcessedPath(pbp.OutcomeAway, "202109120was"), filepath.Join(s.DataDir(), "processed_games", "away", "202109120was.csv")},
		{s.Path(IndexFile), filepath.Join(s.DataDir(), "index.json")},
		{s.Path("/tmp/out.json"), "/tmp/out.json"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("path = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestWritePagesAndListCodes(t *testing.T) {
	s := newTestStorage(t)

	for _, code := range []string{"202109120was", "202109090tam"} {
		if err := s.WriteGamePage(code, []byte("<html></html>")); err != nil {
			t.Fatalf("WriteGamePage(%s) error = %v", code, err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.DataDir(), "games", "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	codes, err := s.GameCodes()
	if err != nil {
		t.Fatalf("GameCodes() error = %v", err)
	}
	if want := []string{"202109090tam", "202109120was"}; !reflect.DeepEqual(codes, want) {
		t.Errorf("GameCodes() = %v, want %v", codes, want)
	}

	if err := s.WriteSchedule(2021, []byte("schedule")); err != nil {
		t.Fatalf("WriteSchedule() error = %v", err)
	}
	if !Exists(s.SchedulePath(2021)) {
		t.Error("schedule page not written")
	}
	if Exists(s.SchedulePath(2020)) {
		t.Error("unexpected schedule page for 2020")
	}
}

func TestWriteGameAndReadBack(t *testing.T) {
	s := newTestStorage(t)

	game := &pbp.Game{
		Code: "202109120was",
		Home: "was",
		Plays: []pbp.Play{
			{Quarter: 1, SecondsLeft: 895, Down: 1, ToGo: 10, HomeSide: true, YardLine: 25},
			{Quarter: 4, SecondsLeft: 3, Down: 1, ToGo: 10, HomeSide: true, YardLine: 44, AwayScore: 24, HomeScore: 17},
		},
	}

	outcome, path, err := s.WriteGame(game)
	if err != nil {
		t.Fatalf("WriteGame() error = %v", err)
	}
	if outcome != pbp.OutcomeAway {
		t.Errorf("outcome = %q, want away", outcome)
	}
	if path != s.ProcessedPath(pbp.OutcomeAway, game.Code) {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "1,895,1,10,1,25,0,0\n4,3,1,10,1,44,24,17\n"
	if string(data) != want {
		t.Errorf("csv =\n%s\nwant\n%s", data, want)
	}

	plays, err := ReadGame(path)
	if err != nil {
		t.Fatalf("ReadGame() error = %v", err)
	}
	if !reflect.DeepEqual(plays, game.Plays) {
		t.Errorf("ReadGame() = %+v, want %+v", plays, game.Plays)
	}

	paths, err := s.ProcessedGames(pbp.OutcomeAway)
	if err != nil || len(paths) != 1 {
		t.Errorf("ProcessedGames(away) = %v, %v", paths, err)
	}
	if CodeFromPath(paths[0]) != game.Code {
		t.Errorf("CodeFromPath() = %q", CodeFromPath(paths[0]))
	}
}

func TestWriteGame_RemovesStaleOutcome(t *testing.T) {
	s := newTestStorage(t)

	stale := s.ProcessedPath(pbp.OutcomeHome, "202109120was")
	if err := os.WriteFile(stale, []byte("1,900,1,10,1,25,0,3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	game := &pbp.Game{Code: "202109120was", Plays: []pbp.Play{{Quarter: 4, AwayScore: 24, HomeScore: 17}}}
	if _, _, err := s.WriteGame(game); err != nil {
		t.Fatalf("WriteGame() error = %v", err)
	}
	if Exists(stale) {
		t.Error("stale home CSV should have been removed")
	}
}

func TestWriteGame_NoPlays(t *testing.T) {
	s := newTestStorage(t)
	if _, _, err := s.WriteGame(&pbp.Game{Code: "202109120was"}); err == nil {
		t.Error("expected error for game without plays")
	}
}

func TestDecodePlays_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"wrong width", "1,2,3\n"},
		{"non numeric", "1,895,1,10,1,25,0,x\n"},
		{"bad possession", "1,895,1,10,7,25,0,0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodePlays(strings.NewReader(tt.csv), "test.csv"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	s := newTestStorage(t)
	path := s.Path("out.json")

	if err := WriteJSON(path, map[string]int{"b": 2, "a": 1}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\n  \"a\": 1,\n  \"b\": 2\n}\n"; string(data) != want {
		t.Errorf("WriteJSON() wrote %q, want %q", data, want)
	}

	entries, _ := os.ReadDir(s.DataDir())
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".out.json") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}
