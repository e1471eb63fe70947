package formatting

import (
	"io"
	"strings"
	"testing"
	"time"

	"guild-jukebox/internal/core/domain"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "live"},
		{-time.Second, "live"},
		{5 * time.Second, "0:05"},
		{213 * time.Second, "3:33"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{1500 * time.Millisecond, "0:02"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatDuration(tt.in); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEmbedShape(t *testing.T) {
	tests := []struct {
		name   string
		author string
		color  int
		embed  func() (string, int, string)
	}{
		{"success", "Done", ColorSuccess, func() (string, int, string) {
			e := Success("Done", "ok")
			return e.Author.Name, e.Color, e.Description
		}},
		{"info", "Queue", ColorInfo, func() (string, int, string) {
			e := Info("Queue", "ok")
			return e.Author.Name, e.Color, e.Description
		}},
		{"error", "Error", ColorError, func() (string, int, string) {
			e := Error("ok")
			return e.Author.Name, e.Color, e.Description
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			author, color, desc := tt.embed()
			if author != tt.author || color != tt.color || desc != "ok" {
				t.Errorf("unexpected embed: author=%q color=%x desc=%q", author, color, desc)
			}
		})
	}
}

func TestQueued(t *testing.T) {
	track := domain.Track{URL: "https://youtu.be/x", Title: "Song", Duration: 90 * time.Second, RequestedBy: "alice"}

	now := Queued(track, 0)
	if now.Author.Name != "Now Playing" {
		t.Errorf("position 0 should start immediately, got %q", now.Author.Name)
	}

	later := Queued(track, 3)
	if later.Author.Name != "Added to Queue" {
		t.Errorf("unexpected author %q", later.Author.Name)
	}
	if !strings.Contains(later.Description, "**3**") || !strings.Contains(later.Description, "[Song](https://youtu.be/x)") {
		t.Errorf("unexpected description: %s", later.Description)
	}
}

func TestNowPlaying(t *testing.T) {
	if e := NowPlaying(nil, false); e.Description != MsgNothingPlaying {
		t.Errorf("expected nothing playing, got %q", e.Description)
	}

	track := &domain.Track{URL: "u", Title: "Song"}
	if e := NowPlaying(track, true); e.Author.Name != "Paused" {
		t.Errorf("expected paused author, got %q", e.Author.Name)
	}
}

func TestQueue_Short(t *testing.T) {
	current := &domain.Track{URL: "u0", Title: "Current"}
	queue := []domain.Track{{URL: "u1", Title: "One"}, {URL: "u2", Title: "Two"}}

	embed, files := Queue(current, queue, false)
	if len(files) != 0 {
		t.Errorf("short queue should not attach files, got %d", len(files))
	}
	for _, want := range []string{"Current", "`1.` [One]", "`2.` [Two]"} {
		if !strings.Contains(embed.Description, want) {
			t.Errorf("description should contain %q: %s", want, embed.Description)
		}
	}
}

func TestQueue_LongAttachesFile(t *testing.T) {
	queue := make([]domain.Track, 200)
	for i := range queue {
		queue[i] = domain.Track{
			URL:   "https://www.youtube.com/watch?v=" + strings.Repeat("x", 11),
			Title: strings.Repeat("Long Track Name ", 3),
		}
	}

	embed, files := Queue(&queue[0], queue, false)

	if len(embed.Description) > MaxDescription {
		t.Errorf("description exceeds limit: %d", len(embed.Description))
	}
	if !strings.Contains(embed.Description, QueueFileName) {
		t.Errorf("description should point to the attachment: %s", embed.Description[len(embed.Description)-100:])
	}
	if len(files) != 1 || files[0].Name != QueueFileName {
		t.Fatalf("expected queue.txt attachment, got %+v", files)
	}

	data, _ := io.ReadAll(files[0].Reader)
	if lines := strings.Count(string(data), "\n"); lines != 200 {
		t.Errorf("attachment should list all 200 tracks, got %d", lines)
	}
}

func TestQueue_Empty(t *testing.T) {
	embed, files := Queue(nil, nil, false)
	if embed.Description != MsgNothingPlaying || files != nil {
		t.Errorf("unexpected empty queue rendering: %q %v", embed.Description, files)
	}
}

func TestHelp_GroupsByCategory(t *testing.T) {
	embed := Help([]HelpEntry{
		{Name: "skip", Description: "Skip", Category: "music"},
		{Name: "ping", Description: "Ping", Category: "general"},
		{Name: "play", Description: "Play", Category: "music"},
	}, "!")

	desc := embed.Description
	general := strings.Index(desc, "**General**")
	music := strings.Index(desc, "**Music**")
	if general < 0 || music < 0 || general > music {
		t.Errorf("categories should be title-cased and sorted: %s", desc)
	}
	if strings.Index(desc, "/play") > strings.Index(desc, "/skip") {
		t.Errorf("commands should be sorted: %s", desc)
	}
	if !strings.Contains(desc, "`!`") {
		t.Errorf("help should mention the text prefix: %s", desc)
	}
}

func TestHistory(t *testing.T) {
	if e := History(nil); e.Description != MsgNoHistory {
		t.Errorf("expected empty history message, got %q", e.Description)
	}

	e := History([]domain.PlayRecord{{Title: "Song", URL: "u", RequestedBy: "bob", PlayedAt: time.Unix(1700000000, 0)}})
	if !strings.Contains(e.Description, "<t:1700000000:R>") || !strings.Contains(e.Description, "bob") {
		t.Errorf("unexpected history: %s", e.Description)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("unexpected %q", got)
	}
	if got := truncate("abcdefghijkl", 8); got != "abcde..." {
		t.Errorf("unexpected %q", got)
	}
	if got := truncate("ééééé", 6); got != "é..." {
		t.Errorf("multi-byte runes must not be split, got %q", got)
	}
}
