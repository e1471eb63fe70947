package formatting

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"guild-jukebox/internal/core/domain"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ColorSuccess = 0x57F287
	ColorInfo    = 0x5865F2
	ColorError   = 0xED4245

	// MaxDescription is Discord's limit on embed descriptions.
	MaxDescription = 4096

	QueueFileName = "queue.txt"
)

func newEmbed(author, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: author},
		Description: truncate(description, MaxDescription),
		Color:       color,
	}
}

func Success(author, description string) *discordgo.MessageEmbed {
	return newEmbed(author, description, ColorSuccess)
}

func Info(author, description string) *discordgo.MessageEmbed {
	return newEmbed(author, description, ColorInfo)
}

func Error(description string) *discordgo.MessageEmbed {
	return newEmbed("Error", description, ColorError)
}

func NowPlaying(current *domain.Track, paused bool) *discordgo.MessageEmbed {
	if current == nil {
		return Info("Now Playing", MsgNothingPlaying)
	}

	author := "Now Playing"
	if paused {
		author = "Paused"
	}
	return Info(author, trackLine(*current))
}

func Queued(track domain.Track, position int) *discordgo.MessageEmbed {
	if position == 0 {
		return Success("Now Playing", trackLine(track))
	}
	return Success("Added to Queue", fmt.Sprintf("%s\nPosition in queue: **%d**", trackLine(track), position))
}

// Queue renders the queue. Listings longer than an embed allows are cut and
// attached in full as queue.txt.
func Queue(current *domain.Track, queue []domain.Track, paused bool) (*discordgo.MessageEmbed, []*discordgo.File) {
	if current == nil && len(queue) == 0 {
		return Info("Queue", MsgNothingPlaying), nil
	}

	var header strings.Builder
	if current != nil {
		state := "Now playing"
		if paused {
			state = "Paused"
		}
		fmt.Fprintf(&header, "**%s:** %s\n", state, trackLine(*current))
	}
	if len(queue) == 0 {
		header.WriteString("\nThe queue is empty.")
		return Info("Queue", header.String()), nil
	}
	header.WriteString("\n**Up next:**\n")

	lines := make([]string, len(queue))
	for i, t := range queue {
		lines[i] = fmt.Sprintf("`%d.` %s", i+1, trackLine(t))
	}

	body := strings.Join(lines, "\n")
	if header.Len()+len(body) <= MaxDescription {
		return Info("Queue", header.String()+body), nil
	}

	var shown strings.Builder
	shown.WriteString(header.String())
	n := 0
	for _, line := range lines {
		// Leave room for the overflow note.
		if shown.Len()+len(line)+100 > MaxDescription {
			break
		}
		shown.WriteString(line)
		shown.WriteString("\n")
		n++
	}
	fmt.Fprintf(&shown, "...and %d more (full list in %s)", len(lines)-n, QueueFileName)

	file := &discordgo.File{
		Name:        QueueFileName,
		ContentType: "text/plain",
		Reader:      strings.NewReader(plainQueue(queue)),
	}
	return Info("Queue", shown.String()), []*discordgo.File{file}
}

func plainQueue(queue []domain.Track) string {
	var b strings.Builder
	for i, t := range queue {
		fmt.Fprintf(&b, "%d. %s [%s] %s\n", i+1, t.DisplayTitle(), FormatDuration(t.Duration), t.URL)
	}
	return b.String()
}

func History(records []domain.PlayRecord) *discordgo.MessageEmbed {
	if len(records) == 0 {
		return Info("Recently Played", MsgNoHistory)
	}

	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = fmt.Sprintf("`%d.` [%s](%s) by %s <t:%d:R>", i+1, r.Title, r.URL, r.RequestedBy, r.PlayedAt.Unix())
	}
	return Info("Recently Played", strings.Join(lines, "\n"))
}

type HelpEntry struct {
	Name        string
	Description string
	Category    string
}

// Help lists commands grouped by category, categories and commands sorted.
func Help(entries []HelpEntry, prefix string) *discordgo.MessageEmbed {
	groups := make(map[string][]HelpEntry)
	for _, e := range entries {
		groups[e.Category] = append(groups[e.Category], e)
	}

	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	caser := cases.Title(language.English)

	var b strings.Builder
	for _, c := range categories {
		cmds := groups[c]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

		fmt.Fprintf(&b, "**%s**\n", caser.String(c))
		for _, e := range cmds {
			fmt.Fprintf(&b, "`/%s` %s\n", e.Name, e.Description)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Every command also works as a text command with the `%s` prefix.", prefix)

	return Info("Commands", b.String())
}

func trackLine(t domain.Track) string {
	line := fmt.Sprintf("[%s](%s) `%s`", t.DisplayTitle(), t.URL, FormatDuration(t.Duration))
	if t.RequestedBy != "" {
		line += " requested by " + t.RequestedBy
	}
	return line
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
