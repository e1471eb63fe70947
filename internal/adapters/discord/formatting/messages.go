package formatting

import (
	"fmt"
	"time"
)

const (
	MsgUnknownCommand    = "That command doesn't exist. Use /help to see what I can do."
	MsgGenericError      = "Something went wrong while running that command. Please try again later."
	MsgPermissionDenied  = "You don't have permission to use this command."
	MsgCooldown          = "You're sending commands too quickly. Try again in a moment."
	MsgGuildOnly         = "This command can only be used in a server."
	MsgNotInVoice        = "Join a voice channel first."
	MsgQueryRequired     = "Give me a link to play."
	MsgUnsupportedQuery  = "I can only play YouTube links and direct links to audio files or pages that embed them."
	MsgNoAudio           = "I couldn't find anything playable at that link."
	MsgNoSession         = "I'm not connected to a voice channel in this server."
	MsgNothingPlaying    = "Nothing is playing right now."
	MsgAlreadyPaused     = "Playback is already paused."
	MsgNotPaused         = "Playback isn't paused."
	MsgPaused            = "Paused playback."
	MsgResumed           = "Resumed playback."
	MsgStopped           = "Stopped playback and cleared the queue."
	MsgNoHistory         = "Nothing has been played in this server yet."
	MsgRoleRequired      = "Pick a role to use as the DJ role."
	MsgDJRoleCleared     = "DJ role cleared. Only members with Manage Channels can control playback."
	MsgSettingsSaveError = "Failed to save settings."
	MsgHistoryError      = "Failed to load play history."
)

func MsgPong(latency time.Duration) string {
	return fmt.Sprintf("Pong! Gateway latency is %dms.", latency.Milliseconds())
}

func MsgSkipped(title string) string {
	return fmt.Sprintf("Skipped **%s**.", title)
}

func MsgDJRoleSet(roleID string) string {
	return fmt.Sprintf("Members with <@&%s> can now control playback.", roleID)
}

func MsgPresence(guildName string) string {
	if guildName == "" {
		return "music | /help"
	}
	return fmt.Sprintf("music in %s | /help", guildName)
}

func MsgOpsFault(source, message string) string {
	return fmt.Sprintf("**%s**\n```\n%s\n```", source, message)
}

// FormatDuration renders d as m:ss or h:mm:ss. Unknown lengths are live streams.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "live"
	}

	total := int(d.Round(time.Second).Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
