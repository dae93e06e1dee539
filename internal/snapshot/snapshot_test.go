package snapshot

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/config"
)

func testGuild() *discordgo.Guild {
	return &discordgo.Guild{
		ID:      "100",
		OwnerID: "7",
		Roles: []*discordgo.Role{
			{ID: "100", Name: "@everyone", Position: 0},
			{ID: "201", Name: "Moderator", Position: 2, Permissions: 8, Color: 0xFF0000, Hoist: true},
			{ID: "202", Name: "Member", Position: 1, Mentionable: true},
		},
		Channels: []*discordgo.Channel{
			{ID: "301", Name: "General", Type: discordgo.ChannelTypeGuildCategory, Position: 0},
			{
				ID: "302", Name: "chat", Type: discordgo.ChannelTypeGuildText, Position: 1,
				ParentID: "301", Topic: "talk here", RateLimitPerUser: 5,
				PermissionOverwrites: []*discordgo.PermissionOverwrite{
					{ID: "201", Type: discordgo.PermissionOverwriteTypeRole, Allow: 1024},
					{ID: "55", Type: discordgo.PermissionOverwriteTypeMember, Deny: 2048},
					{ID: "999", Type: discordgo.PermissionOverwriteTypeRole, Allow: 1}, // unknown role
				},
			},
			{ID: "303", Name: "Lounge", Type: discordgo.ChannelTypeGuildVoice, Position: 2, Bitrate: 64000, UserLimit: 10},
		},
	}
}

func TestBuildExcludesEveryoneRole(t *testing.T) {
	snap := Build(testGuild())

	if len(snap.Roles) != 2 {
		t.Fatalf("roles = %d, want 2 (implicit role excluded)", len(snap.Roles))
	}
	for _, r := range snap.Roles {
		if r.Name == "@everyone" {
			t.Fatal("the implicit role must not be captured")
		}
	}
	// Roles come out sorted ascending by position.
	if snap.Roles[0].Name != "Member" || snap.Roles[1].Name != "Moderator" {
		t.Fatalf("role order = [%s %s], want [Member Moderator]", snap.Roles[0].Name, snap.Roles[1].Name)
	}
}

func TestBuildSplitsCategoriesAndChannels(t *testing.T) {
	snap := Build(testGuild())

	if len(snap.Categories) != 1 || snap.Categories[0].Name != "General" {
		t.Fatalf("categories = %v, want [General]", snap.Categories)
	}
	if len(snap.Channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(snap.Channels))
	}

	text := snap.Channels[0]
	if text.Kind != "text" || text.Parent != "General" || text.Topic != "talk here" || text.Slowmode != 5 {
		t.Fatalf("text channel captured wrong: %+v", text)
	}
	voice := snap.Channels[1]
	if voice.Kind != "voice" || voice.Bitrate != 64000 || voice.UserLimit != 10 {
		t.Fatalf("voice channel captured wrong: %+v", voice)
	}
}

func TestBuildOverwriteTargets(t *testing.T) {
	snap := Build(testGuild())

	ows := snap.Channels[0].Overwrites
	if len(ows) != 2 {
		t.Fatalf("overwrites = %d, want 2 (unknown role dropped)", len(ows))
	}
	if ows[0].Kind != "role" || ows[0].RoleName != "Moderator" {
		t.Fatalf("role overwrite = %+v, want Moderator by name", ows[0])
	}
	if ows[1].Kind != "member" || ows[1].MemberID != 55 {
		t.Fatalf("member overwrite = %+v, want member 55", ows[1])
	}
}

func TestIsValidRespectsTTL(t *testing.T) {
	snap := &Snapshot{Timestamp: time.Now().Unix()}
	if !snap.IsValid() {
		t.Fatal("fresh snapshot must be valid")
	}

	snap.Timestamp = time.Now().Unix() - int64(config.SnapshotTTL.Seconds()) + 10
	if !snap.IsValid() {
		t.Fatal("snapshot just inside the TTL must be valid")
	}

	snap.Timestamp = time.Now().Unix() - int64(config.SnapshotTTL.Seconds()) - 10
	if snap.IsValid() {
		t.Fatal("snapshot past the TTL must be invalid")
	}

	var nilSnap *Snapshot
	if nilSnap.IsValid() {
		t.Fatal("nil snapshot must be invalid")
	}
}

func TestTimeRemainingNeverNegative(t *testing.T) {
	snap := &Snapshot{Timestamp: time.Now().Unix() - int64(config.SnapshotTTL.Seconds()) - 100}
	if got := snap.TimeRemaining(); got != 0 {
		t.Fatalf("TimeRemaining = %d, want 0 for an expired snapshot", got)
	}

	snap.Timestamp = time.Now().Unix()
	got := snap.TimeRemaining()
	want := int64(config.SnapshotTTL.Seconds())
	if got < want-2 || got > want {
		t.Fatalf("TimeRemaining = %d, want about %d", got, want)
	}
}
