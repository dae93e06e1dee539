package restore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/snapshot"
)

// fakeSurface is an in-memory guild the engine can tear down and
// rebuild.
type fakeSurface struct {
	canManage bool
	topPos    int
	defaultID string

	roles    []*discordgo.Role
	channels []*discordgo.Channel
	members  map[string]bool

	deletedRoles    []string
	deletedChannels []string
	nextID          int

	failRoleCreate bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		canManage: true,
		topPos:    100,
		defaultID: "100",
		members:   map[string]bool{},
		nextID:    1000,
	}
}

func (f *fakeSurface) CanManage() bool        { return f.canManage }
func (f *fakeSurface) TopRolePosition() int   { return f.topPos }
func (f *fakeSurface) DefaultRoleID() string  { return f.defaultID }
func (f *fakeSurface) HasMember(id string) bool { return f.members[id] }

func (f *fakeSurface) Channels() []*discordgo.Channel {
	out := make([]*discordgo.Channel, len(f.channels))
	copy(out, f.channels)
	return out
}

func (f *fakeSurface) Roles() []*discordgo.Role {
	out := make([]*discordgo.Role, len(f.roles))
	copy(out, f.roles)
	return out
}

func (f *fakeSurface) DeleteChannel(id string) error {
	f.deletedChannels = append(f.deletedChannels, id)
	for i, ch := range f.channels {
		if ch.ID == id {
			f.channels = append(f.channels[:i], f.channels[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSurface) DeleteRole(id string) error {
	f.deletedRoles = append(f.deletedRoles, id)
	for i, r := range f.roles {
		if r.ID == id {
			f.roles = append(f.roles[:i], f.roles[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSurface) CreateRole(r snapshot.Role) (*discordgo.Role, error) {
	if f.failRoleCreate {
		return nil, errors.New("create refused")
	}
	f.nextID++
	role := &discordgo.Role{ID: fmt.Sprint(f.nextID), Name: r.Name, Position: r.Position}
	f.roles = append(f.roles, role)
	return role, nil
}

func (f *fakeSurface) ReorderRoles([]*discordgo.Role) error { return nil }

func (f *fakeSurface) CreateChannel(data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.nextID++
	ch := &discordgo.Channel{
		ID:       fmt.Sprint(f.nextID),
		Name:     data.Name,
		Type:     data.Type,
		ParentID: data.ParentID,
	}
	f.channels = append(f.channels, ch)
	return ch, nil
}

func (f *fakeSurface) EditChannelPosition(string, int) error { return nil }
func (f *fakeSurface) EditChannelSlowmode(string, int) error { return nil }

func testEngine(p snapshot.Persister) *Engine {
	e := NewEngine(snapshot.NewStore(p))
	e.sleep = func(time.Duration) {}
	return e
}

type memPersister struct {
	blobs map[uint64][]byte
}

func (m *memPersister) SaveSnapshot(guildID uint64, blob []byte, _ int64) error {
	m.blobs[guildID] = blob
	return nil
}
func (m *memPersister) LoadSnapshot(guildID uint64) ([]byte, error) { return m.blobs[guildID], nil }
func (m *memPersister) DeleteSnapshot(guildID uint64) error {
	delete(m.blobs, guildID)
	return nil
}

func captureTestSnapshot(t *testing.T, store *snapshot.Store) {
	t.Helper()
	_, err := store.Capture(&discordgo.Guild{
		ID: "100",
		Roles: []*discordgo.Role{
			{ID: "100", Name: "@everyone", Position: 0},
			{ID: "201", Name: "Moderator", Position: 3},
			{ID: "202", Name: "Member", Position: 1},
			{ID: "203", Name: "Helper", Position: 2},
		},
		Channels: []*discordgo.Channel{
			{ID: "301", Name: "General", Type: discordgo.ChannelTypeGuildCategory, Position: 0},
			{ID: "302", Name: "chat", Type: discordgo.ChannelTypeGuildText, Position: 1, ParentID: "301", RateLimitPerUser: 5},
			{ID: "303", Name: "Lounge", Type: discordgo.ChannelTypeGuildVoice, Position: 2},
		},
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
}

func TestRestoreRebuildsEmptyGuild(t *testing.T) {
	p := &memPersister{blobs: map[uint64][]byte{}}
	store := snapshot.NewStore(p)
	captureTestSnapshot(t, store)

	e := NewEngine(store)
	e.sleep = func(time.Duration) {}

	surface := newFakeSurface()
	surface.roles = []*discordgo.Role{{ID: "100", Name: "@everyone", Position: 0}}

	result := e.Restore(100, surface)
	if !result.OK {
		t.Fatalf("Restore failed: %s", result.Reason)
	}
	if result.CreatedRoles != 3 {
		t.Fatalf("CreatedRoles = %d, want 3", result.CreatedRoles)
	}
	// One category plus two channels.
	if result.CreatedChannels != 2 {
		t.Fatalf("CreatedChannels = %d, want 2", result.CreatedChannels)
	}
	if len(surface.channels) != 3 {
		t.Fatalf("surface has %d channels, want 3 including the category", len(surface.channels))
	}
}

func TestRestoreNeverDeletesRolesAtOrAboveBot(t *testing.T) {
	p := &memPersister{blobs: map[uint64][]byte{}}
	store := snapshot.NewStore(p)
	captureTestSnapshot(t, store)

	e := NewEngine(store)
	e.sleep = func(time.Duration) {}

	surface := newFakeSurface()
	surface.topPos = 5
	surface.roles = []*discordgo.Role{
		{ID: "100", Name: "@everyone", Position: 0},
		{ID: "400", Name: "Admin", Position: 7},
		{ID: "401", Name: "BotRole", Position: 5},
		{ID: "402", Name: "Deletable", Position: 2},
	}

	e.Restore(100, surface)

	for _, id := range surface.deletedRoles {
		if id == "100" {
			t.Fatal("the implicit role must never be deleted")
		}
		if id == "400" || id == "401" {
			t.Fatalf("role %s at or above the bot's rank was deleted", id)
		}
	}
	found := false
	for _, id := range surface.deletedRoles {
		if id == "402" {
			found = true
		}
	}
	if !found {
		t.Fatal("role below the bot's rank must be deleted")
	}
}

func TestRestoreReusesSurvivingRolesByName(t *testing.T) {
	p := &memPersister{blobs: map[uint64][]byte{}}
	store := snapshot.NewStore(p)
	captureTestSnapshot(t, store)

	e := NewEngine(store)
	e.sleep = func(time.Duration) {}

	// Moderator survives above the bot's rank; it must be reused, not
	// duplicated.
	surface := newFakeSurface()
	surface.topPos = 2
	surface.roles = []*discordgo.Role{
		{ID: "100", Name: "@everyone", Position: 0},
		{ID: "201", Name: "Moderator", Position: 3},
	}

	result := e.Restore(100, surface)
	if result.CreatedRoles != 2 {
		t.Fatalf("CreatedRoles = %d, want 2 (Moderator reused)", result.CreatedRoles)
	}
	moderators := 0
	for _, r := range surface.roles {
		if r.Name == "Moderator" {
			moderators++
		}
	}
	if moderators != 1 {
		t.Fatalf("found %d Moderator roles, want exactly 1", moderators)
	}
}

func TestRestoreNoSnapshot(t *testing.T) {
	e := testEngine(&memPersister{blobs: map[uint64][]byte{}})

	result := e.Restore(100, newFakeSurface())
	if result.OK {
		t.Fatal("Restore must fail without a snapshot")
	}
	if result.Reason != ReasonNoSnapshot {
		t.Fatalf("Reason = %q, want %q", result.Reason, ReasonNoSnapshot)
	}
}

func TestRestoreNoAuthority(t *testing.T) {
	p := &memPersister{blobs: map[uint64][]byte{}}
	store := snapshot.NewStore(p)
	captureTestSnapshot(t, store)

	e := NewEngine(store)
	e.sleep = func(time.Duration) {}

	surface := newFakeSurface()
	surface.canManage = false

	result := e.Restore(100, surface)
	if result.OK {
		t.Fatal("Restore must fail without manage authority")
	}
	if result.Reason != ReasonNoAuthority {
		t.Fatalf("Reason = %q, want %q", result.Reason, ReasonNoAuthority)
	}
	if len(surface.deletedChannels) != 0 {
		t.Fatal("nothing may be deleted when authority is missing")
	}
}

func TestRestoreToleratesPerItemFailures(t *testing.T) {
	p := &memPersister{blobs: map[uint64][]byte{}}
	store := snapshot.NewStore(p)
	captureTestSnapshot(t, store)

	e := NewEngine(store)
	e.sleep = func(time.Duration) {}

	surface := newFakeSurface()
	surface.failRoleCreate = true

	result := e.Restore(100, surface)
	if !result.OK {
		t.Fatalf("per-item failures must not fail the run: %s", result.Reason)
	}
	if result.CreatedRoles != 0 {
		t.Fatalf("CreatedRoles = %d, want 0 when every create fails", result.CreatedRoles)
	}
	if result.CreatedChannels != 2 {
		t.Fatalf("CreatedChannels = %d, channel rebuild must continue", result.CreatedChannels)
	}
}
