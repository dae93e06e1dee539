package commands

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/internal/state"
)

func scanMember(id, name string, bot bool) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id, Username: name, Bot: bot}}
}

func TestScanTargetsSelectsDenyListedOnly(t *testing.T) {
	lists := state.NewLists(nil)
	lists.UpsertBlacklist(111, "nuker-bot", "mass channel delete", 0)
	lists.UpsertBlacklist(222, "shielded", "mass channel delete", 0)

	ws := state.NewRegistry().GetOrCreate(10)
	ws.AddAntiKick(222)

	members := []*discordgo.Member{
		scanMember("111", "nuker-bot", true),
		scanMember("222", "shielded", false),
		scanMember("333", "clean", false),
		{User: nil},
	}

	targets, shielded := scanTargets(lists, ws, members)
	if len(targets) != 1 || targets[0].ID != 111 {
		t.Fatalf("targets = %+v, want only account 111", targets)
	}
	if !targets[0].Bot {
		t.Error("the bot flag must carry through to enforcement")
	}
	if shielded != 1 {
		t.Fatalf("shielded = %d, want 1", shielded)
	}
}

func TestScanTargetsShieldIsPerServer(t *testing.T) {
	lists := state.NewLists(nil)
	lists.UpsertBlacklist(222, "roamer", "mass role create", 0)

	registry := state.NewRegistry()
	shielding := registry.GetOrCreate(10)
	shielding.AddAntiKick(222)
	open := registry.GetOrCreate(20)

	members := []*discordgo.Member{scanMember("222", "roamer", false)}

	if targets, _ := scanTargets(lists, shielding, members); len(targets) != 0 {
		t.Fatalf("shielding server produced targets %+v", targets)
	}
	if targets, _ := scanTargets(lists, open, members); len(targets) != 1 {
		t.Fatal("the shield must not leak into other servers")
	}
}
