package commands

import (
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// handleStats shows bot, runtime and host statistics
func (h *Handler) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := h.checkAdmin(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondError(s, i, "You need Administrator permission to view statistics.")
		return nil
	}

	// Defer response to allow time for gathering stats
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return err
	}

	hostValue := "Unavailable"
	if hostInfo, err := host.Info(); err == nil {
		hostValue = fmt.Sprintf("%s (%s %s)\nUp %s",
			hostInfo.Hostname, hostInfo.Platform, hostInfo.KernelArch,
			(time.Duration(hostInfo.Uptime) * time.Second).Round(time.Minute))
	}

	memValue := "Unavailable"
	if vm, err := mem.VirtualMemory(); err == nil {
		memValue = fmt.Sprintf("%.1f%% of %.1f GB", vm.UsedPercent, float64(vm.Total)/(1<<30))
	}

	cpuValue := "Unavailable"
	if pct, err := cpu.Percent(time.Second, false); err == nil && len(pct) > 0 {
		cpuValue = fmt.Sprintf("%.1f%% across %d threads", pct[0], runtime.NumCPU())
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	embed := &discordgo.MessageEmbed{
		Title: "📊 AntiNuke360 Statistics",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🤖 Bot", Value: fmt.Sprintf("Serving %d servers\nUp %s",
				len(s.State.Guilds), h.metrics.Uptime().Round(time.Second)), Inline: false},
			{Name: "🛡️ Protection", Value: fmt.Sprintf("%d events tracked\n%d rate-limit trips\n%d bans issued\n%d restores run",
				h.metrics.EventsTracked.Load(), h.metrics.RateLimitTrips.Load(),
				h.metrics.BansIssued.Load(), h.metrics.RestoresRun.Load()), Inline: false},
			{Name: "🖥️ Host", Value: hostValue, Inline: true},
			{Name: "🧠 Memory", Value: memValue, Inline: true},
			{Name: "⚙️ CPU", Value: cpuValue, Inline: true},
			{Name: "🐹 Runtime", Value: fmt.Sprintf("%s, %d goroutines, %.1f MB heap",
				runtime.Version(), runtime.NumGoroutine(), float64(ms.HeapAlloc)/(1<<20)), Inline: false},
		},
		Color:     0x3498DB,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	embeds := []*discordgo.MessageEmbed{embed}
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}
