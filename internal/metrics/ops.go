package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/valyala/fasthttp"

	"github.com/hoyin666/AntiNuke360/internal/logging"
)

// OpsServer exposes a local operations endpoint with liveness, counter
// and host resource views.
type OpsServer struct {
	registry *Registry
	server   *fasthttp.Server
}

func NewOpsServer(registry *Registry) *OpsServer {
	o := &OpsServer{registry: registry}
	o.server = &fasthttp.Server{
		Handler:     o.handle,
		Name:        "antinuke360-ops",
		ReadTimeout: 5 * time.Second,
	}
	return o
}

// Start listens on addr in a background goroutine.
func (o *OpsServer) Start(addr string) {
	go func() {
		logging.Info("[OPS] Listening on %s", addr)
		if err := o.server.ListenAndServe(addr); err != nil {
			logging.Error("[OPS] Server stopped: %v", err)
		}
	}()
}

func (o *OpsServer) Stop() error {
	return o.server.Shutdown()
}

func (o *OpsServer) handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/healthz":
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok\n")
	case "/metrics":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString(o.registry.Export())
	case "/sys":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString(o.sysReport())
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

// sysReport gathers host and runtime resource usage. Collection errors
// leave the affected section out rather than failing the request.
func (o *OpsServer) sysReport() string {
	var report string

	if hostInfo, err := host.Info(); err == nil {
		report += fmt.Sprintf("host %s (%s %s)\nhost_uptime_seconds %d\n",
			hostInfo.Hostname, hostInfo.Platform, hostInfo.KernelArch, hostInfo.Uptime)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		report += fmt.Sprintf("mem_used_bytes %d\nmem_total_bytes %d\nmem_used_percent %.1f\n",
			vm.Used, vm.Total, vm.UsedPercent)
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		report += fmt.Sprintf("cpu_used_percent %.1f\n", pct[0])
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	report += fmt.Sprintf("go_goroutines %d\ngo_heap_alloc_bytes %d\ngo_gc_cycles %d\n",
		runtime.NumGoroutine(), ms.HeapAlloc, ms.NumGC)

	return report
}
