package bridge

import (
	"context"
	"log/slog"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/mentora-ai/mentora/internal/logging"
	"github.com/mentora-ai/mentora/pkg/protocol"
)

// Native is the set of device capabilities exposed to the web app.
type Native interface {
	Toast(message string)
	DeviceInfo() protocol.DeviceInfo
	IsAndroid() bool
	NetworkAvailable(ctx context.Context) bool
}

const probeTimeout = 2 * time.Second

// HostNative implements Native for a desktop or server shell. Toasts are
// logged and kept for inspection.
type HostNative struct {
	probe string
	log   *slog.Logger

	mu     sync.Mutex
	toasts []string
}

// NewHostNative answers network checks by dialing probeAddr.
func NewHostNative(probeAddr string, logger *slog.Logger) *HostNative {
	return &HostNative{probe: probeAddr, log: logging.Component(logger, "native")}
}

// Toast shows a transient message.
func (n *HostNative) Toast(message string) {
	n.mu.Lock()
	n.toasts = append(n.toasts, message)
	n.mu.Unlock()
	n.log.Info("toast", "message", message)
}

// Toasts returns the messages shown so far.
func (n *HostNative) Toasts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.toasts...)
}

// DeviceInfo describes the machine running the host.
func (n *HostNative) DeviceInfo() protocol.DeviceInfo {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return protocol.DeviceInfo{
		Manufacturer: runtime.GOOS,
		Model:        hostname,
		Version:      strings.TrimPrefix(runtime.Version(), "go"),
		SDKInt:       0,
	}
}

// IsAndroid reports whether the host runs on Android.
func (n *HostNative) IsAndroid() bool { return runtime.GOOS == "android" }

// NetworkAvailable dials the probe address.
func (n *HostNative) NetworkAvailable(ctx context.Context) bool {
	if n.probe == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", n.probe)
	if err != nil {
		n.log.Debug("network probe failed", "addr", n.probe, "error", err)
		return false
	}
	conn.Close()
	return true
}
