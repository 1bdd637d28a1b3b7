// Package notify shows desktop notifications over the org.freedesktop
// Notifications D-Bus service.
package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/shikoucore/hyprshot/internal/logger"
)

const (
	appName       = "Hyprshot"
	notifyDest    = "org.freedesktop.Notifications"
	notifyPath    = "/org/freedesktop/Notifications"
	notifyMethod  = "org.freedesktop.Notifications.Notify"
	defaultExpiry = int32(5000)
)

// Send shows one notification. expireMs <= 0 uses the default timeout.
// Failures are reported but callers generally treat them as cosmetic.
func Send(summary, body, icon string, expireMs int32) error {
	if expireMs <= 0 {
		expireMs = defaultExpiry
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}

	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyMethod, 0,
		appName,
		uint32(0),
		icon,
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{},
		expireMs,
	)
	if call.Err != nil {
		return fmt.Errorf("notify call: %w", call.Err)
	}

	logger.WithComponent("notify").Debug().Str("summary", summary).Msg("notification sent")
	return nil
}
