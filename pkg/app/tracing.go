package app

import (
	"os"

	"tablebook/internal/buildinfo"
	"tablebook/pkg/config"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// ConfigureTracing points the X-Ray recorder at the daemon. It must run before the database
// is opened so traced SQL finds the recorder configured.
func ConfigureTracing(cfg *config.Config) {
	if !cfg.TracingEnabled {
		return
	}

	if err := xray.Configure(xray.Config{
		DaemonAddr:     cfg.XRayDaemonAddr,
		ServiceVersion: buildinfo.Version,
	}); err != nil {
		cfg.Log.Warn("Failed to configure X-Ray, falling back to defaults", "error", err)
		if err := xray.Configure(xray.Config{}); err != nil {
			cfg.Log.Error("Failed to configure default X-Ray settings", "error", err)
			return
		}
	}
	// Queries outside a request (schema setup, seeding) have no segment.
	_ = os.Setenv("AWS_XRAY_CONTEXT_MISSING", "LOG_ERROR")
	cfg.Log.Info("X-Ray tracing configured", "daemon_addr", cfg.XRayDaemonAddr)
}
