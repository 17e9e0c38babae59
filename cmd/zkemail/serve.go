package zkemail

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mailproof/mailproof/config"
	"github.com/mailproof/mailproof/server"
)

func NewServeCmd() *cobra.Command {
	cfg := &server.ServeConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the email proof API server",
		Long: `Start the HTTP API server for generating witnesses, proving and verifying.
Settings come from /etc/mailproof/config.yaml (or ./configs/config.yaml) and
MAILPROOF_* environment variables; flags take precedence.`,
		Example: `  # Start server with config file settings
  mailproof serve

  # Start with custom settings
  mailproof serve --host 0.0.0.0 --port 9090 --circuits-dir ./setup

  # Production deployment with TLS
  mailproof serve --host 0.0.0.0 --port 443 --enable-tls \
    --cert-file /etc/ssl/cert.pem --key-file /etc/ssl/key.pem

  # Load the header-only circuit and enable notifications
  mailproof serve --circuits email-auth --relay-url http://relay:4430`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyFileConfig(cmd, cfg); err != nil {
				return err
			}
			return server.Run(cfg)
		},
	}

	// Server flags
	cmd.Flags().StringVar(&cfg.Host, "host", "localhost", "Host to bind to")
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", 8080, "Port to listen on")

	// Circuit flags
	cmd.Flags().StringVarP(&cfg.CircuitsDir, "circuits-dir", "d", "./setup", "Directory containing compiled circuits")
	cmd.Flags().StringSliceVarP(&cfg.Circuits, "circuits", "c", []string{}, "Specific circuits to load (comma-separated, empty = all)")

	// Notification flags
	cmd.Flags().StringVar(&cfg.RelayURL, "relay-url", "", "SMTP relay endpoint for notification emails (empty = disabled)")

	// Performance flags
	cmd.Flags().Int64Var(&cfg.MaxRequestSize, "max-request-size", 10*1024*1024, "Maximum request body size in bytes")
	cmd.Flags().DurationVar(&cfg.ReadTimeout, "read-timeout", 15*time.Second, "HTTP read timeout")
	cmd.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", 300*time.Second, "HTTP write timeout (proof generation can be slow)")
	cmd.Flags().DurationVar(&cfg.IdleTimeout, "idle-timeout", 120*time.Second, "HTTP idle timeout")
	cmd.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	// Security flags
	cmd.Flags().BoolVar(&cfg.EnableCORS, "enable-cors", true, "Enable CORS middleware")
	cmd.Flags().StringSliceVar(&cfg.CorsOrigins, "cors-origins", []string{"*"}, "Allowed CORS origins")

	// Observability flags
	cmd.Flags().BoolVar(&cfg.EnablePprof, "enable-pprof", false, "Enable pprof endpoints (debug only)")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text, json)")

	// TLS flags
	cmd.Flags().BoolVar(&cfg.EnableTLS, "enable-tls", false, "Enable TLS/HTTPS")
	cmd.Flags().StringVar(&cfg.CertFile, "cert-file", "", "TLS certificate file")
	cmd.Flags().StringVar(&cfg.KeyFile, "key-file", "", "TLS private key file")

	return cmd
}

// applyFileConfig fills every flag the user did not set from the file and
// environment configuration.
func applyFileConfig(cmd *cobra.Command, cfg *server.ServeConfig) error {
	conf, err := config.New()
	if err != nil {
		return err
	}
	changed := cmd.Flags().Changed

	if !changed("host") {
		cfg.Host = conf.GetString("server.host")
	}
	if !changed("port") {
		cfg.Port = conf.GetInt("server.port")
	}
	if !changed("circuits-dir") {
		cfg.CircuitsDir = conf.GetString("circuits.dir")
	}
	if !changed("circuits") {
		cfg.Circuits = conf.GetStringSlice("circuits.load")
	}
	if !changed("relay-url") {
		cfg.RelayURL = conf.GetString("notify.relay_url")
	}
	if !changed("max-request-size") {
		cfg.MaxRequestSize = conf.GetInt64("server.max_request_size")
	}
	if !changed("enable-cors") {
		cfg.EnableCORS = conf.GetBool("server.enable_cors")
	}
	if !changed("cors-origins") {
		cfg.CorsOrigins = conf.GetStringSlice("server.cors_origins")
	}
	if !changed("enable-pprof") {
		cfg.EnablePprof = conf.GetBool("server.enable_pprof")
	}
	if !changed("log-level") {
		cfg.LogLevel = conf.GetString("logging.level")
	}
	if !changed("log-format") {
		cfg.LogFormat = conf.GetString("logging.format")
	}
	if !changed("enable-tls") {
		cfg.EnableTLS = conf.GetBool("tls.enabled")
	}
	if !changed("cert-file") {
		cfg.CertFile = conf.GetString("tls.cert_file")
	}
	if !changed("key-file") {
		cfg.KeyFile = conf.GetString("tls.key_file")
	}

	for flag, key := range map[string]string{
		"read-timeout":     "server.read_timeout",
		"write-timeout":    "server.write_timeout",
		"idle-timeout":     "server.idle_timeout",
		"shutdown-timeout": "server.shutdown_timeout",
	} {
		if changed(flag) {
			continue
		}
		d, err := conf.GetDuration(key)
		if err != nil {
			return err
		}
		switch flag {
		case "read-timeout":
			cfg.ReadTimeout = d
		case "write-timeout":
			cfg.WriteTimeout = d
		case "idle-timeout":
			cfg.IdleTimeout = d
		case "shutdown-timeout":
			cfg.ShutdownTimeout = d
		}
	}
	return nil
}
