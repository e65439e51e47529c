// Package logging provides structured logging for the session audit service.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level filtering.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("session opened", "user_id", userID)
//	logger.Error("closing session failed", "error", err)
//
// # Security
//
// Never log passwords, password hashes or bearer tokens. The one exception is
// the generated password of a first-boot seed account, which is logged once
// at warn level so the operator can retrieve it.
package logging
