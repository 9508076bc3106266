// Package middleware holds handler wrappers shared by the built-in commands:
// guild-only enforcement, per-user cooldowns and command history logging.
package middleware

import "errors"

var (
	ErrGuildOnly = errors.New("this command can only be used in a server")
	ErrCooldown  = errors.New("slow down, you are sending commands too fast")
)
