// Package httpserver exposes the control API and the per-plugin static
// overlay mounts on the HTTP port. The push channel listens on its own
// port and is not part of this server.
package httpserver
