/*
Package observability provides tools for monitoring the chatflow interpreter.

It turns lifecycle hooks into Prometheus metrics and structured log lines.
*/
package observability
