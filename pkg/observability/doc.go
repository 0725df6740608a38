/*
Package observability turns engine lifecycle hooks into Prometheus metrics
and structured audit logs.

Hooks from several consumers are combined with Chain and passed to
cyrkana.WithLifecycleHooks.
*/
package observability
