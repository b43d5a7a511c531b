/*
Package ports defines the driven ports (interfaces) used by lattice middleware.

These interfaces decouple pipeline middleware from external implementations,
so the same middleware can run against in-memory state in tests and against
shared infrastructure in production.

# Key Interfaces

  - Limiter: counts hits per key within a window (see adapters/memory and adapters/redis).
*/
package ports
