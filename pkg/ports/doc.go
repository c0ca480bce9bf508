/*
Package ports defines the driven ports (interfaces) for the chatflow engine.

These interfaces decouple the interpreter from external implementations, allowing
it to work with various storage backends, graph sources and delivery channels.

# Key Interfaces

  - SessionStore: Persists and loads Session records (memory, file, redis, sqlite).
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - GraphSource: Yields the current validated graph, possibly hot-reloaded.
  - Emitter: Receives outbound messages for delivery adapters.
  - Interpreter: The inbound API delivery adapters drive.
*/
package ports
