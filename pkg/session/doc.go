/*
Package session implements session access orchestration.

The Manager serializes steps per session id: different sessions run in parallel,
the same session never runs two steps at once. With a DistributedLocker the
guarantee extends across replicas sharing one store.
*/
package session
