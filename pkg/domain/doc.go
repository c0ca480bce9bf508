/*
Package domain contains the core domain models of the chatflow engine.

It defines the entities the interpreter works with: the authored graph vertices and
edges, the live conversation Session and the outbound Message. This package is kept
pure and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Node: One step of a flow (start, sendMessage, options or finalize).
  - Edge: A directed transition, optionally tagged with the choice that selects it.
  - Session: The live progress of one conversation through a graph.
  - Message: A single emission handed to a delivery adapter.
*/
package domain
