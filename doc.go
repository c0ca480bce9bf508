/*
Package chatflow is a conversational flow engine: it walks a directed graph of
message, options and finalize nodes on behalf of many concurrent chat sessions.

The graph is authored outside the engine (JSON or YAML with `nodes` and `edges`)
and is read-only at runtime, though it can be hot-reloaded. Each session's position
lives in a pluggable session store, so a conversation survives restarts and can
move between replicas.

# Concept

Message nodes emit text and continue on their own. Options nodes emit a numbered
prompt and wait for the user to answer with a number. Finalize nodes emit a closing
text and end the conversation; the next interaction starts over. Unrecognized
answers re-send the prompt after a short notice and never move the session.

# Usage

	eng, err := chatflow.New("./flow.yaml",
		chatflow.WithEmitter(ports.EmitterFunc(func(ctx context.Context, m domain.Message) error {
			fmt.Println(m.Text)
			return nil
		})),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := eng.Start(ctx, "user-42"); err != nil {
		log.Fatal(err)
	}
	// Later, when the user answers:
	if _, err := eng.HandleInput(ctx, "user-42", "2"); err != nil {
		log.Fatal(err)
	}

Delivery surfaces (HTTP, WebSocket, webhooks, MCP and a terminal runner) live
under pkg/adapters and pkg/runner and drive the same Engine.
*/
package chatflow
