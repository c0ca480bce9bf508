/*
Package runner implements an interactive chat loop over the chatflow interpreter.

It is the terminal delivery surface: it reads lines from a handler, forwards them
to the interpreter and prints every emitted message. Two handlers exist: a text
handler for people and a JSON-lines handler for scripts.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(engine),
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}

Lines starting with a slash are commands: /reset starts over and /quit leaves.
*/
package runner
