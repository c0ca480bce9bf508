// Package runtime implements the flow interpreter.
//
// The Engine advances a session through sendMessage nodes until it reaches an
// options node (where it waits for input) or leaves the graph. All state lives in
// the session store, so any Engine over the same store can pick a conversation up.
package runtime
