/*
Package parley is a conversational state machine and dispatch pipeline for voice and chat applications.

Transports (HTTP, WebSocket, MCP, a local REPL) hand parley an already-classified Event. parley hydrates the conversation model, runs the state graph until it yields or terminates, renders the reply and writes the model back into the session attributes the transport round-trips.

# Concept

A conversation is a graph of named states. Every fresh session starts at the synthetic "entry" state, which routes intents to the states declared with OnIntent. A state's handler produces a Transition:

  - flow "yield" stops and waits for the next turn (the default).
  - flow "continue" enters the target state in the same turn.
  - flow "terminate" ends the session.

Everything around the machine is a hook: OnRequestStarted, OnSessionStarted, OnBeforeStateChanged, OnAfterStateChanged, OnUnhandledState, OnBeforeReplySent, OnSessionEnded and OnError. The built-in behavior (model hydration, directive rendering, persistence, the default error reply) is registered the same way and always runs last.

# Usage

	app, err := parley.New(parley.WithRenderer(renderer))
	if err != nil {
		log.Fatal(err)
	}

	_ = app.OnIntent("LaunchIntent", domain.Literal{To: "likesVoxa?", Say: []string{"Launch.AskIfLikesVoxa"}})
	_ = app.OnState("likesVoxa?", domain.Literal{Flow: domain.FlowTerminate, Say: []string{"Launch.Yes"}}, "YesIntent")

	r := app.Execute(ctx, event, nil)
	fmt.Println(r.Statements(), r.IsTerminated())

Execute never fails: errors are turned into a reply by the OnError hooks and attached with Reply.SetError. Use session.Manager to load and store attributes between turns.
*/
package parley
