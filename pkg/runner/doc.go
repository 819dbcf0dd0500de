/*
Package runner drives a conversation from a terminal or a pipe.

The runner sends a LaunchRequest, then reads one line per turn. A line is an
intent name with optional key=value params, a JSON intent object or a slash
command (/state, /reset, /help, /quit). Every reply is shown through an
IOHandler; TextHandler is the interactive one and JSONHandler writes one
reply.View per line.

# Usage

	r := runner.New(app,
		runner.WithSessionID("user-1"),
		runner.WithSessions(session.NewManager(store)),
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}

Leaving a session before it terminates (EOF, /quit or Ctrl+C) sends a
SessionEndedRequest with reason USER_INITIATED.
*/
package runner
