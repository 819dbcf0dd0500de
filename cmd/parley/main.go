// Command parley runs conversation graphs: over HTTP and websockets, as an
// MCP server or as a terminal chat.
package main

func main() {
	Execute()
}
