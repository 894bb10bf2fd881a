// Command acp-example-agent runs the reference agent (internal/refagent)
// over stdio, speaking ACP to whatever client spawned it. It is the
// counterpart to acp-example-client and exists to demonstrate a complete,
// working ACP peer rather than to be a useful agent on its own.
package main

import (
	"flag"
	"log"
	"os"

	"acp"
	"acp/internal/refagent"
	"acp/internal/sessionstore"
)

func main() {
	dbPath := flag.String("db", "", "path to the session history database (defaults to an in-memory store)")
	flag.Parse()

	storePath := *dbPath
	if storePath == "" {
		storePath = ":memory:"
	}

	store, err := sessionstore.NewStore(storePath)
	if err != nil {
		log.Fatalf("acp-example-agent: open session store: %v", err)
	}
	defer store.Close()

	ref := refagent.New(store)
	defer ref.Close()

	conn := acp.NewAgentSideConnection(ref, os.Stdout, os.Stdin)
	ref.SetConnection(conn)

	conn.Run()
	if err := conn.Err(); err != nil {
		log.Printf("acp-example-agent: connection closed: %v", err)
	}
}
