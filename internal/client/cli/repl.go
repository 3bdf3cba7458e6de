package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Export(ctx context.Context) error
	Import(ctx context.Context) error
	ExportWords(ctx context.Context) error
	ImportWords(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the GlueAuth CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is cancelled or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
//	help             show available commands
//	register         create and enroll a new identity
//	login            prove membership and start a session
//	logout           drop the session token
//	status           show identity, connectivity and session state
//	export           print the identity transfer payload
//	import           store an identity from a transfer payload
//	words            print the identity as a 24-word mnemonic
//	restore          store an identity from a mnemonic
//	exit | quit      leave the program
//
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("glueauth %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, logout, export, words, exit")
			} else {
				printlnFn("Available commands: register, login, status, export, import, words, restore, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "export":
			cmdErr = a.Export(ctx)

		case "import":
			cmdErr = a.Import(ctx)

		case "words":
			cmdErr = a.ExportWords(ctx)

		case "restore":
			cmdErr = a.ImportWords(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describe(cmdErr))
		}
	}
}
