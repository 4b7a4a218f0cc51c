// Command auctionctl is an interactive terminal client for the auction
// server.
//
// It connects to the server, reads commands from stdin, and prints both
// command replies and asynchronous notifications as they arrive. Type
// "exit" to quit.
//
//	$ go run ./cmd/auctionctl --addr localhost:8080
//	> connect alice
//	ok: You have been connected
//	> add 50 pocket watch
//	ok: The item pocket watch has been listed for sale at a minimum price of 50$
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/andreiv46/auctiond/client"
	"github.com/andreiv46/auctiond/wire"
)

var (
	okColor     = color.New(color.FgGreen)
	errColor    = color.New(color.FgRed)
	notifyColor = color.New(color.FgYellow)
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Auction server address")
	flag.Parse()

	c, err := client.Dial(*addr)
	if err != nil {
		fmt.Printf("Error connecting to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer c.Close()

	fmt.Printf("Connected to %s. Type commands, or 'exit' to quit.\n", *addr)

	// Incoming messages print as they arrive; replies and notifications
	// share the stream, so a push can land between a command and its
	// reply.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for resp := range c.Messages() {
			printResponse(resp)
			fmt.Print("> ")
		}
		fmt.Println("\nConnection closed by server.")
	}()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		if line == "exit" {
			break
		}
		if err := c.Send(line); err != nil {
			fmt.Printf("Error sending command: %v\n", err)
			break
		}
	}

	c.Close()
	<-done
}

func printResponse(resp wire.Response) {
	switch resp.Status {
	case wire.StatusOK:
		okColor.Printf("\nok: %s\n", resp.Payload)
	case wire.StatusNotify:
		notifyColor.Printf("\n*** %s\n", resp.Payload)
	default:
		errColor.Printf("\nerror (%d): %s\n", resp.Status, resp.Payload)
	}
}
