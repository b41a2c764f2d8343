// Package main provides an interactive CLI client for the datachat WebSocket channel.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket server address")
	sessionID := flag.String("session", "", "Session ID to join")
	dataset := flag.String("dataset", "", "Dataset source (local path or http(s) URL)")
	flag.Parse()

	log.SetFlags(log.Ltime)

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	fmt.Println("Connected. Sending hello...")

	if err := client.SendHello(*sessionID, *dataset); err != nil {
		log.Fatalf("Hello failed: %v", err)
	}

	fmt.Printf("Session established: %s\n", client.sessionID)
	fmt.Println("\nAsk a question about the dataset and press Enter.")
	fmt.Println("Commands: /quit to exit")

	go client.ReadMessages()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		select {
		case <-interrupt:
			fmt.Println("\nInterrupted")
			return
		default:
			if !scanner.Scan() {
				return
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}

			if input == "/quit" {
				fmt.Println("Bye!")
				return
			}

			if err := client.SendQuery(input); err != nil {
				log.Printf("Send error: %v", err)
				continue
			}

			fmt.Println("Question sent, waiting for response...")
		}
	}
}
