package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/room4-2/lamaison/messages"
)

func main() {
	// Flags
	serverURL := flag.String("server", "ws://localhost:8080/ws", "WebSocket server URL")
	flag.Parse()

	log.Printf("🔌 Connecting to %s...", *serverURL)

	// Connect to server
	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Println("✅ Connected! Type a message, /history, /reset or /quit")

	// Handle interrupt
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})

	// Read responses from server
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}

			msg, err := messages.DecodeServer(data)
			if err != nil {
				log.Println("Parse error:", err)
				continue
			}
			printMessage(msg)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	for {
		select {
		case <-done:
			log.Println("Connection closed")
			return
		case <-interrupt:
			log.Println("\n👋 Interrupted, closing...")
			closeConn(conn)
			return
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				closeConn(conn)
				return
			}
			if line == "" {
				continue
			}
			frame, err := frameFor(line)
			if err != nil {
				log.Printf("Encode error: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("Send error: %v", err)
				return
			}
		}
	}
}

func frameFor(line string) ([]byte, error) {
	switch line {
	case "/history":
		return messages.EncodeControl(messages.ActionHistory)
	case "/reset":
		return messages.EncodeControl(messages.ActionReset)
	case "/ping":
		return messages.EncodeControl(messages.ActionPing)
	}
	return messages.EncodeText(line)
}

func printMessage(msg *messages.ServerMessage) {
	payload, _ := msg.Payload.(map[string]interface{})

	switch msg.Type {
	case messages.TypeText:
		fmt.Printf("🤖 %v\n", payload["text"])
	case messages.TypeStatus:
		if payload["status"] != messages.StatusTurnComplete {
			log.Printf("📊 Status: %v %v", payload["status"], payload["message"])
		}
	case messages.TypeHistory:
		entries, _ := payload["entries"].([]interface{})
		log.Printf("📜 History (%d lines)", len(entries))
		for _, e := range entries {
			entry, _ := e.(map[string]interface{})
			fmt.Printf("  [%v] %v\n", entry["role"], entry["content"])
		}
	case messages.TypeError:
		log.Printf("❌ Error %v: %v", payload["code"], payload["message"])
	}
}

func closeConn(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
