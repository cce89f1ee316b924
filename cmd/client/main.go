package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"http://localhost:3001"`
	Room      string `envconfig:"CHAT_ROOM" default:"general"`
	Email     string `envconfig:"CHAT_EMAIL" required:"true"`
	Name      string `envconfig:"CHAT_NAME" required:"true"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run registers against the relay, opens the websocket session, joins
// the configured room and relays stdin lines as messages.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, userID, err := register(config)
	if err != nil {
		return exitRuntime, fmt.Errorf("registration failed: %w", err)
	}
	log.Info("Registered", "user_id", userID)

	wsURL := strings.Replace(config.ServerURL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", wsURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	if err := send(conn, "identify", map[string]any{"token": token}); err != nil {
		return exitRuntime, err
	}
	if err := send(conn, "join_room", map[string]any{"room": config.Room}); err != nil {
		return exitRuntime, err
	}

	color.Greenln(fmt.Sprintf(">>> Connected! Room %q (Ctrl+C to quit, /users for the directory)", config.Room))

	go readLoop(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return exitOK, nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/users":
			if err := printUsers(config.ServerURL); err != nil {
				color.Redln(fmt.Sprintf("directory error: %v", err))
			}
		default:
			err := send(conn, "send_message", map[string]any{
				"room":    config.Room,
				"content": line,
				"type":    "text",
			})
			if err != nil {
				return exitRuntime, err
			}
		}
	}
	return exitOK, nil
}

func readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		printFrame(f)
	}
}

func printFrame(f frame) {
	switch f.Type {
	case "receive_message":
		var msg struct {
			SenderName string    `json:"senderName"`
			Content    string    `json:"content"`
			CreatedAt  time.Time `json:"timestamp"`
		}
		if json.Unmarshal(f.Payload, &msg) == nil {
			header := color.New(color.FgCyan).Render(fmt.Sprintf("[%s] %s:",
				msg.CreatedAt.Format(time.TimeOnly), msg.SenderName))
			fmt.Printf("%s %s\n", header, msg.Content)
		}
	case "dm":
		var msg struct {
			From    string `json:"from"`
			Content string `json:"content"`
		}
		if json.Unmarshal(f.Payload, &msg) == nil {
			color.Magentaln(fmt.Sprintf("(dm) %s: %s", msg.From, msg.Content))
		}
	case "dm_error", "error":
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(f.Payload, &e) == nil {
			color.Redln(e.Message)
		}
	case "connection_update":
		color.Yellowln(string(f.Payload))
	}
}

func send(conn *websocket.Conn, eventType string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(frame{Type: eventType, Payload: data})
}

func register(config Config) (token, userID string, err error) {
	body, _ := json.Marshal(map[string]string{"email": config.Email, "name": config.Name})
	resp, err := http.Post(config.ServerURL+"/api/register", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("register returned %s", resp.Status)
	}

	var out struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", err
	}
	return out.Token, out.User.ID, nil
}

// printUsers renders the public directory as a table.
func printUsers(serverURL string) error {
	resp, err := http.Get(serverURL + "/api/users")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var users []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Hub  string `json:"hub"`
		Bio  string `json:"bio"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Hub", "Bio"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, u := range users {
		table.Append([]string{u.ID, u.Name, u.Hub, u.Bio})
	}
	table.Render()
	return nil
}
