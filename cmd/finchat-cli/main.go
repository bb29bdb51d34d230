// Command finchat-cli is a small terminal client for the finchat service.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

var (
	addr     = flag.String("addr", "http://localhost:8080", "finchat server address")
	username = flag.String("user", "", "username to log in as")
	password = flag.String("password", "", "password (falls back to FINCHAT_PASSWORD)")
	backend  = flag.String("backend", "groq", "generation backend: groq|gpt-3.5|gpt-4o")
	signup   = flag.Bool("signup", false, "create the account before logging in")
)

type turn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

func main() {
	_ = godotenv.Load()
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "usage: finchat-cli -user <name> [-signup]")
		os.Exit(2)
	}
	pwd := *password
	if pwd == "" {
		pwd = os.Getenv("FINCHAT_PASSWORD")
	}
	if pwd == "" {
		fmt.Fprintln(os.Stderr, "no password given (-password or FINCHAT_PASSWORD)")
		os.Exit(2)
	}

	client := &http.Client{Timeout: 2 * time.Minute}

	if *signup {
		if err := postAuth(client, *addr+"/v1/auth/signup", *username, pwd); err != nil {
			fmt.Fprintf(os.Stderr, "signup failed: %v\n", err)
			os.Exit(1)
		}
	}

	token, err := login(client, *addr, *username, pwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Println(boldGreen("finchat"))
	fmt.Printf("Logged in as %s, backend %s\n", boldCyan(*username), boldCyan(*backend))
	fmt.Println("Ask a question, or use /history, /clear, /backend <name>, exit.")
	fmt.Println()

	selected := *backend
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "exit"):
			return
		case line == "/history":
			showHistory(client, *addr, token, yellow)
			continue
		case line == "/clear":
			if err := postJSON(client, *addr+"/v1/chat/history/clear", token, nil, nil); err != nil {
				fmt.Fprintf(os.Stderr, "clear failed: %v\n", err)
				continue
			}
			fmt.Println(yellow("History cleared."))
			continue
		case strings.HasPrefix(line, "/backend "):
			selected = strings.TrimSpace(strings.TrimPrefix(line, "/backend "))
			fmt.Printf("Backend set to %s\n", boldCyan(selected))
			continue
		}

		var out struct {
			Answer string `json:"answer"`
		}
		req := map[string]string{"query": line, "backend": selected}
		if err := postJSON(client, *addr+"/v1/chat/query", token, req, &out); err != nil {
			fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
			continue
		}
		fmt.Printf("%s%s\n\n", boldCyan("Assistant: "), out.Answer)
	}
}

func login(client *http.Client, addr, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"username": username, "password": password}
	if err := postJSON(client, addr+"/v1/auth/login", "", payload, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("server returned no token")
	}
	return out.Token, nil
}

func postAuth(client *http.Client, url, username, password string) error {
	return postJSON(client, url, "", map[string]string{
		"username": username, "password": password,
	}, nil)
}

func showHistory(client *http.Client, addr, token string, highlight func(...any) string) {
	req, err := http.NewRequest(http.MethodGet, addr+"/v1/chat/history", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history failed: %v\n", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history failed: %v\n", err)
		return
	}
	defer res.Body.Close()

	var out struct {
		History []turn `json:"history"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "history decode failed: %v\n", err)
		return
	}
	if len(out.History) == 0 {
		fmt.Println(highlight("No chat history available."))
		return
	}
	for _, t := range out.History {
		fmt.Printf("%s %s\n", highlight("Query:"), t.Query)
		fmt.Printf("%s %s\n---\n", highlight("Response:"), t.Response)
	}
}

func postJSON(client *http.Client, url, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		if err := json.Unmarshal(detail, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}
