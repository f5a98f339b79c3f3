package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"feedback-go/internal/feedback"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// secretEnv supplies the secret in scripts, where there is no terminal to prompt on.
const secretEnv = "FEEDBACK_SECRET"

// readSecret returns the secret for username. An empty username means the
// caller acts anonymously and no secret is asked for.
func readSecret(username string) (string, error) {
	if username == "" {
		return "", nil
	}
	if s := os.Getenv(secretEnv); s != "" {
		return s, nil
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "Secret for %s: ", username)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return string(b), nil
	}
	return readLine(os.Stdin)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// printView writes a human-readable inbox view to w.
func printView(w io.Writer, v *feedback.InboxView, now time.Time) {
	state := "active"
	if v.Inbox.IsExpired(now) {
		state = "expired"
	}
	sig := "optional"
	if v.Inbox.RequiresSignature() {
		sig = "required"
	}
	fmt.Fprintf(w, "%s  %q\n", v.Inbox.ID(), v.Inbox.Topic())
	fmt.Fprintf(w, "  expires %s (%s), signature %s\n", v.Inbox.ExpiresAt().Format(time.RFC3339), state, sig)

	if !v.IsOwnerView() {
		return
	}
	fmt.Fprintf(w, "  owner %s, %d message(s)\n", v.Inbox.OwnerSignature(), len(v.Messages))
	for _, m := range v.Messages {
		fmt.Fprintf(w, "  %s  %-22s %s\n", m.Timestamp.Format("2006-01-02 15:04:05"), signatureLabel(m), m.Body)
	}
}

func signatureLabel(m feedback.Message) string {
	if !m.IsSigned() {
		return "(anonymous)"
	}
	return m.Signature
}

// inbox command
var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Work with inboxes directly against the database",
}

var inboxCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an inbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		username, _ := cmd.Flags().GetString("username")
		hours, _ := cmd.Flags().GetInt("hours")
		anonymousOK, _ := cmd.Flags().GetBool("anonymous-ok")

		secret, err := readSecret(username)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.CreateInbox(context.Background(), topic, username, secret, !anonymousOK, hours)
		if err != nil {
			return fmt.Errorf("creating inbox: %w", err)
		}
		printView(os.Stdout, v, a.Now())
		return nil
	},
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inboxes",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		scope, _ := cmd.Flags().GetString("scope")

		secret, err := readSecret(username)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		views, err := a.ListInboxes(context.Background(), username, secret, scope)
		if err != nil {
			return err
		}
		if len(views) == 0 {
			fmt.Println("No inboxes.")
			return nil
		}
		for _, v := range views {
			printView(os.Stdout, v, a.Now())
		}
		return nil
	},
}

var inboxShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show an inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")

		secret, err := readSecret(username)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.ReadInbox(context.Background(), args[0], username, secret)
		if err != nil {
			return err
		}
		printView(os.Stdout, v, a.Now())
		return nil
	},
}

var inboxPostCmd = &cobra.Command{
	Use:   "post ID",
	Short: "Post a message to an inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, _ := cmd.Flags().GetString("body")
		username, _ := cmd.Flags().GetString("username")

		secret, err := readSecret(username)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := a.PostMessage(context.Background(), args[0], body, username, secret)
		if err != nil {
			return fmt.Errorf("posting message: %w", err)
		}
		fmt.Printf("Posted at %s as %s\n", msg.Timestamp.Format(time.RFC3339), signatureLabel(msg))
		return nil
	},
}

var inboxEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change the topic of an empty inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		username, _ := cmd.Flags().GetString("username")

		secret, err := readSecret(username)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.EditInboxTopic(context.Background(), args[0], topic, username, secret)
		if err != nil {
			return fmt.Errorf("editing topic: %w", err)
		}
		printView(os.Stdout, v, a.Now())
		return nil
	},
}

func init() {
	inboxCmd.AddCommand(inboxCreateCmd)
	inboxCreateCmd.Flags().StringP("topic", "t", "", "Inbox topic")
	inboxCreateCmd.Flags().StringP("username", "u", "", "Owner username")
	inboxCreateCmd.Flags().Int("hours", 0, "Hours until the inbox expires (default from config)")
	inboxCreateCmd.Flags().Bool("anonymous-ok", false, "Accept unsigned messages")
	inboxCreateCmd.MarkFlagRequired("topic")
	inboxCreateCmd.MarkFlagRequired("username")

	inboxCmd.AddCommand(inboxListCmd)
	inboxListCmd.Flags().StringP("username", "u", "", "List as this user")
	inboxListCmd.Flags().String("scope", "", "owned or all")

	inboxCmd.AddCommand(inboxShowCmd)
	inboxShowCmd.Flags().StringP("username", "u", "", "Read as this user")

	inboxCmd.AddCommand(inboxPostCmd)
	inboxPostCmd.Flags().StringP("body", "b", "", "Message body")
	inboxPostCmd.Flags().StringP("username", "u", "", "Sign as this user")
	inboxPostCmd.MarkFlagRequired("body")

	inboxCmd.AddCommand(inboxEditCmd)
	inboxEditCmd.Flags().StringP("topic", "t", "", "New topic")
	inboxEditCmd.Flags().StringP("username", "u", "", "Owner username")
	inboxEditCmd.MarkFlagRequired("topic")
	inboxEditCmd.MarkFlagRequired("username")
}
