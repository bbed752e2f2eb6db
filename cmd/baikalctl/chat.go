package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baikal-ai/baikalctl/internal/archive"
	"github.com/baikal-ai/baikalctl/internal/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the platform assistant",
	Long: `Chat with the platform assistant.

Inside the session:
  /regen   regenerate the last assistant reply
  /clear   start over with an empty conversation
  /quit    leave the chat

With --archive the transcript is saved locally when you leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		saveTranscript, _ := cmd.Flags().GetBool("archive")

		c, err := newConsole()
		if err != nil {
			return err
		}
		if !c.sessions.IsAuthenticated() {
			printWarning("Not logged in. Run 'baikalctl login' first.")
			return nil
		}

		session := chat.NewSession(c.assistant, nil)
		if err := runChatLoop(cmd, session); err != nil {
			return err
		}

		if !saveTranscript || session.Len() == 0 {
			return nil
		}
		store, err := archive.Open(c.cfg.Archive.DataDir)
		if err != nil {
			return fmt.Errorf("opening transcript archive: %w", err)
		}
		defer store.Close()

		id, err := store.Save(session.Messages())
		if err != nil {
			return fmt.Errorf("saving transcript: %w", err)
		}
		printSuccess("Transcript saved as %s", shortID(id))
		return nil
	},
}

func runChatLoop(cmd *cobra.Command, session *chat.Session) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprintln(os.Stderr, "Chatting with the Baikal assistant. /quit to leave.")

	for {
		fmt.Fprint(os.Stderr, colorize(colorBold, "you> "))
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		switch input {
		case "/quit", "/q":
			return nil
		case "/clear":
			session.Clear()
			printStep("Conversation cleared")
			continue
		case "/regen":
			messages := session.Messages()
			if len(messages) == 0 || messages[len(messages)-1].Role != chat.RoleAssistant {
				printWarning("Nothing to regenerate yet")
				continue
			}
			if err := session.Regenerate(cmd.Context(), len(messages)-1); err != nil {
				printError("%v", err)
				continue
			}
			printAssistantTurn(session)
			continue
		case "":
			continue
		}

		if err := session.Send(cmd.Context(), input); err != nil {
			printError("%v", err)
			continue
		}
		printAssistantTurn(session)
	}
}

func printAssistantTurn(session *chat.Session) {
	messages := session.Messages()
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Role != chat.RoleAssistant {
		return
	}
	fmt.Printf("%s %s\n", colorize(colorCyan, "assistant>"), last.Content)
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived chat transcripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		c, err := newConsole()
		if err != nil {
			return err
		}
		store, err := archive.Open(c.cfg.Archive.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		transcripts, err := store.List(limit)
		if err != nil {
			return err
		}
		if len(transcripts) == 0 {
			fmt.Println("No archived transcripts.")
			return nil
		}
		for _, tr := range transcripts {
			fmt.Printf("%s  %s  %d messages\n",
				colorize(colorCyan, shortID(tr.ID)),
				tr.SavedAt.Format("2006-01-02 15:04"),
				tr.MessageCount,
			)
		}
		return nil
	},
}

var chatShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Replay an archived transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newConsole()
		if err != nil {
			return err
		}
		store, err := archive.Open(c.cfg.Archive.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		messages, err := store.Messages(args[0])
		if err != nil {
			return err
		}
		for _, m := range messages {
			label := "you>"
			color := colorBold
			if m.Role == chat.RoleAssistant {
				label = "assistant>"
				color = colorCyan
			}
			fmt.Printf("%s %s\n", colorize(color, label), m.Content)
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().Bool("archive", false, "save the transcript locally on exit")
	chatHistoryCmd.Flags().Int("limit", 20, "maximum transcripts to list")

	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatShowCmd)
}
