package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/finchat-ai/finchat/chat"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

func newChatCmd() *cobra.Command {
	var useAgent bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the indexed documents from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			session := chat.NewSession(uuid.NewString())
			var agent *chat.Agent
			if useAgent {
				agent = a.newAgent()
			}

			fmt.Println(noteStyle.Render("Ask about the indexed documents. Ctrl-D or \"exit\" to quit."))
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print(promptStyle.Render("you> "))
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}
				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					continue
				}
				if question == "exit" || question == "quit" {
					return nil
				}

				var answer string
				if agent != nil {
					answer, err = agent.Answer(ctx, question, session.History())
					if err != nil && !errors.Is(err, chat.ErrMaxStepsExceeded) {
						fmt.Println(errorStyle.Render(fmt.Sprintf("error: %v", err)))
						continue
					}
					if errors.Is(err, chat.ErrMaxStepsExceeded) {
						fmt.Println(noteStyle.Render("(answer may be incomplete)"))
					}
					session.Append(chat.Turn{Role: chat.RoleUser, Content: question})
					session.Append(chat.Turn{Role: chat.RoleAssistant, Content: answer})
				} else {
					answer, err = a.pipeline.Ask(ctx, session, question)
					if err != nil {
						fmt.Println(errorStyle.Render(fmt.Sprintf("error: %v", err)))
						continue
					}
				}
				fmt.Println(answerStyle.Render(answer))
			}
		},
	}

	cmd.Flags().BoolVar(&useAgent, "agent", false, "answer through the tool-using agent loop")
	return cmd
}
