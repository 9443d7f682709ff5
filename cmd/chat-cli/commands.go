package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"akasha-chat-be/pkg/apiclient"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *cliApp) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = app.prompt("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = app.prompt("Password: "); err != nil {
					return err
				}
			}

			res, err := app.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := app.saveCredentials(res.AccessToken, res.RefreshToken); err != nil {
				return fmt.Errorf("logged in but could not save the token: %w", err)
			}
			app.printer().info("Signed in as %s", res.User.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account e-mail")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

func newRegisterCmd(app *cliApp) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = app.prompt("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = app.prompt("Password: "); err != nil {
					return err
				}
			}

			if _, err := app.client().Register(cmd.Context(), email, password, name); err != nil {
				return err
			}
			app.printer().info("Account created. Run `chat-cli login` to sign in.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account e-mail")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	return cmd
}

func newLogoutCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token and forget it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.v.GetString("token") != "" {
				// The server logs the user out even on partial failure.
				_ = app.client().Logout(cmd.Context(), app.v.GetString("refresh-token"))
			}
			if err := app.saveCredentials("", ""); err != nil {
				return err
			}
			app.printer().info("Signed out")
			return nil
		},
	}
}

func newChatsCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:     "chats",
		Aliases: []string{"ls"},
		Short:   "List your chats, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := app.authedClient()
			if err != nil {
				return err
			}
			chats, err := c.ListChats(cmd.Context())
			if err != nil {
				return err
			}
			app.printer().chatList(chats)
			return nil
		},
	}
}

func newShowCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "show <chat-id>",
		Short: "Print a whole conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChatID(args[0])
			if err != nil {
				return err
			}
			c, err := app.authedClient()
			if err != nil {
				return err
			}
			chat, err := c.GetChat(cmd.Context(), id)
			if err != nil {
				return err
			}
			app.printer().chat(chat)
			return nil
		},
	}
}

func newNewCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "new <prompt>",
		Short: "Start a chat with a first message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.authedClient()
			if err != nil {
				return err
			}
			chat, err := c.StartChat(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return app.reportSendError(err)
			}
			p := app.printer()
			p.info("Started %q (%s)", chat.Title, chat.Id)
			p.lastReply(chat)
			return nil
		},
	}
}

func newSendCmd(app *cliApp) *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "send <chat-id> [message]",
		Short: "Send a message to a chat, or chat interactively with -i",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChatID(args[0])
			if err != nil {
				return err
			}
			c, err := app.authedClient()
			if err != nil {
				return err
			}

			if interactive || len(args) == 1 {
				return app.converse(cmd, c, id)
			}

			chat, err := c.Send(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return app.reportSendError(err)
			}
			app.printer().lastReply(chat)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "read messages from stdin until EOF")
	return cmd
}

func newRenameCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <chat-id> <title>",
		Short: "Change a chat's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChatID(args[0])
			if err != nil {
				return err
			}
			c, err := app.authedClient()
			if err != nil {
				return err
			}
			chat, err := c.RenameChat(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			app.printer().info("Renamed to %q", chat.Title)
			return nil
		},
	}
}

func newDeleteCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <chat-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a chat and its messages",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChatID(args[0])
			if err != nil {
				return err
			}
			c, err := app.authedClient()
			if err != nil {
				return err
			}
			if err := c.DeleteChat(cmd.Context(), id); err != nil {
				return err
			}
			app.printer().info("Deleted %s", id)
			return nil
		},
	}
}

func newToolsCmd(app *cliApp) *cobra.Command {
	var enable []string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Show or set the tools the assistant may use",
		Example: `  chat-cli tools
  chat-cli tools --enable websearch --enable calculator
  chat-cli tools --enable ""`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := app.authedClient()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("enable") {
				names := make([]string, 0, len(enable))
				for _, name := range enable {
					if name = strings.TrimSpace(name); name != "" {
						names = append(names, strings.ToUpper(name))
					}
				}
				tools, err := c.SetTools(cmd.Context(), names)
				if err != nil {
					return err
				}
				app.printer().tools(tools)
				return nil
			}

			tools, err := c.GetTools(cmd.Context())
			if err != nil {
				return err
			}
			app.printer().tools(tools)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&enable, "enable", nil, "tools to enable; all others are disabled")
	return cmd
}

func newProfileCmd(app *cliApp) *cobra.Command {
	var name, avatar string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := app.authedClient()
			if err != nil {
				return err
			}

			if name == "" && avatar == "" {
				profile, err := c.GetProfile(cmd.Context())
				if err != nil {
					return err
				}
				app.printer().profile(profile)
				return nil
			}

			var upload io.Reader
			if avatar != "" {
				f, err := os.Open(avatar)
				if err != nil {
					return err
				}
				defer f.Close()
				upload = f
			}

			profile, err := c.UpdateProfile(cmd.Context(), name, avatar, upload)
			if err != nil {
				return err
			}
			app.printer().profile(profile)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "path to a new avatar image")
	return cmd
}

// converse reads one message per line and prints each reply. A failed send
// prints the draft so it can be pasted again.
func (a *cliApp) converse(cmd *cobra.Command, c *apiclient.Client, id uuid.UUID) error {
	p := a.printer()
	chat, err := c.GetChat(cmd.Context(), id)
	if err != nil {
		return err
	}
	p.chat(chat)

	scanner := bufio.NewScanner(a.input())
	for {
		fmt.Fprint(a.out, humanLabel.Sprint("> "))
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		chat, err := c.Send(cmd.Context(), id, text)
		if err != nil {
			var apiErr *apiclient.APIError
			if errors.As(err, &apiErr) {
				p.sendFailed(apiErr.Draft, apiErr)
				continue
			}
			return err
		}
		p.lastReply(chat)
	}
}

// reportSendError prints the unsent draft, if the server returned one, and
// hands the error back to cobra.
func (a *cliApp) reportSendError(err error) error {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Draft != "" {
		a.printer().sendFailed(apiErr.Draft, apiErr)
	}
	return err
}

func (a *cliApp) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.input().ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func parseChatID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%q is not a chat id", s)
	}
	return id, nil
}
