package main

import (
	"fmt"
	"io"
	"strings"

	"akasha-chat-be/internal/dto"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

const wordWrap = 88

var (
	humanLabel = color.New(color.FgCyan, color.Bold)
	aiLabel    = color.New(color.FgGreen, color.Bold)
	dimText    = color.New(color.Faint)
	warnText   = color.New(color.FgYellow)
)

// printer writes chats to the terminal. AI replies are markdown and go
// through glamour unless plain output was asked for.
type printer struct {
	out      io.Writer
	markdown *glamour.TermRenderer
}

func newPrinter(out io.Writer, plain bool) *printer {
	p := &printer{out: out}
	if !plain {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrap),
		)
		if err == nil {
			p.markdown = r
		}
	}
	return p
}

func (p *printer) chatList(chats []*dto.ChatResponse) {
	if len(chats) == 0 {
		fmt.Fprintln(p.out, dimText.Sprint("No chats yet. Start one with `chat-cli new \"...\"`."))
		return
	}
	for _, c := range chats {
		status := ""
		if c.Sending {
			status = warnText.Sprint(" (waiting for reply)")
		}
		fmt.Fprintf(p.out, "%s  %s%s\n", dimText.Sprint(c.Id.String()), color.New(color.Bold).Sprint(c.Title), status)
		fmt.Fprintf(p.out, "    %s\n", c.Preview)
	}
}

func (p *printer) chat(c *dto.ChatResponse) {
	fmt.Fprintf(p.out, "%s %s\n\n", color.New(color.Bold, color.Underline).Sprint(c.Title), dimText.Sprint(c.Id.String()))
	for _, m := range c.Messages {
		p.message(m)
	}
	if c.Sending {
		fmt.Fprintln(p.out, warnText.Sprint("… waiting for the assistant"))
	}
}

func (p *printer) message(m dto.MessageResponse) {
	if isHuman(m) {
		fmt.Fprintf(p.out, "%s %s\n\n", humanLabel.Sprint("You:"), m.Content)
		return
	}
	fmt.Fprintln(p.out, aiLabel.Sprint("Assistant:"))
	fmt.Fprintln(p.out, p.renderMarkdown(m.Content))
}

// lastReply prints only the newest AI message, used after a send.
func (p *printer) lastReply(c *dto.ChatResponse) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if !isHuman(c.Messages[i]) {
			p.message(c.Messages[i])
			return
		}
	}
}

func (p *printer) renderMarkdown(src string) string {
	if p.markdown == nil {
		return src + "\n"
	}
	out, err := p.markdown.Render(src)
	if err != nil {
		return src + "\n"
	}
	return strings.TrimRight(out, "\n") + "\n"
}

func (p *printer) sendFailed(draft string, err error) {
	fmt.Fprintln(p.out, color.RedString("Message not sent: %v", err))
	if draft != "" {
		fmt.Fprintf(p.out, "%s %s\n", warnText.Sprint("Your message:"), draft)
	}
}

func (p *printer) profile(u *dto.UserProfileResponse) {
	fmt.Fprintf(p.out, "%s %s\n", color.New(color.Bold).Sprint(u.DisplayName), dimText.Sprint("<"+u.Email+">"))
	if u.AvatarURL != "" {
		fmt.Fprintf(p.out, "avatar: %s\n", u.AvatarURL)
	}
}

func (p *printer) tools(t *dto.ToolSettingsResponse) {
	enabled := make(map[string]bool, len(t.Enabled))
	for _, name := range t.Enabled {
		enabled[name] = true
	}
	for _, name := range t.Available {
		mark := dimText.Sprint("[ ]")
		if enabled[name] {
			mark = aiLabel.Sprint("[x]")
		}
		fmt.Fprintf(p.out, "%s %s\n", mark, name)
	}
}

func (p *printer) info(format string, args ...interface{}) {
	fmt.Fprintln(p.out, color.GreenString(format, args...))
}

func isHuman(m dto.MessageResponse) bool {
	return strings.EqualFold(m.Role, "human")
}
