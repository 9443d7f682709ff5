package mailer

import (
	"bytes"
	"errors"
	"testing"

	"akasha-chat-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, m...)
	return nil
}

func TestSendWelcome(t *testing.T) {
	sender := &captureSender{}
	svc := NewEmailServiceWithSender(sender, "noreply@akasha.test", "https://app.akasha.test", logger.NewNopLogger())

	require.NoError(t, svc.SendWelcome("jane@example.com", "Jane <Doe>"))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"jane@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Welcome to Akasha"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Jane &lt;Doe&gt;")
}

func TestSendWelcome_Failure(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	svc := NewEmailServiceWithSender(sender, "noreply@akasha.test", "", logger.NewNopLogger())

	assert.Error(t, svc.SendWelcome("jane@example.com", "Jane"))
}
