package mail

import (
	"bytes"
	"testing"

	gomail "github.com/wneessen/go-mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabinetctl/cabinet/store"
)

func seedStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.OpenJSON(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put("smtp.example.com", "email", "smtp_server"))
	require.NoError(t, s.Put(465, "email", "port"))
	require.NoError(t, s.Put("cab@example.com", "email", "from"))
	require.NoError(t, s.Put("hunter2", "email", "from_pw"))
	require.NoError(t, s.Put([]any{"me@example.com"}, "email", "to"))
	return s
}

func TestSettingsFromStore(t *testing.T) {
	set, err := SettingsFromStore(seedStore(t))
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", set.Server)
	assert.Equal(t, 465, set.Port)
	assert.Equal(t, "cab@example.com", set.From)
	assert.Equal(t, "hunter2", set.Password)
	assert.Equal(t, []string{"me@example.com"}, set.To)
}

func TestSettingsFromStore_MissingServer(t *testing.T) {
	s, err := store.OpenJSON(t.TempDir())
	require.NoError(t, err)

	_, err = SettingsFromStore(s)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSender_SendBuildsMessage(t *testing.T) {
	sender, err := NewSender(seedStore(t), nil)
	require.NoError(t, err)

	var captured *gomail.Msg
	sender.transport = func(m *gomail.Msg) error {
		captured = m
		return nil
	}

	require.NoError(t, sender.Send("Backup finished", "All <b>good</b>.", nil))
	require.NotNil(t, captured)

	var buf bytes.Buffer
	_, err = captured.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "Subject: Backup finished")
	assert.Contains(t, raw, "me@example.com")
	assert.Contains(t, raw, "cab@example.com")
	// Default sender name and signature.
	assert.Contains(t, raw, "Raspberry Pi")
}

func TestSender_ExplicitRecipientsWin(t *testing.T) {
	sender, err := NewSender(seedStore(t), nil)
	require.NoError(t, err)

	var captured *gomail.Msg
	sender.transport = func(m *gomail.Msg) error {
		captured = m
		return nil
	}

	require.NoError(t, sender.Send("hi", "body", []string{"other@example.com"}))

	var buf bytes.Buffer
	_, err = captured.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "other@example.com")
	assert.NotContains(t, buf.String(), "me@example.com")
}

func TestSender_NoRecipients(t *testing.T) {
	s, err := store.OpenJSON(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Put("smtp.example.com", "email", "smtp_server"))
	require.NoError(t, s.Put(465, "email", "port"))
	require.NoError(t, s.Put("cab@example.com", "email", "from"))

	sender, err := NewSender(s, nil)
	require.NoError(t, err)
	sender.transport = func(m *gomail.Msg) error { return nil }

	err = sender.Send("hi", "body", nil)
	assert.EqualError(t, err, "email -> to is unset")
}

func TestSender_TransportErrorPropagates(t *testing.T) {
	sender, err := NewSender(seedStore(t), nil)
	require.NoError(t, err)

	sendErr := assert.AnError
	sender.transport = func(m *gomail.Msg) error { return sendErr }

	assert.ErrorIs(t, sender.Send("hi", "body", nil), sendErr)
}
