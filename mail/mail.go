// Package mail sends email over SMTP using credentials kept in the
// key-path store under "email". A throwaway account is recommended;
// Gmail will almost certainly not work.
package mail

import (
	"errors"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/cabinetctl/cabinet/logbook"
	"github.com/cabinetctl/cabinet/store"
)

const defaultFromName = "Raspberry Pi"

type Settings struct {
	Server   string
	Port     int
	From     string
	Password string
	FromName string
	To       []string
}

// SettingsFromStore reads email -> smtp_server/port/from/from_pw/from_name/to.
func SettingsFromStore(s store.Store) (Settings, error) {
	var set Settings

	server, err := s.Get("email", "smtp_server")
	if err != nil {
		return set, fmt.Errorf("email -> smtp_server is unset: %w", err)
	}
	set.Server, _ = server.(string)

	port, err := s.Get("email", "port")
	if err != nil {
		return set, fmt.Errorf("email -> port is unset: %w", err)
	}
	set.Port = toInt(port)

	from, err := s.Get("email", "from")
	if err != nil {
		return set, fmt.Errorf("email -> from is unset: %w", err)
	}
	set.From, _ = from.(string)

	if pw, err := s.Get("email", "from_pw"); err == nil {
		set.Password, _ = pw.(string)
	}
	if name, err := s.Get("email", "from_name"); err == nil {
		set.FromName, _ = name.(string)
	}
	if to, err := s.Get("email", "to"); err == nil {
		set.To = toStrings(to)
	}
	return set, nil
}

type Sender struct {
	settings Settings
	log      *logbook.Writer

	// transport is swapped out in tests.
	transport func(*gomail.Msg) error
}

func NewSender(s store.Store, log *logbook.Writer) (*Sender, error) {
	settings, err := SettingsFromStore(s)
	if err != nil {
		return nil, err
	}
	return &Sender{settings: settings, log: log}, nil
}

// Send delivers an HTML mail with the default signature appended. The "to"
// list falls back to email -> to from the store. Delivery and auth failures
// are logged and returned.
func (s *Sender) Send(subject, body string, to []string) error {
	if len(to) == 0 {
		to = s.settings.To
	}
	if len(to) == 0 {
		err := errors.New("email -> to is unset")
		s.logError(err)
		return err
	}

	fromName := s.settings.FromName
	if fromName == "" {
		fromName = defaultFromName
	}
	body += fmt.Sprintf("<br><br>Thanks,<br>%s", fromName)

	msg := gomail.NewMsg()
	if err := msg.FromFormat(fromName, s.settings.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)

	if err := s.deliver(msg); err != nil {
		s.logError(fmt.Errorf("could not log into %s: %w", s.settings.From, err))
		return err
	}

	if s.log != nil {
		s.log.Write(
			fmt.Sprintf("Sent Email to %v as %s: %s", to, s.settings.From, subject),
			logbook.WriteOptions{Tags: []string{"mail"}},
		)
	}
	return nil
}

func (s *Sender) deliver(msg *gomail.Msg) error {
	if s.transport != nil {
		return s.transport(msg)
	}

	client, err := gomail.NewClient(s.settings.Server,
		gomail.WithPort(s.settings.Port),
		gomail.WithSSL(),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.settings.From),
		gomail.WithPassword(s.settings.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSend(msg)
}

func (s *Sender) logError(err error) {
	if s.log == nil {
		return
	}
	s.log.Write(err.Error(), logbook.WriteOptions{Level: logbook.ERROR, Tags: []string{"mail"}})
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
