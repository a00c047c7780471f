package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"venue-crm/internal/notify"
)

// InboundHandler receives the sender phone (with a leading +) and text of an incoming message.
type InboundHandler func(ctx context.Context, phone, text string) error

type Config struct {
	DataDir string
}

// client is the part of whatsmeow.Client used for sending.
type client interface {
	IsOnWhatsApp(ctx context.Context, phones []string) ([]types.IsOnWhatsAppResponse, error)
	SendMessage(ctx context.Context, to types.JID, message *waE2E.Message, extra ...whatsmeow.SendRequestExtra) (whatsmeow.SendResponse, error)
}

type Service struct {
	wa      *whatsmeow.Client
	client  client
	log     zerolog.Logger
	inbound InboundHandler
}

// NewService opens the device store under cfg.DataDir and creates a WhatsApp client
func NewService(ctx context.Context, cfg *Config, log zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(cfg.DataDir, "whatsmeow.db"))
	// Use nil logger - sqlstore will use a no-op logger by default
	container, err := sqlstore.New(ctx, "sqlite3", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	wa := whatsmeow.NewClient(deviceStore, nil)

	service := &Service{
		wa:     wa,
		client: wa,
		log:    log.With().Str("component", "WhatsApp").Logger(),
	}

	// Register event handlers
	wa.AddEventHandler(func(evt interface{}) {
		service.eventHandler(evt)
	})

	return service, nil
}

// NormalizePhoneNumber strips formatting and returns the digits WhatsApp expects.
// Israeli local numbers (05XXXXXXXX) are converted to the 972 country code.
func NormalizePhoneNumber(phoneNumber string) string {
	var b strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phoneNumber = b.String()

	if strings.HasPrefix(phoneNumber, "0") && len(phoneNumber) == 10 {
		phoneNumber = "972" + phoneNumber[1:]
	}

	// 9720... is a local number with the country code prepended
	if strings.HasPrefix(phoneNumber, "9720") {
		phoneNumber = "972" + phoneNumber[4:]
	}

	return phoneNumber
}

// Connect connects to WhatsApp, printing a pairing QR code on first use
func (s *Service) Connect(ctx context.Context) error {
	if s.wa.Store.ID != nil {
		if err := s.wa.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.wa.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.wa.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("Login event")
			continue
		}
		q, err := qrcode.New(evt.Code, qrcode.Medium)
		if err != nil {
			s.log.Warn().Err(err).Str("code", evt.Code).Msg("Could not render QR code, pair with the raw code")
			continue
		}
		fmt.Println("\n" + q.ToSmallString(false))
		s.log.Info().Msg("Scan the QR code above in WhatsApp under Settings > Linked Devices")
	}
	return nil
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.wa.Disconnect()
}

// Notify sends n.Text to n.Phone if the number is registered on WhatsApp
func (s *Service) Notify(ctx context.Context, n notify.Notification) error {
	if n.Phone == "" {
		return notify.ErrNoRecipient
	}
	phoneNumber := NormalizePhoneNumber(n.Phone)

	// Verify the number is on WhatsApp before sending
	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + phoneNumber})
	if err != nil {
		return fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("number %s is not registered on WhatsApp", phoneNumber)
	}

	jid := resp[0].JID
	s.log.Debug().Str("jid", jid.String()).Str("phone", phoneNumber).Msg("Sending message")

	text := n.Text
	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &text,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", jid.String(), err)
	}

	s.log.Info().Str("id", string(sent.ID)).Str("jid", jid.String()).Msg("Message sent")
	return nil
}

// SetInboundHandler sets the handler for incoming messages
func (s *Service) SetInboundHandler(handler InboundHandler) {
	s.inbound = handler
}

// eventHandler handles incoming WhatsApp events
func (s *Service) eventHandler(evt interface{}) {
	switch evt := evt.(type) {
	case *events.Message:
		s.handleMessage(context.Background(), evt)
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Info().Msg("Logged out from WhatsApp")
	}
}

// handleMessage forwards text messages from other users to the inbound handler
func (s *Service) handleMessage(ctx context.Context, msg *events.Message) {
	if msg.Info.IsFromMe || msg.Message == nil {
		return
	}

	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return
	}

	phone := "+" + msg.Info.Sender.User
	if s.inbound == nil {
		s.log.Info().Str("sender", phone).Str("message", text).Msg("Received message")
		return
	}
	if err := s.inbound(ctx, phone, text); err != nil {
		s.log.Error().Err(err).Str("sender", phone).Msg("Error handling message")
	}
}
