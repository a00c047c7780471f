package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Twilio sends notifications as SMS.
type Twilio struct {
	api  messageCreator
	from string
}

func NewTwilio(accountSID, authToken, fromPhone string) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Twilio{api: client.Api, from: fromPhone}
}

func (t *Twilio) Notify(_ context.Context, n Notification) error {
	if n.Phone == "" {
		return ErrNoRecipient
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.Phone)
	params.SetFrom(t.from)
	params.SetBody(n.Text)

	if _, err := t.api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send to %s: %w", n.Phone, err)
	}
	return nil
}
