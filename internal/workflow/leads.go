package workflow

import (
	"context"
	"strings"

	"venue-crm/internal/apperror"
	"venue-crm/internal/models"
	"venue-crm/internal/notify"
)

// Lead sources.
const (
	SourcePricingGuide = "pricing-guide"
	SourceTourRequest  = "tour-request"
)

const defaultLeadName = "Guest"

type InquiryInput struct {
	Name  string
	Phone string
	Email string
}

// SimulateInquiry records a pricing-guide request as a new lead and sends the guide.
func (e *Engine) SimulateInquiry(ctx context.Context, in InquiryInput) (models.Lead, error) {
	lead, err := e.simulateInquiry(in)
	e.metrics.Transition("simulate_inquiry", err)
	if err != nil {
		return models.Lead{}, err
	}

	e.log.Info().Str("lead_id", lead.ID).Str("phone", lead.Phone).Msg("Lead created from inquiry")
	e.send(ctx, notify.Notification{
		Name:    lead.Name,
		Phone:   lead.Phone,
		Email:   lead.Email,
		Subject: "Pricing guide from " + e.opts.VenueName,
		Text:    pricingGuideText(lead.Name, e.opts.VenueName),
	})
	return lead, nil
}

func (e *Engine) simulateInquiry(in InquiryInput) (models.Lead, error) {
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		phone = e.opts.DemoPhone
	}
	if phone == "" {
		return models.Lead{}, apperror.Validation("phone is required")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = defaultLeadName
	}

	lead := models.NewLead(e.newID("lead"), name, phone, strings.TrimSpace(in.Email),
		SourcePricingGuide, models.LeadNew, e.now())

	err := e.store.Mutate(func(s *models.State) error {
		s.Leads = append([]models.Lead{lead}, s.Leads...)
		s.Messages = append(s.Messages, e.outbound(phone, pricingGuideText(name, e.opts.VenueName)))
		return nil
	})
	if err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

// RecordInbound appends a message received from phone to the conversation log.
func (e *Engine) RecordInbound(_ context.Context, phone, text string) (models.Message, error) {
	msg, err := e.recordInbound(strings.TrimSpace(phone), strings.TrimSpace(text))
	e.metrics.Transition("record_inbound", err)
	if err != nil {
		return models.Message{}, err
	}

	e.log.Info().Str("phone", msg.Phone).Msg("Inbound message recorded")
	return msg, nil
}

func (e *Engine) recordInbound(phone, text string) (models.Message, error) {
	if phone == "" {
		return models.Message{}, apperror.Validation("phone is required")
	}
	if text == "" {
		return models.Message{}, apperror.Validation("text is required")
	}

	msg := models.Message{
		ID:        e.newID("msg"),
		Phone:     phone,
		Direction: models.DirectionIn,
		Text:      text,
		Timestamp: e.now(),
	}
	err := e.store.Mutate(func(s *models.State) error {
		s.Messages = append(s.Messages, msg)
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}
