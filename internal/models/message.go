package models

import "time"

// Message is an entry in the append-only conversation log
type Message struct {
	ID        string           `json:"id"`
	Phone     string           `json:"phone"`
	Direction MessageDirection `json:"direction"`
	Text      string           `json:"text"`
	Timestamp time.Time        `json:"timestamp"`
}

type MessageDirection string

const (
	DirectionIn  MessageDirection = "in"
	DirectionOut MessageDirection = "out"
)
