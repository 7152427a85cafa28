// Package chat holds the conversation display model and the adapter that
// maps caller-supplied messages into it.
package chat

import "time"

// IncomingMessage is the caller-facing message shape: who said what.
type IncomingMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// User identifies a conversation participant in the front end's wire model.
type User struct {
	ID   string `json:"id"`
	Name string `json:"nome"`
}

// Message is the renderer's internal display model for one chat bubble.
// JSON field names follow the chat front end's wire contract, so an adapted
// message can be injected into the page as-is.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"texto"`
	User      User      `json:"usuario"`
	Timestamp time.Time `json:"timestamp"`
	IsMine    bool      `json:"isMine"`
}

// Coordinate is the measured on-screen geometry and metadata of one rendered
// bubble, relative to the chat container's origin. The downstream overlay
// stage consumes y and height to time narration against message reveal.
type Coordinate struct {
	Index  int    `json:"index"`
	Y      int    `json:"y"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	IsMine bool   `json:"isMine"`
}
