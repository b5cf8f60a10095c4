package model

import "time"

// Chat is a two-party channel. Its document id is the canonical key of the
// participant pair, so a pair of users can never own more than one chat.
type Chat struct {
	ID           string    `firestore:"-" json:"id"`
	Participants []string  `firestore:"participants" json:"participants"`
	LastMessage  string    `firestore:"lastMessage" json:"lastMessage"`
	CreatedAt    time.Time `firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

// Other returns the participant that is not uid, or "" if uid is not a member.
func (c *Chat) Other(uid string) string {
	for _, p := range c.Participants {
		if p != uid {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether uid is one of the chat's members.
func (c *Chat) HasParticipant(uid string) bool {
	for _, p := range c.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

func (Chat) Collection() string {
	return "chats"
}
