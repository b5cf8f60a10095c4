package model

import "time"

// Message lives in the messages subcollection of exactly one chat. SentAt is
// assigned by the store and is the sole ordering key of the log.
type Message struct {
	ID        string    `firestore:"-" json:"id"`
	SenderUID string    `firestore:"senderId" json:"senderId"`
	Text      string    `firestore:"text" json:"text"`
	SentAt    time.Time `firestore:"timestamp,serverTimestamp" json:"timestamp"`
}

func (Message) Collection() string {
	return "messages"
}
