package model

// UserProfile is the public projection of a member, keyed by auth uid in the
// users collection. Created on sign-up and lazily on first profile visit.
type UserProfile struct {
	UID       string `firestore:"-" json:"uid"`
	Name      string `firestore:"name" json:"name"`
	Email     string `firestore:"email" json:"email"`
	Phone     string `firestore:"phone" json:"phone"`
	Bio       string `firestore:"bio" json:"bio"`
	AvatarURL string `firestore:"avatar" json:"avatar"`
	CreatedAt string `firestore:"createdAt" json:"createdAt"`
}

func (UserProfile) Collection() string {
	return "users"
}
