package model

type Category struct {
	ID          string `firestore:"-" json:"id"`
	Name        string `firestore:"name" json:"name"`
	Icon        string `firestore:"icon" json:"icon"`
	Description string `firestore:"description" json:"description"`
}

func (Category) Collection() string {
	return "categories"
}
