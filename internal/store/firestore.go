package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qolda/qolda-backend/internal/model"
)

// firestoreStore adapts Cloud Firestore to the Store contract. Live
// subscriptions are backed by query snapshot listeners; message timestamps
// are assigned server-side via the serverTimestamp sentinel.
type firestoreStore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) Store {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) Chats() ChatRepository         { return &firestoreChats{client: s.client} }
func (s *firestoreStore) Users() UserRepository         { return &firestoreUsers{client: s.client} }
func (s *firestoreStore) Listings() ListingRepository   { return &firestoreListings{client: s.client} }
func (s *firestoreStore) Categories() CategoryRepository { return &firestoreCategories{client: s.client} }

func (s *firestoreStore) Close() error {
	return s.client.Close()
}

type firestoreChats struct {
	client *firestore.Client
}

func (r *firestoreChats) collection() *firestore.CollectionRef {
	return r.client.Collection(model.Chat{}.Collection())
}

func (r *firestoreChats) messages(chatID string) *firestore.CollectionRef {
	return r.collection().Doc(chatID).Collection(model.Message{}.Collection())
}

func (r *firestoreChats) GetOrCreate(ctx context.Context, chat *model.Chat) (*model.Chat, bool, error) {
	ref := r.collection().Doc(chat.ID)
	if _, err := ref.Create(ctx, chat); err != nil {
		if status.Code(err) != codes.AlreadyExists {
			return nil, false, fmt.Errorf("create chat: %w", err)
		}
		existing, err := r.Get(ctx, chat.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	created, err := r.Get(ctx, chat.ID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (r *firestoreChats) Get(ctx context.Context, id string) (*model.Chat, error) {
	snap, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get chat: %w", err)
	}
	var chat model.Chat
	if err := snap.DataTo(&chat); err != nil {
		return nil, fmt.Errorf("decode chat: %w", err)
	}
	chat.ID = snap.Ref.ID
	return &chat, nil
}

func (r *firestoreChats) participantQuery(uid string) firestore.Query {
	return r.collection().Where("participants", "array-contains", uid)
}

func (r *firestoreChats) ListByParticipant(ctx context.Context, uid string) ([]model.Chat, error) {
	it := r.participantQuery(uid).Documents(ctx)
	defer it.Stop()
	return decodeChats(it)
}

func (r *firestoreChats) WatchByParticipant(ctx context.Context, uid string) (*ChatSubscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	snaps := r.participantQuery(uid).Snapshots(ctx)
	sub := NewChatSubscription(func() {
		cancel()
	})
	go func() {
		defer snaps.Stop()
		defer sub.close()
		for {
			snap, err := snaps.Next()
			if err != nil {
				return
			}
			chats, err := decodeChats(snap.Documents)
			if err != nil {
				continue
			}
			sub.publish(chats)
		}
	}()
	return sub, nil
}

func (r *firestoreChats) SetLastMessage(ctx context.Context, id, preview string) error {
	_, err := r.collection().Doc(id).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: preview},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("update chat: %w", err)
	}
	return nil
}

// Delete removes the chat document together with its messages subcollection.
// Subcollection documents do not disappear with their parent, so they are
// swept explicitly through a bulk writer.
func (r *firestoreChats) Delete(ctx context.Context, id string) error {
	bw := r.client.BulkWriter(ctx)
	it := r.messages(id).Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("list messages for delete: %w", err)
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			return fmt.Errorf("delete message: %w", err)
		}
	}
	if _, err := bw.Delete(r.collection().Doc(id)); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	bw.End()
	return nil
}

func (r *firestoreChats) AppendMessage(ctx context.Context, chatID string, msg *model.Message) (*model.Message, error) {
	ref := r.messages(chatID).NewDoc()
	if _, err := ref.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	out := *msg
	out.ID = ref.ID
	return &out, nil
}

func (r *firestoreChats) messageQuery(chatID string) firestore.Query {
	return r.messages(chatID).OrderBy("timestamp", firestore.Asc)
}

func (r *firestoreChats) ListMessages(ctx context.Context, chatID string) ([]model.Message, error) {
	it := r.messageQuery(chatID).Documents(ctx)
	defer it.Stop()
	return decodeMessages(it)
}

func (r *firestoreChats) WatchMessages(ctx context.Context, chatID string) (*MessageSubscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	snaps := r.messageQuery(chatID).Snapshots(ctx)
	sub := NewMessageSubscription(func() {
		cancel()
	})
	go func() {
		defer snaps.Stop()
		defer sub.close()
		for {
			snap, err := snaps.Next()
			if err != nil {
				return
			}
			msgs, err := decodeMessages(snap.Documents)
			if err != nil {
				continue
			}
			sub.publish(msgs)
		}
	}()
	return sub, nil
}

func decodeChats(it *firestore.DocumentIterator) ([]model.Chat, error) {
	chats := make([]model.Chat, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return chats, nil
		}
		if err != nil {
			return nil, fmt.Errorf("iterate chats: %w", err)
		}
		var chat model.Chat
		if err := snap.DataTo(&chat); err != nil {
			return nil, fmt.Errorf("decode chat: %w", err)
		}
		chat.ID = snap.Ref.ID
		chats = append(chats, chat)
	}
}

func decodeMessages(it *firestore.DocumentIterator) ([]model.Message, error) {
	msgs := make([]model.Message, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return msgs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("iterate messages: %w", err)
		}
		var msg model.Message
		if err := snap.DataTo(&msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		msg.ID = snap.Ref.ID
		msgs = append(msgs, msg)
	}
}

type firestoreUsers struct {
	client *firestore.Client
}

func (r *firestoreUsers) collection() *firestore.CollectionRef {
	return r.client.Collection(model.UserProfile{}.Collection())
}

func (r *firestoreUsers) Get(ctx context.Context, uid string) (*model.UserProfile, error) {
	snap, err := r.collection().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	var profile model.UserProfile
	if err := snap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	profile.UID = snap.Ref.ID
	return &profile, nil
}

func (r *firestoreUsers) Set(ctx context.Context, profile *model.UserProfile) error {
	if _, err := r.collection().Doc(profile.UID).Set(ctx, profile); err != nil {
		return fmt.Errorf("set user: %w", err)
	}
	return nil
}

func (r *firestoreUsers) Update(ctx context.Context, uid string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := r.collection().Doc(uid).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *firestoreUsers) Count(ctx context.Context) (int64, error) {
	return countDocuments(ctx, r.collection().Query)
}

type firestoreListings struct {
	client *firestore.Client
}

func (r *firestoreListings) collection() *firestore.CollectionRef {
	return r.client.Collection(model.Listing{}.Collection())
}

func (r *firestoreListings) Create(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	ref := r.collection().NewDoc()
	if _, err := ref.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	out := *listing
	out.ID = ref.ID
	return &out, nil
}

func (r *firestoreListings) Get(ctx context.Context, id string) (*model.Listing, error) {
	snap, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	var listing model.Listing
	if err := snap.DataTo(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	listing.ID = snap.Ref.ID
	return &listing, nil
}

func (r *firestoreListings) List(ctx context.Context, category string) ([]model.Listing, error) {
	// Filtering and ordering together would require a composite index, so
	// category queries come back in document order.
	q := r.collection().OrderBy("createdAt", firestore.Desc)
	if category != "" {
		q = r.collection().Where("category", "==", category)
	}
	it := q.Documents(ctx)
	defer it.Stop()
	listings := make([]model.Listing, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return listings, nil
		}
		if err != nil {
			return nil, fmt.Errorf("iterate listings: %w", err)
		}
		var listing model.Listing
		if err := snap.DataTo(&listing); err != nil {
			return nil, fmt.Errorf("decode listing: %w", err)
		}
		listing.ID = snap.Ref.ID
		listings = append(listings, listing)
	}
}

func (r *firestoreListings) Delete(ctx context.Context, id string) error {
	if _, err := r.collection().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

func (r *firestoreListings) Count(ctx context.Context) (int64, error) {
	return countDocuments(ctx, r.collection().Query)
}

type firestoreCategories struct {
	client *firestore.Client
}

func (r *firestoreCategories) collection() *firestore.CollectionRef {
	return r.client.Collection(model.Category{}.Collection())
}

func (r *firestoreCategories) List(ctx context.Context) ([]model.Category, error) {
	it := r.collection().OrderBy("name", firestore.Asc).Documents(ctx)
	defer it.Stop()
	categories := make([]model.Category, 0)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return categories, nil
		}
		if err != nil {
			return nil, fmt.Errorf("iterate categories: %w", err)
		}
		var category model.Category
		if err := snap.DataTo(&category); err != nil {
			return nil, fmt.Errorf("decode category: %w", err)
		}
		category.ID = snap.Ref.ID
		categories = append(categories, category)
	}
}

func (r *firestoreCategories) Set(ctx context.Context, category *model.Category) error {
	if _, err := r.collection().Doc(category.ID).Set(ctx, category); err != nil {
		return fmt.Errorf("set category: %w", err)
	}
	return nil
}

func countDocuments(ctx context.Context, q firestore.Query) (int64, error) {
	result, err := q.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	value, ok := result["total"]
	if !ok {
		return 0, fmt.Errorf("count documents: missing aggregation result")
	}
	count, ok := value.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count documents: unexpected aggregation value %T", value)
	}
	return count.GetIntegerValue(), nil
}
