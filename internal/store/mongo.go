package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/task-manager-api/internal/models"
)

type tokenDoc struct {
	Token string `bson:"token"`
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Age       int                `bson:"age"`
	Tokens    []tokenDoc         `bson:"tokens"`
	Avatar    []byte             `bson:"avatar,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type taskDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	Owner       primitive.ObjectID `bson:"owner"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *userDoc) model() *models.User {
	u := &models.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		Age:       d.Age,
		Tokens:    make([]string, 0, len(d.Tokens)),
		Avatar:    d.Avatar,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, t := range d.Tokens {
		u.Tokens = append(u.Tokens, t.Token)
	}
	return u
}

func (d *taskDoc) model() models.Task {
	return models.Task{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Completed:   d.Completed,
		Owner:       d.Owner.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoStore handles user and task documents in MongoDB.
type MongoStore struct {
	users *mongo.Collection
	tasks *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{users: db.Collection("users"), tasks: db.Collection("tasks")}
}

// EnsureIndexes creates the unique email index and the task owner index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("mongo users index: %w", err)
	}
	if _, err := s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("mongo tasks index: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.Password,
		Age:       u.Age,
		Tokens:    []tokenDoc{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, t := range u.Tokens {
		doc.Tokens = append(doc.Tokens, tokenDoc{Token: t})
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateEmail
		}
		return fmt.Errorf("mongo insert user: %w", err)
	}
	u.ID = doc.ID.Hex()
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) GetUserByToken(ctx context.Context, id, token string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid, "tokens.token": token})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongo find user: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("mongo find user: %w", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	err := s.updateUser(ctx, u.ID, bson.M{"$set": bson.M{
		"name":      u.Name,
		"email":     u.Email,
		"password":  u.Password,
		"age":       u.Age,
		"updatedAt": now,
	}})
	if err != nil {
		return err
	}
	u.UpdatedAt = now
	return nil
}

func (s *MongoStore) PushToken(ctx context.Context, userID, token string) error {
	return s.updateUser(ctx, userID, bson.M{
		"$push": bson.M{"tokens": tokenDoc{Token: token}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (s *MongoStore) PullToken(ctx context.Context, userID, token string) error {
	return s.updateUser(ctx, userID, bson.M{
		"$pull": bson.M{"tokens": bson.M{"token": token}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (s *MongoStore) ClearTokens(ctx context.Context, userID string) error {
	return s.updateUser(ctx, userID, bson.M{
		"$set": bson.M{"tokens": bson.A{}, "updatedAt": time.Now().UTC()},
	})
}

func (s *MongoStore) SetAvatar(ctx context.Context, userID string, avatar []byte) error {
	now := time.Now().UTC()
	if avatar == nil {
		return s.updateUser(ctx, userID, bson.M{
			"$unset": bson.M{"avatar": ""},
			"$set":   bson.M{"updatedAt": now},
		})
	}
	return s.updateUser(ctx, userID, bson.M{
		"$set": bson.M{"avatar": avatar, "updatedAt": now},
	})
}

func (s *MongoStore) updateUser(ctx context.Context, id string, update bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateEmail
		}
		return fmt.Errorf("mongo update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo update user: %w", models.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongo delete user: %w", models.ErrNotFound)
	}
	return nil
}

func (s *MongoStore) CreateTask(ctx context.Context, t *models.Task) error {
	owner, err := objectID(t.Owner)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	doc := taskDoc{
		ID:          primitive.NewObjectID(),
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo insert task: %w", err)
	}
	t.ID = doc.ID.Hex()
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

func (s *MongoStore) GetTask(ctx context.Context, owner, id string) (*models.Task, error) {
	filter, err := taskFilter(owner, id)
	if err != nil {
		return nil, err
	}
	var doc taskDoc
	if err := s.tasks.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongo find task: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("mongo find task: %w", err)
	}
	t := doc.model()
	return &t, nil
}

func (s *MongoStore) ListTasks(ctx context.Context, owner string, q models.TaskQuery) ([]models.Task, error) {
	ownerID, err := objectID(owner)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"owner": ownerID}
	if q.Completed != nil {
		filter["completed"] = *q.Completed
	}

	field := string(q.SortBy)
	if field == "" {
		field = string(models.SortByCreatedAt)
	}
	dir := 1
	if q.Desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}})
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find tasks: %w", err)
	}
	defer cur.Close(ctx)

	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode tasks: %w", err)
	}
	tasks := make([]models.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, docs[i].model())
	}
	return tasks, nil
}

func (s *MongoStore) UpdateTask(ctx context.Context, t *models.Task) error {
	filter, err := taskFilter(t.Owner, t.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := s.tasks.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"description": t.Description,
		"completed":   t.Completed,
		"updatedAt":   now,
	}})
	if err != nil {
		return fmt.Errorf("mongo update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo update task: %w", models.ErrNotFound)
	}
	t.UpdatedAt = now
	return nil
}

func (s *MongoStore) DeleteTask(ctx context.Context, owner, id string) (*models.Task, error) {
	filter, err := taskFilter(owner, id)
	if err != nil {
		return nil, err
	}
	var doc taskDoc
	if err := s.tasks.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongo delete task: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("mongo delete task: %w", err)
	}
	t := doc.model()
	return &t, nil
}

func (s *MongoStore) DeleteTasksByOwner(ctx context.Context, owner string) (int64, error) {
	ownerID, err := objectID(owner)
	if err != nil {
		return 0, err
	}
	res, err := s.tasks.DeleteMany(ctx, bson.M{"owner": ownerID})
	if err != nil {
		return 0, fmt.Errorf("mongo delete tasks: %w", err)
	}
	return res.DeletedCount, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.users.Database().Client().Disconnect(ctx)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, models.ErrNotFound)
	}
	return oid, nil
}

func taskFilter(owner, id string) (bson.M, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ownerID, err := objectID(owner)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oid, "owner": ownerID}, nil
}
