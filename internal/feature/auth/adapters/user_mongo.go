package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"employee_backend/internal/feature/auth/domain/entity"
	"employee_backend/internal/feature/auth/usecase"
	"employee_backend/internal/platform/mongodb"
)

// UsersCollection はユーザを保持する MongoDB のコレクションです。
const UsersCollection = "users"

// userDocument はユーザの BSON 表現です。
type userDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Username  string        `bson:"username"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d *userDocument) toEntity() *entity.User {
	return &entity.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// userMongo は UserRepository インターフェースの MongoDB 実装です。
type userMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// コンパイル時に userMongo が UserRepository を実装していることを確認する。
var _ usecase.UserRepository = (*userMongo)(nil)

// NewUserMongo は db の users コレクション上に userMongo の新しいインスタンスを返します。
func NewUserMongo(db *mongo.Database) *userMongo {
	return &userMongo{coll: db.Collection(UsersCollection), now: time.Now}
}

// EnsureIndexes はユーザ名とメールアドレスの一意制約となるユニークインデックスを作成します。
func (r *userMongo) EnsureIndexes(ctx context.Context) error {
	for _, field := range []string{"username", "email"} {
		if err := mongodb.EnsureUniqueIndex(ctx, r.coll, field); err != nil {
			return err
		}
	}
	return nil
}

// Create はユーザを追加します。キー重複なら usecase.ErrUserAlreadyExists を返します。
func (r *userMongo) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:        bson.NewObjectID(),
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.PasswordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return usecase.ErrUserAlreadyExists
		}
		return err
	}
	*u = *doc.toEntity()
	return nil
}

// FindByUsernameOrEmail はどちらかの識別子を持つユーザを返します。
func (r *userMongo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}})
}

// FindByUsername はユーザ名をキーにユーザを検索します。
func (r *userMongo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// FindByID は ObjectID の16進文字列でユーザを検索します。不正なIDは未検出として扱います。
func (r *userMongo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, usecase.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *userMongo) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}
