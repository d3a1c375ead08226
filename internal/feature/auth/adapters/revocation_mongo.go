package adapters

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"employee_backend/internal/feature/auth/usecase"
)

// RevokedTokensCollection は失効したトークンIDを保持する MongoDB のコレクションです。
const RevokedTokensCollection = "revoked_tokens"

// revocationMongo は Redis を使わないドキュメントストア構成向けの TokenRevoker の
// MongoDB 実装です。トークンの期限が切れると TTL インデックスがエントリを削除します。
type revocationMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// コンパイル時に revocationMongo が TokenRevoker を実装していることを確認する。
var _ usecase.TokenRevoker = (*revocationMongo)(nil)

// NewRevocationMongo は revocationMongo の新しいインスタンスを返します。
func NewRevocationMongo(db *mongo.Database) *revocationMongo {
	return &revocationMongo{coll: db.Collection(RevokedTokensCollection), now: time.Now}
}

// EnsureIndexes は expiresAt に TTL インデックスを作成します。
func (r *revocationMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create ttl index %s.expiresAt: %w", r.coll.Name(), err)
	}
	return nil
}

// Revoke は tokenID を expiresAt まで記録します。二重の失効は何もせず、期限切れのトークンは保存しません。
func (r *revocationMongo) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if !expiresAt.After(r.now()) {
		return nil
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": tokenID},
		bson.M{"$setOnInsert": bson.M{"expiresAt": expiresAt.UTC()}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

// IsRevoked は tokenID が記録済みかつ期限内かを返します。
// TTL モニタは定期実行なので、ここでも期限を確認します。
func (r *revocationMongo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"_id":       tokenID,
		"expiresAt": bson.M{"$gt": r.now().UTC()},
	})
	return n > 0, err
}
