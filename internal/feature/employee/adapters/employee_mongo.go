package adapters

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"employee_backend/internal/feature/employee/domain/entity"
	"employee_backend/internal/feature/employee/usecase"
	"employee_backend/internal/platform/mongodb"
)

// EmployeesCollection は従業員を保持する MongoDB のコレクションです。
const EmployeesCollection = "employees"

// employeeDocument は従業員の BSON 表現です。
type employeeDocument struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	FirstName     string        `bson:"first_name"`
	LastName      string        `bson:"last_name"`
	Email         string        `bson:"email"`
	Gender        string        `bson:"gender"`
	Designation   string        `bson:"designation"`
	Salary        float64       `bson:"salary"`
	DateOfJoining time.Time     `bson:"date_of_joining"`
	Department    string        `bson:"department"`
	EmployeePhoto string        `bson:"employee_photo,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt"`
}

func (d *employeeDocument) toEntity() *entity.Employee {
	return &entity.Employee{
		ID:            d.ID.Hex(),
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		Gender:        d.Gender,
		Designation:   d.Designation,
		Salary:        d.Salary,
		DateOfJoining: d.DateOfJoining.UTC(),
		Department:    d.Department,
		EmployeePhoto: d.EmployeePhoto,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

// searchFilter は f の等価フィルタを組み立てます。空の項目は条件にしません。
func searchFilter(f entity.Filter) bson.M {
	filter := bson.M{}
	if f.Designation != "" {
		filter["designation"] = f.Designation
	}
	if f.Department != "" {
		filter["department"] = f.Department
	}
	return filter
}

// employeeMongo は EmployeeRepository の MongoDB 実装です。
type employeeMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// コンパイル時に employeeMongo が EmployeeRepository を実装していることを確認する。
var _ usecase.EmployeeRepository = (*employeeMongo)(nil)

// NewEmployeeMongo は db の employees コレクション上に employeeMongo の新しいインスタンスを返します。
func NewEmployeeMongo(db *mongo.Database) *employeeMongo {
	return &employeeMongo{coll: db.Collection(EmployeesCollection), now: time.Now}
}

// EnsureIndexes はメールアドレスのユニークインデックスを作成します。
func (r *employeeMongo) EnsureIndexes(ctx context.Context) error {
	return mongodb.EnsureUniqueIndex(ctx, r.coll, "email")
}

// ValidID は24文字の ObjectID 16進文字列を受け付けます。
func (r *employeeMongo) ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

// Create は e を追加し、採番されたIDとタイムスタンプを書き戻します。
func (r *employeeMongo) Create(ctx context.Context, e *entity.Employee) error {
	if e == nil {
		return errors.New("employee is nil")
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := employeeDocument{
		ID:            bson.NewObjectID(),
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		Email:         e.Email,
		Gender:        e.Gender,
		Designation:   e.Designation,
		Salary:        e.Salary,
		DateOfJoining: e.DateOfJoining.UTC(),
		Department:    e.Department,
		EmployeePhoto: e.EmployeePhoto,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return translateMongo(err)
	}
	*e = *doc.toEntity()
	return nil
}

// FindByID はIDをキーに従業員を検索します。
func (r *employeeMongo) FindByID(ctx context.Context, id string) (*entity.Employee, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, usecase.ErrEmployeeNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail はメールアドレスをキーに従業員を検索します。
func (r *employeeMongo) FindByEmail(ctx context.Context, email string) (*entity.Employee, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// List は全従業員を古い順に返します。
func (r *employeeMongo) List(ctx context.Context) ([]*entity.Employee, error) {
	return r.Search(ctx, entity.Filter{})
}

// Search は空でないフィルタ項目すべてに一致する従業員を返します。
func (r *employeeMongo) Search(ctx context.Context, f entity.Filter) ([]*entity.Employee, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, searchFilter(f), opts)
	if err != nil {
		return nil, err
	}
	var docs []employeeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*entity.Employee, len(docs))
	for i := range docs {
		out[i] = docs[i].toEntity()
	}
	return out, nil
}

// Update は $set でパッチを適用し、更新後のドキュメントを返します。
func (r *employeeMongo) Update(ctx context.Context, id string, p entity.Patch) (*entity.Employee, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, usecase.ErrEmployeeNotFound
	}
	set := bson.M(patchFields(p))
	set["updatedAt"] = r.now().UTC().Truncate(time.Millisecond)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc employeeDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrEmployeeNotFound
		}
		return nil, translateMongo(err)
	}
	return doc.toEntity(), nil
}

// Delete はIDをキーに従業員を削除します。
func (r *employeeMongo) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return usecase.ErrEmployeeNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return usecase.ErrEmployeeNotFound
	}
	return nil
}

func (r *employeeMongo) findOne(ctx context.Context, filter bson.M) (*entity.Employee, error) {
	var doc employeeDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrEmployeeNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func translateMongo(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return usecase.ErrEmailAlreadyExists
	}
	return err
}
