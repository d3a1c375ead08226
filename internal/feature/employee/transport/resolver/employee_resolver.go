// Package resolver は従業員名簿を GraphQL で公開します。
package resolver

import (
	"context"
	"log/slog"

	"github.com/graphql-go/graphql"

	"employee_backend/internal/feature/employee/domain/entity"
	"employee_backend/internal/feature/employee/usecase"
	"employee_backend/internal/platform/gql"
)

// EmployeeUsecase はリゾルバが必要とする従業員操作を定義します。
type EmployeeUsecase interface {
	Add(ctx context.Context, in usecase.AddInput, photo *usecase.PhotoUpload) (*entity.Employee, error)
	Update(ctx context.Context, id string, in usecase.UpdateInput, photo *usecase.PhotoUpload) (*entity.Employee, error)
	Delete(ctx context.Context, id string) (string, error)
	Get(ctx context.Context, id string) (*entity.Employee, error)
	List(ctx context.Context) ([]*entity.Employee, error)
	Search(ctx context.Context, designation, department string) ([]*entity.Employee, error)
}

// EmployeeResolver は従業員のクエリとミューテーションを解決します。
type EmployeeResolver struct {
	employees EmployeeUsecase
	typ       *graphql.Object
}

var _ gql.Module = (*EmployeeResolver)(nil)

// NewEmployeeResolver は EmployeeResolver の新しいインスタンスを返します。
func NewEmployeeResolver(employees EmployeeUsecase) *EmployeeResolver {
	str := graphql.NewNonNull(graphql.String)
	typ := graphql.NewObject(graphql.ObjectConfig{
		Name: "Employee",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"first_name":      &graphql.Field{Type: str},
			"last_name":       &graphql.Field{Type: str},
			"email":           &graphql.Field{Type: str},
			"gender":          &graphql.Field{Type: str},
			"designation":     &graphql.Field{Type: str},
			"salary":          &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"date_of_joining": &graphql.Field{Type: str},
			"department":      &graphql.Field{Type: str},
			"employee_photo":  &graphql.Field{Type: graphql.String},
			"created_at":      &graphql.Field{Type: str},
			"updated_at":      &graphql.Field{Type: str},
		},
	})
	return &EmployeeResolver{employees: employees, typ: typ}
}

func employeeView(e *entity.Employee) map[string]any {
	var photo any
	if e.EmployeePhoto != "" {
		photo = e.EmployeePhoto
	}
	return map[string]any{
		"id":              e.ID,
		"first_name":      e.FirstName,
		"last_name":       e.LastName,
		"email":           e.Email,
		"gender":          e.Gender,
		"designation":     e.Designation,
		"salary":          e.Salary,
		"date_of_joining": gql.FormatTime(e.DateOfJoining),
		"department":      e.Department,
		"employee_photo":  photo,
		"created_at":      gql.FormatTime(e.CreatedAt),
		"updated_at":      gql.FormatTime(e.UpdatedAt),
	}
}

func listView(list []*entity.Employee) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		out = append(out, employeeView(e))
	}
	return out
}

// Queries は従業員のクエリフィールドを返します。
func (r *EmployeeResolver) Queries() graphql.Fields {
	return graphql.Fields{
		"getAllemployees": &graphql.Field{
			Type:    graphql.NewList(r.typ),
			Resolve: r.getAll,
		},
		"getEmployeeByEID": &graphql.Field{
			Type: r.typ,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: r.getByID,
		},
		"searchEmployees": &graphql.Field{
			Type: graphql.NewList(r.typ),
			Args: graphql.FieldConfigArgument{
				"designation": &graphql.ArgumentConfig{Type: graphql.String},
				"department":  &graphql.ArgumentConfig{Type: graphql.String},
			},
			Resolve: r.search,
		},
	}
}

// Mutations は従業員のミューテーションフィールドを返します。
func (r *EmployeeResolver) Mutations() graphql.Fields {
	required := graphql.NewNonNull(graphql.String)
	return graphql.Fields{
		"addEmployee": &graphql.Field{
			Type: r.typ,
			Args: graphql.FieldConfigArgument{
				"first_name":      &graphql.ArgumentConfig{Type: required},
				"last_name":       &graphql.ArgumentConfig{Type: required},
				"email":           &graphql.ArgumentConfig{Type: required},
				"gender":          &graphql.ArgumentConfig{Type: required},
				"designation":     &graphql.ArgumentConfig{Type: required},
				"salary":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				"date_of_joining": &graphql.ArgumentConfig{Type: required},
				"department":      &graphql.ArgumentConfig{Type: required},
				"employee_photo":  &graphql.ArgumentConfig{Type: gql.UploadScalar},
			},
			Resolve: r.add,
		},
		"updateEmployee": &graphql.Field{
			Type: r.typ,
			Args: graphql.FieldConfigArgument{
				"id":              &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				"first_name":      &graphql.ArgumentConfig{Type: graphql.String},
				"last_name":       &graphql.ArgumentConfig{Type: graphql.String},
				"email":           &graphql.ArgumentConfig{Type: graphql.String},
				"gender":          &graphql.ArgumentConfig{Type: graphql.String},
				"designation":     &graphql.ArgumentConfig{Type: graphql.String},
				"salary":          &graphql.ArgumentConfig{Type: graphql.Float},
				"date_of_joining": &graphql.ArgumentConfig{Type: graphql.String},
				"department":      &graphql.ArgumentConfig{Type: graphql.String},
				"employee_photo":  &graphql.ArgumentConfig{Type: gql.UploadScalar},
			},
			Resolve: r.update,
		},
		"deleteEmployee": &graphql.Field{
			Type: graphql.String,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: r.delete,
		},
	}
}

func (r *EmployeeResolver) getAll(p graphql.ResolveParams) (any, error) {
	list, err := r.employees.List(p.Context)
	if err != nil {
		return nil, gql.ResolverError(p.Context, "getAllemployees", err)
	}
	return listView(list), nil
}

func (r *EmployeeResolver) getByID(p graphql.ResolveParams) (any, error) {
	id, _ := gql.StringArg(p.Args, "id")
	e, err := r.employees.Get(p.Context, id)
	if err != nil {
		return nil, gql.ResolverError(p.Context, "getEmployeeByEID", err)
	}
	return employeeView(e), nil
}

func (r *EmployeeResolver) search(p graphql.ResolveParams) (any, error) {
	designation, _ := gql.StringArg(p.Args, "designation")
	department, _ := gql.StringArg(p.Args, "department")
	list, err := r.employees.Search(p.Context, designation, department)
	if err != nil {
		return nil, gql.ResolverError(p.Context, "searchEmployees", err)
	}
	return listView(list), nil
}

func (r *EmployeeResolver) add(p graphql.ResolveParams) (any, error) {
	in := usecase.AddInput{}
	in.FirstName, _ = gql.StringArg(p.Args, "first_name")
	in.LastName, _ = gql.StringArg(p.Args, "last_name")
	in.Email, _ = gql.StringArg(p.Args, "email")
	in.Gender, _ = gql.StringArg(p.Args, "gender")
	in.Designation, _ = gql.StringArg(p.Args, "designation")
	in.DateOfJoining, _ = gql.StringArg(p.Args, "date_of_joining")
	in.Department, _ = gql.StringArg(p.Args, "department")
	if s := gql.OptionalFloat(p.Args, "salary"); s != nil {
		in.Salary = *s
	}

	e, err := r.employees.Add(p.Context, in, photoArg(p.Args))
	if err != nil {
		return nil, gql.ResolverError(p.Context, "addEmployee", err)
	}
	slog.InfoContext(p.Context, "employee added", "employee_id", e.ID, "remote_addr", gql.FromContext(p.Context).RemoteAddr)
	return employeeView(e), nil
}

func (r *EmployeeResolver) update(p graphql.ResolveParams) (any, error) {
	id, _ := gql.StringArg(p.Args, "id")
	in := usecase.UpdateInput{
		FirstName:     gql.OptionalString(p.Args, "first_name"),
		LastName:      gql.OptionalString(p.Args, "last_name"),
		Email:         gql.OptionalString(p.Args, "email"),
		Gender:        gql.OptionalString(p.Args, "gender"),
		Designation:   gql.OptionalString(p.Args, "designation"),
		Salary:        gql.OptionalFloat(p.Args, "salary"),
		DateOfJoining: gql.OptionalString(p.Args, "date_of_joining"),
		Department:    gql.OptionalString(p.Args, "department"),
	}

	e, err := r.employees.Update(p.Context, id, in, photoArg(p.Args))
	if err != nil {
		return nil, gql.ResolverError(p.Context, "updateEmployee", err)
	}
	slog.InfoContext(p.Context, "employee updated", "employee_id", e.ID, "remote_addr", gql.FromContext(p.Context).RemoteAddr)
	return employeeView(e), nil
}

func (r *EmployeeResolver) delete(p graphql.ResolveParams) (any, error) {
	id, _ := gql.StringArg(p.Args, "id")
	msg, err := r.employees.Delete(p.Context, id)
	if err != nil {
		return nil, gql.ResolverError(p.Context, "deleteEmployee", err)
	}
	slog.InfoContext(p.Context, "employee deleted", "employee_id", id, "remote_addr", gql.FromContext(p.Context).RemoteAddr)
	return msg, nil
}

func photoArg(args map[string]any) *usecase.PhotoUpload {
	u := gql.UploadArg(args, "employee_photo")
	if u == nil {
		return nil
	}
	return &usecase.PhotoUpload{
		Filename:    u.Filename,
		ContentType: u.ContentType,
		Size:        u.Size,
		Content:     u.File,
	}
}
