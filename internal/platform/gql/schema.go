package gql

import (
	"fmt"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// Module はスキーマにルートフィールドを提供します。
type Module interface {
	Queries() graphql.Fields
	Mutations() graphql.Fields
}

// UploadScalar は multipart のファイル用スカラーです。値はハンドラが設定した
// 変数からのみ渡され、リテラルは拒否します。
var UploadScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "Upload",
	Description: "A file sent as part of a multipart GraphQL request.",
	Serialize: func(value any) any {
		return nil
	},
	ParseValue: func(value any) any {
		if u, ok := value.(*Upload); ok {
			return u
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) any {
		return nil
	},
})

// NewSchema はすべてのモジュールのルートフィールドを1つのスキーマにまとめます。
// 2つのモジュールが同じルートフィールドを定義するとエラーです。
func NewSchema(modules ...Module) (graphql.Schema, error) {
	queries := graphql.Fields{}
	mutations := graphql.Fields{}
	for _, m := range modules {
		if err := merge(queries, m.Queries()); err != nil {
			return graphql.Schema{}, err
		}
		if err := merge(mutations, m.Mutations()); err != nil {
			return graphql.Schema{}, err
		}
	}

	cfg := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: queries}),
	}
	if len(mutations) > 0 {
		cfg.Mutation = graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutations})
	}
	return graphql.NewSchema(cfg)
}

func merge(dst, src graphql.Fields) error {
	for name, f := range src {
		if _, dup := dst[name]; dup {
			return fmt.Errorf("duplicate root field %q", name)
		}
		dst[name] = f
	}
	return nil
}

// FormatTime はタイムスタンプを UTC の RFC 3339 で出力します。
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// StringArg は文字列引数と、それが指定されたかを返します。
func StringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name].(string)
	return v, ok
}

// OptionalString は指定された文字列引数へのポインタを返します。なければ nil です。
func OptionalString(args map[string]any, name string) *string {
	if v, ok := StringArg(args, name); ok {
		return &v
	}
	return nil
}

// OptionalFloat は指定された Float 引数へのポインタを返します。なければ nil です。
func OptionalFloat(args map[string]any, name string) *float64 {
	switch v := args[name].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

// UploadArg は引数に割り当てられた Upload を返します。なければ nil です。
func UploadArg(args map[string]any, name string) *Upload {
	u, _ := args[name].(*Upload)
	return u
}
