package gql

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// multipartOverhead はファイルに加えて operations と map の項目に許す容量です。
const multipartOverhead = 1 << 20

var (
	errTooManyFiles = errors.New("only one file may be uploaded per request")
	errFileTooLarge = errors.New("uploaded file is too large")
)

// Request は GraphQL over HTTP のリクエストボディです。
type Request struct {
	Query         string         `json:"query" form:"query"`
	Variables     map[string]any `json:"variables" form:"-"`
	OperationName string         `json:"operationName" form:"operationName"`
}

// HandlerConfig は Handler の設定です。
type HandlerConfig struct {
	// CookieName は RequestContext.Token に読み込むセッション cookie の名前です。
	CookieName string
	// MaxUploadBytes はアップロードする1ファイルのサイズ上限です。
	MaxUploadBytes int64
}

// Handler は GraphQL を HTTP で提供します。クエリは GET、POST は JSON と
// GraphQL multipart request の規約に沿った multipart/form-data を受け付けます。
type Handler struct {
	schema graphql.Schema
	cfg    HandlerConfig
}

// NewHandler は schema の Handler を生成します。
func NewHandler(schema graphql.Schema, cfg HandlerConfig) *Handler {
	return &Handler{schema: schema, cfg: cfg}
}

// Serve は GraphQL エンドポイントの gin ハンドラです。
func (h *Handler) Serve(c *gin.Context) {
	req, upload, status, err := h.readRequest(c)
	if form := c.Request.MultipartForm; form != nil {
		defer func() { _ = form.RemoveAll() }()
	}
	if upload != nil {
		defer func() {
			if cerr := upload.File.Close(); cerr != nil {
				slog.Warn("failed to close upload", "error", cerr)
			}
		}()
	}
	if err != nil {
		slog.Warn("graphql request rejected", "error", err, "remote_addr", c.ClientIP())
		code := CodeBadRequest
		if status == http.StatusRequestEntityTooLarge {
			code = CodeTooLarge
		}
		c.JSON(status, gin.H{"errors": []gin.H{{
			"message":    err.Error(),
			"extensions": gin.H{"code": code},
		}}})
		return
	}

	token := ""
	if ck, cerr := c.Request.Cookie(h.cfg.CookieName); cerr == nil {
		token = ck.Value
	}
	rc := &RequestContext{
		Token:      token,
		Cookies:    ResponseCookies{W: c.Writer},
		RemoteAddr: c.ClientIP(),
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        WithRequestContext(c.Request.Context(), rc),
	})
	c.JSON(http.StatusOK, result)
}

func (h *Handler) readRequest(c *gin.Context) (*Request, *Upload, int, error) {
	switch c.Request.Method {
	case http.MethodGet:
		req, err := h.readGet(c)
		if err != nil {
			return nil, nil, http.StatusBadRequest, err
		}
		return req, nil, 0, nil
	case http.MethodPost:
	default:
		return nil, nil, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", c.Request.Method)
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return h.readMultipart(c)
	}
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, nil, http.StatusBadRequest, errors.New("query is required")
	}
	return &req, nil, 0, nil
}

func (h *Handler) readGet(c *gin.Context) (*Request, error) {
	var req Request
	if err := c.ShouldBindQuery(&req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("query is required")
	}
	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return nil, fmt.Errorf("invalid variables: %w", err)
		}
	}
	if operationType(req.Query, req.OperationName) == ast.OperationTypeMutation {
		return nil, errors.New("mutations require POST")
	}
	return &req, nil
}

// readMultipart は operations/map/file のリクエストを解析し、ファイルを変数に割り当てます。
func (h *Handler) readMultipart(c *gin.Context) (*Request, *Upload, int, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+multipartOverhead)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, http.StatusRequestEntityTooLarge, errFileTooLarge
		}
		return nil, nil, http.StatusBadRequest, fmt.Errorf("invalid multipart request: %w", err)
	}

	var req Request
	if err := json.Unmarshal([]byte(formValue(form, "operations")), &req); err != nil {
		return nil, nil, http.StatusBadRequest, fmt.Errorf("invalid operations field: %w", err)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, nil, http.StatusBadRequest, errors.New("query is required")
	}

	var fileMap map[string][]string
	if raw := formValue(form, "map"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fileMap); err != nil {
			return nil, nil, http.StatusBadRequest, fmt.Errorf("invalid map field: %w", err)
		}
	}
	if len(fileMap) > 1 || countFiles(form) > 1 {
		return nil, nil, http.StatusBadRequest, errTooManyFiles
	}

	var upload *Upload
	for key, paths := range fileMap {
		headers := form.File[key]
		if len(headers) == 0 {
			return nil, nil, http.StatusBadRequest, fmt.Errorf("file part %q is missing", key)
		}
		fh := headers[0]
		if fh.Size > h.cfg.MaxUploadBytes {
			return nil, nil, http.StatusRequestEntityTooLarge, errFileTooLarge
		}
		f, err := fh.Open()
		if err != nil {
			return nil, nil, http.StatusBadRequest, fmt.Errorf("open file part: %w", err)
		}
		upload = &Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			File:        f,
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		for _, p := range paths {
			if err := bindUpload(req.Variables, p, upload); err != nil {
				return nil, upload, http.StatusBadRequest, err
			}
		}
	}
	return &req, upload, 0, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func countFiles(form *multipart.Form) int {
	n := 0
	for _, headers := range form.File {
		n += len(headers)
	}
	return n
}

// bindUpload は "variables.employee_photo" や "variables.files.0" のようなパスに u を置きます。
func bindUpload(variables map[string]any, path string, u *Upload) error {
	parts := strings.Split(path, ".")
	if len(parts) < 2 || parts[0] != "variables" {
		return fmt.Errorf("unsupported map path %q", path)
	}

	var cur any = variables
	for i, part := range parts[1:] {
		last := i == len(parts)-2
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[part] = u
				return nil
			}
			cur = node[part]
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return fmt.Errorf("invalid index %q in map path %q", part, path)
			}
			if last {
				node[idx] = u
				return nil
			}
			cur = node[idx]
		default:
			return fmt.Errorf("map path %q does not resolve", path)
		}
	}
	return nil
}

// operationType は実行される操作の種類を返します。決められなければ "" です。
func operationType(query, operationName string) string {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return ""
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName == "" || (op.Name != nil && op.Name.Value == operationName) {
			return op.Operation
		}
	}
	return ""
}
