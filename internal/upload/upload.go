// Package upload valida arquivos enviados por formulário antes de gravá-los
// no storage.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/PauloHFS/hcportal/internal/storage"
	"github.com/google/uuid"
)

// Policy diz o que um campo de upload aceita. Types mapeia MIME para as
// extensões válidas daquele tipo.
type Policy struct {
	Directory string
	MaxSize   int64
	Types     map[string][]string
}

var AvatarPolicy = Policy{
	Directory: "avatars",
	MaxSize:   5 << 20,
	Types: map[string][]string{
		"image/jpeg": {".jpg", ".jpeg"},
		"image/png":  {".png"},
		"image/webp": {".webp"},
		"image/gif":  {".gif"},
	},
}

func (p Policy) allowsExt(ext string) bool {
	for _, exts := range p.Types {
		if slices.Contains(exts, ext) {
			return true
		}
	}
	return false
}

type Code string

const (
	CodeNoFile          Code = "NO_FILE"
	CodeTooLarge        Code = "FILE_TOO_LARGE"
	CodeBadExtension    Code = "INVALID_EXTENSION"
	CodeBadType         Code = "INVALID_TYPE"
	CodeContentMismatch Code = "CONTENT_MISMATCH"
	CodeUnreadable      Code = "READ_ERROR"
)

// Rejection é um arquivo recusado pela Policy. Message vai direto para o
// usuário.
type Rejection struct {
	Code    Code
	Message string
}

func (e *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func reject(code Code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsRejection desembrulha err; ok é false para falhas de infraestrutura.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	ok := errors.As(err, &rej)
	return rej, ok
}

type Result struct {
	Key      string
	Size     int64
	MIMEType string
	URL      string
}

// Save grava o arquivo do campo field sob Directory/<owner>/. O tipo declarado
// precisa bater com a extensão e com os primeiros bytes do conteúdo.
func Save(ctx context.Context, r *http.Request, field string, owner int64, p Policy, store storage.Store) (*Result, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, reject(CodeNoFile, "No file was uploaded")
	}
	defer file.Close()

	if header.Size > p.MaxSize {
		return nil, reject(CodeTooLarge, "File exceeds the %dMB limit", p.MaxSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !p.allowsExt(ext) {
		return nil, reject(CodeBadExtension, "Extension not allowed: %s", ext)
	}

	declared := header.Header.Get("Content-Type")
	exts, ok := p.Types[declared]
	if !ok {
		return nil, reject(CodeBadType, "File type not allowed: %s", declared)
	}
	if !slices.Contains(exts, ext) {
		return nil, reject(CodeBadType, "Extension %s does not match %s", ext, declared)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, reject(CodeUnreadable, "Could not read the file")
	}
	head = head[:n]
	if http.DetectContentType(head) != declared {
		return nil, reject(CodeContentMismatch, "File content does not match its type")
	}

	key := path.Join(p.Directory, strconv.FormatInt(owner, 10), uuid.NewString()+ext)
	url, err := store.Put(ctx, key, io.MultiReader(bytes.NewReader(head), file), header.Size, declared)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	return &Result{Key: key, Size: header.Size, MIMEType: declared, URL: url}, nil
}
