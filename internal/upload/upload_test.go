package upload

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PauloHFS/hcportal/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newStore(t *testing.T) (*storage.LocalStore, string) {
	t.Helper()
	root := t.TempDir()
	s, err := storage.NewLocal(root, "/storage/")
	if err != nil {
		t.Fatal(err)
	}
	return s, root
}

func multipartRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(content)
	} else {
		_ = writer.WriteField("test", "value")
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func expectCode(t *testing.T, err error, code Code) {
	t.Helper()
	rej, ok := AsRejection(err)
	require.True(t, ok, "expected a rejection, got %v", err)
	assert.Equal(t, code, rej.Code)
}

func save(t *testing.T, req *http.Request, p Policy, store storage.Store) (*Result, error) {
	t.Helper()
	return Save(context.Background(), req, "avatar", 42, p, store)
}

func TestSave_ValidImage(t *testing.T) {
	store, root := newStore(t)
	req := multipartRequest(t, "avatar", "me.PNG", "image/png", pngHeader)

	res, err := save(t, req, AvatarPolicy, store)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.URL, "/storage/avatars/42/"), res.URL)
	assert.True(t, strings.HasSuffix(res.URL, ".png"), res.URL)
	assert.Equal(t, "image/png", res.MIMEType)

	saved, err := os.ReadFile(filepath.Join(root, res.Key))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, saved, "stored content differs from upload")
}

func TestSave_Rejections(t *testing.T) {
	small := AvatarPolicy
	small.MaxSize = 10

	tests := []struct {
		name        string
		filename    string
		contentType string
		content     []byte
		policy      Policy
		want        Code
		message     string
	}{
		{"too large", "large.png", "image/png", bytes.Repeat([]byte("x"), 20), small, CodeTooLarge, ""},
		{"executable", "test.exe", "image/png", pngHeader, AvatarPolicy, CodeBadExtension, "Extension not allowed: .exe"},
		{"pdf declared", "doc.png", "application/pdf", pngHeader, AvatarPolicy, CodeBadType, ""},
		{"extension of another type", "photo.jpg", "image/png", pngHeader, AvatarPolicy, CodeBadType, "Extension .jpg does not match image/png"},
		{"html disguised as png", "fake.png", "image/png", []byte("<html>not an image</html>"), AvatarPolicy, CodeContentMismatch, "File content does not match its type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, root := newStore(t)
			req := multipartRequest(t, "avatar", tt.filename, tt.contentType, tt.content)

			_, err := save(t, req, tt.policy, store)
			expectCode(t, err, tt.want)
			if tt.message != "" {
				rej, _ := AsRejection(err)
				assert.Equal(t, tt.message, rej.Message)
			}

			entries, _ := os.ReadDir(root)
			assert.Empty(t, entries, "rejected files must not reach the store")
		})
	}
}

func TestSave_NoFile(t *testing.T) {
	store, _ := newStore(t)
	_, err := save(t, multipartRequest(t, "", "", "", nil), AvatarPolicy, store)
	expectCode(t, err, CodeNoFile)
}

func TestAsRejection(t *testing.T) {
	_, ok := AsRejection(fmt.Errorf("wrapped: %w", reject(CodeNoFile, "x")))
	assert.True(t, ok)

	_, ok = AsRejection(nil)
	assert.False(t, ok)

	_, ok = AsRejection(os.ErrNotExist)
	assert.False(t, ok)
}

func TestAvatarPolicyTypesHaveExtensions(t *testing.T) {
	assert.EqualValues(t, 5*1024*1024, AvatarPolicy.MaxSize)
	for mime, exts := range AvatarPolicy.Types {
		assert.NotEmpty(t, exts, mime)
		for _, ext := range exts {
			assert.True(t, strings.HasPrefix(ext, "."), ext)
		}
	}
}
