package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	mediaapp "github.com/uv/backend/internal/application/media"
	"github.com/uv/backend/internal/domain/media"
	"github.com/uv/backend/internal/infrastructure/persistence"
	"github.com/uv/backend/internal/infrastructure/persistence/models"
	"github.com/uv/backend/internal/infrastructure/storage"
	"github.com/uv/backend/internal/interfaces/http/dto"
	"github.com/uv/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mediaTestEnv wires the real media services over sqlite and in-memory storage
type mediaTestEnv struct {
	db       *gorm.DB
	storage  *storage.MemoryStorage
	registry *mediaapp.Registry
	files    *mediaapp.MediaFileService
	uploads  *mediaapp.UploadService
	entities *mediaapp.EntityMediaService
	sweeper  *mediaapp.OrphanSweepService
}

func newMediaTestEnv(t *testing.T) *mediaTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.MediaFileModel{},
		&models.UserModel{},
		&models.TrackModel{},
		&models.PlaylistModel{},
	))

	logger := zap.NewNop()
	registry := mediaapp.NewRegistry(persistence.NewGormMediaRecordRepository(db))
	store := storage.NewMemoryStorage(storage.WithLogger(logger), storage.WithRecordRemover(registry))
	uploads := mediaapp.NewUploadService(media.NewValidator(media.DefaultPolicies()), store, registry, logger)
	binder := mediaapp.NewBinder(store, logger)

	return &mediaTestEnv{
		db:       db,
		storage:  store,
		registry: registry,
		files:    mediaapp.NewMediaFileService(registry, store, logger),
		uploads:  uploads,
		entities: mediaapp.NewEntityMediaService(persistence.NewGormBindingRepository(db), uploads, binder, logger),
		sweeper:  mediaapp.NewOrphanSweepService(registry, store, mediaapp.DefaultOrphanSweepConfig(), logger),
	}
}

// asUser stands in for the JWT middleware
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.JWTUserIDKey, userID.String())
		}
		c.Next()
	}
}

func (e *mediaTestEnv) seedUser(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now().UTC()
	require.NoError(t, e.db.Create(&models.UserModel{
		BaseModel: models.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		Username:  "u-" + id.String()[:8],
	}).Error)
	return id
}

func (e *mediaTestEnv) seedTrack(t *testing.T, owner uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now().UTC()
	require.NoError(t, e.db.Create(&models.TrackModel{
		BaseModel: models.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		UserID:    owner,
		Title:     "night drive",
	}).Error)
	return id
}

// multipartFile builds a request body with a single "file" part
func multipartFile(t *testing.T, fileName, mimeType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeData unmarshals the data field of a success envelope into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var envelope struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	if out != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return envelope.Response
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error
}
