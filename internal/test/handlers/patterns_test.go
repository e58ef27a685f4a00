package handlers_test

import (
	"bytes"
	"database/sql/driver"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rachmat-backend/internal/database"
	"rachmat-backend/internal/handlers"
	"rachmat-backend/internal/storage"
)

var uploadDesignerID = uuid.MustParse("cccccccc-cccc-cccc-cccc-cccccccccccc")

// jsonArg matches an exec argument whose JSON encoding contains substr.
type jsonArg struct {
	substr string
}

func (m jsonArg) Match(v driver.Value) bool {
	data, ok := v.([]byte)
	return ok && strings.Contains(string(data), m.substr)
}

func newPatternsRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handler := handlers.NewPatternsHandler(database.NewClientWithDB(db), storage.NewMem())

	router := gin.New()
	router.POST("/patterns/:pattern_id/files", setUser(uploadDesignerID), handler.UploadPatternFile)
	return router, mock
}

func uploadFile(router *gin.Engine, patternID uuid.UUID, filename string, data []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", filename)
	part.Write(data)
	writer.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/patterns/"+patternID.String()+"/files", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)
	return w
}

func TestUploadPatternFile_FirstFileIsPrimary(t *testing.T) {
	router, mock := newPatternsRouter(t)
	patternID := uuid.New()

	mock.ExpectQuery("FROM patterns").WithArgs(patternID).
		WillReturnRows(patternRow(patternID, uploadDesignerID, "Rose Border", 2000, true, []byte("[]")))
	mock.ExpectExec("UPDATE patterns").
		WithArgs(jsonArg{`"primary":true`}, patternID, uploadDesignerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	stored := []byte(`[{"path":"patterns/x/rose.dst","original_name":"rose.dst","format":"dst","size":11,"primary":true}]`)
	mock.ExpectQuery("FROM patterns").WithArgs(patternID).
		WillReturnRows(patternRow(patternID, uploadDesignerID, "Rose Border", 2000, true, stored))

	w := uploadFile(router, patternID, "rose.dst", []byte("stitch-data"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPatternFile_LaterFileIsNotPrimary(t *testing.T) {
	router, mock := newPatternsRouter(t)
	patternID := uuid.New()

	existing := []byte(`[{"path":"patterns/x/rose.dst","original_name":"rose.dst","format":"dst","size":11,"primary":true}]`)
	mock.ExpectQuery("FROM patterns").WithArgs(patternID).
		WillReturnRows(patternRow(patternID, uploadDesignerID, "Rose Border", 2000, true, existing))
	mock.ExpectExec("UPDATE patterns").
		WithArgs(jsonArg{`"primary":false`}, patternID, uploadDesignerID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM patterns").WithArgs(patternID).
		WillReturnRows(patternRow(patternID, uploadDesignerID, "Rose Border", 2000, true, existing))

	w := uploadFile(router, patternID, "rose.pes", []byte("stitch-data"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPatternFile_OtherDesignersPattern(t *testing.T) {
	router, mock := newPatternsRouter(t)
	patternID := uuid.New()

	mock.ExpectQuery("FROM patterns").WithArgs(patternID).
		WillReturnRows(patternRow(patternID, uuid.New(), "Rose Border", 2000, true, []byte("[]")))

	w := uploadFile(router, patternID, "rose.dst", []byte("stitch-data"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
